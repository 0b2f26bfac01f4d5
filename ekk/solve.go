package ekk

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"simplexcore/status"
	"simplexcore/workarray"
)

// Solve runs spec §4.5's top-level solve procedure: validate state,
// ensure a factorization, initialise the work arrays for the chosen
// algorithm, run the driver, and clean up (un-perturb, report).
func (e *Engine) Solve(ctx context.Context) error {
	if e.Model == nil {
		return errors.New("ekk: Solve with no LP installed")
	}
	e.startTime = time.Now()
	e.calledReturnFromSolve = false

	if e.Info.ModelStatus.IsLimitStatus() && !e.solveBailoutLatched {
		// A prior solve latched a limit status; spec §4.5 requires the
		// next entry see Optimal, a limit status, or the dual-objective
		// bound status again rather than silently resuming mid-algorithm.
		return errors.New("ekk: Solve re-entered after a latched limit status without ZeroIterationCounts/re-initialisation")
	}
	e.solveBailoutLatched = false

	if !e.haveBasis {
		e.SetLogicalBasis()
	}
	if !e.hasFreshInvert {
		if _, err := e.Factorize(); err != nil {
			return errors.Wrap(err, "ekk: Solve")
		}
	}

	strategy := e.resolveStrategy()
	algo := workarray.Dual
	if strategy == StrategyPrimal {
		algo = workarray.Primal
	}

	e.Work.InitialiseLpColCost(e.Model)
	e.Work.InitialiseLpRowCost()
	e.Work.InitialiseLpColBound(e.Model)
	e.Work.InitialiseLpRowBound(e.Model)

	allowCostPerturb := algo == workarray.Dual && e.Opts.AllowDualPerturbation
	e.Work.InitialiseCost(algo, workarray.Phase2, allowCostPerturb, e.Opts.PerturbationMultiplier, e.rand())
	e.perturbedCost = allowCostPerturb

	allowBoundPerturb := algo == workarray.Primal && e.Opts.AllowPrimalPerturbation
	if allowBoundPerturb {
		e.Work.InitialiseBound(algo, workarray.Phase2, true, 1e-7*e.Opts.PerturbationMultiplier, e.rand())
		e.perturbedBound = true
	}

	e.Basis.SetNonbasicMove(e.Work.WorkLower, e.Work.WorkUpper)
	e.Work.InitialiseNonbasicValueAndMove(e.Basis)

	e.hasPrimalRay = false
	e.hasDualRay = false
	e.Info.Invalidate()
	e.updatesSinceRebuild = 0
	e.takeSnapshot()

	var runErr error
	switch strategy {
	case StrategyPrimal:
		runErr = e.runPrimal(ctx)
	default:
		boundRewrite := !e.Opts.AllowDualPerturbation
		runErr = e.runDual(ctx, boundRewrite)
		if runErr == nil && e.Info.ModelStatus == status.UnboundedOrInfeasible {
			runErr = e.disambiguateWithPrimal(ctx)
		}
	}
	if runErr != nil {
		return runErr
	}

	e.calledReturnFromSolve = true
	return e.cleanup(ctx)
}

// disambiguateWithPrimal implements spec §4.5 step 8: the dual simplex
// can conclude UnboundedOrInfeasible without distinguishing the two
// (no entering column at a primal-infeasible basic row proves only that
// the dual is unbounded, which itself implies the primal is unbounded
// or infeasible). Re-running primal from the same basis resolves it:
// primal finds an unbounded ray, or converges, or is genuinely
// infeasible. The dual ray recorded by the dual step is kept only when
// primal concludes Infeasible.
func (e *Engine) disambiguateWithPrimal(ctx context.Context) error {
	hadDualRay := e.hasDualRay
	e.hasDualRay = false
	if e.perturbedCost {
		e.Work.InitialiseLpColCost(e.Model)
		e.Work.InitialiseLpRowCost()
		e.perturbedCost = false
	}
	e.Info.ModelStatus = status.NotSet
	err := e.runPrimal(ctx)
	if err == nil && e.Info.ModelStatus == status.Infeasible {
		e.hasDualRay = hadDualRay
	}
	return err
}

// resolveStrategy turns StrategyChoose into a concrete strategy, spec
// §4.5/§5: primal simplex when the starting basis is primal feasible
// under the unperturbed bounds, otherwise dual simplex, escalating to
// the parallel PRICE variants only when both parallelism is enabled and
// enough threads are available.
func (e *Engine) resolveStrategy() Strategy {
	if e.Opts.Strategy != StrategyChoose {
		return e.Opts.Strategy
	}
	e.Work.InitialiseLpColBound(e.Model)
	e.Work.InitialiseLpRowBound(e.Model)
	e.Basis.SetNonbasicMove(e.Work.WorkLower, e.Work.WorkUpper)
	e.Work.InitialiseNonbasicValueAndMove(e.Basis)
	if e.computePrimal() == nil {
		e.computeSimplexPrimalInfeasible()
		if e.Info.PrimalInfeasibility.Num == 0 {
			return StrategyPrimal
		}
	}
	if e.Opts.ParallelismEnabled && e.Opts.AvailableThreads >= e.Opts.DualMultiMinThreads {
		return StrategyDualMulti
	}
	if e.Opts.ParallelismEnabled && e.Opts.AvailableThreads >= e.Opts.DualTasksMinThreads {
		return StrategyDualTasks
	}
	return StrategyDualSerial
}

// cleanup implements spec §4.5 step 9: un-perturb, and if the main
// driver left the model status at NotSet (a one-sided residual
// infeasibility it could not itself resolve), dispatch the actual
// cleanup re-solve of original_source/src/simplex/HEkk.cpp:171-209
// before reporting. Whatever algorithm concludes Optimal gets its
// solution re-verified within tolerance here rather than trusting a
// perturbed objective as exact.
func (e *Engine) cleanup(ctx context.Context) error {
	if err := e.unperturb(); err != nil {
		return err
	}

	if e.Info.ModelStatus == status.NotSet {
		if err := e.cleanupRerun(ctx); err != nil {
			return err
		}
	}

	if e.Info.ModelStatus != status.Optimal {
		return nil
	}

	e.computeSimplexPrimalInfeasible()
	e.computeSimplexDualInfeasible()
	e.Info.ObjectiveValue = e.computePrimalObjectiveValue()
	return nil
}

// unperturb reverses the cost/bound perturbation Solve applied for the
// main driver, spec §4.5 step 9's "remove perturbation" half of cleanup.
// A no-op if neither was ever applied.
func (e *Engine) unperturb() error {
	if e.perturbedCost {
		e.Work.InitialiseLpColCost(e.Model)
		e.Work.InitialiseLpRowCost()
		if err := e.computeDual(); err != nil {
			return err
		}
		freeCount := 0
		if _, err := e.correctDual(&freeCount); err != nil {
			e.Info.DualSolutionValid = false
		}
		e.perturbedCost = false
	}

	if e.perturbedBound {
		e.Work.InitialiseLpColBound(e.Model)
		e.Work.InitialiseLpRowBound(e.Model)
		e.Work.InitialiseNonbasicValueAndMove(e.Basis)
		if err := e.computePrimal(); err != nil {
			return err
		}
		e.perturbedBound = false
	}
	return nil
}

// cleanupRerun implements the re-solve itself: a basis with primal
// infeasibility only is handed to dual phase 2 with fresh Devex weights
// and no cost perturbation (it must already be dual feasible, just not
// primal feasible); a basis with dual infeasibility only is handed to
// primal phase 2 with no bound perturbation (already primal feasible,
// just not dual feasible). Exactly one side can be infeasible here,
// since the main driver only leaves NotSet on that kind of dead end.
func (e *Engine) cleanupRerun(ctx context.Context) error {
	e.computeSimplexPrimalInfeasible()
	if e.Info.PrimalInfeasibility.Num > 0 {
		e.edgeWeight = nil
		return e.runDual(ctx, false)
	}
	return e.runPrimal(ctx)
}
