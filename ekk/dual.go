package ekk

import (
	"context"
	"math"

	"simplexcore/basis"
	"simplexcore/factor"
	"simplexcore/status"
	"simplexcore/workarray"
)

// dualStepResult tags what dualStep did, mirroring primalStepResult.
type dualStepResult int

const (
	dualStepPivoted dualStepResult = iota
	dualStepOptimal
	dualStepInfeasible
	dualStepUnbounded
)

// chooseDualLeaving picks the most primal-infeasible basic row by Devex
// weight (gamma), spec §4.6's Devex-weighted leaving-variable rule:
// maximize violation^2 / gamma[pos].
func (e *Engine) chooseDualLeaving() (pos int, violation float64, ok bool) {
	tol := e.Opts.PrimalFeasibilityTolerance
	best := -1
	bestScore := 0.0
	bestViol := 0.0
	for p, v := range e.Work.BaseValue {
		lo, hi := e.Work.BaseLower[p], e.Work.BaseUpper[p]
		var viol float64
		switch {
		case v < lo-tol:
			viol = v - lo // negative
		case v > hi+tol:
			viol = v - hi // positive
		default:
			continue
		}
		gamma := 1.0
		if p < len(e.edgeWeight) && e.edgeWeight[p] > 0 {
			gamma = e.edgeWeight[p]
		}
		score := viol * viol / gamma
		if score > bestScore {
			best, bestScore, bestViol = p, score, viol
		}
	}
	return best, bestViol, best >= 0
}

// dualTarget returns the leaving direction sign s used by the unified
// entering-column eligibility test of spec §4.6: s=+1 when the basic
// variable is below its lower bound (it must increase, so entering
// columns with a positive effect on row p are eligible), s=-1 when it is
// above its upper bound.
func dualTarget(violation float64) float64 {
	if violation < 0 {
		return 1
	}
	return -1
}

// chooseDualEntering runs the dual ratio test over the priced row: for
// each nonbasic j, its eligibility under leaving-direction s is
// elig_j = -moveSigned_j * alphaRow[j] * s; only elig_j > tol candidates
// are considered, and the minimizer of |dual_j|/elig_j is chosen (spec
// §4.6's "unified entering-column eligibility formula").
func (e *Engine) chooseDualEntering(fullRow []float64, s float64) (q int, ok bool) {
	tol := e.Opts.PivotDiscrepancyTolerance
	n, m := e.Model.NumCol, e.Model.NumRow
	best := -1
	bestRatio := math.Inf(1)
	for v := 0; v < n+m; v++ {
		if e.Basis.NonbasicFlag[v] == 0 {
			continue
		}
		moveSigned := float64(e.Basis.NonbasicMove[v])
		if moveSigned == 0 {
			continue // free nonbasic never re-enters via the dual ratio test
		}
		elig := -moveSigned * fullRow[v] * s
		if elig <= tol {
			continue
		}
		ratio := math.Abs(e.Work.WorkDual[v]) / elig
		if ratio < bestRatio {
			best, bestRatio = v, ratio
		}
	}
	return best, best >= 0
}

// updateDevexWeights applies the standard approximate Devex update after
// a pivot at basic position p with pivot element `pivot` in the FTRAN'd
// entering column alphaCol, spec §4.6.
func (e *Engine) updateDevexWeights(p int, alphaCol []float64, pivot float64) {
	if len(e.edgeWeight) != len(alphaCol) {
		e.edgeWeight = make([]float64, len(alphaCol))
		for i := range e.edgeWeight {
			e.edgeWeight[i] = 1
		}
	}
	gammaP := e.edgeWeight[p]
	for i, a := range alphaCol {
		if i == p || a == 0 {
			continue
		}
		ratio := a / pivot
		cand := ratio * ratio * gammaP
		if cand > e.edgeWeight[i] {
			e.edgeWeight[i] = cand
		}
	}
	newGammaP := gammaP / (pivot * pivot)
	if newGammaP < 1 {
		newGammaP = 1
	}
	e.edgeWeight[p] = newGammaP
}

// dualStep performs one outer iteration of the dual simplex: pick the
// leaving row, price the row, pick the entering column by the dual ratio
// test, and commit the pivot, spec §4.5/§4.6.
func (e *Engine) dualStep() (dualStepResult, error) {
	p, violation, ok := e.chooseDualLeaving()
	if !ok {
		return dualStepOptimal, nil
	}
	s := dualTarget(violation)

	rowEp, err := e.unitBtran(p)
	if err != nil {
		return 0, err
	}
	full := e.fullTableauRow(rowEp)

	q, ok := e.chooseDualEntering(full, s)
	if !ok {
		e.rayVar = p
		e.raySign = s
		return dualStepInfeasible, nil
	}

	col, err := e.pivotColumnFtran(q)
	if err != nil {
		return 0, err
	}
	pivot := col[p]
	if math.Abs(pivot) <= e.Opts.PivotDiscrepancyTolerance {
		return dualStepUnbounded, nil
	}

	discrepant := e.Factor.CheckPivotDiscrepancy(pivot, full[q], e.Opts.PivotDiscrepancyTolerance)

	theta := (e.Work.BaseValue[p] - clampToNearestBound(e.Work.BaseValue[p], e.Work.BaseLower[p], e.Work.BaseUpper[p])) / pivot
	for pos := range e.Work.BaseValue {
		e.Work.BaseValue[pos] -= col[pos] * theta
	}
	enteringValue := e.Work.WorkValue[q] + theta
	e.Work.BaseValue[p] = enteringValue

	var moveOut basis.Move
	if violation < 0 {
		moveOut = basis.MoveUp // outVar was below its lower bound, leaves there
	} else {
		moveOut = basis.MoveDown // outVar was above its upper bound, leaves there
	}

	e.updateDevexWeights(p, col, pivot)
	e.updatePivots(q, p, moveOut)
	hint := e.Factor.Update(col, p)
	if discrepant {
		hint = factor.RebuildPivotDiscrepancy
	}
	if err := e.afterFactorUpdate(col, hint); err != nil {
		return 0, err
	}
	return dualStepPivoted, nil
}

// clampToNearestBound returns whichever of lo/hi the value v violates,
// i.e. the bound it is being driven back onto.
func clampToNearestBound(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// runDual drives the dual simplex of spec §4.5. When boundRewrite is set
// (no cost perturbation allowed), it first runs phase 1 against the
// synthetic bounds workarray.InitialiseBound installs for the dual-phase1
// case, which trivially satisfies the unified entering-column test for
// the logical starting basis; once that converges (synthetic primal
// feasibility, meaning dual feasibility of the real costs is no longer
// in question) the true bounds are restored and phase 2 runs the same
// stepping loop until primal-feasible (optimal) or no entering column
// exists (infeasible/unbounded).
func (e *Engine) runDual(ctx context.Context, boundRewrite bool) error {
	if err := e.computeDual(); err != nil {
		return err
	}

	if boundRewrite {
		e.Work.InitialiseBound(workarray.Dual, workarray.Phase1, false, 0, e.rand())
		e.Basis.SetNonbasicMove(e.Work.WorkLower, e.Work.WorkUpper)
		e.Work.InitialiseNonbasicValueAndMove(e.Basis)
		if err := e.computePrimal(); err != nil {
			return err
		}
		if err := e.runDualStepLoop(ctx, false); err != nil {
			return err
		}
		if e.Info.ModelStatus != status.NotSet {
			return nil // phase 1 itself bailed out or hit a dead end
		}
		e.Work.InitialiseLpColBound(e.Model)
		e.Work.InitialiseLpRowBound(e.Model)
		e.Basis.SetNonbasicMove(e.Work.WorkLower, e.Work.WorkUpper)
		e.Work.InitialiseNonbasicValueAndMove(e.Basis)
		if err := e.computePrimal(); err != nil {
			return err
		}
	} else {
		if err := e.computePrimal(); err != nil {
			return err
		}
	}

	return e.runDualStepLoop(ctx, true)
}

// runDualStepLoop runs dualStep to convergence, reporting final status
// only when final is true (a phase-1 bound-rewrite pass reports nothing,
// since its "optimal" just means ready for phase 2).
func (e *Engine) runDualStepLoop(ctx context.Context, final bool) error {
	for {
		select {
		case <-ctx.Done():
			e.Info.ModelStatus = status.Unknown
			return ctx.Err()
		default:
		}
		if lim := e.bailoutCheck(); lim != status.NotSet {
			e.Info.ModelStatus = lim
			e.solveBailoutLatched = true
			return nil
		}

		result, err := e.dualStep()
		if err != nil {
			return err
		}
		switch result {
		case dualStepOptimal:
			if final {
				e.Info.ModelStatus = status.Optimal
				e.Info.PrimalSolutionValid = true
				e.Info.DualSolutionValid = true
				e.Info.BasisValid = true
				e.Info.ObjectiveValue = e.computePrimalObjectiveValue()
			}
			return nil
		case dualStepInfeasible:
			if final {
				e.Info.ModelStatus = status.UnboundedOrInfeasible
				e.hasDualRay = true
			}
			return nil
		case dualStepUnbounded:
			if final {
				e.Info.ModelStatus = status.UnboundedOrInfeasible
			}
			return nil
		case dualStepPivoted:
			e.Info.SimplexIterationCount++
			if err := e.computeDual(); err != nil {
				return err
			}
		}
	}
}
