package ekk

import (
	"context"
	"math"

	"simplexcore/basis"
	"simplexcore/factor"
	"simplexcore/status"
)

// primalStepResult tags what primalRatioTestAndPivot did, so runPrimal
// knows whether to recompute, stop, or continue.
type primalStepResult int

const (
	primalStepPivoted primalStepResult = iota
	primalStepBoundFlip
	primalStepUnbounded
)

// phase1Cost builds the synthetic sum-of-infeasibilities cost of spec
// §4.5 primal phase 1: +-1 on each basic variable currently outside its
// base bounds, zero everywhere else, so the usual reduced-cost machinery
// drives the basis toward feasibility.
func (e *Engine) phase1Cost() []float64 {
	n, m := e.Model.NumCol, e.Model.NumRow
	tol := e.Opts.PrimalFeasibilityTolerance
	cost := make([]float64, n+m)
	for pos, v := range e.Basis.BasicIndex {
		val := e.Work.BaseValue[pos]
		lo, hi := e.Work.BaseLower[pos], e.Work.BaseUpper[pos]
		switch {
		case val < lo-tol:
			cost[v] = -1
		case val > hi+tol:
			cost[v] = 1
		}
	}
	return cost
}

// choosePrimalEntering applies Dantzig's most-improving rule over the
// eligible nonbasic variables: a variable at its lower bound (move up)
// is eligible when its reduced cost is negative, at its upper bound
// (move down) when positive, and a free variable in either direction,
// spec §4.6.
func (e *Engine) choosePrimalEntering(dual []float64) (q int, dir float64, ok bool) {
	tol := e.Opts.DualFeasibilityTolerance
	n, m := e.Model.NumCol, e.Model.NumRow
	best := -1
	bestScore := tol
	bestDir := 0.0
	for v := 0; v < n+m; v++ {
		if e.Basis.NonbasicFlag[v] == 0 {
			continue
		}
		d := dual[v]
		switch e.Basis.NonbasicMove[v] {
		case basis.MoveUp:
			if d < -tol && -d > bestScore {
				best, bestScore, bestDir = v, -d, 1
			}
		case basis.MoveDown:
			if d > tol && d > bestScore {
				best, bestScore, bestDir = v, d, -1
			}
		default:
			if d < -tol && -d > bestScore {
				best, bestScore, bestDir = v, -d, 1
			} else if d > tol && d > bestScore {
				best, bestScore, bestDir = v, d, -1
			}
		}
	}
	return best, bestDir, best >= 0
}

// primalRatioTestAndPivot performs the primal ratio test of spec §4.6:
// FTRAN the entering column, find the tightest basic-variable bound (or
// the entering variable's own opposite bound, for a bound flip), and
// commit the pivot or report unboundedness.
func (e *Engine) primalRatioTestAndPivot(q int, dir float64) (primalStepResult, error) {
	col, err := e.pivotColumnFtran(q)
	if err != nil {
		return 0, err
	}
	tol := e.Opts.PrimalFeasibilityTolerance
	thetaBound := math.Inf(1)
	lower, upper := e.Work.WorkLower[q], e.Work.WorkUpper[q]
	if lower > -e.Opts.Infinity && upper < e.Opts.Infinity {
		thetaBound = upper - lower
	}

	theta := math.Inf(1)
	leavingPos := -1
	leavingMoveOut := basis.MoveZero
	for pos, a := range col {
		a *= dir
		lo, hi := e.Work.BaseLower[pos], e.Work.BaseUpper[pos]
		val := e.Work.BaseValue[pos]
		var ratio float64
		var moveOut basis.Move
		switch {
		case a > tol:
			// value decreasing: a row already infeasible above its
			// upper bound is driven there first (it becomes feasible
			// and must stop, not run on down to its lower bound).
			// An infinite limiting bound never stops the step.
			if val > hi+tol {
				ratio, moveOut = (val-hi)/a, basis.MoveDown
			} else {
				if lo <= -e.Opts.Infinity {
					continue
				}
				ratio, moveOut = (val-lo)/a, basis.MoveUp
			}
		case a < -tol:
			if val < lo-tol {
				ratio, moveOut = (val-lo)/a, basis.MoveUp
			} else {
				if hi >= e.Opts.Infinity {
					continue
				}
				ratio, moveOut = (val-hi)/a, basis.MoveDown
			}
		default:
			continue
		}
		if ratio < 0 {
			ratio = 0
		}
		if ratio < theta {
			theta, leavingPos, leavingMoveOut = ratio, pos, moveOut
		}
	}

	if leavingPos < 0 || thetaBound < theta {
		if math.IsInf(thetaBound, 1) {
			e.hasPrimalRay = true
			e.rayVar = q
			e.raySign = dir
			return primalStepUnbounded, nil
		}
		flipDelta := dir * thetaBound
		for pos := range e.Work.BaseValue {
			e.Work.BaseValue[pos] -= col[pos] * flipDelta
		}
		e.flipBound(q)
		return primalStepBoundFlip, nil
	}

	delta := dir * theta
	for pos := range e.Work.BaseValue {
		e.Work.BaseValue[pos] -= col[pos] * delta
	}
	enteringValue := e.Work.WorkValue[q] + delta
	e.Work.BaseValue[leavingPos] = enteringValue

	discrepant := false
	if rowEp, berr := e.unitBtran(leavingPos); berr == nil {
		full := e.fullTableauRow(rowEp)
		discrepant = e.Factor.CheckPivotDiscrepancy(col[leavingPos], full[q], e.Opts.PivotDiscrepancyTolerance)
	}

	e.updatePivots(q, leavingPos, leavingMoveOut)
	hint := e.Factor.Update(col, leavingPos)
	if discrepant {
		hint = factor.RebuildPivotDiscrepancy
	}
	if err := e.afterFactorUpdate(col, hint); err != nil {
		return 0, err
	}
	return primalStepPivoted, nil
}

// runPrimal drives the primal simplex of spec §4.5: phase 1 minimizes
// synthetic infeasibility until the basis is feasible, then phase 2
// optimizes the real cost, bailing out on context cancellation, time, or
// iteration limits.
func (e *Engine) runPrimal(ctx context.Context) error {
	if err := e.computePrimal(); err != nil {
		return err
	}
	e.computeSimplexPrimalInfeasible()
	inPhase1 := e.Info.PrimalInfeasibility.Num > 0

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

		var dual []float64
		var err error
		if inPhase1 {
			dual, err = e.computeDualFor(e.phase1Cost())
		} else {
			err = e.computeDual()
			dual = e.Work.WorkDual
		}
		if err != nil {
			return err
		}

		q, dir, ok := e.choosePrimalEntering(dual)
		if !ok {
			if inPhase1 {
				if e.Info.PrimalInfeasibility.Num > 0 {
					e.Info.ModelStatus = status.Infeasible
					return nil
				}
				inPhase1 = false
				continue
			}
			e.Info.ModelStatus = status.Optimal
			e.Info.PrimalSolutionValid = true
			e.Info.DualSolutionValid = true
			e.Info.BasisValid = true
			e.Info.ObjectiveValue = e.computePrimalObjectiveValue()
			return nil
		}

		result, err := e.primalRatioTestAndPivot(q, dir)
		if err != nil {
			return err
		}
		switch result {
		case primalStepUnbounded:
			e.Info.ModelStatus = status.Unbounded
			return nil
		case primalStepBoundFlip:
			e.computeSimplexPrimalInfeasible()
		case primalStepPivoted:
			e.Info.SimplexIterationCount++
			e.computeSimplexPrimalInfeasible()
		}
	}
}

