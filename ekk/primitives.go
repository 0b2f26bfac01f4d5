package ekk

import (
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"

	"simplexcore/basis"
	"simplexcore/factor"
	"simplexcore/lp"
	"simplexcore/price"
	"simplexcore/status"
)

// Factorize builds a fresh factorization from the current basis,
// repairing rank deficiency by substituting unit columns (spec §4.2/
// §4.3) rather than failing. Used by Solve's initial factor and after
// any engine-level basis replacement.
func (e *Engine) Factorize() (int, error) {
	if !e.haveBasis {
		return 0, ErrNoBasis
	}
	k, err := e.Factor.Build(e.Model, e.Basis)
	if err != nil {
		return 0, err
	}
	if k > 0 {
		e.Basis.HandleRankDeficiency(e.Factor.NoPvR, e.Factor.NoPvC)
		k2, err := e.Factor.Build(e.Model, e.Basis)
		if err != nil {
			return 0, err
		}
		if k2 > 0 {
			return 0, errors.Errorf("ekk: basis still rank deficient after repair (%d columns)", k2)
		}
	}
	e.hasFreshInvert = true
	e.hasFreshRebuild = true
	e.takeSnapshot()
	return k, nil
}

// FactorizeOnlyFromKnownBasis implements the "only_from_known_basis"
// factor mode of spec §4.7/§8 scenario 3: a rank-deficient result is an
// Error, not silently repaired.
func (e *Engine) FactorizeOnlyFromKnownBasis() error {
	if !e.haveBasis {
		return ErrNoBasis
	}
	k, err := e.Factor.Build(e.Model, e.Basis)
	if err != nil {
		return err
	}
	if k > 0 {
		return errors.Errorf("ekk: basis is rank-deficient (%d columns)", k)
	}
	e.hasFreshInvert = true
	e.hasFreshRebuild = true
	e.takeSnapshot()
	return nil
}

// pivotColumnFtran builds a_q from A (or the logical's identity column
// if q is a slack) and replaces it by B^-1 a_q, spec §4.6.
func (e *Engine) pivotColumnFtran(q int) ([]float64, error) {
	if !e.hasFreshInvert {
		return nil, ErrNoInvert
	}
	m, n := e.Model.NumRow, e.Model.NumCol
	col := make([]float64, m)
	if q < n {
		e.Model.Matrix.ColumnInto(q, col)
	} else {
		col[q-n] = 1
	}
	e.Factor.Ftran(col, 0)
	return col, nil
}

// unitBtran produces (B^-T) e_p, spec §4.6.
func (e *Engine) unitBtran(p int) ([]float64, error) {
	if !e.hasFreshInvert {
		return nil, ErrNoInvert
	}
	rowEp := make([]float64, e.Model.NumRow)
	rowEp[p] = 1
	e.Factor.Btran(rowEp, 0)
	return rowEp, nil
}

// tableauRowPrice computes rowAp over structural columns only
// (price.TableauRowPrice's contract), choosing a parallel fan-out when
// the selected strategy and available threads call for it (spec §5).
func (e *Engine) tableauRowPrice(rowEp []float64) []float64 {
	if e.parallelPriceEligible() {
		return e.tableauRowPricePar(rowEp)
	}
	return price.TableauRowPrice(e.Model, e.Basis, rowEp, e.Opts.PriceStrategy)
}

func (e *Engine) parallelPriceEligible() bool {
	if !e.Opts.ParallelismEnabled {
		return false
	}
	switch e.Opts.Strategy {
	case StrategyDualTasks:
		return e.Opts.AvailableThreads >= e.Opts.DualTasksMinThreads
	case StrategyDualMulti:
		return e.Opts.AvailableThreads >= e.Opts.DualMultiMinThreads
	default:
		return false
	}
}

// tableauRowPricePar fans the column-price sweep out across a short-lived
// worker pool sized to the available threads, spec §5.
func (e *Engine) tableauRowPricePar(rowEp []float64) []float64 {
	n := e.Model.NumCol
	rowAp := make([]float64, n)
	workers := e.Opts.AvailableThreads
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}
	chunk := (n + workers - 1) / workers
	m := e.Model.Matrix
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		if lo >= n {
			break
		}
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for j := lo; j < hi; j++ {
				start, end := m.Start[j], m.Start[j+1]
				var s float64
				for k := start; k < end; k++ {
					s += m.Value[k] * rowEp[m.Index[k]]
				}
				rowAp[j] = s
			}
		}(lo, hi)
	}
	wg.Wait()
	for j := 0; j < n; j++ {
		if e.Basis.NonbasicFlag[j] == 0 {
			rowAp[j] = 0
		}
	}
	return rowAp
}

// fullTableauRow extends tableauRowPrice's structural-only result with
// the logical columns' contribution (each a unit column, so its priced
// entry is simply rowEp at that row), giving a length n+m row usable for
// both PRICE into duals and the dual ratio test.
func (e *Engine) fullTableauRow(rowEp []float64) []float64 {
	n, m := e.Model.NumCol, e.Model.NumRow
	full := make([]float64, n+m)
	copy(full[:n], e.tableauRowPrice(rowEp))
	copy(full[n:], rowEp)
	return full
}

// computePrimal computes baseValue = B^-1 (−Σ nonbasic contributions),
// spec §4.5 step 3.
func (e *Engine) computePrimal() error {
	if !e.hasFreshInvert {
		return ErrNoInvert
	}
	n, m := e.Model.NumCol, e.Model.NumRow
	rhs := make([]float64, m)
	col := make([]float64, m)
	for v := 0; v < n+m; v++ {
		if e.Basis.NonbasicFlag[v] == 0 {
			continue
		}
		val := e.Work.WorkValue[v]
		if val == 0 {
			continue
		}
		for i := range col {
			col[i] = 0
		}
		if v < n {
			e.Model.Matrix.ColumnInto(v, col)
		} else {
			col[v-n] = 1
		}
		for i := 0; i < m; i++ {
			rhs[i] -= val * col[i]
		}
	}
	e.Factor.Ftran(rhs, 1)
	copy(e.Work.BaseValue, rhs)
	for pos, v := range e.Basis.BasicIndex {
		e.Work.BaseLower[pos] = e.Work.WorkLower[v]
		e.Work.BaseUpper[pos] = e.Work.WorkUpper[v]
	}
	return nil
}

// computeDualFor computes reduced costs for the given per-variable cost
// vector without touching e.Work.WorkCost/WorkDual; used directly for
// the real cost vector (computeDual) and for primal phase 1's synthetic
// infeasibility cost.
func (e *Engine) computeDualFor(costVec []float64) ([]float64, error) {
	if !e.hasFreshInvert {
		return nil, ErrNoInvert
	}
	n, m := e.Model.NumCol, e.Model.NumRow
	costB := make([]float64, m)
	for pos, v := range e.Basis.BasicIndex {
		costB[pos] = costVec[v]
	}
	e.Factor.Btran(costB, 1)
	full := e.fullTableauRow(costB)
	dual := make([]float64, n+m)
	for v := 0; v < n+m; v++ {
		if e.Basis.NonbasicFlag[v] == 1 {
			dual[v] = costVec[v] - full[v]
		}
	}
	return dual, nil
}

// computeDual computes and stores workDual for the real (current)
// working cost vector, spec §4.5 step 3 / §4.6 tableauRowPrice.
func (e *Engine) computeDual() error {
	dual, err := e.computeDualFor(e.Work.WorkCost)
	if err != nil {
		return err
	}
	copy(e.Work.WorkDual, dual)
	return nil
}

// computeSimplexPrimalInfeasible records the num/max/sum summary of
// basic variables violating their base bounds, spec §4.6.
func (e *Engine) computeSimplexPrimalInfeasible() {
	e.Info.PrimalInfeasibility.Reset()
	tol := e.Opts.PrimalFeasibilityTolerance
	for pos := 0; pos < e.Model.NumRow; pos++ {
		v := e.Work.BaseValue[pos]
		lo, hi := e.Work.BaseLower[pos], e.Work.BaseUpper[pos]
		var viol float64
		switch {
		case v < lo-tol:
			viol = lo - v
		case v > hi+tol:
			viol = v - hi
		}
		e.Info.PrimalInfeasibility.Accumulate(viol)
	}
}

// computeSimplexDualInfeasible records the num/max/sum summary of
// nonbasic variables whose dual sign disagrees with their move, spec
// §4.6.
func (e *Engine) computeSimplexDualInfeasible() {
	e.Info.DualInfeasibility.Reset()
	tol := e.Opts.DualFeasibilityTolerance
	n, m := e.Model.NumCol, e.Model.NumRow
	for v := 0; v < n+m; v++ {
		if e.Basis.NonbasicFlag[v] == 0 {
			continue
		}
		viol := e.dualViolation(v, tol)
		e.Info.DualInfeasibility.Accumulate(viol)
	}
}

func (e *Engine) dualViolation(v int, tol float64) float64 {
	dual := e.Work.WorkDual[v]
	switch e.Basis.NonbasicMove[v] {
	case basis.MoveUp:
		if dual < -tol {
			return -dual
		}
	case basis.MoveDown:
		if dual > tol {
			return dual
		}
	default:
		lower, upper := e.Work.WorkLower[v], e.Work.WorkUpper[v]
		if lower != upper && math.Abs(dual) > tol {
			return math.Abs(dual)
		}
	}
	return 0
}

// computeDualInfeasibleWithFlips is computeSimplexDualInfeasible's
// variant that treats boxed (flippable) variables as always feasible,
// spec §4.6.
func (e *Engine) computeDualInfeasibleWithFlips() status.InfeasibilitySummary {
	var s status.InfeasibilitySummary
	tol := e.Opts.DualFeasibilityTolerance
	n, m := e.Model.NumCol, e.Model.NumRow
	for v := 0; v < n+m; v++ {
		if e.Basis.NonbasicFlag[v] == 0 {
			continue
		}
		lower, upper := e.Work.WorkLower[v], e.Work.WorkUpper[v]
		boxed := lower > -e.Opts.Infinity && upper < e.Opts.Infinity && lower != upper
		if boxed {
			continue
		}
		s.Accumulate(e.dualViolation(v, tol))
	}
	return s
}

// flipBound swaps a boxed nonbasic variable to its other bound in
// place, spec §4.6.
func (e *Engine) flipBound(j int) {
	e.Basis.NonbasicMove[j] = -e.Basis.NonbasicMove[j]
	if e.Basis.NonbasicMove[j] == basis.MoveUp {
		e.Work.WorkValue[j] = e.Work.WorkLower[j]
	} else {
		e.Work.WorkValue[j] = e.Work.WorkUpper[j]
	}
}

// correctDual implements spec §4.6's dual-feasibility repair: flip
// boxed variables whose dual disagrees with their move, perturb cost
// when flipping is not available, or fail if perturbation is disallowed.
// Free variables are counted but left untouched.
func (e *Engine) correctDual(freeCount *int) (objShift float64, err error) {
	tol := e.Opts.DualFeasibilityTolerance
	n, m := e.Model.NumCol, e.Model.NumRow
	costScale := math.Pow(2, float64(e.Model.UserCostScale))
	skipped := 0
	for v := 0; v < n+m; v++ {
		if e.Basis.NonbasicFlag[v] == 0 {
			continue
		}
		lower, upper := e.Work.WorkLower[v], e.Work.WorkUpper[v]
		free := lower <= -e.Opts.Infinity && upper >= e.Opts.Infinity
		dual := e.Work.WorkDual[v]
		if free {
			if math.Abs(dual) >= tol {
				*freeCount++
			}
			continue
		}
		moveSigned := float64(e.Basis.NonbasicMove[v])
		if moveSigned*dual > -tol {
			continue
		}
		boxed := lower > -e.Opts.Infinity && upper < e.Opts.Infinity && lower != upper
		if boxed {
			width := upper - lower
			objShift += moveSigned * width * dual * costScale
			e.flipBound(v)
			continue
		}
		if !e.Opts.AllowDualPerturbation {
			skipped++
			continue
		}
		r := e.randCache[v]
		target := moveSigned * (1 + r) * tol
		e.Work.WorkCost[v] += target - dual
		e.Work.WorkDual[v] = target
		e.perturbedCost = true
	}
	if skipped > 0 {
		return objShift, errors.Errorf("ekk: correctDual: %d infeasible duals could not be perturbed", skipped)
	}
	return objShift, nil
}

// updatePivots installs q as basic at position p, sends the displaced
// basic variable nonbasic at the bound moveOut implies, and marks the
// factor no longer a fresh (update-free) rebuild, spec §4.6.
func (e *Engine) updatePivots(q, p int, moveOut basis.Move) {
	outVar := e.Basis.BasicIndex[p]
	e.Basis.BasicIndex[p] = q
	e.Basis.NonbasicFlag[q] = 0
	e.Basis.NonbasicMove[q] = basis.MoveZero
	e.Basis.NonbasicFlag[outVar] = 1
	e.Basis.NonbasicMove[outVar] = moveOut
	e.Work.BaseLower[p] = e.Work.WorkLower[q]
	e.Work.BaseUpper[p] = e.Work.WorkUpper[q]
	switch moveOut {
	case basis.MoveUp:
		e.Work.WorkValue[outVar] = e.Work.WorkLower[outVar]
	case basis.MoveDown:
		e.Work.WorkValue[outVar] = e.Work.WorkUpper[outVar]
	default:
		if e.Work.WorkLower[outVar] == e.Work.WorkUpper[outVar] {
			e.Work.WorkValue[outVar] = e.Work.WorkLower[outVar]
		} else {
			e.Work.WorkValue[outVar] = 0
		}
	}
	e.hasFreshRebuild = false
}

// afterFactorUpdate folds the product-form update's rebuild hint
// together with the synthetic-tick budget, refactoring (and, on rank
// deficiency, backtracking) when either fires, spec §4.2/§4.5.
func (e *Engine) afterFactorUpdate(column []float64, hint factor.RebuildReason) error {
	e.updatesSinceRebuild++
	e.syntheticTicks += float64(nnz(column))
	if e.syntheticTicks > e.Opts.SyntheticTickLimit {
		hint = factor.RebuildSyntheticTickLimit
	}
	if hint == factor.NoRebuildNeeded {
		return nil
	}
	k, err := e.Factor.Build(e.Model, e.Basis)
	if err != nil {
		return err
	}
	if k > 0 {
		if rerr := e.restoreSnapshot(); rerr != nil {
			return rerr
		}
		return nil
	}
	e.hasFreshRebuild = true
	e.syntheticTicks = 0
	e.takeSnapshot()
	return e.computePrimal()
}

// computeDualObjectiveValue computes spec §4.6's dual objective: the
// sum over nonbasic variables of workValue*workDual, scaled by cost
// scale, with the sense-signed offset added outside phase 1.
func (e *Engine) computeDualObjectiveValue(phase int) float64 {
	n, m := e.Model.NumCol, e.Model.NumRow
	costScale := math.Pow(2, float64(e.Model.UserCostScale))
	sum := 0.0
	for v := 0; v < n+m; v++ {
		if e.Basis.NonbasicFlag[v] == 1 {
			sum += e.Work.WorkValue[v] * e.Work.WorkDual[v]
		}
	}
	sum *= costScale
	if phase != phase1 {
		if e.Model.Sense == lp.Maximize {
			sum -= e.Model.Offset
		} else {
			sum += e.Model.Offset
		}
	}
	return sum
}

// computePrimalObjectiveValue computes spec §4.6's primal objective
// using the original (unscaled-sign) column costs.
func (e *Engine) computePrimalObjectiveValue() float64 {
	n := e.Model.NumCol
	costScale := math.Pow(2, float64(e.Model.UserCostScale))
	sum := 0.0
	for pos, v := range e.Basis.BasicIndex {
		if v < n {
			sum += e.Work.BaseValue[pos] * e.Model.ColCost[v]
		}
	}
	for j := 0; j < n; j++ {
		if e.Basis.NonbasicFlag[j] == 1 {
			sum += e.Work.WorkValue[j] * e.Model.ColCost[j]
		}
	}
	return sum*costScale + e.Model.Offset
}

const (
	phase1 = 1
	phase2 = 2
)

// bailoutCheck reports the limit status that should end the current
// solve, or status.NotSet if none applies yet, spec §4.5's time/iteration
// bailout handling.
func (e *Engine) bailoutCheck() status.ModelStatus {
	if e.Opts.IterationLimit > 0 && e.Info.SimplexIterationCount >= e.Opts.IterationLimit {
		return status.ReachedIterationLimit
	}
	if e.Opts.TimeLimit > 0 && time.Since(e.startTime) >= e.Opts.TimeLimit {
		return status.ReachedTimeLimit
	}
	return status.NotSet
}

func nnz(v []float64) int {
	c := 0
	for _, x := range v {
		if x != 0 {
			c++
		}
	}
	return c
}
