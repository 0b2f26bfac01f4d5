package ekk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simplexcore/lp"
	"simplexcore/status"
)

// primeForCleanup installs the logical basis and work arrays the way
// Solve does, but stops short of running either driver, so cleanup's
// own NotSet dispatch can be exercised directly.
func primeForCleanup(t *testing.T, e *Engine) {
	t.Helper()
	e.SetLogicalBasis()
	_, err := e.Factorize()
	require.NoError(t, err)
	e.Work.InitialiseLpColCost(e.Model)
	e.Work.InitialiseLpRowCost()
	e.Work.InitialiseLpColBound(e.Model)
	e.Work.InitialiseLpRowBound(e.Model)
	e.Basis.SetNonbasicMove(e.Work.WorkLower, e.Work.WorkUpper)
	e.Work.InitialiseNonbasicValueAndMove(e.Basis)
	require.NoError(t, e.computePrimal())
	e.Info.Invalidate()
}

// TestCleanupDispatchesDualOnResidualPrimalInfeasibility covers spec
// §4.5 step 9's cleanup re-solve: geMinimumLP's logical basis is dual
// feasible (x's reduced cost is its own positive cost, fine at its
// lower bound) but primal infeasible (the slack starts above its upper
// working bound), exactly the one-sided case cleanup must hand to dual
// phase 2 to resolve.
func TestCleanupDispatchesDualOnResidualPrimalInfeasibility(t *testing.T) {
	e := newTestEngine(t, geMinimumLP())
	primeForCleanup(t, e)

	require.NoError(t, e.cleanup(context.Background()))

	assert.Equal(t, status.Optimal, e.Info.ModelStatus)
	sol := e.GetSolution()
	assert.InDelta(t, 5.0, sol.ColValue[0], 1e-6)
	assert.InDelta(t, 5.0, e.Info.ObjectiveValue, 1e-6)
}

// leMaximumLP is minimize -x subject to x <= 5, 0 <= x: the logical
// basis is primal feasible (slack basic at 0, within its free
// (-inf, inf) working bounds) but dual infeasible (x's reduced cost is its own
// negative cost while sitting at its lower bound), the other one-sided
// case cleanup must hand to primal phase 2.
func leMaximumLP() *lp.LP {
	m := lp.New(1, 1)
	m.Sense = lp.Minimize
	m.ColCost = []float64{-1}
	m.ColLower = []float64{0}
	m.ColUpper = []float64{5}
	m.RowLower = []float64{-lp.Infinity}
	m.RowUpper = []float64{lp.Infinity}
	m.Matrix.Start = []int{0, 1}
	m.Matrix.Index = []int{0}
	m.Matrix.Value = []float64{1}
	return m
}

func TestCleanupDispatchesPrimalOnResidualDualInfeasibility(t *testing.T) {
	e := newTestEngine(t, leMaximumLP())
	primeForCleanup(t, e)

	require.NoError(t, e.cleanup(context.Background()))

	assert.Equal(t, status.Optimal, e.Info.ModelStatus)
	sol := e.GetSolution()
	assert.InDelta(t, 5.0, sol.ColValue[0], 1e-6)
	assert.InDelta(t, -5.0, e.Info.ObjectiveValue, 1e-6)
}
