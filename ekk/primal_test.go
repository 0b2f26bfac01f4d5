package ekk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simplexcore/lp"
	"simplexcore/status"
)

func TestRunPrimalReachesOptimalOnTextbookLP(t *testing.T) {
	e := newTestEngine(t, textbookLP())
	e.Opts.Strategy = StrategyPrimal
	require.NoError(t, e.Solve(context.Background()))

	assert.Equal(t, status.Optimal, e.Info.ModelStatus)
	sol := e.GetSolution()
	assert.InDelta(t, 4.0, sol.ColValue[0], 1e-6)
	assert.InDelta(t, 0.0, sol.ColValue[1], 1e-6)
}

// geMinimumLP is minimize x subject to x >= 5, x >= 0: the logical
// starting basis (slack basic at value 0) violates its upper working
// bound of -5, forcing primal phase 1 before phase 2 can optimize.
func geMinimumLP() *lp.LP {
	m := lp.New(1, 1)
	m.Sense = lp.Minimize
	m.ColCost = []float64{1}
	m.ColLower = []float64{0}
	m.ColUpper = []float64{lp.Infinity}
	m.RowLower = []float64{5}
	m.RowUpper = []float64{lp.Infinity}
	m.Matrix.Start = []int{0, 1}
	m.Matrix.Index = []int{0}
	m.Matrix.Value = []float64{1}
	return m
}

func TestRunPrimalPhase1DrivesToFeasibilityThenOptimal(t *testing.T) {
	e := newTestEngine(t, geMinimumLP())
	e.Opts.Strategy = StrategyPrimal
	require.NoError(t, e.Solve(context.Background()))

	assert.Equal(t, status.Optimal, e.Info.ModelStatus)
	sol := e.GetSolution()
	assert.InDelta(t, 5.0, sol.ColValue[0], 1e-6)
	assert.InDelta(t, 5.0, e.Info.ObjectiveValue, 1e-6)
}

func TestRunPrimalDetectsUnbounded(t *testing.T) {
	m := lp.New(1, 1)
	m.Sense = lp.Minimize
	m.ColCost = []float64{-1}
	m.ColLower = []float64{0}
	m.ColUpper = []float64{lp.Infinity}
	m.RowLower = []float64{-lp.Infinity}
	m.RowUpper = []float64{lp.Infinity}
	m.Matrix.Start = []int{0, 1}
	m.Matrix.Index = []int{0}
	m.Matrix.Value = []float64{1}

	e := newTestEngine(t, m)
	e.Opts.Strategy = StrategyPrimal
	require.NoError(t, e.Solve(context.Background()))
	assert.Equal(t, status.Unbounded, e.Info.ModelStatus)
}

func TestChoosePrimalEnteringPicksMostNegativeReducedCost(t *testing.T) {
	e := newTestEngine(t, textbookLP())
	e.SetLogicalBasis()
	e.Work.InitialiseLpColCost(e.Model)
	e.Work.InitialiseLpRowCost()
	e.Work.InitialiseLpColBound(e.Model)
	e.Work.InitialiseLpRowBound(e.Model)

	dual := make([]float64, e.Model.NumCol+e.Model.NumRow)
	dual[0] = -3
	dual[1] = -2
	q, dir, ok := e.choosePrimalEntering(dual)
	require.True(t, ok)
	assert.Equal(t, 0, q)
	assert.Equal(t, 1.0, dir)
}
