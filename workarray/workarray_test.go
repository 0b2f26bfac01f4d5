package workarray

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simplexcore/basis"
	"simplexcore/lp"
)

func smallModel() *lp.LP {
	m := lp.New(2, 2)
	m.ColCost = []float64{-3, -2}
	m.ColUpper = []float64{lp.Infinity, lp.Infinity}
	m.RowUpper = []float64{4, 6}
	return m
}

func TestInitialiseLpColAndRowBound(t *testing.T) {
	w := New(2, 2)
	m := smallModel()
	w.InitialiseLpColBound(m)
	w.InitialiseLpRowBound(m)

	assert.Equal(t, []float64{0, 0}, w.WorkLower[:2])
	assert.Equal(t, -m.RowUpper[0], w.WorkLower[2])
	assert.Equal(t, -m.RowLower[0], w.WorkUpper[2])
}

func TestInitialiseNonbasicValueAndMove(t *testing.T) {
	w := New(2, 2)
	m := smallModel()
	w.InitialiseLpColBound(m)
	w.InitialiseLpRowBound(m)

	sb := basis.NewSimplexBasis(2, 2)
	sb.SetLogical(w.WorkLower, w.WorkUpper)
	w.InitialiseNonbasicValueAndMove(sb)

	assert.Equal(t, 0.0, w.WorkValue[0])
	assert.Equal(t, 0.0, w.WorkValue[1])
}

func TestAppendColsGrowsAheadOfLogicals(t *testing.T) {
	w := New(2, 2)
	m := smallModel()
	w.InitialiseLpColBound(m)
	w.InitialiseLpRowBound(m)
	w.WorkLower[2] = 111 // mark the logical slot so the shift is visible

	w.AppendCols(1)
	require.Equal(t, 3, w.NumCol)
	assert.Equal(t, 111.0, w.WorkLower[3])
	assert.Equal(t, 0.0, w.WorkLower[2]) // new column slot, zero-valued
}

func TestAppendRowsGrowsBaseArrays(t *testing.T) {
	w := New(2, 2)
	w.AppendRows(1)
	require.Equal(t, 3, w.NumRow)
	assert.Equal(t, 3, len(w.BaseValue))
	assert.Equal(t, 5, len(w.WorkCost))
}

func TestDeleteColsShrinksPerVariableArrays(t *testing.T) {
	w := New(2, 2)
	m := smallModel()
	w.InitialiseLpColCost(m)
	w.InitialiseLpColBound(m)
	w.InitialiseLpRowBound(m)

	w.DeleteCols([]bool{true, false})
	require.Equal(t, 1, w.NumCol)
	assert.Equal(t, m.ColCost[1], w.WorkCost[0])
	assert.Equal(t, w.WorkLower[1], -m.RowUpper[0])
}

func TestDeleteRowsShrinksBaseArrays(t *testing.T) {
	w := New(2, 2)
	w.BaseValue = []float64{1, 2}
	w.BaseLower = []float64{0, 0}
	w.BaseUpper = []float64{9, 9}

	w.DeleteRows([]bool{true, false})
	require.Equal(t, 1, w.NumRow)
	assert.Equal(t, []float64{2}, w.BaseValue)
}

func TestInitialiseBoundDualPhase1Rewrite(t *testing.T) {
	w := New(1, 1)
	w.WorkLower[0] = -lp.Infinity
	w.WorkUpper[0] = lp.Infinity
	w.InitialiseBound(Dual, Phase1, false, 0, nil)
	assert.Equal(t, -1000.0, w.WorkLower[0])
	assert.Equal(t, 1000.0, w.WorkUpper[0])
}
