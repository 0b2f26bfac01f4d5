package iface

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simplexcore/basis"
	"simplexcore/ekk"
	"simplexcore/lp"
	"simplexcore/status"
)

// twoColModel is the textbook 2x2 LP reused across these tests: two
// structural columns, bounds [0, inf), two <= rows.
func twoColModel() *lp.LP {
	m := lp.New(2, 2)
	m.Sense = lp.Minimize
	m.ColCost = []float64{-3, -2}
	m.ColLower = []float64{0, 0}
	m.ColUpper = []float64{lp.Infinity, lp.Infinity}
	m.RowLower = []float64{-lp.Infinity, -lp.Infinity}
	m.RowUpper = []float64{4, 6}
	m.Matrix.Start = []int{0, 2, 4}
	m.Matrix.Index = []int{0, 1, 0, 1}
	m.Matrix.Value = []float64{1, 1, 1, 3}
	return m
}

func newTestInterface(t *testing.T, model *lp.LP) *Interface {
	t.Helper()
	e := ekk.New(ekk.DefaultOptions(), nil)
	require.NoError(t, e.PassLP(model))
	return New(e)
}

func TestAddColsAppendsNonbasicColumn(t *testing.T) {
	m := lp.New(1, 0)
	ifc := newTestInterface(t, m)
	ifc.Engine.SetLogicalBasis()

	cols := lp.NewMatrix(1)
	cols.NumCol = 1
	cols.Start = []int{0, 1}
	cols.Index = []int{0}
	cols.Value = []float64{2}

	err := ifc.AddCols(cols, []float64{1}, []float64{0}, []float64{10}, []string{"x"}, nil)
	require.NoError(t, err)

	require.Equal(t, 1, m.NumCol)
	assert.Equal(t, 1.0, m.ColCost[0])
	assert.Equal(t, int8(1), ifc.Engine.Basis.NonbasicFlag[0])
}

func TestAddRowsAppendsBasicLogical(t *testing.T) {
	m := lp.New(0, 1)
	m.ColUpper[0] = lp.Infinity
	ifc := newTestInterface(t, m)
	ifc.Engine.SetLogicalBasis()

	rows := lp.NewMatrix(1)
	rows.NumCol = 1
	rows.NumRow = 1
	rows.Start = []int{0, 1}
	rows.Index = []int{0}
	rows.Value = []float64{1}

	err := ifc.AddRows(rows, []float64{-lp.Infinity}, []float64{5}, nil)
	require.NoError(t, err)

	require.Equal(t, 1, m.NumRow)
	// new row's logical (index n+0 = 1) must be basic, per
	// addRowsInterface's "logicals start basic".
	assert.Equal(t, int8(0), ifc.Engine.Basis.NonbasicFlag[1])
}

func TestDeleteColsInvalidatesBasis(t *testing.T) {
	ifc := newTestInterface(t, twoColModel())
	ifc.Engine.SetLogicalBasis()

	require.NoError(t, ifc.DeleteCols([]bool{true, false}))
	assert.Equal(t, 1, ifc.Engine.Model.NumCol)
	assert.False(t, ifc.Engine.HaveBasis())
}

func TestDeleteRowsInvalidatesBasis(t *testing.T) {
	ifc := newTestInterface(t, twoColModel())
	ifc.Engine.SetLogicalBasis()

	require.NoError(t, ifc.DeleteRows([]bool{true, false}))
	assert.Equal(t, 1, ifc.Engine.Model.NumRow)
	assert.False(t, ifc.Engine.HaveBasis())
}

func TestChangeCostsRejectsOutOfRangeIndex(t *testing.T) {
	ifc := newTestInterface(t, twoColModel())
	err := ifc.ChangeCosts([]int{5}, []float64{1})
	assert.Error(t, err)
}

func TestChangeCostsUpdatesCostAndInvalidates(t *testing.T) {
	ifc := newTestInterface(t, twoColModel())
	ifc.Engine.SetLogicalBasis()
	require.NoError(t, ifc.Engine.Solve(context.Background()))
	require.Equal(t, status.Optimal, ifc.Engine.Info.ModelStatus)

	require.NoError(t, ifc.ChangeCosts([]int{0}, []float64{-7}))
	assert.Equal(t, -7.0, ifc.Engine.Model.ColCost[0])
	assert.Equal(t, status.NotSet, ifc.Engine.Info.ModelStatus)
}

func TestChangeColBoundsRecomputesNonbasicMove(t *testing.T) {
	ifc := newTestInterface(t, twoColModel())
	ifc.Engine.SetLogicalBasis()

	require.NoError(t, ifc.ChangeColBounds([]int{0}, []float64{2}, []float64{5}))
	assert.Equal(t, 2.0, ifc.Engine.Model.ColLower[0])
	assert.Equal(t, basis.MoveUp, ifc.Engine.Basis.NonbasicMove[0])
	assert.Equal(t, 2.0, ifc.Engine.Work.WorkValue[0])
}

func TestChangeRowBoundsUpdatesLogicalWorkBounds(t *testing.T) {
	ifc := newTestInterface(t, twoColModel())
	ifc.Engine.SetLogicalBasis()

	require.NoError(t, ifc.ChangeRowBounds([]int{0}, []float64{-10}, []float64{3}))
	assert.Equal(t, -10.0, ifc.Engine.Model.RowLower[0])
	assert.Equal(t, 3.0, ifc.Engine.Model.RowUpper[0])
	v := ifc.Engine.Model.NumCol + 0
	assert.Equal(t, -3.0, ifc.Engine.Work.WorkLower[v])
	assert.Equal(t, 10.0, ifc.Engine.Work.WorkUpper[v])
}

func TestChangeCoefficientInvalidatesInvertWhenColumnBasic(t *testing.T) {
	ifc := newTestInterface(t, twoColModel())
	ifc.Engine.SetLogicalBasis()
	require.NoError(t, ifc.Engine.Solve(context.Background()))

	basicCol := -1
	for j := 0; j < 2; j++ {
		if ifc.Engine.Basis.NonbasicFlag[j] == 0 {
			basicCol = j
		}
	}
	require.GreaterOrEqual(t, basicCol, 0)

	require.NoError(t, ifc.ChangeCoefficient(0, basicCol, 9))
	assert.False(t, ifc.Engine.HasFreshInvert())
}

func TestGetColsReturnsRequestedColumns(t *testing.T) {
	ifc := newTestInterface(t, twoColModel())
	cols, cost, lower, upper, err := ifc.GetCols([]int{1})
	require.NoError(t, err)
	assert.Equal(t, -2.0, cost[0])
	assert.Equal(t, 0.0, lower[0])
	assert.Equal(t, lp.Infinity, upper[0])
	assert.Equal(t, []int{0, 1}, cols.Index)
	assert.Equal(t, []float64{1, 3}, cols.Value)
}

func TestGetRowsReturnsRequestedRows(t *testing.T) {
	ifc := newTestInterface(t, twoColModel())
	idx, val, lower, upper, err := ifc.GetRows([]int{0})
	require.NoError(t, err)
	assert.Equal(t, -lp.Infinity, lower[0])
	assert.Equal(t, 4.0, upper[0])
	assert.Equal(t, []int{0, 1}, idx[0])
	assert.Equal(t, []float64{1, 1}, val[0])
}

func TestGetCoefficientFindsAndMissesEntries(t *testing.T) {
	ifc := newTestInterface(t, twoColModel())
	v, err := ifc.GetCoefficient(1, 1)
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)

	v, err = ifc.GetCoefficient(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
}

func TestScaleColNegativeFlipsBoundsAndMove(t *testing.T) {
	ifc := newTestInterface(t, twoColModel())
	ifc.Engine.SetLogicalBasis()
	require.Equal(t, basis.MoveUp, ifc.Engine.Basis.NonbasicMove[0])

	require.NoError(t, ifc.ScaleCol(0, -1))
	assert.Equal(t, -lp.Infinity, ifc.Engine.Model.ColLower[0])
	assert.Equal(t, 0.0, ifc.Engine.Model.ColUpper[0])
	assert.Equal(t, basis.MoveDown, ifc.Engine.Basis.NonbasicMove[0])
}

func TestScaleRowNegativeFlipsBounds(t *testing.T) {
	ifc := newTestInterface(t, twoColModel())
	ifc.Engine.SetLogicalBasis()

	require.NoError(t, ifc.ScaleRow(0, -1))
	assert.Equal(t, -4.0, ifc.Engine.Model.RowLower[0])
	assert.Equal(t, lp.Infinity, ifc.Engine.Model.RowUpper[0])
}

func TestGetBasicVariablesReportsLogicalsForLogicalBasis(t *testing.T) {
	ifc := newTestInterface(t, twoColModel())
	ifc.Engine.SetLogicalBasis()

	out, err := ifc.GetBasicVariables()
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, -1, out[0])
	assert.Equal(t, -2, out[1])
}

func TestBasisSolveRoundTripsOnIdentityBasis(t *testing.T) {
	ifc := newTestInterface(t, twoColModel())
	ifc.Engine.SetLogicalBasis()
	_, err := ifc.Engine.Factorize()
	require.NoError(t, err)

	out, nz, err := ifc.BasisSolve([]float64{3, 0}, false)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 0}, out)
	assert.Equal(t, []int{0}, nz)
}

func TestGetDualRayAfterDetectedInfeasibility(t *testing.T) {
	m := lp.New(1, 1)
	m.Sense = lp.Minimize
	m.ColCost = []float64{1}
	m.ColLower = []float64{5}
	m.ColUpper = []float64{10}
	m.RowLower = []float64{-lp.Infinity}
	m.RowUpper = []float64{1}
	m.Matrix.Start = []int{0, 1}
	m.Matrix.Index = []int{0}
	m.Matrix.Value = []float64{1}

	ifc := newTestInterface(t, m)
	require.NoError(t, ifc.Engine.Solve(context.Background()))
	require.Equal(t, status.Infeasible, ifc.Engine.Info.ModelStatus)

	ray, ok, err := ifc.GetDualRay()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, ray, 1)
}

func TestGetPrimalRayWithNoRayReportsNotOk(t *testing.T) {
	ifc := newTestInterface(t, twoColModel())
	_, ok, err := ifc.GetPrimalRay()
	require.NoError(t, err)
	assert.False(t, ok)
}
