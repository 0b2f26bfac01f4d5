package price

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"simplexcore/basis"
	"simplexcore/lp"
)

func testModelAndBasis() (*lp.LP, *basis.SimplexBasis) {
	m := lp.New(2, 2)
	m.Matrix.Start = []int{0, 2, 4}
	m.Matrix.Index = []int{0, 1, 0, 1}
	m.Matrix.Value = []float64{1, 1, 1, 3}
	sb := basis.NewSimplexBasis(2, 2)
	sb.BasicIndex = []int{2, 3}
	sb.NonbasicFlag = []int8{1, 1, 0, 0}
	return m, sb
}

func TestTableauRowPriceColumnStrategy(t *testing.T) {
	m, sb := testModelAndBasis()
	rowEp := []float64{1, 0}
	rowAp := TableauRowPrice(m, sb, rowEp, ColumnPrice)
	// dot of rowEp with each structural column: col0 = (1,1)->1, col1 = (1,3)->1
	assert.Equal(t, []float64{1, 1}, rowAp)
}

func TestTableauRowPriceRowStrategyMatchesColumn(t *testing.T) {
	m, sb := testModelAndBasis()
	rowEp := []float64{2, 3}
	colResult := TableauRowPrice(m, sb, rowEp, ColumnPrice)
	rowResult := TableauRowPrice(m, sb, rowEp, HyperSparseRowPrice)
	assert.Equal(t, colResult, rowResult)
}

func TestTableauRowPriceZeroesBasicColumns(t *testing.T) {
	m := lp.New(1, 2)
	m.Matrix.Start = []int{0, 1, 2}
	m.Matrix.Index = []int{0, 0}
	m.Matrix.Value = []float64{5, 7}
	sb := basis.NewSimplexBasis(2, 1)
	sb.BasicIndex = []int{0} // structural col 0 is basic
	sb.NonbasicFlag = []int8{0, 1, 0}

	rowAp := TableauRowPrice(m, sb, []float64{1}, ColumnPrice)
	assert.Equal(t, 0.0, rowAp[0]) // basic column zeroed
	assert.Equal(t, 7.0, rowAp[1])
}
