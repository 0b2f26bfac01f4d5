package lp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMatrix() *Matrix {
	m := NewMatrix(2)
	m.NumCol = 2
	m.Start = []int{0, 2, 4}
	m.Index = []int{0, 1, 0, 1}
	m.Value = []float64{1, 1, 1, 3}
	return m
}

func TestMatrixAssessDropsTinyEntries(t *testing.T) {
	m := testMatrix()
	m.Value[0] = SmallMatrixValue / 2
	require.NoError(t, m.Assess())
	assert.Equal(t, 3, len(m.Value))
}

func TestMatrixAssessRejectsDuplicateRow(t *testing.T) {
	m := testMatrix()
	m.Index[1] = 0
	assert.Error(t, m.Assess())
}

func TestMatrixGetRow(t *testing.T) {
	m := testMatrix()
	idx, val := m.GetRow(1)
	assert.Equal(t, []int{0, 1}, idx)
	assert.Equal(t, []float64{1, 3}, val)
}

func TestMatrixAddCols(t *testing.T) {
	m := testMatrix()
	extra := NewMatrix(2)
	extra.NumCol = 1
	extra.Start = []int{0, 1}
	extra.Index = []int{1}
	extra.Value = []float64{5}

	require.NoError(t, m.AddCols(extra))
	assert.Equal(t, 3, m.NumCol)
	idx, val := m.GetRow(1)
	assert.ElementsMatch(t, []int{0, 1, 2}, idx)
	assert.ElementsMatch(t, []float64{1, 3, 5}, val)
}

func TestMatrixAddRows(t *testing.T) {
	m := testMatrix()
	extra := NewMatrix(1)
	extra.NumCol = 2
	extra.Start = []int{0, 1, 2}
	extra.Index = []int{0, 0}
	extra.Value = []float64{7, 8}

	require.NoError(t, m.AddRows(extra))
	assert.Equal(t, 3, m.NumRow)
	dense := make([]float64, 3)
	m.ColumnInto(0, dense)
	assert.Equal(t, []float64{1, 1, 7}, dense)
}

func TestMatrixDeleteCols(t *testing.T) {
	m := testMatrix()
	newIndexOf := m.DeleteCols([]bool{true, false})
	assert.Equal(t, []int{-1, 0}, newIndexOf)
	assert.Equal(t, 1, m.NumCol)
	dense := make([]float64, 2)
	m.ColumnInto(0, dense)
	assert.Equal(t, []float64{1, 3}, dense)
}

func TestMatrixDeleteRows(t *testing.T) {
	m := testMatrix()
	newIndexOf := m.DeleteRows([]bool{true, false})
	assert.Equal(t, []int{-1, 0}, newIndexOf)
	assert.Equal(t, 1, m.NumRow)
	dense := make([]float64, 1)
	m.ColumnInto(0, dense)
	assert.Equal(t, []float64{1}, dense)
}

func TestMatrixChangeCoefficient(t *testing.T) {
	m := testMatrix()
	m.ChangeCoefficient(0, 0, 9)
	dense := make([]float64, 2)
	m.ColumnInto(0, dense)
	assert.Equal(t, []float64{9, 1}, dense)

	// (1,0) already holds an entry, so this overwrites it; then (0,0) is dropped.
	m.ChangeCoefficient(1, 0, 4) // already present, overwrite path exercised above
	m.ChangeCoefficient(0, 0, 0) // below SmallMatrixValue, removed
	dense = make([]float64, 2)
	m.ColumnInto(0, dense)
	assert.Equal(t, 0.0, dense[0])
}

func TestMatrixScaleColAndRow(t *testing.T) {
	m := testMatrix()
	m.ScaleCol(0, 2)
	dense := make([]float64, 2)
	m.ColumnInto(0, dense)
	assert.Equal(t, []float64{2, 2}, dense)

	m.ScaleRow(1, 10)
	dense = make([]float64, 2)
	m.ColumnInto(0, dense)
	assert.Equal(t, []float64{2, 20}, dense)
}
