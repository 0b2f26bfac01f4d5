// Package lp holds the LP data model (spec §3) and the sparse
// column-major constraint matrix (spec §4.1), grounded on the
// column/row splice logic in _examples/Beldin123-lpo's element
// cross-reference lists and generalized to true CSC storage.
package lp

import (
	"math"

	"github.com/pkg/errors"
)

// Sentinels, spec §6.
const (
	Infinity         = 1.0e30
	SmallMatrixValue = 1.0e-12
	LargeMatrixValue = 1.0e15
)

// Sense is the optimization direction.
type Sense int

const (
	Minimize Sense = iota
	Maximize
)

// Matrix is the constraint matrix A in CSC form: Start has NumCol+1
// entries, Index/Value have Start[NumCol] entries. Within a column,
// indices are distinct and in [0, NumRow).
type Matrix struct {
	NumRow int
	NumCol int
	Start  []int
	Index  []int
	Value  []float64

	// rowStart/rowIndex/rowValue hold a row-major materialization built
	// on demand by EnsureRowwise and invalidated by any structural
	// mutation; this is the "auxiliary row-partitioned form used by
	// PRICE" of spec §4.1.
	rowStart  []int
	rowIndex  []int
	rowValueF []float64
	rowwiseOK bool
}

// NewMatrix returns an empty numRow x 0 matrix.
func NewMatrix(numRow int) *Matrix {
	return &Matrix{NumRow: numRow, Start: []int{0}}
}

// Assess validates matrix entries per spec §4.1: no duplicate row index
// within a column, magnitudes within [SmallMatrixValue, LargeMatrixValue]
// or exactly zero, no infinities. Entries with |v| <= SmallMatrixValue are
// dropped in place.
func (m *Matrix) Assess() error {
	seen := make(map[int]bool)
	write := 0
	newStart := make([]int, len(m.Start))
	copy(newStart, m.Start)
	for col := 0; col < m.NumCol; col++ {
		lo, hi := m.Start[col], m.Start[col+1]
		for k := range seen {
			delete(seen, k)
		}
		for k := lo; k < hi; k++ {
			row := m.Index[k]
			val := m.Value[k]
			if row < 0 || row >= m.NumRow {
				return errors.Errorf("matrix entry (row %d, col %d) out of range [0,%d)", row, col, m.NumRow)
			}
			if seen[row] {
				return errors.Errorf("duplicate row %d in column %d", row, col)
			}
			seen[row] = true
			if math.IsInf(val, 0) || math.IsNaN(val) {
				return errors.Errorf("matrix entry (row %d, col %d) is not finite", row, col)
			}
			if math.Abs(val) > LargeMatrixValue {
				return errors.Errorf("matrix entry (row %d, col %d) magnitude %g exceeds LargeMatrixValue", row, col, val)
			}
			if math.Abs(val) <= SmallMatrixValue {
				continue // dropped
			}
			m.Index[write] = row
			m.Value[write] = val
			write++
		}
		newStart[col+1] = write
	}
	m.Index = m.Index[:write]
	m.Value = m.Value[:write]
	m.Start = newStart
	m.rowwiseOK = false
	return nil
}

// AddCols appends cols as additional columns; cols must have the same
// NumRow. A nil/empty cols (0 columns) is a no-op, spec §8.
func (m *Matrix) AddCols(cols *Matrix) error {
	if cols == nil || cols.NumCol == 0 {
		return nil
	}
	if cols.NumRow != m.NumRow {
		return errors.Errorf("addCols row count mismatch: have %d, got %d", m.NumRow, cols.NumRow)
	}
	base := len(m.Index)
	newStart := make([]int, m.NumCol+cols.NumCol+1)
	copy(newStart, m.Start)
	for j := 0; j <= cols.NumCol; j++ {
		newStart[m.NumCol+j] = base + cols.Start[j]
	}
	m.Start = newStart
	m.Index = append(m.Index, cols.Index...)
	m.Value = append(m.Value, cols.Value...)
	m.NumCol += cols.NumCol
	m.rowwiseOK = false
	return nil
}

// AddRows appends rows.NumRow new rows; rows is given column-major with
// NumCol matching m.NumCol, one row per new row index, spliced into
// every existing column's CSC slice. A rows.NumRow == 0 matrix with zero
// entries is a no-op, spec §8.
func (m *Matrix) AddRows(rows *Matrix) error {
	if rows == nil || rows.NumRow == 0 {
		return nil
	}
	if rows.NumCol != m.NumCol && m.NumCol != 0 {
		return errors.Errorf("addRows column count mismatch: have %d, got %d", m.NumCol, rows.NumCol)
	}
	if m.NumCol == 0 {
		m.NumCol = rows.NumCol
		m.Start = make([]int, m.NumCol+1)
	}
	newIndex := make([]int, 0, len(m.Index)+len(rows.Index))
	newValue := make([]float64, 0, len(m.Value)+len(rows.Value))
	newStart := make([]int, m.NumCol+1)
	for col := 0; col < m.NumCol; col++ {
		newStart[col] = len(newIndex)
		lo, hi := m.Start[col], m.Start[col+1]
		newIndex = append(newIndex, m.Index[lo:hi]...)
		newValue = append(newValue, m.Value[lo:hi]...)
		rlo, rhi := rows.Start[col], rows.Start[col+1]
		for k := rlo; k < rhi; k++ {
			newIndex = append(newIndex, m.NumRow+rows.Index[k])
			newValue = append(newValue, rows.Value[k])
		}
	}
	newStart[m.NumCol] = len(newIndex)
	m.Start, m.Index, m.Value = newStart, newIndex, newValue
	m.NumRow += rows.NumRow
	m.rowwiseOK = false
	return nil
}

// DeleteCols removes the columns whose index is true in mask (len(mask)
// == m.NumCol). newIndexOf[j] receives the new column index for a
// retained column j, or -1 for a deleted one, per spec §4.7.
func (m *Matrix) DeleteCols(mask []bool) (newIndexOf []int) {
	newIndexOf = make([]int, m.NumCol)
	newStart := make([]int, 1, m.NumCol+1)
	newIndex := make([]int, 0, len(m.Index))
	newValue := make([]float64, 0, len(m.Value))
	kept := 0
	for col := 0; col < m.NumCol; col++ {
		if mask[col] {
			newIndexOf[col] = -1
			continue
		}
		newIndexOf[col] = kept
		lo, hi := m.Start[col], m.Start[col+1]
		newIndex = append(newIndex, m.Index[lo:hi]...)
		newValue = append(newValue, m.Value[lo:hi]...)
		newStart = append(newStart, len(newIndex))
		kept++
	}
	m.Start, m.Index, m.Value = newStart, newIndex, newValue
	m.NumCol = kept
	m.rowwiseOK = false
	return newIndexOf
}

// DeleteRows removes the rows whose index is true in mask (len(mask) ==
// m.NumRow), renumbering surviving row indices and dropping entries that
// referenced a deleted row.
func (m *Matrix) DeleteRows(mask []bool) (newIndexOf []int) {
	newIndexOf = make([]int, m.NumRow)
	kept := 0
	for r := 0; r < m.NumRow; r++ {
		if mask[r] {
			newIndexOf[r] = -1
			continue
		}
		newIndexOf[r] = kept
		kept++
	}
	newIndex := make([]int, 0, len(m.Index))
	newValue := make([]float64, 0, len(m.Value))
	newStart := make([]int, m.NumCol+1)
	for col := 0; col < m.NumCol; col++ {
		newStart[col] = len(newIndex)
		lo, hi := m.Start[col], m.Start[col+1]
		for k := lo; k < hi; k++ {
			nr := newIndexOf[m.Index[k]]
			if nr < 0 {
				continue
			}
			newIndex = append(newIndex, nr)
			newValue = append(newValue, m.Value[k])
		}
	}
	newStart[m.NumCol] = len(newIndex)
	m.Start, m.Index, m.Value = newStart, newIndex, newValue
	m.NumRow = kept
	m.rowwiseOK = false
	return newIndexOf
}

// EnsureRowwise idempotently (re)materializes the row-major view used by
// PRICE's row-wise strategies, spec §4.1. A no-structural-change call is
// a cheap no-op.
func (m *Matrix) EnsureRowwise() {
	if m.rowwiseOK {
		return
	}
	count := make([]int, m.NumRow+1)
	for _, r := range m.Index {
		count[r+1]++
	}
	for r := 0; r < m.NumRow; r++ {
		count[r+1] += count[r]
	}
	rowStart := count
	rowIndex := make([]int, len(m.Index))
	rowValue := make([]float64, len(m.Value))
	cursor := make([]int, m.NumRow)
	copy(cursor, rowStart[:m.NumRow])
	for col := 0; col < m.NumCol; col++ {
		lo, hi := m.Start[col], m.Start[col+1]
		for k := lo; k < hi; k++ {
			row := m.Index[k]
			pos := cursor[row]
			rowIndex[pos] = col
			rowValue[pos] = m.Value[k]
			cursor[row]++
		}
	}
	m.rowStart, m.rowIndex, m.rowValueF = rowStart, rowIndex, rowValue
	m.rowwiseOK = true
}

// GetRow returns the column indices and values of row i as sub-slices
// of the row-wise view built by EnsureRowwise (not copies).
func (m *Matrix) GetRow(i int) (outIndex []int, outValue []float64) {
	m.EnsureRowwise()
	lo, hi := m.rowStart[i], m.rowStart[i+1]
	return m.rowIndex[lo:hi], m.rowValueF[lo:hi]
}

// ColumnInto gathers column j of A into a dense array of length NumRow.
func (m *Matrix) ColumnInto(j int, dense []float64) {
	lo, hi := m.Start[j], m.Start[j+1]
	for k := lo; k < hi; k++ {
		dense[m.Index[k]] = m.Value[k]
	}
}

// ChangeCoefficient replaces (or deletes, if |v| <= SmallMatrixValue)
// the single entry A[i][j], spec §4.7/§8.
func (m *Matrix) ChangeCoefficient(i, j int, v float64) {
	lo, hi := m.Start[j], m.Start[j+1]
	for k := lo; k < hi; k++ {
		if m.Index[k] == i {
			if math.Abs(v) <= SmallMatrixValue {
				m.removeEntry(j, k)
			} else {
				m.Value[k] = v
			}
			m.rowwiseOK = false
			return
		}
	}
	if math.Abs(v) <= SmallMatrixValue {
		return
	}
	m.insertEntry(i, j, v)
	m.rowwiseOK = false
}

func (m *Matrix) removeEntry(col, k int) {
	hi := m.Start[col+1]
	copy(m.Index[k:hi-1], m.Index[k+1:hi])
	copy(m.Value[k:hi-1], m.Value[k+1:hi])
	m.Index = m.Index[:len(m.Index)-1]
	m.Value = m.Value[:len(m.Value)-1]
	for c := col + 1; c <= m.NumCol; c++ {
		m.Start[c]--
	}
}

func (m *Matrix) insertEntry(row, col int, v float64) {
	pos := m.Start[col+1]
	m.Index = append(m.Index, 0)
	m.Value = append(m.Value, 0)
	copy(m.Index[pos+1:], m.Index[pos:len(m.Index)-1])
	copy(m.Value[pos+1:], m.Value[pos:len(m.Value)-1])
	m.Index[pos] = row
	m.Value[pos] = v
	for c := col + 1; c <= m.NumCol; c++ {
		m.Start[c]++
	}
}

// ScaleCol multiplies column j's entries by s in place. Assess-level
// thresholds are not re-applied; callers needing that call Assess after.
func (m *Matrix) ScaleCol(j int, s float64) {
	lo, hi := m.Start[j], m.Start[j+1]
	for k := lo; k < hi; k++ {
		m.Value[k] *= s
	}
	m.rowwiseOK = false
}

// ScaleRow multiplies every entry in row i by s in place.
func (m *Matrix) ScaleRow(i int, s float64) {
	for col := 0; col < m.NumCol; col++ {
		lo, hi := m.Start[col], m.Start[col+1]
		for k := lo; k < hi; k++ {
			if m.Index[k] == i {
				m.Value[k] *= s
			}
		}
	}
	m.rowwiseOK = false
}
