// Package iface implements the interface layer of spec §4.7: the
// mutation and query surface a host uses to build and probe an LP
// without reaching into the engine's basis/factor internals directly.
// Every mutating operation invalidates the engine's model status and
// leaves the matrix column-wise on exit; none re-runs lp.DimensionsOk.
package iface

import (
	"math"

	"github.com/pkg/errors"

	"simplexcore/basis"
	"simplexcore/ekk"
	"simplexcore/lp"
)

// Interface wraps an engine and the LP it owns, exposing the mutation
// and query operations of spec §4.7. It holds no state of its own
// beyond the engine reference: basis/factor ownership stays with
// ekk.Engine, per spec §9.
type Interface struct {
	Engine *ekk.Engine

	infCostFixes []infCostFix
}

// New wraps an already-PassLP'd engine.
func New(e *ekk.Engine) *Interface {
	return &Interface{Engine: e}
}

func (ifc *Interface) model() *lp.LP { return ifc.Engine.Model }

// AddCols implements addColsInterface: append n' new columns with the
// given costs/bounds/matrix entries and (optional, nil meaning all
// Continuous) integrality, splicing them into the basis as nonbasic.
func (ifc *Interface) AddCols(cols *lp.Matrix, cost, lower, upper []float64, names []string, integrality []lp.Integrality) error {
	m := ifc.model()
	n := 0
	if cols != nil {
		n = cols.NumCol
	}
	if n == 0 {
		return nil
	}
	if len(cost) != n || len(lower) != n || len(upper) != n {
		return errors.New("iface: AddCols vector length mismatch")
	}
	if names != nil && len(names) != n {
		return errors.New("iface: AddCols names length mismatch")
	}
	if integrality != nil && len(integrality) != n {
		return errors.New("iface: AddCols integrality length mismatch")
	}
	if cols.NumRow != m.NumRow {
		if len(cols.Index) > 0 && m.NumRow == 0 {
			return errors.New("iface: AddCols has nonzero entries but the LP has no rows")
		}
		return errors.Errorf("iface: AddCols row count mismatch: have %d, got %d", m.NumRow, cols.NumRow)
	}
	for j := 0; j < n; j++ {
		if err := lp.AssessCost(cost[j]); err != nil {
			return errors.Wrapf(err, "iface: AddCols col %d", j)
		}
		if err := lp.AssessBounds(lower[j], upper[j]); err != nil {
			return errors.Wrapf(err, "iface: AddCols col %d", j)
		}
	}
	if err := cols.Assess(); err != nil {
		return errors.Wrap(err, "iface: AddCols")
	}

	scaledCost := make([]float64, n)
	scaledLower := make([]float64, n)
	scaledUpper := make([]float64, n)
	for j := 0; j < n; j++ {
		scaledCost[j] = m.ApplyUserCostScale(cost[j])
		scaledLower[j] = m.ApplyUserBoundScale(lower[j])
		scaledUpper[j] = m.ApplyUserBoundScale(upper[j])
	}

	if m.Scale != nil && m.Scale.Active {
		for j := 0; j < n; j++ {
			colScale := 1.0
			m.Scale.ColScale = append(m.Scale.ColScale, colScale)
		}
		applyExistingRowScale(m, cols)
	}

	if err := m.Matrix.AddCols(cols); err != nil {
		return errors.Wrap(err, "iface: AddCols")
	}
	m.ColCost = append(m.ColCost, scaledCost...)
	m.ColLower = append(m.ColLower, scaledLower...)
	m.ColUpper = append(m.ColUpper, scaledUpper...)
	if integrality == nil {
		integrality = make([]lp.Integrality, n)
	}
	m.ColIntegrality = append(m.ColIntegrality, integrality...)
	if names == nil {
		names = make([]string, n)
	}
	if len(m.ColNames) > 0 || anyNonEmpty(names) {
		m.ColNames = append(m.ColNames, names...)
	}
	m.NumCol += n
	m.ClearNameIndex()

	ifc.Engine.AppendColsToArrays(n)
	return nil
}

// AddRows implements addRowsInterface: append n' new rows (as
// NumCol-wide column-major entries, one "row" of the new-rows matrix
// per new row) whose logicals start basic.
func (ifc *Interface) AddRows(rows *lp.Matrix, lower, upper []float64, names []string) error {
	m := ifc.model()
	n := 0
	if rows != nil {
		n = rows.NumRow
	}
	if n == 0 {
		return nil
	}
	if len(lower) != n || len(upper) != n {
		return errors.New("iface: AddRows vector length mismatch")
	}
	if rows.NumCol != m.NumCol && m.NumCol != 0 {
		return errors.Errorf("iface: AddRows column count mismatch: have %d, got %d", m.NumCol, rows.NumCol)
	}
	for i := 0; i < n; i++ {
		if err := lp.AssessBounds(lower[i], upper[i]); err != nil {
			return errors.Wrapf(err, "iface: AddRows row %d", i)
		}
	}
	if err := rows.Assess(); err != nil {
		return errors.Wrap(err, "iface: AddRows")
	}

	scaledLower := make([]float64, n)
	scaledUpper := make([]float64, n)
	for i := 0; i < n; i++ {
		scaledLower[i] = m.ApplyUserBoundScale(lower[i])
		scaledUpper[i] = m.ApplyUserBoundScale(upper[i])
	}

	if m.Scale != nil && m.Scale.Active {
		for i := 0; i < n; i++ {
			m.Scale.RowScale = append(m.Scale.RowScale, 1.0)
		}
	}

	if err := m.Matrix.AddRows(rows); err != nil {
		return errors.Wrap(err, "iface: AddRows")
	}
	m.RowLower = append(m.RowLower, scaledLower...)
	m.RowUpper = append(m.RowUpper, scaledUpper...)
	if names == nil {
		names = make([]string, n)
	}
	if len(m.RowNames) > 0 || anyNonEmpty(names) {
		m.RowNames = append(m.RowNames, names...)
	}
	m.NumRow += n
	m.ClearNameIndex()

	ifc.Engine.AppendRowsToArrays(n)
	return nil
}

func anyNonEmpty(s []string) bool {
	for _, v := range s {
		if v != "" {
			return true
		}
	}
	return false
}

// applyExistingRowScale multiplies every entry of the newly-appended
// columns by the row scale already in force, spec §4.7's "applies
// existing row scale" — the new columns' own scale factor is 1, so no
// column-side multiplication is needed here.
func applyExistingRowScale(m *lp.LP, cols *lp.Matrix) {
	if m.Scale == nil || len(m.Scale.RowScale) == 0 {
		return
	}
	for col := 0; col < cols.NumCol; col++ {
		lo, hi := cols.Start[col], cols.Start[col+1]
		for k := lo; k < hi; k++ {
			row := cols.Index[k]
			if row < len(m.Scale.RowScale) {
				cols.Value[k] *= m.Scale.RowScale[row]
			}
		}
	}
}

// DeleteCols implements deleteColsInterface. mask must have length
// NumCol; the basis is invalidated outright and must be reinstalled
// (SetLogicalBasis or SetBasis) before the next Solve.
func (ifc *Interface) DeleteCols(mask []bool) error {
	m := ifc.model()
	if len(mask) != m.NumCol {
		return errors.New("iface: DeleteCols mask length mismatch")
	}
	any := false
	for _, d := range mask {
		if d {
			any = true
			break
		}
	}
	if !any {
		return nil
	}
	newIndexOf := m.Matrix.DeleteCols(mask)
	compactFloat := func(v []float64) []float64 {
		out := v[:0]
		for j, keep := range newIndexOf {
			if keep >= 0 {
				out = append(out, v[j])
			}
		}
		return out
	}
	m.ColCost = compactFloat(m.ColCost)
	m.ColLower = compactFloat(m.ColLower)
	m.ColUpper = compactFloat(m.ColUpper)
	newInt := m.ColIntegrality[:0]
	for j, keep := range newIndexOf {
		if keep >= 0 {
			newInt = append(newInt, m.ColIntegrality[j])
		}
	}
	m.ColIntegrality = newInt
	if len(m.ColNames) == len(mask) {
		newNames := m.ColNames[:0]
		for j, keep := range newIndexOf {
			if keep >= 0 {
				newNames = append(newNames, m.ColNames[j])
			}
		}
		m.ColNames = newNames
	}
	if m.Scale != nil && len(m.Scale.ColScale) == len(mask) {
		newScale := m.Scale.ColScale[:0]
		for j, keep := range newIndexOf {
			if keep >= 0 {
				newScale = append(newScale, m.Scale.ColScale[j])
			}
		}
		m.Scale.ColScale = newScale
	}
	m.NumCol -= countTrue(mask)
	m.ClearNameIndex()

	ifc.Engine.ResizeArrays()
	return nil
}

// DeleteRows implements deleteRowsInterface, symmetric to DeleteCols.
func (ifc *Interface) DeleteRows(mask []bool) error {
	m := ifc.model()
	if len(mask) != m.NumRow {
		return errors.New("iface: DeleteRows mask length mismatch")
	}
	any := false
	for _, d := range mask {
		if d {
			any = true
			break
		}
	}
	if !any {
		return nil
	}
	m.Matrix.DeleteRows(mask)
	compactFloat := func(v []float64) []float64 {
		out := v[:0]
		k := 0
		for i, d := range mask {
			if !d {
				out = append(out[:k], v[i])
				k++
			}
		}
		return out
	}
	m.RowLower = compactFloat(append([]float64(nil), m.RowLower...))
	m.RowUpper = compactFloat(append([]float64(nil), m.RowUpper...))
	if len(m.RowNames) == len(mask) {
		names := append([]string(nil), m.RowNames...)
		out := names[:0]
		for i, d := range mask {
			if !d {
				out = append(out, names[i])
			}
		}
		m.RowNames = out
	}
	if m.Scale != nil && len(m.Scale.RowScale) == len(mask) {
		rs := append([]float64(nil), m.Scale.RowScale...)
		out := rs[:0]
		for i, d := range mask {
			if !d {
				out = append(out, rs[i])
			}
		}
		m.Scale.RowScale = out
	}
	m.NumRow -= countTrue(mask)
	m.ClearNameIndex()

	ifc.Engine.ResizeArrays()
	return nil
}

func countTrue(mask []bool) int {
	c := 0
	for _, v := range mask {
		if v {
			c++
		}
	}
	return c
}

// ChangeIntegrality implements changeIntegralityInterface.
func (ifc *Interface) ChangeIntegrality(ix []int, vals []lp.Integrality) error {
	m := ifc.model()
	if len(ix) != len(vals) {
		return errors.New("iface: ChangeIntegrality length mismatch")
	}
	for k, j := range ix {
		if j < 0 || j >= m.NumCol {
			return errors.Errorf("iface: ChangeIntegrality index %d out of range", j)
		}
		m.ColIntegrality[j] = vals[k]
	}
	ifc.Engine.Info.Invalidate()
	return nil
}

// ChangeCosts implements changeCostsInterface: invalidates the whole
// solve state, since the objective changed.
func (ifc *Interface) ChangeCosts(ix []int, vals []float64) error {
	m := ifc.model()
	if len(ix) != len(vals) {
		return errors.New("iface: ChangeCosts length mismatch")
	}
	for k, j := range ix {
		if j < 0 || j >= m.NumCol {
			return errors.Errorf("iface: ChangeCosts index %d out of range", j)
		}
		if err := lp.AssessCost(vals[k]); err != nil {
			return errors.Wrapf(err, "iface: ChangeCosts index %d", j)
		}
		m.ColCost[j] = m.ApplyUserCostScale(vals[k])
	}
	ifc.Engine.Info.Invalidate()
	return nil
}

// ChangeColBounds implements changeColBoundsInterface: apply scaling,
// write through, and recompute nonbasic status/move for any index that
// is still nonbasic (setNonbasicStatusInterface).
func (ifc *Interface) ChangeColBounds(ix []int, lower, upper []float64) error {
	m := ifc.model()
	e := ifc.Engine
	if len(ix) != len(lower) || len(ix) != len(upper) {
		return errors.New("iface: ChangeColBounds length mismatch")
	}
	for k, j := range ix {
		if j < 0 || j >= m.NumCol {
			return errors.Errorf("iface: ChangeColBounds index %d out of range", j)
		}
		if err := lp.AssessBounds(lower[k], upper[k]); err != nil {
			return errors.Wrapf(err, "iface: ChangeColBounds index %d", j)
		}
		lo, hi := m.ApplyUserBoundScale(lower[k]), m.ApplyUserBoundScale(upper[k])
		m.ColLower[j], m.ColUpper[j] = lo, hi
		e.Work.WorkLower[j], e.Work.WorkUpper[j] = lo, hi
	}
	ifc.setNonbasicStatus(ix)
	e.Info.Invalidate()
	return nil
}

// ChangeRowBounds implements changeRowBoundsInterface, symmetric to
// ChangeColBounds over the row-logical variables (spec §3's
// workLower[n+i] = -u_r[i], workUpper[n+i] = -l_r[i] convention).
func (ifc *Interface) ChangeRowBounds(ix []int, lower, upper []float64) error {
	m := ifc.model()
	e := ifc.Engine
	if len(ix) != len(lower) || len(ix) != len(upper) {
		return errors.New("iface: ChangeRowBounds length mismatch")
	}
	logicalIx := make([]int, len(ix))
	for k, i := range ix {
		if i < 0 || i >= m.NumRow {
			return errors.Errorf("iface: ChangeRowBounds index %d out of range", i)
		}
		if err := lp.AssessBounds(lower[k], upper[k]); err != nil {
			return errors.Wrapf(err, "iface: ChangeRowBounds index %d", i)
		}
		lo, hi := m.ApplyUserBoundScale(lower[k]), m.ApplyUserBoundScale(upper[k])
		m.RowLower[i], m.RowUpper[i] = lo, hi
		v := m.NumCol + i
		e.Work.WorkLower[v], e.Work.WorkUpper[v] = -hi, -lo
		logicalIx[k] = v
	}
	ifc.setNonbasicStatus(logicalIx)
	e.Info.Invalidate()
	return nil
}

// setNonbasicStatus recomputes nonbasicMove (and, when the variable is
// nonbasic, its working value at the new bound) for each variable index
// in vars still nonbasic, per spec §4.7 setNonbasicStatusInterface.
// Basic variables are left alone: their base bounds are refreshed by the
// next computePrimal rather than here.
func (ifc *Interface) setNonbasicStatus(vars []int) {
	e := ifc.Engine
	for _, v := range vars {
		if e.Basis.NonbasicFlag[v] == 0 {
			continue
		}
		lower, upper := e.Work.WorkLower[v], e.Work.WorkUpper[v]
		e.Basis.NonbasicMove[v] = moveForBoundsExported(lower, upper)
		switch e.Basis.NonbasicMove[v] {
		case basis.MoveUp:
			e.Work.WorkValue[v] = lower
		case basis.MoveDown:
			e.Work.WorkValue[v] = upper
		default:
			if lower == upper {
				e.Work.WorkValue[v] = lower
			} else {
				e.Work.WorkValue[v] = 0
			}
		}
	}
}

// moveForBoundsExported re-derives spec §3's bound-based move choice;
// basis.SimplexBasis.SetNonbasicMove does the same thing over every
// variable at once, but setNonbasicStatus needs it index-by-index so it
// can also update workValue in the same pass.
func moveForBoundsExported(lower, upper float64) basis.Move {
	loFinite := lower > -lp.Infinity
	upFinite := upper < lp.Infinity
	switch {
	case loFinite && upFinite && lower == upper:
		return basis.MoveZero
	case loFinite && upFinite:
		if math.Abs(lower) <= math.Abs(upper) {
			return basis.MoveUp
		}
		return basis.MoveDown
	case loFinite:
		return basis.MoveUp
	case upFinite:
		return basis.MoveDown
	default:
		return basis.MoveZero
	}
}

// ChangeCoefficient implements changeCoefficientInterface: replace a
// single matrix entry (dropping it if |v| is below the small-value
// threshold), marking the basis alien if column j is currently basic.
func (ifc *Interface) ChangeCoefficient(i, j int, v float64) error {
	m := ifc.model()
	if i < 0 || i >= m.NumRow || j < 0 || j >= m.NumCol {
		return errors.New("iface: ChangeCoefficient index out of range")
	}
	m.Matrix.ChangeCoefficient(i, j, v)
	if ifc.Engine.Basis.NonbasicFlag[j] == 0 {
		ifc.Engine.InvalidateInvert()
	} else {
		ifc.Engine.Info.Invalidate()
	}
	return nil
}

// GetCols implements getColsInterface: a pure reader over the index
// collection ix.
func (ifc *Interface) GetCols(ix []int) (cols *lp.Matrix, cost, lower, upper []float64, err error) {
	m := ifc.model()
	cost = make([]float64, len(ix))
	lower = make([]float64, len(ix))
	upper = make([]float64, len(ix))
	cols = lp.NewMatrix(m.NumRow)
	cols.NumCol = len(ix)
	cols.Start = make([]int, len(ix)+1)
	for k, j := range ix {
		if j < 0 || j >= m.NumCol {
			return nil, nil, nil, nil, errors.Errorf("iface: GetCols index %d out of range", j)
		}
		cost[k] = m.ColCost[j]
		lower[k] = m.ColLower[j]
		upper[k] = m.ColUpper[j]
		lo, hi := m.Matrix.Start[j], m.Matrix.Start[j+1]
		cols.Index = append(cols.Index, m.Matrix.Index[lo:hi]...)
		cols.Value = append(cols.Value, m.Matrix.Value[lo:hi]...)
		cols.Start[k+1] = len(cols.Index)
	}
	return cols, cost, lower, upper, nil
}

// GetRows implements getRowsInterface, symmetric to GetCols; the
// returned columns/values describe each requested row's nonzero
// entries in column order.
func (ifc *Interface) GetRows(ix []int) (rowIndex [][]int, rowValue [][]float64, lower, upper []float64, err error) {
	m := ifc.model()
	lower = make([]float64, len(ix))
	upper = make([]float64, len(ix))
	rowIndex = make([][]int, len(ix))
	rowValue = make([][]float64, len(ix))
	for k, i := range ix {
		if i < 0 || i >= m.NumRow {
			return nil, nil, nil, nil, errors.Errorf("iface: GetRows index %d out of range", i)
		}
		lower[k] = m.RowLower[i]
		upper[k] = m.RowUpper[i]
		idx, val := m.Matrix.GetRow(i)
		rowIndex[k] = append([]int(nil), idx...)
		rowValue[k] = append([]float64(nil), val...)
	}
	return rowIndex, rowValue, lower, upper, nil
}

// GetCoefficient implements getCoefficientInterface.
func (ifc *Interface) GetCoefficient(i, j int) (float64, error) {
	m := ifc.model()
	if i < 0 || i >= m.NumRow || j < 0 || j >= m.NumCol {
		return 0, errors.New("iface: GetCoefficient index out of range")
	}
	lo, hi := m.Matrix.Start[j], m.Matrix.Start[j+1]
	for k := lo; k < hi; k++ {
		if m.Matrix.Index[k] == i {
			return m.Matrix.Value[k], nil
		}
	}
	return 0, nil
}

// ScaleCol implements scaleColInterface: multiply column j by a nonzero
// scalar, flipping the affected variable's nonbasic move (in both the
// high-level and simplex basis) when s is negative.
func (ifc *Interface) ScaleCol(j int, s float64) error {
	m := ifc.model()
	if j < 0 || j >= m.NumCol {
		return errors.New("iface: ScaleCol index out of range")
	}
	if s == 0 {
		return errors.New("iface: ScaleCol requires a nonzero scalar")
	}
	m.Matrix.ScaleCol(j, s)
	m.ColCost[j] *= s
	if s < 0 {
		m.ColLower[j], m.ColUpper[j] = -m.ColUpper[j], -m.ColLower[j]
		ifc.flipMoveIfNonbasic(j)
	} else {
		m.ColLower[j] *= s
		m.ColUpper[j] *= s
	}
	ifc.Engine.Work.WorkLower[j], ifc.Engine.Work.WorkUpper[j] = m.ColLower[j], m.ColUpper[j]
	if ifc.Engine.Basis.NonbasicFlag[j] == 0 {
		ifc.Engine.InvalidateInvert()
	} else {
		ifc.Engine.Info.Invalidate()
	}
	return nil
}

// ScaleRow implements scaleRowInterface, symmetric to ScaleCol over the
// row's logical variable.
func (ifc *Interface) ScaleRow(i int, s float64) error {
	m := ifc.model()
	if i < 0 || i >= m.NumRow {
		return errors.New("iface: ScaleRow index out of range")
	}
	if s == 0 {
		return errors.New("iface: ScaleRow requires a nonzero scalar")
	}
	m.Matrix.ScaleRow(i, s)
	if s < 0 {
		m.RowLower[i], m.RowUpper[i] = -m.RowUpper[i], -m.RowLower[i]
	} else {
		m.RowLower[i] *= s
		m.RowUpper[i] *= s
	}
	v := m.NumCol + i
	ifc.Engine.Work.WorkLower[v] = -m.RowUpper[i]
	ifc.Engine.Work.WorkUpper[v] = -m.RowLower[i]
	if s < 0 {
		ifc.flipMoveIfNonbasic(v)
	}
	if ifc.Engine.Basis.NonbasicFlag[v] == 0 {
		ifc.Engine.InvalidateInvert()
	} else {
		ifc.Engine.Info.Invalidate()
	}
	return nil
}

func (ifc *Interface) flipMoveIfNonbasic(v int) {
	b := ifc.Engine.Basis
	if b.NonbasicFlag[v] == 1 && b.NonbasicMove[v] != basis.MoveZero {
		b.NonbasicMove[v] = -b.NonbasicMove[v]
	}
}

// GetBasicVariables implements getBasicVariablesInterface: requires a
// valid basis, factoring under "only from known basis" mode (failing
// on rank deficiency rather than repairing) if no factor currently
// exists. out[i] is the column index of the basic variable of position
// i if it is structural, or -(1+row) if it is the logical of that row.
func (ifc *Interface) GetBasicVariables() ([]int, error) {
	e := ifc.Engine
	if !e.HaveBasis() {
		return nil, ekk.ErrNoBasis
	}
	if !e.HasFreshInvert() {
		if err := e.FactorizeOnlyFromKnownBasis(); err != nil {
			return nil, err
		}
	}
	n := e.Model.NumCol
	out := make([]int, len(e.Basis.BasicIndex))
	for pos, v := range e.Basis.BasicIndex {
		if v < n {
			out[pos] = v
		} else {
			out[pos] = -(1 + (v - n))
		}
	}
	return out, nil
}

// BasisSolve implements basisSolveInterface: BTRAN if transpose else
// FTRAN on rhs (length NumRow), reporting the solution and its nonzero
// indices.
func (ifc *Interface) BasisSolve(rhs []float64, transpose bool) (out []float64, nzIndex []int, err error) {
	e := ifc.Engine
	if !e.HasFreshInvert() {
		return nil, nil, ekk.ErrNoInvert
	}
	if len(rhs) != e.Model.NumRow {
		return nil, nil, errors.New("iface: BasisSolve rhs length mismatch")
	}
	out = append([]float64(nil), rhs...)
	if transpose {
		e.Factor.Btran(out, 0)
	} else {
		e.Factor.Ftran(out, 0)
	}
	for i, v := range out {
		if v != 0 {
			nzIndex = append(nzIndex, i)
		}
	}
	return out, nzIndex, nil
}

// GetDualRay implements getDualRayInterface: if the engine recorded a
// dual ray (a leaving row with no eligible entering column), produce
// the BTRAN of that row's unit vector.
func (ifc *Interface) GetDualRay() (ray []float64, ok bool, err error) {
	e := ifc.Engine
	if !e.HasDualRay() {
		return nil, false, nil
	}
	p := e.RayRow()
	if !e.HasFreshInvert() {
		return nil, false, ekk.ErrNoInvert
	}
	rowEp := make([]float64, e.Model.NumRow)
	rowEp[p] = 1
	e.Factor.Btran(rowEp, 0)
	return rowEp, true, nil
}

// GetPrimalRay implements getPrimalRayInterface: if the engine recorded
// an unbounded entering column with a sign, scatter its FTRAN'd column
// onto basic positions and place -sign at the pivotal nonbasic.
func (ifc *Interface) GetPrimalRay() (ray []float64, ok bool, err error) {
	e := ifc.Engine
	if !e.HasPrimalRay() {
		return nil, false, nil
	}
	q, sign := e.RayColumn()
	if !e.HasFreshInvert() {
		return nil, false, ekk.ErrNoInvert
	}
	n, m := e.Model.NumCol, e.Model.NumRow
	col := make([]float64, m)
	if q < n {
		e.Model.Matrix.ColumnInto(q, col)
	} else {
		col[q-n] = 1
	}
	e.Factor.Ftran(col, 0)
	ray = make([]float64, n+m)
	for pos, v := range e.Basis.BasicIndex {
		ray[v] = col[pos]
	}
	ray[q] = -sign
	return ray, true, nil
}
