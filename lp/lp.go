package lp

import (
	"math"

	"github.com/pkg/errors"
)

// Integrality marks a column as continuous or integer. The engine treats
// both identically; integrality is carried through for the benefit of an
// external branch-and-bound collaborator, out of scope here (spec §1).
type Integrality int

const (
	Continuous Integrality = iota
	Integer
)

// Scale holds the optional per-row/per-column positive multipliers of
// spec §3. When Active, Matrix values are already scaled and the scale
// is applied implicitly when reporting to users.
type Scale struct {
	Active   bool
	RowScale []float64
	ColScale []float64
}

// LP is the problem data model of spec §3:
//
//	minimize cᵀx  subject to  ℓ_r ≤ A x ≤ u_r ,  ℓ_c ≤ x ≤ u_c
type LP struct {
	NumCol int
	NumRow int

	ColCost        []float64
	ColLower       []float64
	ColUpper       []float64
	ColIntegrality []Integrality

	RowLower []float64
	RowUpper []float64

	Matrix *Matrix

	ColNames []string
	RowNames []string

	Sense  Sense
	Offset float64

	UserBoundScale int
	UserCostScale  int

	Scale *Scale

	colNameIndex map[string]int
	rowNameIndex map[string]int
}

// New returns an empty numRow x numCol LP with zero cost, column bounds
// [0, +Infinity) and free row bounds; callers populate via the Interface layer (see package iface) or
// directly for tests.
func New(numRow, numCol int) *LP {
	lp := &LP{
		NumCol:         numCol,
		NumRow:         numRow,
		ColCost:        make([]float64, numCol),
		ColLower:       make([]float64, numCol),
		ColUpper:       make([]float64, numCol),
		ColIntegrality: make([]Integrality, numCol),
		RowLower:       make([]float64, numRow),
		RowUpper:       make([]float64, numRow),
		Matrix:         NewMatrix(numRow),
	}
	lp.Matrix.NumCol = numCol
	lp.Matrix.Start = make([]int, numCol+1)
	for j := range lp.ColUpper {
		lp.ColUpper[j] = Infinity
	}
	for i := range lp.RowUpper {
		lp.RowUpper[i] = Infinity
	}
	for i := range lp.RowLower {
		lp.RowLower[i] = -Infinity
	}
	return lp
}

// DimensionsOk checks the structural invariant of spec §3/§8: for every
// column j, start[j] <= start[j+1] <= nz, and all the top-level vector
// lengths agree with NumRow/NumCol.
func (lp *LP) DimensionsOk() error {
	m := lp.Matrix
	if m.NumCol != lp.NumCol || m.NumRow != lp.NumRow {
		return errors.Errorf("matrix dims (%d,%d) do not match LP dims (%d,%d)", m.NumRow, m.NumCol, lp.NumRow, lp.NumCol)
	}
	if len(m.Start) != lp.NumCol+1 {
		return errors.Errorf("matrix Start has %d entries, want %d", len(m.Start), lp.NumCol+1)
	}
	nz := len(m.Index)
	for j := 0; j < lp.NumCol; j++ {
		if m.Start[j] > m.Start[j+1] || m.Start[j+1] > nz {
			return errors.Errorf("matrix Start not monotone/in-range at col %d", j)
		}
	}
	if len(lp.ColCost) != lp.NumCol || len(lp.ColLower) != lp.NumCol || len(lp.ColUpper) != lp.NumCol {
		return errors.New("column vector length mismatch")
	}
	if len(lp.RowLower) != lp.NumRow || len(lp.RowUpper) != lp.NumRow {
		return errors.New("row vector length mismatch")
	}
	return nil
}

// AssessBounds validates a bound pair per spec §7 (numeric-infeasibility
// of inputs): lower must not exceed upper, neither may be NaN, and a
// lower above the +Infinity sentinel or an upper below the -Infinity
// sentinel is rejected. An IEEE -Inf lower or +Inf upper is accepted.
func AssessBounds(lower, upper float64) error {
	if math.IsNaN(lower) || math.IsNaN(upper) {
		return errors.New("bound is NaN")
	}
	if lower > upper+1e-9 {
		return errors.Errorf("lower bound %g exceeds upper bound %g", lower, upper)
	}
	if lower > Infinity || upper < -Infinity {
		return errors.New("bound ordering places lower above +inf sentinel or upper below -inf sentinel")
	}
	return nil
}

// AssessCost validates a single cost coefficient: must be finite, or
// exactly +-Infinity to select the handleInfCost fixing path of §4.7.
func AssessCost(cost float64) error {
	if math.IsNaN(cost) {
		return errors.New("cost is NaN")
	}
	if math.IsInf(cost, 0) {
		return errors.New("cost is an unsandboxed infinity, use the Infinity sentinel")
	}
	return nil
}

// ApplyUserBoundScale multiplies a bound by 2^UserBoundScale, per spec §3.
func (lp *LP) ApplyUserBoundScale(b float64) float64 {
	if lp.UserBoundScale == 0 || math.Abs(b) >= Infinity {
		return b
	}
	return b * math.Pow(2, float64(lp.UserBoundScale))
}

// ApplyUserCostScale multiplies a cost by 2^UserCostScale, per spec §3.
func (lp *LP) ApplyUserCostScale(c float64) float64 {
	if lp.UserCostScale == 0 || math.Abs(c) >= Infinity {
		return c
	}
	return c * math.Pow(2, float64(lp.UserCostScale))
}

// SignedCost returns column j's cost with the sign flipped for a
// maximize sense, since the engine
// always works internally with a minimization objective (spec §4.4).
func (lp *LP) SignedCost(j int) float64 {
	if lp.Sense == Maximize {
		return -lp.ColCost[j]
	}
	return lp.ColCost[j]
}

// ColIndex looks up a column by name, lazily building (or reusing) the
// name->index map; the map is cleared by any row/col deletion per spec §4.7.
func (lp *LP) ColIndex(name string) (int, bool) {
	if lp.colNameIndex == nil {
		lp.colNameIndex = make(map[string]int, len(lp.ColNames))
		for i, n := range lp.ColNames {
			lp.colNameIndex[n] = i
		}
	}
	idx, ok := lp.colNameIndex[name]
	return idx, ok
}

func (lp *LP) RowIndex(name string) (int, bool) {
	if lp.rowNameIndex == nil {
		lp.rowNameIndex = make(map[string]int, len(lp.RowNames))
		for i, n := range lp.RowNames {
			lp.rowNameIndex[n] = i
		}
	}
	idx, ok := lp.rowNameIndex[name]
	return idx, ok
}

// ClearNameIndex drops the cached name->index hashes, per spec §4.7
// ("Row/column name->index hashes are cleared" on delete).
func (lp *LP) ClearNameIndex() {
	lp.colNameIndex = nil
	lp.rowNameIndex = nil
}
