// Package factor maintains the LU-like factorization of the current
// basis matrix B and the FTRAN/BTRAN/update primitives of spec §4.2,
// grounded on the Markowitz threshold-pivoting approach of
// _examples/edp1096-sparse (markowitz.go, pivot.go, factor.go),
// adapted from that package's linked sparse-element structure to a
// dense elimination core sized to the basis (m x m) — the basis is the
// only matrix this package ever factorizes, so a dense working copy is
// the right tradeoff between fidelity to HFactor's Markowitz rule and
// the scope of this exercise (see DESIGN.md).
package factor

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"simplexcore/basis"
	"simplexcore/internal/svec"
	"simplexcore/lp"
)

// RebuildReason explains why Update signaled that a fresh factorization
// is needed, spec §4.2.
type RebuildReason int

const (
	NoRebuildNeeded RebuildReason = iota
	RebuildUpdateLimitReached
	RebuildSyntheticTickLimit
	RebuildPivotDiscrepancy
)

const absPivotTolerance = 1e-10

// Factor is the engine's sole owner of the basis factorization, spec §9
// ("the engine the sole owner of both basis and factor and passing
// indices, not references, across module boundaries").
type Factor struct {
	NumRow int

	Tau           float64 // Markowitz/threshold pivot parameter, (0,1]
	MaxTau        float64
	UpdateLimit   int
	updateCount   int

	rowPerm []int // rowPerm[k] = original row used as the pivot row of step k
	l       [][]float64
	u       [][]float64

	// eta is the product-form update list appended by Update; applied
	// after the base L/U solve in both Ftran and Btran.
	eta []etaVector

	HasInvert bool

	// NoPvR/NoPvC record the rank-deficiency repair performed by the
	// most recent Build, spec §4.2.
	NoPvR []int
	NoPvC []int

	lastFtranDensity float64
	lastBtranDensity float64
}

type etaVector struct {
	pivotPos int
	col      []float64 // dense, length NumRow, the transformed incoming column
}

func New(numRow int, tau, maxTau float64, updateLimit int) *Factor {
	return &Factor{
		NumRow:      numRow,
		Tau:         tau,
		MaxTau:      maxTau,
		UpdateLimit: updateLimit,
	}
}

// gatherBasisMatrix builds the dense m x m basis matrix from the LP's
// structural columns and the logical (identity) columns, selected by
// sb.BasicIndex, spec §3 ("B formed by the columns of [A | I_m] selected
// by basicIndex").
func gatherBasisMatrix(model *lp.LP, sb *basis.SimplexBasis) [][]float64 {
	m := sb.NumRow
	n := sb.NumCol
	B := make([][]float64, m)
	for i := range B {
		B[i] = make([]float64, m)
	}
	for pos, v := range sb.BasicIndex {
		if v < n {
			lo, hi := model.Matrix.Start[v], model.Matrix.Start[v+1]
			for k := lo; k < hi; k++ {
				B[model.Matrix.Index[k]][pos] = model.Matrix.Value[k]
			}
		} else {
			B[v-n][pos] = 1
		}
	}
	return B
}

// Build computes the LU-like factorization described in spec §4.2.
// Returns 0 on success; returns k>0 when the basis is rank-deficient,
// with k basis columns replaced by unit columns (logicals) at the rows
// in f.NoPvR with displaced variables f.NoPvC. The L/U left after a
// rank-deficient Build is not a factorization of the repaired basis;
// ekk's Engine.Factorize rebuilds once the logicals are installed.
func (f *Factor) Build(model *lp.LP, sb *basis.SimplexBasis) (int, error) {
	m := f.NumRow
	work := gatherBasisMatrix(model, sb)
	rowOrder := make([]int, m)
	for i := range rowOrder {
		rowOrder[i] = i
	}

	f.l = newSquare(m)
	f.u = newSquare(m)
	f.NoPvR = nil
	f.NoPvC = nil
	f.eta = nil
	f.updateCount = 0

	for k := 0; k < m; k++ {
		slot, ok := f.choosePivotSlot(work, k, m)
		if !ok {
			// Column k (basic position k, variable sb.BasicIndex[k]) is
			// rank deficient: substitute a unit column at the row
			// currently sitting in slot k, and drop the rest of this
			// column's contribution to later eliminations.
			f.u[k][k] = 1
			f.l[k][k] = 1
			for s := k + 1; s < m; s++ {
				work[s][k] = 0
			}
			f.NoPvR = append(f.NoPvR, rowOrder[k])
			f.NoPvC = append(f.NoPvC, sb.BasicIndex[k])
			continue
		}
		if slot != k {
			work[k], work[slot] = work[slot], work[k]
			rowOrder[k], rowOrder[slot] = rowOrder[slot], rowOrder[k]
		}
		pivotVal := work[k][k]
		f.u[k][k] = pivotVal
		for col := k + 1; col < m; col++ {
			f.u[k][col] = work[k][col]
		}
		f.l[k][k] = 1
		for s := k + 1; s < m; s++ {
			factorVal := work[s][k] / pivotVal
			if factorVal == 0 {
				continue
			}
			f.l[s][k] = factorVal
			for col := k + 1; col < m; col++ {
				work[s][col] -= factorVal * work[k][col]
			}
		}
	}
	f.rowPerm = rowOrder
	f.HasInvert = true
	return len(f.NoPvR), nil
}

func newSquare(m int) [][]float64 {
	s := make([][]float64, m)
	for i := range s {
		s[i] = make([]float64, m)
	}
	return s
}

// choosePivotSlot implements the Markowitz-like threshold rule of spec
// §4.2: among the not-yet-pivoted slots [k,m), pick the one with
// |value| >= tau * columnMax and fewest remaining nonzeros in the
// unfactored suffix (approximating minimum fill), breaking ties toward
// larger magnitude for numerical stability.
func (f *Factor) choosePivotSlot(work [][]float64, col, m int) (int, bool) {
	colMax := 0.0
	for r := col; r < m; r++ {
		if a := math.Abs(work[r][col]); a > colMax {
			colMax = a
		}
	}
	if colMax <= absPivotTolerance {
		return -1, false
	}
	best := -1
	bestCount := math.MaxInt32
	bestVal := 0.0
	for r := col; r < m; r++ {
		v := math.Abs(work[r][col])
		if v < f.Tau*colMax || v <= absPivotTolerance {
			continue
		}
		count := rowNonzeroCount(work[r], col+1, m)
		if count < bestCount || (count == bestCount && v > bestVal) {
			best, bestCount, bestVal = r, count, v
		}
	}
	if best < 0 {
		return -1, false
	}
	return best, true
}

func rowNonzeroCount(row []float64, from, to int) int {
	c := 0
	for j := from; j < to; j++ {
		if row[j] != 0 {
			c++
		}
	}
	return c
}

// Ftran replaces v by B^-1 v (spec §4.2), applying the base LU solve
// followed by any eta updates in order, then updates density tracking.
func (f *Factor) Ftran(v []float64, expectedDensity float64) {
	m := f.NumRow
	permuted := make([]float64, m)
	for k := 0; k < m; k++ {
		permuted[k] = v[f.rowPerm[k]]
	}
	y := forwardSolveUnitLower(f.l, permuted)
	x := backSolveUpper(f.u, y)
	for _, e := range f.eta {
		applyEtaFtran(x, e)
	}
	copy(v, x)
	nz := 0
	for _, x := range v {
		if x != 0 {
			nz++
		}
	}
	if m > 0 {
		f.lastFtranDensity = float64(nz) / float64(m)
	}
	_ = expectedDensity
}

// Btran replaces v by B^-T v (spec §4.2).
func (f *Factor) Btran(v []float64, expectedDensity float64) {
	m := f.NumRow
	x := append([]float64(nil), v...)
	for i := len(f.eta) - 1; i >= 0; i-- {
		applyEtaBtran(x, f.eta[i])
	}
	z := forwardSolveUpperTranspose(f.u, x)
	y := backSolveUnitLowerTranspose(f.l, z)
	out := make([]float64, m)
	for k := 0; k < m; k++ {
		out[f.rowPerm[k]] = y[k]
	}
	copy(v, out)
	nz := 0
	for _, x := range v {
		if x != 0 {
			nz++
		}
	}
	if m > 0 {
		f.lastBtranDensity = float64(nz) / float64(m)
	}
	_ = expectedDensity
}

func forwardSolveUnitLower(l [][]float64, b []float64) []float64 {
	m := len(b)
	y := make([]float64, m)
	for i := 0; i < m; i++ {
		s := b[i]
		for j := 0; j < i; j++ {
			s -= l[i][j] * y[j]
		}
		y[i] = s // l[i][i] == 1
	}
	return y
}

func backSolveUpper(u [][]float64, y []float64) []float64 {
	m := len(y)
	x := make([]float64, m)
	for i := m - 1; i >= 0; i-- {
		s := y[i]
		for j := i + 1; j < m; j++ {
			s -= u[i][j] * x[j]
		}
		if u[i][i] == 0 {
			x[i] = 0
			continue
		}
		x[i] = s / u[i][i]
	}
	return x
}

func forwardSolveUpperTranspose(u [][]float64, b []float64) []float64 {
	m := len(b)
	y := make([]float64, m)
	for i := 0; i < m; i++ {
		s := b[i]
		for j := 0; j < i; j++ {
			s -= u[j][i] * y[j]
		}
		if u[i][i] == 0 {
			y[i] = 0
			continue
		}
		y[i] = s / u[i][i]
	}
	return y
}

func backSolveUnitLowerTranspose(l [][]float64, y []float64) []float64 {
	m := len(y)
	x := make([]float64, m)
	for i := m - 1; i >= 0; i-- {
		s := y[i]
		for j := i + 1; j < m; j++ {
			s -= l[j][i] * x[j]
		}
		x[i] = s
	}
	return x
}

func applyEtaFtran(x []float64, e etaVector) {
	p := x[e.pivotPos]
	if e.col[e.pivotPos] == 0 {
		return
	}
	ratio := p / e.col[e.pivotPos]
	for i, c := range e.col {
		if i == e.pivotPos {
			continue
		}
		x[i] -= ratio * c
	}
	x[e.pivotPos] = ratio
}

func applyEtaBtran(x []float64, e etaVector) {
	var s float64
	for i, c := range e.col {
		if i == e.pivotPos {
			continue
		}
		s += c * x[i]
	}
	denom := e.col[e.pivotPos]
	if denom == 0 {
		return
	}
	x[e.pivotPos] = (x[e.pivotPos] - s) / denom
}

// Update performs the product-form update for a pivot replacing the
// basic column at position rowOut with the incoming (already FTRAN'd)
// column, spec §4.2. hint receives the rebuild reason if the update
// count reached UpdateLimit.
func (f *Factor) Update(column []float64, rowOut int) (hint RebuildReason) {
	f.eta = append(f.eta, etaVector{pivotPos: rowOut, col: append([]float64(nil), column...)})
	f.updateCount++
	if f.updateCount >= f.UpdateLimit {
		return RebuildUpdateLimitReached
	}
	return NoRebuildNeeded
}

// HalveUpdateLimit is invoked by the engine's backtracking logic (spec
// §4.5) after restoring a snapshot and refactoring.
func (f *Factor) HalveUpdateLimit() {
	f.UpdateLimit = max(1, f.UpdateLimit/2)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// CheckPivotDiscrepancy implements the numerical safeguard of spec
// §4.2: compares alphaCol = FTRAN(a_q)[rowOut] against alphaRow =
// (BTRAN(e_p)·A)[q] and forces a re-factorization (by returning true)
// if their relative discrepancy exceeds tolerance after at least one
// update has been applied.
func (f *Factor) CheckPivotDiscrepancy(alphaCol, alphaRow, tolerance float64) (needsRefactor bool) {
	if len(f.eta) == 0 {
		return false
	}
	denom := math.Max(math.Abs(alphaCol), math.Abs(alphaRow))
	if denom == 0 {
		return false
	}
	rel := math.Abs(alphaCol-alphaRow) / denom
	if rel > tolerance {
		f.Tau = math.Min(f.MaxTau, f.Tau*1.5)
		return true
	}
	return false
}

// ComputeBasisCondition estimates ||B||_1 * ||B^-1||_1 via Hager's
// 1-norm estimator over 5 power iterations of FTRAN/BTRAN on sign
// vectors, spec §4.6. The Hager iterations use plain slices; gonum's
// dense vector type holds each basis column while ||B||_1 is summed,
// the teacher's (felipends-revised-simplex) own dependency, redirected
// from its original dense-basis-inverse role to this small estimator.
func (f *Factor) ComputeBasisCondition(model *lp.LP, sb *basis.SimplexBasis) float64 {
	m := f.NumRow
	if m == 0 {
		return 1
	}
	normBInv := f.hagerNorm(func(v []float64) { f.Ftran(v, 1) }, func(v []float64) { f.Btran(v, 1) }, m)

	B := gatherBasisMatrix(model, sb)
	normB := 0.0
	for j := 0; j < m; j++ {
		col := mat.NewVecDense(m, nil)
		for i := 0; i < m; i++ {
			col.SetVec(i, B[i][j])
		}
		s := 0.0
		for i := 0; i < m; i++ {
			s += math.Abs(col.AtVec(i))
		}
		if s > normB {
			normB = s
		}
	}
	return normB * normBInv
}

// hagerNorm is Hager's algorithm for estimating ||A||_1 given only the
// ability to apply A and A^T to a vector (here, B^-1 via Ftran/Btran).
func (f *Factor) hagerNorm(apply, applyT func([]float64), m int) float64 {
	x := make([]float64, m)
	for i := range x {
		x[i] = 1.0 / float64(m)
	}
	estimate := 0.0
	for iter := 0; iter < 5; iter++ {
		y := append([]float64(nil), x...)
		apply(y)
		estimate = svec.Sum(absAll(y))
		z := make([]float64, m)
		for i, yi := range y {
			z[i] = float64(svec.Sign(yi))
		}
		applyT(z)
		maxAbs, maxIdx := 0.0, 0
		for i, zi := range z {
			if a := math.Abs(zi); a > maxAbs {
				maxAbs, maxIdx = a, i
			}
		}
		xNext := make([]float64, m)
		xNext[maxIdx] = 1
		if vecEqual(xNext, x) {
			break
		}
		x = xNext
	}
	return estimate
}

func absAll(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = math.Abs(x)
	}
	return out
}

func vecEqual(a, b []float64) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ErrNoInvert is returned by callers that require HasInvert and don't
// have it.
var ErrNoInvert = errors.New("factor: no current invert")
