// Package workarray holds the per-variable working cost/dual/bounds and
// per-basic-row base value/bounds of spec §3 ("Work arrays") and the
// initialization logic of spec §4.4.
package workarray

import (
	"math"

	"simplexcore/basis"
	"simplexcore/lp"
)

// Algorithm tags which driver is about to run, spec §4.4/§4.5.
type Algorithm int

const (
	Primal Algorithm = iota
	Dual
)

// Phase tags phase 1 (feasibility) vs phase 2 (optimality) within a
// driver, spec §4.4/§4.5.
type Phase int

const (
	Phase1 Phase = iota
	Phase2
)

// WorkArrays is defined over all n+m variables; logicals (indices >= n)
// correspond to slacks with identity columns in [A | I].
type WorkArrays struct {
	NumCol int
	NumRow int

	WorkCost  []float64
	WorkDual  []float64
	WorkLower []float64
	WorkUpper []float64
	WorkValue []float64
	WorkShift []float64
	WorkRange []float64

	BaseValue []float64
	BaseLower []float64
	BaseUpper []float64
}

func New(numCol, numRow int) *WorkArrays {
	n, m := numCol, numRow
	return &WorkArrays{
		NumCol:    numCol,
		NumRow:    numRow,
		WorkCost:  make([]float64, n+m),
		WorkDual:  make([]float64, n+m),
		WorkLower: make([]float64, n+m),
		WorkUpper: make([]float64, n+m),
		WorkValue: make([]float64, n+m),
		WorkShift: make([]float64, n+m),
		WorkRange: make([]float64, n+m),
		BaseValue: make([]float64, m),
		BaseLower: make([]float64, m),
		BaseUpper: make([]float64, m),
	}
}

// AppendCols grows every per-variable array by n new column slots ahead
// of the logical block, zero-valued, spec §4.7 addColsInterface. Callers
// follow with InitialiseLpColCost/Bound over the new range and
// InitialiseNonbasicValueAndMove to populate them.
func (w *WorkArrays) AppendCols(n int) {
	if n == 0 {
		return
	}
	oldNumCol := w.NumCol
	newNumCol := oldNumCol + n
	newTotal := newNumCol + w.NumRow
	grow := func(old []float64) []float64 {
		out := make([]float64, newTotal)
		copy(out[:oldNumCol], old[:oldNumCol])
		copy(out[newNumCol:], old[oldNumCol:])
		return out
	}
	w.WorkCost = grow(w.WorkCost)
	w.WorkDual = grow(w.WorkDual)
	w.WorkLower = grow(w.WorkLower)
	w.WorkUpper = grow(w.WorkUpper)
	w.WorkValue = grow(w.WorkValue)
	w.WorkShift = grow(w.WorkShift)
	w.WorkRange = grow(w.WorkRange)
	w.NumCol = newNumCol
}

// AppendRows grows every per-variable array by n new row-logical slots
// at the tail, and every per-basic-row array by n new basic rows, spec
// §4.7 addRowsInterface ("new rows become basic").
func (w *WorkArrays) AppendRows(n int) {
	if n == 0 {
		return
	}
	oldTotal := w.NumCol + w.NumRow
	newNumRow := w.NumRow + n
	newTotal := w.NumCol + newNumRow
	grow := func(old []float64) []float64 {
		out := make([]float64, newTotal)
		copy(out, old[:oldTotal])
		return out
	}
	w.WorkCost = grow(w.WorkCost)
	w.WorkDual = grow(w.WorkDual)
	w.WorkLower = grow(w.WorkLower)
	w.WorkUpper = grow(w.WorkUpper)
	w.WorkValue = grow(w.WorkValue)
	w.WorkShift = grow(w.WorkShift)
	w.WorkRange = grow(w.WorkRange)
	w.BaseValue = append(w.BaseValue, make([]float64, n)...)
	w.BaseLower = append(w.BaseLower, make([]float64, n)...)
	w.BaseUpper = append(w.BaseUpper, make([]float64, n)...)
	w.NumRow = newNumRow
}

// DeleteCols drops the per-variable slots named in mask, spec §4.7
// deleteColsInterface. Per-basic-row arrays are left untouched; the
// basis itself must be reinstalled afterward (basis.SimplexBasis.DeleteCols
// and the caller's SetLogicalBasis/SetBasis do that).
func (w *WorkArrays) DeleteCols(mask []bool) {
	oldNumCol := w.NumCol
	newNumCol := 0
	for _, del := range mask {
		if !del {
			newNumCol++
		}
	}
	newTotal := newNumCol + w.NumRow
	shrink := func(old []float64) []float64 {
		out := make([]float64, newTotal)
		k := 0
		for j := 0; j < oldNumCol; j++ {
			if !mask[j] {
				out[k] = old[j]
				k++
			}
		}
		copy(out[newNumCol:], old[oldNumCol:])
		return out
	}
	w.WorkCost = shrink(w.WorkCost)
	w.WorkDual = shrink(w.WorkDual)
	w.WorkLower = shrink(w.WorkLower)
	w.WorkUpper = shrink(w.WorkUpper)
	w.WorkValue = shrink(w.WorkValue)
	w.WorkShift = shrink(w.WorkShift)
	w.WorkRange = shrink(w.WorkRange)
	w.NumCol = newNumCol
}

// DeleteRows drops the rows named in mask, spec §4.7 deleteRowsInterface.
func (w *WorkArrays) DeleteRows(mask []bool) {
	newNumRow := 0
	for _, del := range mask {
		if !del {
			newNumRow++
		}
	}
	newTotal := w.NumCol + newNumRow
	shrink := func(old []float64) []float64 {
		out := make([]float64, newTotal)
		copy(out[:w.NumCol], old[:w.NumCol])
		k := w.NumCol
		for i := 0; i < w.NumRow; i++ {
			if !mask[i] {
				out[k] = old[w.NumCol+i]
				k++
			}
		}
		return out
	}
	baseShrink := func(old []float64) []float64 {
		out := make([]float64, newNumRow)
		k := 0
		for i := 0; i < w.NumRow; i++ {
			if !mask[i] {
				out[k] = old[i]
				k++
			}
		}
		return out
	}
	w.WorkCost = shrink(w.WorkCost)
	w.WorkDual = shrink(w.WorkDual)
	w.WorkLower = shrink(w.WorkLower)
	w.WorkUpper = shrink(w.WorkUpper)
	w.WorkValue = shrink(w.WorkValue)
	w.WorkShift = shrink(w.WorkShift)
	w.WorkRange = shrink(w.WorkRange)
	w.BaseValue = baseShrink(w.BaseValue)
	w.BaseLower = baseShrink(w.BaseLower)
	w.BaseUpper = baseShrink(w.BaseUpper)
	w.NumRow = newNumRow
}

// InitialiseLpColCost copies LP costs into WorkCost, flipping sign for a
// maximize sense, spec §4.4.
func (w *WorkArrays) InitialiseLpColCost(model *lp.LP) {
	for j := 0; j < w.NumCol; j++ {
		w.WorkCost[j] = model.SignedCost(j)
	}
}

// InitialiseLpRowCost zeroes the cost of every logical, spec §4.4.
func (w *WorkArrays) InitialiseLpRowCost() {
	for i := 0; i < w.NumRow; i++ {
		w.WorkCost[w.NumCol+i] = 0
	}
}

// InitialiseLpColBound copies column bounds verbatim, spec §4.4.
func (w *WorkArrays) InitialiseLpColBound(model *lp.LP) {
	for j := 0; j < w.NumCol; j++ {
		w.WorkLower[j] = model.ColLower[j]
		w.WorkUpper[j] = model.ColUpper[j]
	}
}

// InitialiseLpRowBound copies row bounds using the slack convention of
// spec §3/§4.4: workLower[n+i] = -u_r[i], workUpper[n+i] = -l_r[i].
func (w *WorkArrays) InitialiseLpRowBound(model *lp.LP) {
	for i := 0; i < w.NumRow; i++ {
		w.WorkLower[w.NumCol+i] = -model.RowUpper[i]
		w.WorkUpper[w.NumCol+i] = -model.RowLower[i]
	}
}

// shrink implements spec §4.4's base = 5e-7 * shrink(max|c|) helper:
// identity below 100, fourth root above.
func shrink(maxAbsCost float64) float64 {
	if maxAbsCost <= 100 {
		return maxAbsCost
	}
	return math.Pow(maxAbsCost, 0.25)
}

// RandSource supplies the per-column pseudo-random fraction r in [0,1)
// used by cost/bound perturbation, spec §4.4/§9 ("the random number
// stream is per-engine and seeded from options").
type RandSource interface {
	Float64(col int) float64
}

// InitialiseCost applies the dual-simplex cost perturbation of spec
// §4.4 when alg==Dual, perturb is true, and phase allows it (both
// phases may perturb; callers gate on allow-perturbation flags
// upstream). mu is the user perturbation multiplier.
func (w *WorkArrays) InitialiseCost(alg Algorithm, phase Phase, perturb bool, mu float64, rnd RandSource) {
	if !perturb || alg != Dual {
		return
	}
	maxAbsCost := 0.0
	for j := 0; j < w.NumCol; j++ {
		if a := math.Abs(w.WorkCost[j]); a > maxAbsCost {
			maxAbsCost = a
		}
	}
	base := 5e-7 * shrink(maxAbsCost)

	boxed, total := 0, 0
	for j := 0; j < w.NumCol; j++ {
		if w.WorkLower[j] > -lp.Infinity && w.WorkUpper[j] < lp.Infinity && w.WorkLower[j] != w.WorkUpper[j] {
			boxed++
		}
		total++
	}
	if total > 0 && float64(boxed)/float64(total) < 0.01 {
		if base > 1 {
			base = 1
		}
	}

	for j := 0; j < w.NumCol; j++ {
		r := rnd.Float64(j)
		lower, upper := w.WorkLower[j], w.WorkUpper[j]
		loFinite := lower > -lp.Infinity
		upFinite := upper < lp.Infinity
		var sign float64
		switch {
		case lower == upper:
			continue // fixed, no perturb
		case !loFinite && !upFinite:
			continue // free, no perturb
		case loFinite && upFinite:
			sign = sgn(w.WorkCost[j])
			if sign == 0 {
				sign = 1
			}
		case loFinite:
			sign = 1
		default:
			sign = -1
		}
		mag := (math.Abs(w.WorkCost[j]) + 1) * base * mu * (1 + r)
		w.WorkCost[j] += sign * mag
	}
	for i := 0; i < w.NumRow; i++ {
		v := w.NumCol + i
		w.WorkCost[v] += 1e-12 * (rnd.Float64(v)*2 - 1)
	}
}

func sgn(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// InitialiseBound applies the primal-simplex bound perturbation, or the
// dual phase-1 bound rewrite, of spec §4.4.
func (w *WorkArrays) InitialiseBound(alg Algorithm, phase Phase, perturb bool, base float64, rnd RandSource) {
	if alg == Dual && phase == Phase1 {
		for v := 0; v < w.NumCol+w.NumRow; v++ {
			lower, upper := w.WorkLower[v], w.WorkUpper[v]
			loFinite := lower > -lp.Infinity
			upFinite := upper < lp.Infinity
			switch {
			case !loFinite && !upFinite:
				w.WorkLower[v], w.WorkUpper[v] = -1000, 1000
			case loFinite && !upFinite:
				w.WorkLower[v], w.WorkUpper[v] = 0, 1
			case !loFinite && upFinite:
				w.WorkLower[v], w.WorkUpper[v] = -1, 0
			default:
				w.WorkLower[v], w.WorkUpper[v] = 0, 0
			}
		}
		return
	}
	if alg != Primal || !perturb {
		return
	}
	for v := 0; v < w.NumCol+w.NumRow; v++ {
		r := rnd.Float64(v)
		if w.WorkLower[v] > -lp.Infinity {
			w.WorkLower[v] -= r * base * math.Max(1, math.Abs(w.WorkLower[v]))
		}
		if w.WorkUpper[v] < lp.Infinity {
			w.WorkUpper[v] += r * base * math.Max(1, math.Abs(w.WorkUpper[v]))
		}
	}
}

// InitialiseNonbasicValueAndMove sets WorkValue for nonbasic variables
// to the bound implied by their move; basic variables get move=0 and an
// undefined value that FTRAN will overwrite, spec §4.4.
func (w *WorkArrays) InitialiseNonbasicValueAndMove(sb *basis.SimplexBasis) {
	for v := 0; v < w.NumCol+w.NumRow; v++ {
		if sb.NonbasicFlag[v] == 0 {
			continue
		}
		switch sb.NonbasicMove[v] {
		case basis.MoveUp:
			w.WorkValue[v] = w.WorkLower[v]
		case basis.MoveDown:
			w.WorkValue[v] = w.WorkUpper[v]
		default:
			if w.WorkLower[v] == w.WorkUpper[v] {
				w.WorkValue[v] = w.WorkLower[v]
			} else {
				w.WorkValue[v] = 0
			}
		}
	}
}
