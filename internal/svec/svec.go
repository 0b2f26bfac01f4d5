// Package svec holds small sparse-vector helpers; factor is the package
// that uses them (Sum and Sign). Indices are always with respect to the basis's row space
// (length m) or the full variable space (length n+m), depending on caller.
package svec

import "golang.org/x/exp/constraints"

// Vector is a sparse vector over a dense backing array, with an explicit
// list of the indices currently believed nonzero. The index list may
// contain stale zeros after cancellation; Reindex removes them.
type Vector struct {
	Dim     int
	Dense   []float64
	Index   []int
	Packed  bool // true once Index is known to list exactly the nonzeros
}

func NewVector(dim int) *Vector {
	return &Vector{Dim: dim, Dense: make([]float64, dim)}
}

func (v *Vector) Clear() {
	for _, i := range v.Index {
		v.Dense[i] = 0
	}
	v.Index = v.Index[:0]
	v.Packed = true
}

func (v *Vector) ClearDense() {
	for i := range v.Dense {
		v.Dense[i] = 0
	}
	v.Index = v.Index[:0]
	v.Packed = true
}

// Set assigns a value and records the index if not already present.
// Callers that set many entries in a tight loop should instead write
// Dense directly and call Reindex once.
func (v *Vector) Set(i int, val float64) {
	if v.Dense[i] == 0 && val != 0 {
		v.Index = append(v.Index, i)
	}
	v.Dense[i] = val
}

// Reindex rebuilds Index from Dense by scanning for nonzeros. Used after
// bulk writes to Dense outside of Set.
func (v *Vector) Reindex() {
	v.Index = v.Index[:0]
	for i, x := range v.Dense {
		if x != 0 {
			v.Index = append(v.Index, i)
		}
	}
	v.Packed = true
}

// Density returns the fraction of Dim currently nonzero, using Index.
func (v *Vector) Density() float64 {
	if v.Dim == 0 {
		return 0
	}
	return float64(len(v.Index)) / float64(v.Dim)
}

// Sum returns the sum of the entries of xs.
func Sum[T constraints.Float](xs []T) T {
	var s T
	for _, x := range xs {
		s += x
	}
	return s
}

// Sign returns -1, 0, or +1 matching the sign of x.
func Sign[T constraints.Float](x T) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// Scatter writes a compact (index, value) pair list into a dense array.
func Scatter(dense []float64, index []int, value []float64) {
	for k, i := range index {
		dense[i] = value[k]
	}
}

// Gather reads a dense array back into compact (index, value) form for
// every index currently believed nonzero.
func Gather(dense []float64, index []int) (outIndex []int, outValue []float64) {
	outIndex = make([]int, 0, len(index))
	outValue = make([]float64, 0, len(index))
	for _, i := range index {
		if dense[i] != 0 {
			outIndex = append(outIndex, i)
			outValue = append(outValue, dense[i])
		}
	}
	return
}
