// Package price implements the column-wise / hyper-sparse row-wise PRICE
// operation of spec §4.1/§4.6: computing aᴿ = a·B⁻¹ products against A's
// rows, i.e. tableauRowPrice.
package price

import (
	"simplexcore/basis"
	"simplexcore/lp"
)

// Strategy selects among the price techniques of spec §4.6.
type Strategy int

const (
	ColumnPrice Strategy = iota
	HyperSparseRowPrice
	RowPriceSwitch
)

const densitySwitchThreshold = 0.75

// TableauRowPrice computes rowAp = A' * rowEp (spec §4.6), choosing a
// technique from {column-price, hyper-sparse row-price, row-price with
// density switch} based on rowEp's density and strategy. RowPriceSwitch
// picks column-price when rowEp's density exceeds 0.75 and row-price
// otherwise, once, before pricing starts. After column-price, zero
// entries corresponding to basic variables.
func TableauRowPrice(model *lp.LP, sb *basis.SimplexBasis, rowEp []float64, strategy Strategy) (rowAp []float64) {
	n := sb.NumCol
	rowAp = make([]float64, n)

	density := densityOf(rowEp)
	useColumn := strategy == ColumnPrice || (strategy == RowPriceSwitch && density > densitySwitchThreshold)

	if useColumn {
		priceByColumn(model, rowEp, rowAp)
	} else {
		priceByRow(model, rowEp, rowAp)
	}

	if useColumn {
		for j := 0; j < n; j++ {
			if sb.NonbasicFlag[j] == 0 {
				rowAp[j] = 0
			}
		}
	}
	return rowAp
}

func densityOf(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	nz := 0
	for _, x := range v {
		if x != 0 {
			nz++
		}
	}
	return float64(nz) / float64(len(v))
}

// priceByColumn computes, for every structural column j, the dot
// product of column j with rowEp: a column-at-a-time sweep over the
// whole matrix.
func priceByColumn(model *lp.LP, rowEp []float64, rowAp []float64) {
	m := model.Matrix
	for j := 0; j < m.NumCol; j++ {
		lo, hi := m.Start[j], m.Start[j+1]
		var s float64
		for k := lo; k < hi; k++ {
			s += m.Value[k] * rowEp[m.Index[k]]
		}
		rowAp[j] = s
	}
}

// priceByRow accumulates contributions row-by-row, visiting only the
// rows where rowEp is nonzero — the hyper-sparse technique, grounded in
// the row-wise enumeration primitive of spec §4.1 (ensureRowwise/GetRow).
func priceByRow(model *lp.LP, rowEp []float64, rowAp []float64) {
	for i, e := range rowEp {
		if e == 0 {
			continue
		}
		cols, vals := model.Matrix.GetRow(i)
		for k, j := range cols {
			rowAp[j] += e * vals[k]
		}
	}
}
