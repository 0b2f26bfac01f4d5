package factor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simplexcore/basis"
	"simplexcore/lp"
)

// identityBasisModel returns a 2x2 LP whose logical basis is the
// identity, so B = I and Ftran/Btran are no-ops.
func identityBasisModel() (*lp.LP, *basis.SimplexBasis) {
	m := lp.New(2, 2)
	m.Matrix.Start = []int{0, 2, 4}
	m.Matrix.Index = []int{0, 1, 0, 1}
	m.Matrix.Value = []float64{2, 1, 1, 3}
	sb := basis.NewSimplexBasis(2, 2)
	sb.BasicIndex = []int{2, 3} // both logicals basic: B = I
	sb.NonbasicFlag = []int8{1, 1, 0, 0}
	return m, sb
}

func TestBuildIdentityBasis(t *testing.T) {
	m, sb := identityBasisModel()
	f := New(2, 0.1, 0.9, 100)
	k, err := f.Build(m, sb)
	require.NoError(t, err)
	assert.Equal(t, 0, k)
	assert.True(t, f.HasInvert)
}

func TestFtranBtranRoundTripOnIdentity(t *testing.T) {
	m, sb := identityBasisModel()
	f := New(2, 0.1, 0.9, 100)
	_, err := f.Build(m, sb)
	require.NoError(t, err)

	v := []float64{3, 5}
	f.Ftran(v, 1)
	assert.Equal(t, []float64{3, 5}, v)

	f.Btran(v, 1)
	assert.Equal(t, []float64{3, 5}, v)
}

func TestBuildStructuralBasisSolvesCorrectly(t *testing.T) {
	m := lp.New(2, 2)
	m.Matrix.Start = []int{0, 2, 4}
	m.Matrix.Index = []int{0, 1, 0, 1}
	m.Matrix.Value = []float64{2, 1, 1, 3}
	sb := basis.NewSimplexBasis(2, 2)
	sb.BasicIndex = []int{0, 1} // B = [[2,1],[1,3]]
	sb.NonbasicFlag = []int8{0, 0, 1, 1}

	f := New(2, 0.1, 0.9, 100)
	_, err := f.Build(m, sb)
	require.NoError(t, err)

	// B x = [5, 10] has solution x = [1, 3]: 2*1+1*3=5, 1*1+3*3=10.
	v := []float64{5, 10}
	f.Ftran(v, 1)
	assert.InDelta(t, 1.0, v[0], 1e-9)
	assert.InDelta(t, 3.0, v[1], 1e-9)
}

func TestBuildRankDeficientSubstitutesUnitColumn(t *testing.T) {
	m := lp.New(2, 2)
	// Column 0 and column 1 are parallel: basis [[1,2],[1,2]] is singular.
	m.Matrix.Start = []int{0, 2, 4}
	m.Matrix.Index = []int{0, 1, 0, 1}
	m.Matrix.Value = []float64{1, 1, 2, 2}
	sb := basis.NewSimplexBasis(2, 2)
	sb.BasicIndex = []int{0, 1}
	sb.NonbasicFlag = []int8{0, 0, 1, 1}

	f := New(2, 0.1, 0.9, 100)
	k, err := f.Build(m, sb)
	require.NoError(t, err)
	assert.Equal(t, 1, k)
	assert.Len(t, f.NoPvR, 1)
	assert.Len(t, f.NoPvC, 1)
}

func TestUpdateTriggersRebuildAtLimit(t *testing.T) {
	m, sb := identityBasisModel()
	f := New(2, 0.1, 0.9, 1)
	_, err := f.Build(m, sb)
	require.NoError(t, err)

	hint := f.Update([]float64{1, 0}, 0)
	assert.Equal(t, RebuildUpdateLimitReached, hint)
}

func TestHalveUpdateLimitNeverGoesBelowOne(t *testing.T) {
	f := New(2, 0.1, 0.9, 1)
	f.HalveUpdateLimit()
	assert.Equal(t, 1, f.UpdateLimit)
}

func TestComputeBasisConditionOnIdentityIsOne(t *testing.T) {
	m, sb := identityBasisModel()
	f := New(2, 0.1, 0.9, 100)
	_, err := f.Build(m, sb)
	require.NoError(t, err)
	cond := f.ComputeBasisCondition(m, sb)
	assert.InDelta(t, 1.0, cond, 1e-9)
}
