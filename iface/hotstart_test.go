package iface

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simplexcore/basis"
	"simplexcore/lp"
)

func TestSetHotStartInstallsBasisAndRebuildsFlags(t *testing.T) {
	ifc := newTestInterface(t, twoColModel())

	hs := &HotStart{
		BasicIndex:   []int{0, 1}, // both structural columns basic
		NonbasicMove: []basis.Move{basis.MoveZero, basis.MoveZero, basis.MoveUp, basis.MoveUp},
	}
	require.NoError(t, ifc.SetHotStart(hs))

	assert.True(t, ifc.Engine.HaveBasis())
	assert.False(t, ifc.Engine.HasFreshInvert())
	assert.Equal(t, int8(0), ifc.Engine.Basis.NonbasicFlag[0])
	assert.Equal(t, int8(0), ifc.Engine.Basis.NonbasicFlag[1])
	assert.Equal(t, int8(1), ifc.Engine.Basis.NonbasicFlag[2])
	assert.Equal(t, int8(1), ifc.Engine.Basis.NonbasicFlag[3])
}

func TestSetHotStartRejectsWrongSizedPacket(t *testing.T) {
	ifc := newTestInterface(t, twoColModel())
	err := ifc.SetHotStart(&HotStart{BasicIndex: []int{0}})
	assert.Error(t, err)
}

func TestSetHotStartRejectsRepeatedBasicIndex(t *testing.T) {
	ifc := newTestInterface(t, twoColModel())
	hs := &HotStart{
		BasicIndex:   []int{0, 0},
		NonbasicMove: make([]basis.Move, 4),
	}
	err := ifc.SetHotStart(hs)
	assert.Error(t, err)
}

func TestHandleInfCostFixesToFiniteBoundAndZerosCost(t *testing.T) {
	m := lp.New(1, 1)
	m.Sense = lp.Minimize
	m.ColCost = []float64{lp.Infinity}
	m.ColLower = []float64{2}
	m.ColUpper = []float64{10}
	m.Matrix.Start = []int{0, 1}
	m.Matrix.Index = []int{0}
	m.Matrix.Value = []float64{1}

	ifc := newTestInterface(t, m)
	ifc.Engine.SetLogicalBasis()

	require.NoError(t, ifc.HandleInfCost())
	assert.Equal(t, 0.0, m.ColCost[0])
	assert.Equal(t, 2.0, m.ColLower[0])
	assert.Equal(t, 2.0, m.ColUpper[0])
	assert.Equal(t, 2.0, ifc.Engine.Work.WorkLower[0])
	assert.Equal(t, basis.MoveZero, ifc.Engine.Basis.NonbasicMove[0])
}

func TestHandleInfCostFailsWithoutFiniteBound(t *testing.T) {
	m := lp.New(1, 1)
	m.Sense = lp.Minimize
	m.ColCost = []float64{lp.Infinity}
	m.ColLower = []float64{-lp.Infinity}
	m.ColUpper = []float64{lp.Infinity}
	m.Matrix.Start = []int{0, 1}
	m.Matrix.Index = []int{0}
	m.Matrix.Value = []float64{1}

	ifc := newTestInterface(t, m)
	ifc.Engine.SetLogicalBasis()

	assert.Error(t, ifc.HandleInfCost())
}

func TestRestoreInfCostUndoesFixAndAdjustsObjective(t *testing.T) {
	m := lp.New(1, 1)
	m.Sense = lp.Minimize
	m.ColCost = []float64{lp.Infinity}
	m.ColLower = []float64{2}
	m.ColUpper = []float64{10}
	m.Matrix.Start = []int{0, 1}
	m.Matrix.Index = []int{0}
	m.Matrix.Value = []float64{1}

	ifc := newTestInterface(t, m)
	ifc.Engine.SetLogicalBasis()
	require.NoError(t, ifc.HandleInfCost())

	ifc.Engine.Info.ObjectiveValue = 0
	require.NoError(t, ifc.RestoreInfCost())

	assert.Equal(t, lp.Infinity, m.ColCost[0])
	assert.Equal(t, 2.0, m.ColLower[0])
	assert.Equal(t, 10.0, m.ColUpper[0])
	assert.Equal(t, 2.0*lp.Infinity, ifc.Engine.Info.ObjectiveValue)
}

func TestOptionChangeActionAppliesScaleWithinBounds(t *testing.T) {
	ifc := newTestInterface(t, twoColModel())
	ifc.Engine.SetLogicalBasis()

	// a downward bound-scale change (factor 0.5) keeps even the
	// Infinity-sentinel column bounds within range, unlike an upward one.
	appliedBound, appliedCost, err := ifc.OptionChangeAction(-1, 0, 1e-7, 1e-7)
	require.NoError(t, err)
	assert.True(t, appliedBound)
	assert.True(t, appliedCost)
	assert.Equal(t, -1, ifc.Engine.Model.UserBoundScale)
	assert.Equal(t, 2.0, ifc.Engine.Model.RowUpper[0])
}

func TestOptionChangeActionRevertsScaleThatWouldExceedInfinity(t *testing.T) {
	m := twoColModel()
	m.ColUpper[0] = lp.Infinity / 2
	ifc := newTestInterface(t, m)
	ifc.Engine.SetLogicalBasis()

	appliedBound, _, err := ifc.OptionChangeAction(10, 0, 0, 0)
	assert.Error(t, err)
	assert.False(t, appliedBound)
	assert.Equal(t, 0, ifc.Engine.Model.UserBoundScale)
}
