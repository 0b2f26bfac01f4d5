package iface

import (
	"math"

	"github.com/pkg/errors"

	"simplexcore/basis"
	"simplexcore/lp"
)

// HotStart is the packet setHotStartInterface installs: a basic-index
// assignment plus every nonbasic variable's move, spec §4.7. The factor
// is not part of the packet (this engine does not serialize L/U across
// process boundaries); installing a hot start leaves the factorization
// stale until the next Factorize.
type HotStart struct {
	BasicIndex   []int
	NonbasicMove []basis.Move
}

// SetHotStart implements setHotStartInterface: validate sizes, install
// basicIndex and nonbasicMove from the packet, rebuild nonbasicFlag from
// basicIndex, set each nonbasic variable's work value from its installed
// move and bounds, and flag the basis valid.
func (ifc *Interface) SetHotStart(hs *HotStart) error {
	if hs == nil {
		return errors.New("iface: SetHotStart with nil packet")
	}
	e := ifc.Engine
	m := ifc.model()
	n, mRows := m.NumCol, m.NumRow
	if len(hs.BasicIndex) != mRows {
		return errors.Errorf("iface: SetHotStart basicIndex has %d entries, want %d", len(hs.BasicIndex), mRows)
	}
	if len(hs.NonbasicMove) != n+mRows {
		return errors.Errorf("iface: SetHotStart nonbasicMove has %d entries, want %d", len(hs.NonbasicMove), n+mRows)
	}
	seen := make([]bool, n+mRows)
	for _, v := range hs.BasicIndex {
		if v < 0 || v >= n+mRows {
			return errors.Errorf("iface: SetHotStart basicIndex entry %d out of range", v)
		}
		if seen[v] {
			return errors.Errorf("iface: SetHotStart basicIndex entry %d repeated", v)
		}
		seen[v] = true
	}

	copy(e.Basis.BasicIndex, hs.BasicIndex)
	for v := range e.Basis.NonbasicFlag {
		if seen[v] {
			e.Basis.NonbasicFlag[v] = 0
			e.Basis.NonbasicMove[v] = basis.MoveZero
		} else {
			e.Basis.NonbasicFlag[v] = 1
			e.Basis.NonbasicMove[v] = hs.NonbasicMove[v]
		}
	}
	e.Work.InitialiseNonbasicValueAndMove(e.Basis)

	e.MarkBasisReady(false)
	return nil
}

// infCostFix records one handleInfCost substitution so restoreInfCost
// can undo it exactly.
type infCostFix struct {
	col                   int
	originalCost          float64
	originalLower         float64
	originalUpper         float64
	fixedValue            float64
}

// HandleInfCost implements handleInfCost: for every column whose cost is
// at the Infinity sentinel (in either sign), fix it to the bound that is
// optimal regardless of the rest of the problem (the bound a cost of
// +-infinity drives it to under minimization), zero its cost so the
// solve proceeds as if it were an ordinary fixed variable, and record
// the substitution. Fails if the required bound is not finite.
func (ifc *Interface) HandleInfCost() error {
	m := ifc.model()
	e := ifc.Engine
	ifc.infCostFixes = ifc.infCostFixes[:0]
	for j := 0; j < m.NumCol; j++ {
		cost := m.ColCost[j]
		if math.Abs(cost) < lp.Infinity {
			continue
		}
		signed := m.SignedCost(j)
		var fixedValue float64
		switch {
		case signed > 0:
			if m.ColLower[j] <= -lp.Infinity {
				return errors.Errorf("iface: HandleInfCost col %d has +inf cost but no finite lower bound", j)
			}
			fixedValue = m.ColLower[j]
		case signed < 0:
			if m.ColUpper[j] >= lp.Infinity {
				return errors.Errorf("iface: HandleInfCost col %d has -inf cost but no finite upper bound", j)
			}
			fixedValue = m.ColUpper[j]
		default:
			continue
		}
		ifc.infCostFixes = append(ifc.infCostFixes, infCostFix{
			col:           j,
			originalCost:  cost,
			originalLower: m.ColLower[j],
			originalUpper: m.ColUpper[j],
			fixedValue:    fixedValue,
		})
		m.ColCost[j] = 0
		m.ColLower[j] = fixedValue
		m.ColUpper[j] = fixedValue
		e.Work.WorkCost[j] = 0
		e.Work.WorkLower[j] = fixedValue
		e.Work.WorkUpper[j] = fixedValue
		if e.Basis.NonbasicFlag[j] == 1 {
			e.Basis.NonbasicMove[j] = basis.MoveZero
			e.Work.WorkValue[j] = fixedValue
		}
	}
	if len(ifc.infCostFixes) > 0 {
		e.Info.Invalidate()
	}
	return nil
}

// RestoreInfCost implements restoreInfCost: undo every substitution
// HandleInfCost made, adjusting the reported objective by
// value*original-cost for each (the zeroed cost contributed nothing to
// the solve's objective tally).
func (ifc *Interface) RestoreInfCost() error {
	m := ifc.model()
	e := ifc.Engine
	if len(ifc.infCostFixes) == 0 {
		return nil
	}
	var adjust float64
	for _, fix := range ifc.infCostFixes {
		m.ColCost[fix.col] = fix.originalCost
		m.ColLower[fix.col] = fix.originalLower
		m.ColUpper[fix.col] = fix.originalUpper
		e.Work.WorkCost[fix.col] = m.ApplyUserCostScale(fix.originalCost)
		e.Work.WorkLower[fix.col] = m.ApplyUserBoundScale(fix.originalLower)
		e.Work.WorkUpper[fix.col] = m.ApplyUserBoundScale(fix.originalUpper)
		if e.Basis.NonbasicFlag[fix.col] == 1 {
			ifc.setNonbasicStatus([]int{fix.col})
		}
		adjust += fix.fixedValue * fix.originalCost
	}
	ifc.infCostFixes = nil
	e.Info.ObjectiveValue += adjust
	return nil
}

// OptionChangeAction implements optionChangeAction: apply a new
// user bound/cost scale exponent and feasibility tolerances, reverting
// the scale change if it would push any bound or cost past the Infinity
// sentinel, and, when a factorization is current, recomputing primal and
// dual values and marking both solutions valid.
func (ifc *Interface) OptionChangeAction(newBoundScale, newCostScale int, primalTol, dualTol float64) (appliedBoundScale, appliedCostScale bool, err error) {
	m := ifc.model()
	e := ifc.Engine

	if newBoundScale != m.UserBoundScale {
		factor := math.Pow(2, float64(newBoundScale-m.UserBoundScale))
		safe := true
		for j := 0; j < m.NumCol && safe; j++ {
			if math.Abs(m.ColLower[j]*factor) > lp.Infinity || math.Abs(m.ColUpper[j]*factor) > lp.Infinity {
				safe = false
			}
		}
		for i := 0; i < m.NumRow && safe; i++ {
			if math.Abs(m.RowLower[i]*factor) > lp.Infinity || math.Abs(m.RowUpper[i]*factor) > lp.Infinity {
				safe = false
			}
		}
		if safe {
			for j := 0; j < m.NumCol; j++ {
				m.ColLower[j] *= factor
				m.ColUpper[j] *= factor
				e.Work.WorkLower[j] *= factor
				e.Work.WorkUpper[j] *= factor
			}
			for i := 0; i < m.NumRow; i++ {
				m.RowLower[i] *= factor
				m.RowUpper[i] *= factor
				v := m.NumCol + i
				e.Work.WorkLower[v] *= factor
				e.Work.WorkUpper[v] *= factor
			}
			m.UserBoundScale = newBoundScale
			appliedBoundScale = true
		}
	} else {
		appliedBoundScale = true
	}

	if newCostScale != m.UserCostScale {
		factor := math.Pow(2, float64(newCostScale-m.UserCostScale))
		safe := true
		for j := 0; j < m.NumCol && safe; j++ {
			if math.Abs(m.ColCost[j]*factor) > lp.Infinity {
				safe = false
			}
		}
		if safe {
			for j := 0; j < m.NumCol; j++ {
				m.ColCost[j] *= factor
				e.Work.WorkCost[j] *= factor
			}
			m.UserCostScale = newCostScale
			appliedCostScale = true
		}
	} else {
		appliedCostScale = true
	}

	if primalTol > 0 {
		e.Opts.PrimalFeasibilityTolerance = primalTol
	}
	if dualTol > 0 {
		e.Opts.DualFeasibilityTolerance = dualTol
	}

	if e.HasFreshInvert() {
		if perr := e.ComputePrimal(); perr == nil {
			e.Info.PrimalSolutionValid = true
		}
		if derr := e.ComputeDual(); derr == nil {
			e.Info.DualSolutionValid = true
		}
	}

	if !appliedBoundScale || !appliedCostScale {
		return appliedBoundScale, appliedCostScale, errors.New("iface: OptionChangeAction reverted a scale change that would exceed the Infinity sentinel")
	}
	return appliedBoundScale, appliedCostScale, nil
}
