// Package ekk implements the simplex engine of spec §2 module 6: it
// orchestrates a solve over an LP using the basis, factor, work-array,
// and price primitives, choosing between primal and dual drivers and
// handling perturbation, re-factorization, and cleanup. Named after the
// engine module it replaces (spec's "Ekk").
package ekk

import (
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"simplexcore/basis"
	"simplexcore/factor"
	"simplexcore/logsink"
	"simplexcore/lp"
	"simplexcore/status"
	"simplexcore/workarray"
)

// ErrNoInvert is returned by operations that require a current
// factorization and don't have one (original_source's
// invertRequirementError).
var ErrNoInvert = factor.ErrNoInvert

// ErrNoBasis is returned by operations that require an installed basis.
var ErrNoBasis = errors.New("ekk: no basis installed")

// Engine is the sole owner of the basis and factor for a passed LP,
// spec §9 ("the engine the sole owner of both basis and factor and
// passing indices, not references, across module boundaries").
type Engine struct {
	Model *lp.LP
	Opts  Options
	Log   logsink.Sink

	Basis  *basis.SimplexBasis
	Factor *factor.Factor
	Work   *workarray.WorkArrays
	Info   *status.Info

	haveBasis        bool
	hasFreshInvert   bool
	hasFreshRebuild  bool
	syntheticTicks   float64
	updatesSinceRebuild int
	solveBailoutLatched bool
	calledReturnFromSolve bool
	startTime time.Time

	perturbedCost   bool
	perturbedBound  bool

	edgeWeight []float64 // Devex weights, indexed by basic position

	hasPrimalRay bool
	hasDualRay   bool
	rayVar       int     // primal ray: entering variable index; dual ray: leaving basic position
	raySign      float64

	rnd       *rand.Rand
	randCache []float64

	snapshot *engineSnapshot
}

// New returns an engine with no LP installed; call PassLP before Solve.
func New(opts Options, sink logsink.Sink) *Engine {
	if sink == nil {
		sink = logsink.Default()
	}
	return &Engine{
		Opts: opts,
		Log:  sink,
		Info: &status.Info{},
		rnd:  rand.New(rand.NewSource(opts.RandomSeed)),
	}
}

// PassLP loads a fresh LP into the engine (original_source's passLp /
// initialiseForNewLp), distinct from the §4.7 interface mutation
// operations that act on an already-installed LP.
func (e *Engine) PassLP(model *lp.LP) error {
	if model == nil {
		return errors.New("ekk: PassLP with nil model")
	}
	if err := model.DimensionsOk(); err != nil {
		return errors.Wrap(err, "ekk: PassLP")
	}
	e.Model = model
	e.Basis = basis.NewSimplexBasis(model.NumCol, model.NumRow)
	e.Factor = factor.New(model.NumRow, e.Opts.PivotThreshold, e.Opts.MaxPivotThreshold, e.Opts.UpdateLimit)
	e.Work = workarray.New(model.NumCol, model.NumRow)
	e.Info = &status.Info{}
	e.haveBasis = false
	e.hasFreshInvert = false
	e.hasFreshRebuild = false
	e.syntheticTicks = 0
	e.solveBailoutLatched = false
	e.calledReturnFromSolve = false
	e.perturbedCost = false
	e.perturbedBound = false
	e.hasPrimalRay = false
	e.hasDualRay = false
	e.snapshot = nil
	e.refreshRandStream()

	// Bounds are needed before SetLogicalBasis/a solve runs; costs are
	// re-initialised at solve entry regardless.
	e.Work.InitialiseLpColBound(model)
	e.Work.InitialiseLpRowBound(model)
	return nil
}

func (e *Engine) refreshRandStream() {
	n := e.Model.NumCol + e.Model.NumRow
	e.randCache = make([]float64, n)
	for i := range e.randCache {
		e.randCache[i] = e.rnd.Float64()
	}
}

// randSource adapts the engine's cached per-variable stream to
// workarray.RandSource.
type randSource struct{ values []float64 }

func (r randSource) Float64(col int) float64 { return r.values[col] }

func (e *Engine) rand() workarray.RandSource { return randSource{e.randCache} }

// SetBasis installs a client-supplied high-level basis, spec §4.3
// setFromHighsBasis.
func (e *Engine) SetBasis(hb *basis.Basis) error {
	if hb == nil {
		return errors.New("ekk: SetBasis with nil basis")
	}
	if len(hb.ColStatus) != e.Model.NumCol || len(hb.RowStatus) != e.Model.NumRow {
		return errors.New("ekk: SetBasis dimension mismatch")
	}
	e.Basis.SetFromHighsBasis(hb, e.Work.WorkLower, e.Work.WorkUpper)
	e.haveBasis = true
	e.hasFreshInvert = false
	e.Info.Invalidate()
	return nil
}

// SetLogicalBasis installs the all-slacks-basic starting basis, spec §4.3.
func (e *Engine) SetLogicalBasis() {
	e.Basis.SetLogical(e.Work.WorkLower, e.Work.WorkUpper)
	e.haveBasis = true
	e.hasFreshInvert = false
	e.Info.Invalidate()
}

// GetHighsBasis derives the high-level Basis view from the low-level
// arrays and current working bounds.
func (e *Engine) GetHighsBasis() *basis.Basis {
	hb := e.Basis.ToHighsBasis(e.Work.WorkLower, e.Work.WorkUpper)
	hb.Valid = e.haveBasis
	return hb
}

// Solution is the primal/dual values returned by GetSolution, spec §6.
type Solution struct {
	ColValue []float64
	ColDual  []float64
	RowValue []float64
	RowDual  []float64
}

// GetSolution reads the current working values/duals out into the
// column/row split the host expects.
func (e *Engine) GetSolution() *Solution {
	n, m := e.Model.NumCol, e.Model.NumRow
	sol := &Solution{
		ColValue: make([]float64, n),
		ColDual:  make([]float64, n),
		RowValue: make([]float64, m),
		RowDual:  make([]float64, m),
	}
	for j := 0; j < n; j++ {
		sol.ColValue[j] = e.variableValue(j)
		sol.ColDual[j] = e.Work.WorkDual[j]
	}
	for i := 0; i < m; i++ {
		v := n + i
		// row value is the activity A x, which is the negated slack
		// value under the logical's -1 identity-column convention.
		sol.RowValue[i] = -e.variableValue(v)
		sol.RowDual[i] = -e.Work.WorkDual[v]
	}
	return sol
}

func (e *Engine) variableValue(v int) float64 {
	if e.Basis.NonbasicFlag[v] == 0 {
		pos := e.Basis.PositionOf(v)
		return e.Work.BaseValue[pos]
	}
	return e.Work.WorkValue[v]
}

// GetSolutionParams returns a copy of the current status/info snapshot.
func (e *Engine) GetSolutionParams() status.Info { return *e.Info }

// ZeroIterationCounts resets all iteration counters, spec §6.
func (e *Engine) ZeroIterationCounts() { e.Info.ZeroIterationCounts() }

// BasisForSolution reports whether the current basis is the one the
// last-computed solution corresponds to.
func (e *Engine) BasisForSolution() bool { return e.Info.BasisValid }

// HasPrimalRay reports whether the last solve ended on an unbounded
// primal step, leaving a ray available via iface.GetPrimalRay.
func (e *Engine) HasPrimalRay() bool { return e.hasPrimalRay }

// HasDualRay reports whether the last solve ended on a dual step with
// no eligible entering column, leaving a ray available via
// iface.GetDualRay.
func (e *Engine) HasDualRay() bool { return e.hasDualRay }

// RayRow returns the basic position recorded as the dual ray's leaving
// row; only meaningful when HasDualRay is true.
func (e *Engine) RayRow() int { return e.rayVar }

// RayColumn returns the entering variable index and direction sign
// recorded for the primal ray; only meaningful when HasPrimalRay is
// true.
func (e *Engine) RayColumn() (int, float64) { return e.rayVar, e.raySign }

// InvalidateInvert marks the current factorization stale without
// touching the basis arrays, spec §4.7 changeCoefficientInterface's
// "mark basis alien (factor invalid but structure retained)" and the
// add-rows case where B itself has grown.
func (e *Engine) InvalidateInvert() {
	e.hasFreshInvert = false
	e.Info.Invalidate()
}

// InvalidateBasis marks both the basis and factor stale, spec §4.7's
// "Basis is invalidated if any deletion occurred".
func (e *Engine) InvalidateBasis() {
	e.haveBasis = false
	e.hasFreshInvert = false
	e.Info.Invalidate()
}

// MarkBasisReady marks a basis as installed (e.g. after iface's
// SetHotStartInterface has spliced basicIndex/nonbasicMove/nonbasicFlag
// in directly), optionally asserting the factorization is already
// current.
func (e *Engine) MarkBasisReady(freshInvert bool) {
	e.haveBasis = true
	e.hasFreshInvert = freshInvert
	e.Info.Invalidate()
}

// HaveBasis reports whether a basis is currently installed.
func (e *Engine) HaveBasis() bool { return e.haveBasis }

// HasFreshInvert reports whether the current factorization is valid.
func (e *Engine) HasFreshInvert() bool { return e.hasFreshInvert }

// ResizeArrays rebuilds the basis/work/factor arrays from scratch to
// the engine's current model dimensions, discarding any installed
// basis. Used after a structural deletion (spec §4.7 deleteColsInterface
// / deleteRowsInterface), which invalidates the basis outright rather
// than attempting an incremental repair.
func (e *Engine) ResizeArrays() {
	model := e.Model
	e.Basis = basis.NewSimplexBasis(model.NumCol, model.NumRow)
	e.Work = workarray.New(model.NumCol, model.NumRow)
	e.Factor = factor.New(model.NumRow, e.Opts.PivotThreshold, e.Opts.MaxPivotThreshold, e.Opts.UpdateLimit)
	e.Work.InitialiseLpColBound(model)
	e.Work.InitialiseLpRowBound(model)
	e.haveBasis = false
	e.hasFreshInvert = false
	e.hasFreshRebuild = false
	e.edgeWeight = nil
	e.snapshot = nil
	e.refreshRandStream()
	e.Info.Invalidate()
}

// AppendColsToArrays splices n newly appended LP columns into the
// basis/work arrays as nonbasic, spec §4.7 addColsInterface's
// appendNonbasicColsToBasisInterface: existing logicals keep their
// nonbasicFlag/nonbasicMove at their shifted index, and the new columns'
// moves are derived from their bounds.
func (e *Engine) AppendColsToArrays(n int) {
	if n == 0 {
		return
	}
	e.Work.AppendCols(n)
	e.Basis.AppendCols(n)
	e.Work.InitialiseLpColBound(e.Model)
	e.Work.InitialiseLpColCost(e.Model)
	e.Basis.SetNonbasicMove(e.Work.WorkLower, e.Work.WorkUpper)
	e.Work.InitialiseNonbasicValueAndMove(e.Basis)
	e.refreshRandStream()
	e.Info.Invalidate()
}

// AppendRowsToArrays splices n newly appended LP rows into the
// basis/work arrays with their logicals basic, spec §4.7
// addRowsInterface's appendBasicRowsToBasisInterface. B has grown, so
// the factorization is stale until the next Factorize.
func (e *Engine) AppendRowsToArrays(n int) {
	if n == 0 {
		return
	}
	e.Work.AppendRows(n)
	e.Basis.AppendRows(n)
	e.Work.InitialiseLpRowBound(e.Model)
	e.Work.InitialiseLpRowCost()
	e.refreshRandStream()
	e.hasFreshInvert = false
	e.Info.Invalidate()
}

// ComputePrimal re-derives basic variable values from the current
// bounds and nonbasic values, spec §4.4/§4.6; exported for iface
// operations that mutate bounds or the basis out from under an
// otherwise-valid factorization.
func (e *Engine) ComputePrimal() error { return e.computePrimal() }

// ComputeDual re-derives reduced costs from the current working costs,
// exported for the same reason as ComputePrimal.
func (e *Engine) ComputeDual() error { return e.computeDual() }

// Factorize is already exported (see primitives.go); FactorizeOnlyFromKnownBasis
// likewise, used by getBasicVariablesInterface per spec §4.7.

// ObjectiveValue recomputes the primal objective from the current basic
// and nonbasic values, exported for iface's handleInfCost/restoreInfCost
// and optionChangeAction, which adjust costs/bounds out from under an
// otherwise-valid solution.
func (e *Engine) ObjectiveValue() float64 { return e.computePrimalObjectiveValue() }

// ComputeBasisCondition implements spec §4.6's computeBasisCondition by
// delegating to the factor's Hager-norm estimator.
func (e *Engine) ComputeBasisCondition() (float64, error) {
	if !e.hasFreshInvert {
		return 0, ErrNoInvert
	}
	return e.Factor.ComputeBasisCondition(e.Model, e.Basis), nil
}

// engineSnapshot is the last-known-good backtracking state of spec
// §4.5: taken every time a full factorization succeeds, restored if a
// later rebuild (forced by an update hint) turns out rank-deficient.
type engineSnapshot struct {
	nonbasicFlag []int8
	nonbasicMove []basis.Move
	basicIndex   []int
	workCost     []float64
	workLower    []float64
	workUpper    []float64
	edgeWeight   []float64
	perturbedCost  bool
	perturbedBound bool
}

func (e *Engine) takeSnapshot() {
	e.snapshot = &engineSnapshot{
		nonbasicFlag:   append([]int8(nil), e.Basis.NonbasicFlag...),
		nonbasicMove:   append([]basis.Move(nil), e.Basis.NonbasicMove...),
		basicIndex:     append([]int(nil), e.Basis.BasicIndex...),
		workCost:       append([]float64(nil), e.Work.WorkCost...),
		workLower:      append([]float64(nil), e.Work.WorkLower...),
		workUpper:      append([]float64(nil), e.Work.WorkUpper...),
		edgeWeight:     append([]float64(nil), e.edgeWeight...),
		perturbedCost:  e.perturbedCost,
		perturbedBound: e.perturbedBound,
	}
	e.updatesSinceRebuild = 0
}

// restoreSnapshot implements the backtracking recovery of spec §4.5:
// restore the last full-rank state, refactor (must succeed), and halve
// the update limit so the next run of updates is more conservative. If
// there is no snapshot, or at most one update has been made since it,
// the basis is fundamentally singular and solve must fail rather than loop.
func (e *Engine) restoreSnapshot() error {
	s := e.snapshot
	if s == nil || e.updatesSinceRebuild <= 1 {
		return errors.New("ekk: no usable backtracking snapshot")
	}
	copy(e.Basis.NonbasicFlag, s.nonbasicFlag)
	copy(e.Basis.NonbasicMove, s.nonbasicMove)
	copy(e.Basis.BasicIndex, s.basicIndex)
	copy(e.Work.WorkCost, s.workCost)
	copy(e.Work.WorkLower, s.workLower)
	copy(e.Work.WorkUpper, s.workUpper)
	copy(e.edgeWeight, s.edgeWeight)
	e.perturbedCost, e.perturbedBound = s.perturbedCost, s.perturbedBound
	k, err := e.Factor.Build(e.Model, e.Basis)
	if err != nil {
		return err
	}
	if k > 0 {
		return errors.New("ekk: backtracking snapshot itself rank-deficient")
	}
	e.Factor.HalveUpdateLimit()
	e.hasFreshInvert = true
	e.hasFreshRebuild = true
	e.updatesSinceRebuild = 0
	return e.computePrimal()
}
