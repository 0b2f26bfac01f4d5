// Package status models the tri-valued call status of spec §6, the
// HighsModelStatus lifecycle of spec §4.8, and the iteration/infeasibility
// counters reported by the engine (spec §6, §8).
package status

// Status is the tri-valued outcome of an operation: Ok on full success,
// Warning when the operation completed but something caller-visible
// needs attention (a latched limit, a skipped perturbation), Error when
// the operation could not complete and left state unchanged.
type Status int

const (
	Ok Status = iota
	Warning
	Error
)

func (s Status) String() string {
	switch s {
	case Ok:
		return "Ok"
	case Warning:
		return "Warning"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// ModelStatus is the lifecycle state of a solve, spec §4.8.
type ModelStatus int

const (
	NotSet ModelStatus = iota
	Optimal
	Infeasible
	Unbounded
	UnboundedOrInfeasible
	ReachedTimeLimit
	ReachedIterationLimit
	ReachedDualObjectiveValueUpperBound
	Unknown
)

func (m ModelStatus) String() string {
	switch m {
	case NotSet:
		return "NotSet"
	case Optimal:
		return "Optimal"
	case Infeasible:
		return "Infeasible"
	case Unbounded:
		return "Unbounded"
	case UnboundedOrInfeasible:
		return "UnboundedOrInfeasible"
	case ReachedTimeLimit:
		return "ReachedTimeLimit"
	case ReachedIterationLimit:
		return "ReachedIterationLimit"
	case ReachedDualObjectiveValueUpperBound:
		return "ReachedDualObjectiveValueUpperBound"
	case Unknown:
		return "Unknown"
	default:
		return "Invalid"
	}
}

// IsLimitStatus reports whether m is one of the bailout statuses that
// latch (spec §4.5 Failure semantics): once reached, the next solve entry
// must see Optimal, a limit status, or the dual-objective-bound status.
func (m ModelStatus) IsLimitStatus() bool {
	switch m {
	case ReachedTimeLimit, ReachedIterationLimit, ReachedDualObjectiveValueUpperBound:
		return true
	default:
		return false
	}
}

// InfeasibilitySummary is the num/max/sum triple spec §4.6 requires for
// both computeSimplexPrimalInfeasible and computeSimplexDualInfeasible.
type InfeasibilitySummary struct {
	Num int
	Max float64
	Sum float64
}

func (s *InfeasibilitySummary) Reset() { *s = InfeasibilitySummary{} }

// Accumulate records one infeasible variable's violation amount.
func (s *InfeasibilitySummary) Accumulate(violation float64) {
	if violation <= 0 {
		return
	}
	s.Num++
	s.Sum += violation
	if violation > s.Max {
		s.Max = violation
	}
}

// Info carries the counters and summaries the engine exposes, spec §6.
type Info struct {
	ModelStatus ModelStatus

	SimplexIterationCount int
	IPMIterationCount     int // always 0: IPM is out of scope
	CrossoverIterationCount int // always 0: crossover is out of scope
	QPIterationCount      int // always 0: QP is out of scope

	PrimalInfeasibility InfeasibilitySummary
	DualInfeasibility   InfeasibilitySummary

	ObjectiveValue float64

	PrimalSolutionValid bool
	DualSolutionValid   bool
	BasisValid          bool

	HasPrimalRay bool
	HasDualRay   bool
}

// Invalidate implements the "on mutation, status reverts to NotSet" rule
// of spec §4.8: any LP mutation through the interface layer calls this.
func (info *Info) Invalidate() {
	info.ModelStatus = NotSet
	info.PrimalSolutionValid = false
	info.DualSolutionValid = false
	info.BasisValid = false
	info.HasPrimalRay = false
	info.HasDualRay = false
}

func (info *Info) ZeroIterationCounts() {
	info.SimplexIterationCount = 0
	info.IPMIterationCount = 0
	info.CrossoverIterationCount = 0
	info.QPIterationCount = 0
}
