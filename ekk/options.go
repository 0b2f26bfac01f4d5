package ekk

import (
	"time"

	"simplexcore/lp"
	"simplexcore/price"
)

// Strategy selects the top-level algorithm per spec §4.5.
type Strategy int

const (
	StrategyChoose Strategy = iota
	StrategyPrimal
	StrategyDualSerial
	StrategyDualTasks
	StrategyDualMulti
)

// Options collects the numeric sentinels and tunables of spec §6.
type Options struct {
	Infinity         float64
	SmallMatrixValue float64
	LargeMatrixValue float64

	PivotThreshold    float64 // tau, (0,1]
	MaxPivotThreshold float64
	UpdateLimit       int
	SyntheticTickLimit float64

	PrimalFeasibilityTolerance float64
	DualFeasibilityTolerance   float64
	PivotDiscrepancyTolerance  float64

	PerturbationMultiplier float64
	AllowPrimalPerturbation bool
	AllowDualPerturbation   bool

	Strategy                  Strategy
	ParallelismEnabled        bool
	DualTasksMinThreads       int
	DualMultiMinThreads       int
	AvailableThreads          int
	PriceStrategy             price.Strategy

	TimeLimit      time.Duration
	IterationLimit int

	RandomSeed int64
}

// DefaultOptions returns the HiGHS-like defaults named in spec §6.
func DefaultOptions() Options {
	return Options{
		Infinity:                   lp.Infinity,
		SmallMatrixValue:           lp.SmallMatrixValue,
		LargeMatrixValue:           lp.LargeMatrixValue,
		PivotThreshold:             0.1,
		MaxPivotThreshold:          0.9,
		UpdateLimit:                100,
		SyntheticTickLimit:         5000,
		PrimalFeasibilityTolerance: 1e-7,
		DualFeasibilityTolerance:   1e-7,
		PivotDiscrepancyTolerance:  1e-9,
		PerturbationMultiplier:     1.0,
		AllowPrimalPerturbation:    true,
		AllowDualPerturbation:      true,
		Strategy:                   StrategyChoose,
		ParallelismEnabled:         false,
		DualTasksMinThreads:        4,
		DualMultiMinThreads:        8,
		AvailableThreads:           1,
		PriceStrategy:              price.RowPriceSwitch,
		TimeLimit:                  0,
		IterationLimit:             0,
		RandomSeed:                 1,
	}
}
