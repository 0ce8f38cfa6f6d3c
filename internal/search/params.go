package search

import (
	"fmt"
	"time"
)

// Strategy selects the construction heuristic.
type Strategy string

const (
	StrategySavings Strategy = "savings"
	StrategyGreedy  Strategy = "greedy"
)

// Metaheuristic selects the escape mechanism on top of local search.
type Metaheuristic string

const (
	MetaGLS  Metaheuristic = "gls"
	MetaNone Metaheuristic = "none"
)

// Params configures one solve run.
type Params struct {
	TimeBudget    time.Duration
	MaxIterations int // 0 means no cap
	Seed          int64
	Strategy      Strategy
	Metaheuristic Metaheuristic
	GLSLambda     float64 // fraction of the mean arc cost used as penalty unit
	SnapshotEvery int

	// OnImprove, when set, is called from the search goroutine each time the
	// best known cost drops.
	OnImprove func(iteration int, cost int64)
}

// DefaultParams returns the solver defaults.
func DefaultParams() Params {
	return Params{
		TimeBudget:    time.Second,
		MaxIterations: 0,
		Strategy:      StrategySavings,
		Metaheuristic: MetaGLS,
		GLSLambda:     0.1,
		SnapshotEvery: 50,
	}
}

// Validate rejects parameter combinations the engine cannot run with.
func (p Params) Validate() error {
	if p.TimeBudget <= 0 && p.MaxIterations <= 0 {
		return fmt.Errorf("search: either TimeBudget or MaxIterations must be set")
	}
	if p.TimeBudget < 0 {
		return fmt.Errorf("search: TimeBudget must be >= 0 (got %v)", p.TimeBudget)
	}
	if p.MaxIterations < 0 {
		return fmt.Errorf("search: MaxIterations must be >= 0 (got %d)", p.MaxIterations)
	}
	switch p.Strategy {
	case StrategySavings, StrategyGreedy:
	default:
		return fmt.Errorf("search: unknown strategy %q", p.Strategy)
	}
	switch p.Metaheuristic {
	case MetaGLS, MetaNone:
	default:
		return fmt.Errorf("search: unknown metaheuristic %q", p.Metaheuristic)
	}
	if p.GLSLambda < 0 {
		return fmt.Errorf("search: GLSLambda must be >= 0 (got %f)", p.GLSLambda)
	}
	return nil
}

// Metrics records what one run did.
type Metrics struct {
	Iterations       int
	Improvements     int
	Penalizations    int
	PenalizedArcs    int
	ConstructionCost int64
	BestCost         int64
	FinalCost        int64
	Elapsed          time.Duration
	Snapshots        []CostSnapshot
}

// CostSnapshot is a periodic sample of search progress.
type CostSnapshot struct {
	Iteration     int
	Cost          int64
	PenalizedArcs int
}
