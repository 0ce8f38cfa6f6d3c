// Package search implements the CVRP search engine: construction heuristics,
// capacity-aware local search operators, and a guided local search loop
// bounded by a wall-clock budget.
package search

import (
	"context"
	"math/rand"
	"time"

	"vrpsolve/internal/cvrp"
)

// Engine runs one search over a problem instance.
type Engine struct {
	prob *cvrp.Problem
	im   *cvrp.IndexManager
	dim  *cvrp.Dimension
	cfg  Params
	rng  *rand.Rand
}

// New validates the parameters and prepares an engine.
func New(p *cvrp.Problem, cfg Params) (*Engine, error) {
	if cfg.SnapshotEvery <= 0 {
		cfg.SnapshotEvery = 50
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	im := cvrp.NewIndexManager(p)
	return &Engine{
		prob: p,
		im:   im,
		dim:  cvrp.NewCapacityDimension(p, im),
		cfg:  cfg,
		rng:  rand.New(rand.NewSource(seed)),
	}, nil
}

// IndexManager exposes the variable index space the engine searches over.
func (e *Engine) IndexManager() *cvrp.IndexManager { return e.im }

// Solve constructs an initial assignment and improves it until the time
// budget, the iteration cap, or the context runs out. The returned solution
// is always feasible when err is nil.
func (e *Engine) Solve(ctx context.Context) (cvrp.Solution, Metrics, error) {
	start := time.Now()
	var m Metrics

	seed, err := e.construct()
	if err != nil {
		return cvrp.Solution{}, m, err
	}
	base := func(i, j int) int64 { return e.prob.Dist(i, j) }
	m.ConstructionCost = totalCost(e.prob.Depot(), seed, base)

	var pen *penalties
	cost := base
	if e.cfg.Metaheuristic == MetaGLS {
		pen = newPenalties(e.prob, e.cfg.GLSLambda)
		cost = pen.augmented(e.prob)
	}

	curr := cloneRoutes(seed)
	e.descend(curr, cost)
	best := cloneRoutes(curr)
	bestCost := totalCost(e.prob.Depot(), best, base)
	m.BestCost = bestCost

	snapshot := func() {
		active := 0
		if pen != nil {
			active = pen.active
		}
		m.Snapshots = append(m.Snapshots, CostSnapshot{Iteration: m.Iterations, Cost: bestCost, PenalizedArcs: active})
	}

	deadline := time.Time{}
	if e.cfg.TimeBudget > 0 {
		deadline = start.Add(e.cfg.TimeBudget)
	}
	for {
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			break
		}
		if e.cfg.MaxIterations > 0 && m.Iterations >= e.cfg.MaxIterations {
			break
		}
		if err := ctx.Err(); err != nil {
			break
		}
		m.Iterations++

		if pen != nil {
			m.PenalizedArcs += pen.penalize(e.prob, curr)
			m.Penalizations++
		} else {
			e.perturb(curr)
		}
		e.descend(curr, cost)

		trueCost := totalCost(e.prob.Depot(), curr, base)
		if trueCost < bestCost {
			bestCost = trueCost
			best = cloneRoutes(curr)
			m.Improvements++
			m.BestCost = bestCost
			if e.cfg.OnImprove != nil {
				e.cfg.OnImprove(m.Iterations, bestCost)
			}
		}
		if m.Iterations%e.cfg.SnapshotEvery == 0 {
			snapshot()
		}
	}
	// close the series at the last iteration when the cadence missed it
	if m.Iterations > 0 && m.Iterations%e.cfg.SnapshotEvery != 0 {
		snapshot()
	}

	sol := routesToSolution(best)
	sol.Reprice(e.prob)
	m.FinalCost = sol.Objective
	m.Elapsed = time.Since(start)
	return sol, m, nil
}

func (e *Engine) construct() ([][]int, error) {
	switch e.cfg.Strategy {
	case StrategyGreedy:
		return greedySeed(e.prob)
	default:
		routes, err := savingsSeed(e.prob)
		if err != nil {
			// savings can run out of vehicles on tight fleets
			return greedySeed(e.prob)
		}
		return routes, nil
	}
}

// descend runs the operator sweep to a local optimum under the given cost.
func (e *Engine) descend(routes [][]int, cost costFn) {
	for {
		improved := false
		improved = relocate(e.prob, routes, cost) || improved
		improved = swapNodes(e.prob, routes, cost) || improved
		improved = twoOpt(e.prob, routes, cost) || improved
		improved = orOpt(e.prob, routes, cost) || improved
		improved = crossExchange(e.prob, routes, cost) || improved
		if !improved {
			return
		}
	}
}

// perturb applies a random kick when no metaheuristic guides the escape:
// reverse a random segment and relocate a random customer feasibly.
func (e *Engine) perturb(routes [][]int) {
	nonEmpty := []int{}
	for v, r := range routes {
		if len(r) >= 2 {
			nonEmpty = append(nonEmpty, v)
		}
	}
	if len(nonEmpty) == 0 {
		return
	}
	v := nonEmpty[e.rng.Intn(len(nonEmpty))]
	r := routes[v]
	i := e.rng.Intn(len(r))
	j := e.rng.Intn(len(r))
	if i > j {
		i, j = j, i
	}
	reverse(r, i, j)

	// random feasible relocate
	src := nonEmpty[e.rng.Intn(len(nonEmpty))]
	if len(routes[src]) == 0 {
		return
	}
	pos := e.rng.Intn(len(routes[src]))
	node := routes[src][pos]
	dst := e.rng.Intn(len(routes))
	if dst == src {
		return
	}
	if e.prob.RouteLoad(routes[dst])+e.prob.Demand(node) > e.prob.Capacity(dst) {
		return
	}
	routes[src] = removeAt(routes[src], pos)
	at := 0
	if len(routes[dst]) > 0 {
		at = e.rng.Intn(len(routes[dst]) + 1)
	}
	routes[dst] = insertAt(routes[dst], at, node)
}

func cloneRoutes(routes [][]int) [][]int {
	out := make([][]int, len(routes))
	for i, r := range routes {
		out[i] = append([]int(nil), r...)
	}
	return out
}

func routesToSolution(routes [][]int) cvrp.Solution {
	sol := cvrp.Solution{Routes: make([]cvrp.Route, len(routes))}
	for v, r := range routes {
		sol.Routes[v] = cvrp.Route{Vehicle: v, Nodes: append([]int(nil), r...)}
	}
	return sol
}
