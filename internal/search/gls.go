package search

import "vrpsolve/internal/cvrp"

// penalties implements guided local search over arc features. Each arc
// carries a penalty counter; the augmented cost adds lambda times the mean
// arc cost per penalty, which pushes the local search away from arcs the
// incumbent keeps reusing.
type penalties struct {
	n      int
	counts []int
	unit   int64
	active int
}

func newPenalties(p *cvrp.Problem, lambda float64) *penalties {
	n := p.Size()
	var sum int64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			sum += p.Dist(i, j)
		}
	}
	mean := float64(sum) / float64(n*n)
	unit := int64(lambda * mean)
	if unit < 1 {
		unit = 1
	}
	return &penalties{n: n, counts: make([]int, n*n), unit: unit}
}

func (g *penalties) count(i, j int) int { return g.counts[i*g.n+j] }

// augmented prices arcs with the penalty surcharge added to the matrix cost.
func (g *penalties) augmented(p *cvrp.Problem) costFn {
	return func(i, j int) int64 {
		return p.Dist(i, j) + g.unit*int64(g.count(i, j))
	}
}

// penalize bumps the counters of the arcs in the current solution with
// maximum utility cost/(1+count) and returns how many arcs were penalized.
func (g *penalties) penalize(p *cvrp.Problem, routes [][]int) int {
	depot := p.Depot()
	type arc struct{ i, j int }
	var best []arc
	var bestUtil float64

	consider := func(i, j int) {
		util := float64(p.Dist(i, j)) / float64(1+g.count(i, j))
		switch {
		case util > bestUtil:
			bestUtil = util
			best = best[:0]
			best = append(best, arc{i, j})
		case util == bestUtil && util > 0:
			best = append(best, arc{i, j})
		}
	}
	for _, r := range routes {
		if len(r) == 0 {
			continue
		}
		consider(depot, r[0])
		for k := 0; k+1 < len(r); k++ {
			consider(r[k], r[k+1])
		}
		consider(r[len(r)-1], depot)
	}
	for _, a := range best {
		if g.counts[a.i*g.n+a.j] == 0 {
			g.active++
		}
		g.counts[a.i*g.n+a.j]++
	}
	return len(best)
}
