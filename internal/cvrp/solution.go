package cvrp

import "fmt"

// Route is one vehicle's visit sequence. Nodes holds customer node indices
// only; the depot is implicit at both ends.
type Route struct {
	Vehicle  int
	Nodes    []int
	Load     int64
	Distance int64
}

// Solution is a complete set of routes with the total distance objective.
type Solution struct {
	Routes    []Route
	Objective int64
}

// RouteDistance computes depot -> nodes -> depot distance for a node order.
func (p *Problem) RouteDistance(nodes []int) int64 {
	if len(nodes) == 0 {
		return 0
	}
	total := p.Dist(p.depot, nodes[0])
	for i := 0; i+1 < len(nodes); i++ {
		total += p.Dist(nodes[i], nodes[i+1])
	}
	return total + p.Dist(nodes[len(nodes)-1], p.depot)
}

// RouteLoad sums demand over a node order.
func (p *Problem) RouteLoad(nodes []int) int64 {
	var total int64
	for _, n := range nodes {
		total += p.Demand(n)
	}
	return total
}

// Reprice recomputes per-route load and distance and the objective in place.
func (s *Solution) Reprice(p *Problem) {
	var obj int64
	for i := range s.Routes {
		s.Routes[i].Load = p.RouteLoad(s.Routes[i].Nodes)
		s.Routes[i].Distance = p.RouteDistance(s.Routes[i].Nodes)
		obj += s.Routes[i].Distance
	}
	s.Objective = obj
}

// TotalLoad sums the load carried across all routes.
func (s *Solution) TotalLoad() int64 {
	var total int64
	for _, r := range s.Routes {
		total += r.Load
	}
	return total
}

// Validate checks the solution invariants: one route per vehicle, every
// customer visited exactly once, and no route over capacity.
func (s *Solution) Validate(p *Problem) error {
	if len(s.Routes) != p.Vehicles() {
		return fmt.Errorf("cvrp: %d routes for %d vehicles", len(s.Routes), p.Vehicles())
	}
	seen := make([]bool, p.Size())
	for _, r := range s.Routes {
		for _, n := range r.Nodes {
			if n < 0 || n >= p.Size() {
				return fmt.Errorf("cvrp: node %d out of range", n)
			}
			if n == p.Depot() {
				return fmt.Errorf("cvrp: depot appears as a customer on vehicle %d", r.Vehicle)
			}
			if seen[n] {
				return fmt.Errorf("cvrp: node %d visited more than once", n)
			}
			seen[n] = true
		}
		if load := p.RouteLoad(r.Nodes); load > p.Capacity(r.Vehicle) {
			return fmt.Errorf("cvrp: vehicle %d load %d exceeds capacity %d", r.Vehicle, load, p.Capacity(r.Vehicle))
		}
	}
	for n := 0; n < p.Size(); n++ {
		if n != p.Depot() && !seen[n] {
			return fmt.Errorf("cvrp: node %d not visited", n)
		}
	}
	return nil
}

// Assignment maps every routing variable index to its successor. It is the
// wholesale-replaced representation of a solution: the search never mutates
// one in place, it builds a fresh assignment from the winning routes.
type Assignment struct {
	next []int
	im   *IndexManager
}

// NewAssignment encodes a solution as a successor map over variable indices.
// Each vehicle's chain runs Start(v) -> customers -> End(v); End(v) points
// to itself.
func NewAssignment(im *IndexManager, sol Solution) *Assignment {
	next := make([]int, im.Size())
	for i := range next {
		next[i] = -1
	}
	for _, r := range sol.Routes {
		cur := im.Start(r.Vehicle)
		for _, n := range r.Nodes {
			next[cur] = im.NodeToIndex(n)
			cur = im.NodeToIndex(n)
		}
		next[cur] = im.End(r.Vehicle)
		next[im.End(r.Vehicle)] = im.End(r.Vehicle)
	}
	return &Assignment{next: next, im: im}
}

// Next returns the successor of a variable index, or -1 when unassigned.
func (a *Assignment) Next(idx int) int { return a.next[idx] }

// Routes decodes the successor map back into per-vehicle node sequences.
func (a *Assignment) Routes() [][]int {
	out := make([][]int, a.im.Vehicles())
	for v := 0; v < a.im.Vehicles(); v++ {
		var nodes []int
		cur := a.next[a.im.Start(v)]
		for cur >= 0 && cur != a.im.End(v) {
			nodes = append(nodes, a.im.IndexToNode(cur))
			cur = a.next[cur]
		}
		out[v] = nodes
	}
	return out
}
