package search

import (
	"errors"
	"math"
	"sort"

	"vrpsolve/internal/cvrp"
)

// ErrNoFeasibleSeed is returned when no construction heuristic can place
// every customer without violating a capacity.
var ErrNoFeasibleSeed = errors.New("search: no feasible initial assignment")

// savingsSeed builds per-vehicle routes with the Clarke-Wright parallel
// savings heuristic: one route per customer, then merge the pair with the
// highest saving while the merged load still fits the largest vehicle.
// Merged routes are assigned to vehicles best-fit by load.
func savingsSeed(p *cvrp.Problem) ([][]int, error) {
	depot := p.Depot()
	var maxCap int64
	for v := 0; v < p.Vehicles(); v++ {
		if c := p.Capacity(v); c > maxCap {
			maxCap = c
		}
	}

	routes := [][]int{}
	routeOf := map[int]int{} // customer -> route slot
	for _, c := range p.Customers() {
		routeOf[c] = len(routes)
		routes = append(routes, []int{c})
	}

	type saving struct {
		i, j int
		s    int64
	}
	savings := []saving{}
	for _, i := range p.Customers() {
		for _, j := range p.Customers() {
			if i == j {
				continue
			}
			s := p.Dist(i, depot) + p.Dist(depot, j) - p.Dist(i, j)
			savings = append(savings, saving{i: i, j: j, s: s})
		}
	}
	sort.Slice(savings, func(a, b int) bool { return savings[a].s > savings[b].s })

	load := func(r []int) int64 { return p.RouteLoad(r) }
	for _, sv := range savings {
		ri, rj := routeOf[sv.i], routeOf[sv.j]
		if ri == rj || routes[ri] == nil || routes[rj] == nil {
			continue
		}
		// i must end its route, j must start its route
		a, b := routes[ri], routes[rj]
		if a[len(a)-1] != sv.i || b[0] != sv.j {
			continue
		}
		if load(a)+load(b) > maxCap {
			continue
		}
		merged := append(append([]int(nil), a...), b...)
		routes[ri] = merged
		routes[rj] = nil
		for _, c := range b {
			routeOf[c] = ri
		}
	}

	kept := [][]int{}
	for _, r := range routes {
		if r != nil {
			kept = append(kept, r)
		}
	}
	if len(kept) > p.Vehicles() {
		kept = mergeDown(p, kept, maxCap)
	}
	if len(kept) > p.Vehicles() {
		return nil, ErrNoFeasibleSeed
	}
	return fitToFleet(p, kept)
}

// mergeDown concatenates route pairs at minimum extra cost until the route
// count fits the fleet or no capacity-respecting merge remains.
func mergeDown(p *cvrp.Problem, routes [][]int, maxCap int64) [][]int {
	for len(routes) > p.Vehicles() {
		bi, bj := -1, -1
		best := int64(math.MaxInt64)
		for i := range routes {
			for j := range routes {
				if i == j {
					continue
				}
				if p.RouteLoad(routes[i])+p.RouteLoad(routes[j]) > maxCap {
					continue
				}
				merged := append(append([]int(nil), routes[i]...), routes[j]...)
				extra := p.RouteDistance(merged) - p.RouteDistance(routes[i]) - p.RouteDistance(routes[j])
				if extra < best {
					best = extra
					bi, bj = i, j
				}
			}
		}
		if bi < 0 {
			break
		}
		merged := append(append([]int(nil), routes[bi]...), routes[bj]...)
		next := [][]int{}
		for k, r := range routes {
			if k == bi {
				next = append(next, merged)
			} else if k != bj {
				next = append(next, r)
			}
		}
		routes = next
	}
	return routes
}

// fitToFleet pairs merged routes with vehicles, heaviest route to the
// largest remaining capacity, and pads with empty routes.
func fitToFleet(p *cvrp.Problem, routes [][]int) ([][]int, error) {
	sort.Slice(routes, func(a, b int) bool { return p.RouteLoad(routes[a]) > p.RouteLoad(routes[b]) })
	vehicles := make([]int, p.Vehicles())
	for v := range vehicles {
		vehicles[v] = v
	}
	sort.Slice(vehicles, func(a, b int) bool { return p.Capacity(vehicles[a]) > p.Capacity(vehicles[b]) })

	out := make([][]int, p.Vehicles())
	for k, r := range routes {
		v := vehicles[k]
		if p.RouteLoad(r) > p.Capacity(v) {
			return nil, ErrNoFeasibleSeed
		}
		out[v] = r
	}
	for v := range out {
		if out[v] == nil {
			out[v] = []int{}
		}
	}
	return out, nil
}

// greedySeed assigns customers round-robin over vehicles, always appending
// the cheapest customer that still fits the vehicle's remaining capacity.
func greedySeed(p *cvrp.Problem) ([][]int, error) {
	depot := p.Depot()
	routes := make([][]int, p.Vehicles())
	for v := range routes {
		routes[v] = []int{}
	}
	used := make([]bool, p.Size())
	used[depot] = true
	remaining := p.Size() - 1

	for remaining > 0 {
		progress := false
		for v := 0; v < p.Vehicles() && remaining > 0; v++ {
			last := depot
			if len(routes[v]) > 0 {
				last = routes[v][len(routes[v])-1]
			}
			load := p.RouteLoad(routes[v])
			bestNode := -1
			bestDist := int64(math.MaxInt64)
			for n := 0; n < p.Size(); n++ {
				if used[n] || load+p.Demand(n) > p.Capacity(v) {
					continue
				}
				if d := p.Dist(last, n); d < bestDist {
					bestDist = d
					bestNode = n
				}
			}
			if bestNode >= 0 {
				routes[v] = append(routes[v], bestNode)
				used[bestNode] = true
				remaining--
				progress = true
			}
		}
		if !progress {
			return nil, ErrNoFeasibleSeed
		}
	}
	return routes, nil
}
