package search

import "vrpsolve/internal/cvrp"

// costFn prices an arc between two physical nodes. Local search runs on the
// augmented cost under GLS and on the plain matrix otherwise.
type costFn func(i, j int) int64

func routeCost(depot int, nodes []int, cost costFn) int64 {
	if len(nodes) == 0 {
		return 0
	}
	total := cost(depot, nodes[0])
	for i := 0; i+1 < len(nodes); i++ {
		total += cost(nodes[i], nodes[i+1])
	}
	return total + cost(nodes[len(nodes)-1], depot)
}

func totalCost(depot int, routes [][]int, cost costFn) int64 {
	var total int64
	for _, r := range routes {
		total += routeCost(depot, r, cost)
	}
	return total
}

func insertAt(nodes []int, pos, node int) []int {
	out := make([]int, 0, len(nodes)+1)
	out = append(out, nodes[:pos]...)
	out = append(out, node)
	return append(out, nodes[pos:]...)
}

func removeAt(nodes []int, pos int) []int {
	out := make([]int, 0, len(nodes)-1)
	out = append(out, nodes[:pos]...)
	return append(out, nodes[pos+1:]...)
}

// relocate moves single customers to a cheaper feasible position across all
// routes. First improvement, rescanning until no move applies.
func relocate(p *cvrp.Problem, routes [][]int, cost costFn) bool {
	depot := p.Depot()
	any := false
	for relocateOnce(p, depot, routes, cost) {
		any = true
	}
	return any
}

func relocateOnce(p *cvrp.Problem, depot int, routes [][]int, cost costFn) bool {
	for a := range routes {
		for i := 0; i < len(routes[a]); i++ {
			node := routes[a][i]
			without := removeAt(routes[a], i)
			baseA := routeCost(depot, routes[a], cost)
			removedA := routeCost(depot, without, cost)
			for b := range routes {
				target := routes[b]
				if b == a {
					target = without
				} else if p.RouteLoad(target)+p.Demand(node) > p.Capacity(b) {
					continue
				}
				baseB := routeCost(depot, target, cost)
				for pos := 0; pos <= len(target); pos++ {
					if b == a && pos == i {
						continue
					}
					cand := insertAt(target, pos, node)
					var delta int64
					if b == a {
						delta = routeCost(depot, cand, cost) - baseA
					} else {
						delta = (removedA - baseA) + (routeCost(depot, cand, cost) - baseB)
					}
					if delta < 0 {
						if b == a {
							routes[a] = cand
						} else {
							routes[a] = without
							routes[b] = cand
						}
						return true
					}
				}
			}
		}
	}
	return false
}

// swapNodes exchanges customer pairs within and across routes when the cost
// drops and both capacities hold.
func swapNodes(p *cvrp.Problem, routes [][]int, cost costFn) bool {
	depot := p.Depot()
	improved := true
	any := false
	for improved {
		improved = false
		for a := range routes {
			for b := a; b < len(routes); b++ {
				for i := 0; i < len(routes[a]); i++ {
					jStart := 0
					if a == b {
						jStart = i + 1
					}
					for j := jStart; j < len(routes[b]); j++ {
						na, nb := routes[a][i], routes[b][j]
						if a != b {
							loadA := p.RouteLoad(routes[a]) - p.Demand(na) + p.Demand(nb)
							loadB := p.RouteLoad(routes[b]) - p.Demand(nb) + p.Demand(na)
							if loadA > p.Capacity(a) || loadB > p.Capacity(b) {
								continue
							}
						}
						before := routeCost(depot, routes[a], cost)
						if a != b {
							before += routeCost(depot, routes[b], cost)
						}
						routes[a][i], routes[b][j] = routes[b][j], routes[a][i]
						after := routeCost(depot, routes[a], cost)
						if a != b {
							after += routeCost(depot, routes[b], cost)
						}
						if after < before {
							improved = true
							any = true
						} else {
							routes[a][i], routes[b][j] = routes[b][j], routes[a][i]
						}
					}
				}
			}
		}
	}
	return any
}

// twoOpt reverses intra-route segments while that shortens the route.
// Capacity is untouched by a reversal, so only cost is checked.
func twoOpt(p *cvrp.Problem, routes [][]int, cost costFn) bool {
	depot := p.Depot()
	any := false
	for v := range routes {
		r := routes[v]
		improved := true
		for improved {
			improved = false
			for i := 0; i < len(r)-1; i++ {
				for j := i + 1; j < len(r); j++ {
					before := routeCost(depot, r, cost)
					reverse(r, i, j)
					if routeCost(depot, r, cost) < before {
						improved = true
						any = true
					} else {
						reverse(r, i, j)
					}
				}
			}
		}
		routes[v] = r
	}
	return any
}

func reverse(nodes []int, i, j int) {
	for a, b := i, j; a < b; a, b = a+1, b-1 {
		nodes[a], nodes[b] = nodes[b], nodes[a]
	}
}

// orOpt relocates segments of length 2 and 3 within their own route.
func orOpt(p *cvrp.Problem, routes [][]int, cost costFn) bool {
	depot := p.Depot()
	any := false
	for v := range routes {
		r := routes[v]
		improved := true
		for improved {
			improved = false
			for segLen := 2; segLen <= 3; segLen++ {
				for i := 0; i+segLen <= len(r); i++ {
					seg := append([]int(nil), r[i:i+segLen]...)
					rest := append(append([]int(nil), r[:i]...), r[i+segLen:]...)
					base := routeCost(depot, r, cost)
					for pos := 0; pos <= len(rest); pos++ {
						if pos == i {
							continue
						}
						cand := make([]int, 0, len(r))
						cand = append(cand, rest[:pos]...)
						cand = append(cand, seg...)
						cand = append(cand, rest[pos:]...)
						if routeCost(depot, cand, cost) < base {
							r = cand
							improved = true
							any = true
							break
						}
					}
					if improved {
						break
					}
				}
				if improved {
					break
				}
			}
		}
		routes[v] = r
	}
	return any
}

// crossExchange swaps route tails between vehicle pairs (2-opt* move).
func crossExchange(p *cvrp.Problem, routes [][]int, cost costFn) bool {
	depot := p.Depot()
	any := false
	improved := true
	for improved {
		improved = false
		for a := 0; a < len(routes); a++ {
			for b := a + 1; b < len(routes); b++ {
				ra, rb := routes[a], routes[b]
				for i := 0; i <= len(ra); i++ {
					for j := 0; j <= len(rb); j++ {
						if i == len(ra) && j == len(rb) {
							continue
						}
						na := append(append([]int(nil), ra[:i]...), rb[j:]...)
						nb := append(append([]int(nil), rb[:j]...), ra[i:]...)
						if p.RouteLoad(na) > p.Capacity(a) || p.RouteLoad(nb) > p.Capacity(b) {
							continue
						}
						before := routeCost(depot, ra, cost) + routeCost(depot, rb, cost)
						after := routeCost(depot, na, cost) + routeCost(depot, nb, cost)
						if after < before {
							routes[a], routes[b] = na, nb
							ra, rb = na, nb
							improved = true
							any = true
							i = 0
							break
						}
					}
				}
			}
		}
	}
	return any
}
