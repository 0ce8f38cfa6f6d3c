// Package report renders solved routes as text: one objective line, a block
// per vehicle with the visit sequence and cumulative load, and fleet totals.
package report

import (
	"fmt"
	"strings"

	"vrpsolve/internal/cvrp"
)

// Format renders the full solution report.
func Format(p *cvrp.Problem, sol cvrp.Solution) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Objective: %d\n", sol.Objective)
	var totalDist, totalLoad int64
	for _, r := range sol.Routes {
		fmt.Fprintf(&b, "Route for vehicle %d:\n", r.Vehicle)
		var load int64
		fmt.Fprintf(&b, " %d Load(0)", p.Depot())
		for _, n := range r.Nodes {
			load += p.Demand(n)
			fmt.Fprintf(&b, " -> %d Load(%d)", n, load)
		}
		fmt.Fprintf(&b, " -> %d Load(%d)\n", p.Depot(), load)
		fmt.Fprintf(&b, "Distance of the route: %dm\n", r.Distance)
		fmt.Fprintf(&b, "Load of the route: %d\n", r.Load)
		totalDist += r.Distance
		totalLoad += r.Load
	}
	fmt.Fprintf(&b, "Total distance of all routes: %dm\n", totalDist)
	fmt.Fprintf(&b, "Total load of all routes: %d\n", totalLoad)
	return b.String()
}
