package search

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vrpsolve/internal/cvrp"
)

// line layout: depot at 0, nodes strung out along one axis so the optimal
// visit order is monotone.
func lineProblem(t *testing.T, capacities []int64) *cvrp.Problem {
	t.Helper()
	pos := []int64{0, 1, 2, 3, 4}
	n := len(pos)
	matrix := make([][]int64, n)
	for i := range matrix {
		matrix[i] = make([]int64, n)
		for j := range matrix[i] {
			d := pos[i] - pos[j]
			if d < 0 {
				d = -d
			}
			matrix[i][j] = d
		}
	}
	p, err := cvrp.NewProblem(matrix, []int64{0, 1, 1, 1, 1}, capacities, 0)
	require.NoError(t, err)
	return p
}

func plainCost(p *cvrp.Problem) costFn {
	return func(i, j int) int64 { return p.Dist(i, j) }
}

func TestTwoOptUncrossesRoute(t *testing.T) {
	p := lineProblem(t, []int64{10})
	routes := [][]int{{2, 4, 1, 3}}
	cost := plainCost(p)

	require.True(t, twoOpt(p, routes, cost))
	require.Equal(t, int64(8), routeCost(p.Depot(), routes[0], cost))
}

func TestRelocateBalancesRoutes(t *testing.T) {
	p := lineProblem(t, []int64{3, 3})
	// all weight on one vehicle; moving nodes off shortens the total
	routes := [][]int{{1, 4, 2}, {3}}
	cost := plainCost(p)
	before := totalCost(p.Depot(), routes, cost)

	moved := relocate(p, routes, cost)
	after := totalCost(p.Depot(), routes, cost)
	require.True(t, moved)
	require.Less(t, after, before)
	for v, r := range routes {
		require.LessOrEqual(t, p.RouteLoad(r), p.Capacity(v))
	}
}

func TestSwapNodesImproves(t *testing.T) {
	p := lineProblem(t, []int64{2, 2})
	// 1 and 4 are on the wrong vehicles
	routes := [][]int{{4, 2}, {1, 3}}
	cost := plainCost(p)
	before := totalCost(p.Depot(), routes, cost)

	require.True(t, swapNodes(p, routes, cost))
	require.Less(t, totalCost(p.Depot(), routes, cost), before)
}

func TestOrOptMovesSegments(t *testing.T) {
	p := lineProblem(t, []int64{10})
	// segment {3,4} sits in front of {1,2}
	routes := [][]int{{3, 4, 1, 2}}
	cost := plainCost(p)

	require.True(t, orOpt(p, routes, cost))
	require.Equal(t, int64(8), routeCost(p.Depot(), routes[0], cost))
}

func TestCrossExchangeSwapsTails(t *testing.T) {
	p := lineProblem(t, []int64{2, 2})
	routes := [][]int{{1, 4}, {3, 2}}
	cost := plainCost(p)
	before := totalCost(p.Depot(), routes, cost)

	require.True(t, crossExchange(p, routes, cost))
	after := totalCost(p.Depot(), routes, cost)
	require.Less(t, after, before)
	for v, r := range routes {
		require.LessOrEqual(t, p.RouteLoad(r), p.Capacity(v))
	}
}

func TestOperatorsRespectCapacity(t *testing.T) {
	p := lineProblem(t, []int64{2, 2})
	routes := [][]int{{1, 2}, {3, 4}}
	cost := plainCost(p)

	relocate(p, routes, cost)
	swapNodes(p, routes, cost)
	crossExchange(p, routes, cost)
	for v, r := range routes {
		require.LessOrEqual(t, p.RouteLoad(r), p.Capacity(v))
	}
	total := 0
	for _, r := range routes {
		total += len(r)
	}
	require.Equal(t, 4, total)
}

func TestInsertRemove(t *testing.T) {
	nodes := []int{1, 2, 3}
	require.Equal(t, []int{1, 9, 2, 3}, insertAt(nodes, 1, 9))
	require.Equal(t, []int{1, 3}, removeAt(nodes, 1))
	// originals untouched
	require.Equal(t, []int{1, 2, 3}, nodes)
}
