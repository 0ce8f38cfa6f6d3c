package search

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vrpsolve/internal/cvrp"
)

func smallProblem(t *testing.T) *cvrp.Problem {
	t.Helper()
	matrix := [][]int64{
		{0, 10, 15, 20, 12},
		{10, 0, 35, 25, 18},
		{15, 35, 0, 30, 22},
		{20, 25, 30, 0, 16},
		{12, 18, 22, 16, 0},
	}
	p, err := cvrp.NewProblem(matrix, []int64{0, 1, 1, 2, 4}, []int64{5, 5}, 0)
	require.NoError(t, err)
	return p
}

func requireCoversAll(t *testing.T, p *cvrp.Problem, routes [][]int) {
	t.Helper()
	require.Len(t, routes, p.Vehicles())
	seen := map[int]bool{}
	for v, r := range routes {
		require.LessOrEqual(t, p.RouteLoad(r), p.Capacity(v), "vehicle %d over capacity", v)
		for _, n := range r {
			require.False(t, seen[n], "node %d visited twice", n)
			seen[n] = true
		}
	}
	for _, c := range p.Customers() {
		require.True(t, seen[c], "node %d not visited", c)
	}
}

func TestSavingsSeed(t *testing.T) {
	p := smallProblem(t)
	routes, err := savingsSeed(p)
	require.NoError(t, err)
	requireCoversAll(t, p, routes)
}

func TestGreedySeed(t *testing.T) {
	p := smallProblem(t)
	routes, err := greedySeed(p)
	require.NoError(t, err)
	requireCoversAll(t, p, routes)
}

func TestSeedsHonorHeterogeneousFleet(t *testing.T) {
	matrix := [][]int64{
		{0, 5, 6, 7},
		{5, 0, 4, 8},
		{6, 4, 0, 3},
		{7, 8, 3, 0},
	}
	// node 3 only fits the big vehicle
	p, err := cvrp.NewProblem(matrix, []int64{0, 2, 2, 6}, []int64{8, 4}, 0)
	require.NoError(t, err)

	routes, err := savingsSeed(p)
	require.NoError(t, err)
	requireCoversAll(t, p, routes)

	routes, err = greedySeed(p)
	require.NoError(t, err)
	requireCoversAll(t, p, routes)
}

func TestSeedsReportInfeasible(t *testing.T) {
	matrix := [][]int64{
		{0, 1, 1},
		{1, 0, 1},
		{1, 1, 0},
	}
	// total demand 6 cannot fit two vehicles of capacity 2... each node fits,
	// but the fleet as a whole is short
	p, err := cvrp.NewProblem(matrix, []int64{0, 2, 2}, []int64{2, 1}, 0)
	require.NoError(t, err)

	_, err = savingsSeed(p)
	require.ErrorIs(t, err, ErrNoFeasibleSeed)
	_, err = greedySeed(p)
	require.ErrorIs(t, err, ErrNoFeasibleSeed)
}
