package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"vrpsolve/internal/cvrp"
)

func TestFormat(t *testing.T) {
	matrix := [][]int64{
		{0, 10, 15, 20},
		{10, 0, 35, 25},
		{15, 35, 0, 30},
		{20, 25, 30, 0},
	}
	p, err := cvrp.NewProblem(matrix, []int64{0, 1, 2, 3}, []int64{4, 3}, 0)
	require.NoError(t, err)

	sol := cvrp.Solution{Routes: []cvrp.Route{
		{Vehicle: 0, Nodes: []int{1, 3}},
		{Vehicle: 1, Nodes: []int{2}},
	}}
	sol.Reprice(p)

	got := Format(p, sol)
	want := strings.Join([]string{
		"Objective: 85",
		"Route for vehicle 0:",
		" 0 Load(0) -> 1 Load(1) -> 3 Load(4) -> 0 Load(4)",
		"Distance of the route: 55m",
		"Load of the route: 4",
		"Route for vehicle 1:",
		" 0 Load(0) -> 2 Load(2) -> 0 Load(2)",
		"Distance of the route: 30m",
		"Load of the route: 2",
		"Total distance of all routes: 85m",
		"Total load of all routes: 6",
		"",
	}, "\n")
	require.Equal(t, want, got)
}

func TestFormatEmptyRoute(t *testing.T) {
	matrix := [][]int64{
		{0, 10},
		{10, 0},
	}
	p, err := cvrp.NewProblem(matrix, []int64{0, 1}, []int64{2, 2}, 0)
	require.NoError(t, err)
	sol := cvrp.Solution{Routes: []cvrp.Route{
		{Vehicle: 0, Nodes: []int{1}},
		{Vehicle: 1},
	}}
	sol.Reprice(p)

	got := Format(p, sol)
	require.Contains(t, got, "Route for vehicle 1:\n 0 Load(0) -> 0 Load(0)\n")
	require.Contains(t, got, "Total distance of all routes: 20m")
}
