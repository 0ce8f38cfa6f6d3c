package cvrp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArcCostResolvesEndpoints(t *testing.T) {
	p, err := NewProblem(validMatrix(), []int64{0, 1, 2, 3}, []int64{6}, 0)
	require.NoError(t, err)
	im := NewIndexManager(p)
	cost := p.ArcCost(im)

	require.Equal(t, int64(35), cost(1, 2))
	// start copy behaves like the depot row, end copy like the depot column
	require.Equal(t, p.Dist(0, 3), cost(im.Start(0), 3))
	require.Equal(t, p.Dist(3, 0), cost(3, im.End(0)))
	require.Equal(t, int64(0), cost(im.Start(0), im.End(0)))
}

func TestCapacityDimension(t *testing.T) {
	p, err := NewProblem(validMatrix(), []int64{0, 1, 2, 3}, []int64{4, 3}, 0)
	require.NoError(t, err)
	im := NewIndexManager(p)
	dim := NewCapacityDimension(p, im)

	route := []int{im.Start(0), 1, 3, im.End(0)}
	require.Equal(t, []int64{0, 1, 4, 4}, dim.Cumuls(route))
	require.Equal(t, int64(4), dim.RouteLoad(route))
	require.NoError(t, dim.Check(0, route))
	// same load breaks vehicle 1's smaller capacity
	require.Error(t, dim.Check(1, route))
}

func TestDemandAtEndpointsIsZero(t *testing.T) {
	p, err := NewProblem(validMatrix(), []int64{0, 1, 2, 3}, []int64{6}, 0)
	require.NoError(t, err)
	im := NewIndexManager(p)
	demand := p.DemandAt(im)

	require.Equal(t, int64(0), demand(im.Start(0)))
	require.Equal(t, int64(0), demand(im.End(0)))
	require.Equal(t, int64(2), demand(2))
}
