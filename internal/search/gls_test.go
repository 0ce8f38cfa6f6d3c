package search

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPenaltyUnit(t *testing.T) {
	p := smallProblem(t)
	g := newPenalties(p, 0.1)
	// mean arc times lambda, never below one
	require.GreaterOrEqual(t, g.unit, int64(1))

	tiny := newPenalties(p, 0.000001)
	require.Equal(t, int64(1), tiny.unit)
}

func TestPenalizeTargetsMaxUtilityArc(t *testing.T) {
	p := smallProblem(t)
	g := newPenalties(p, 0.1)
	routes := [][]int{{1, 2}, {3, 4}}

	n := g.penalize(p, routes)
	require.Greater(t, n, 0)
	require.Equal(t, n, g.active)

	// arc 1->2 costs 35, the most expensive arc in use
	require.Equal(t, 1, g.count(1, 2))

	// penalizing again divides that arc's utility, so the counter set grows
	total := n
	for i := 0; i < 5; i++ {
		total += g.penalize(p, routes)
	}
	require.Greater(t, g.active, n)
	require.GreaterOrEqual(t, total, g.active)
}

func TestAugmentedCostAddsSurcharge(t *testing.T) {
	p := smallProblem(t)
	g := newPenalties(p, 0.1)
	cost := g.augmented(p)

	require.Equal(t, p.Dist(1, 2), cost(1, 2))
	routes := [][]int{{1, 2}, {3, 4}}
	g.penalize(p, routes)
	require.Equal(t, p.Dist(1, 2)+g.unit, cost(1, 2))
	// arcs outside the incumbent stay at matrix cost
	require.Equal(t, p.Dist(2, 3), cost(2, 3))
}
