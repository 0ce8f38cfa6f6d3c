// Package cvrp models capacitated vehicle routing problem instances:
// the distance matrix, per-node demands, per-vehicle capacities, and the
// index space the search operates on.
package cvrp

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyMatrix      = errors.New("cvrp: distance matrix is empty")
	ErrNotSquare        = errors.New("cvrp: distance matrix is not square")
	ErrNegativeArc      = errors.New("cvrp: distance matrix has a negative entry")
	ErrDemandLen        = errors.New("cvrp: demand vector length does not match matrix")
	ErrDepotRange       = errors.New("cvrp: depot index out of range")
	ErrDepotDemand      = errors.New("cvrp: depot demand must be zero")
	ErrNoVehicles       = errors.New("cvrp: at least one vehicle is required")
	ErrNegativeCapacity = errors.New("cvrp: vehicle capacity must be non-negative")
	ErrDemandExceedsCap = errors.New("cvrp: a node demand exceeds every vehicle capacity")
)

// Problem is an immutable CVRP instance. Distances are integer arc costs
// (symmetric or asymmetric), one demand per node with zero demand at the
// depot, and one capacity per vehicle.
type Problem struct {
	matrix     [][]int64
	demands    []int64
	capacities []int64
	depot      int
}

// NewProblem copies the inputs, validates them, and returns the instance.
func NewProblem(matrix [][]int64, demands, capacities []int64, depot int) (*Problem, error) {
	p := &Problem{
		matrix:     copyMatrix(matrix),
		demands:    append([]int64(nil), demands...),
		capacities: append([]int64(nil), capacities...),
		depot:      depot,
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func copyMatrix(m [][]int64) [][]int64 {
	out := make([][]int64, len(m))
	for i, row := range m {
		out[i] = append([]int64(nil), row...)
	}
	return out
}

func (p *Problem) validate() error {
	n := len(p.matrix)
	if n == 0 {
		return ErrEmptyMatrix
	}
	for i, row := range p.matrix {
		if len(row) != n {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrNotSquare, i, len(row), n)
		}
		for j, d := range row {
			if d < 0 {
				return fmt.Errorf("%w: matrix[%d][%d] = %d", ErrNegativeArc, i, j, d)
			}
		}
	}
	if len(p.demands) != n {
		return fmt.Errorf("%w: %d demands for %d nodes", ErrDemandLen, len(p.demands), n)
	}
	if p.depot < 0 || p.depot >= n {
		return fmt.Errorf("%w: depot %d, nodes %d", ErrDepotRange, p.depot, n)
	}
	if p.demands[p.depot] != 0 {
		return fmt.Errorf("%w: got %d", ErrDepotDemand, p.demands[p.depot])
	}
	if len(p.capacities) == 0 {
		return ErrNoVehicles
	}
	var maxCap int64
	for v, c := range p.capacities {
		if c < 0 {
			return fmt.Errorf("%w: vehicle %d capacity %d", ErrNegativeCapacity, v, c)
		}
		if c > maxCap {
			maxCap = c
		}
	}
	for i, d := range p.demands {
		if d < 0 {
			return fmt.Errorf("cvrp: node %d demand %d must be non-negative", i, d)
		}
		if d > maxCap {
			return fmt.Errorf("%w: node %d demand %d, max capacity %d", ErrDemandExceedsCap, i, d, maxCap)
		}
	}
	return nil
}

// Size returns the number of nodes, depot included.
func (p *Problem) Size() int { return len(p.matrix) }

// Vehicles returns the fleet size.
func (p *Problem) Vehicles() int { return len(p.capacities) }

// Depot returns the depot node index.
func (p *Problem) Depot() int { return p.depot }

// Dist returns the arc cost from node i to node j.
func (p *Problem) Dist(i, j int) int64 { return p.matrix[i][j] }

// Demand returns the demand at node i.
func (p *Problem) Demand(i int) int64 { return p.demands[i] }

// Capacity returns vehicle v's capacity.
func (p *Problem) Capacity(v int) int64 { return p.capacities[v] }

// TotalDemand sums demand across all nodes.
func (p *Problem) TotalDemand() int64 {
	var total int64
	for _, d := range p.demands {
		total += d
	}
	return total
}

// Customers lists all non-depot node indices.
func (p *Problem) Customers() []int {
	out := make([]int, 0, p.Size()-1)
	for i := 0; i < p.Size(); i++ {
		if i != p.depot {
			out = append(out, i)
		}
	}
	return out
}
