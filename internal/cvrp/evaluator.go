package cvrp

import "fmt"

// TransitCallback computes the cost of moving between two variable indices.
type TransitCallback func(fromIndex, toIndex int) int64

// DemandCallback returns the resource consumed when visiting a variable index.
type DemandCallback func(index int) int64

// ArcCost returns the transit callback backed by the distance matrix. Vehicle
// start and end copies resolve to the depot row and column.
func (p *Problem) ArcCost(im *IndexManager) TransitCallback {
	return func(from, to int) int64 {
		return p.Dist(im.IndexToNode(from), im.IndexToNode(to))
	}
}

// DemandAt returns the demand callback over variable indices. Depot copies
// consume nothing.
func (p *Problem) DemandAt(im *IndexManager) DemandCallback {
	return func(idx int) int64 {
		return p.Demand(im.IndexToNode(idx))
	}
}

// Dimension accumulates a resource along a route and bounds it by a
// per-vehicle capacity.
type Dimension struct {
	Name     string
	demand   DemandCallback
	capacity func(vehicle int) int64
}

// NewCapacityDimension builds the load dimension for a problem.
func NewCapacityDimension(p *Problem, im *IndexManager) *Dimension {
	return &Dimension{
		Name:     "Capacity",
		demand:   p.DemandAt(im),
		capacity: p.Capacity,
	}
}

// Cumuls returns the cumulative resource value after each visit of a route
// given as variable indices.
func (d *Dimension) Cumuls(route []int) []int64 {
	out := make([]int64, len(route))
	var acc int64
	for i, idx := range route {
		acc += d.demand(idx)
		out[i] = acc
	}
	return out
}

// RouteLoad returns the total resource consumed by a route.
func (d *Dimension) RouteLoad(route []int) int64 {
	var acc int64
	for _, idx := range route {
		acc += d.demand(idx)
	}
	return acc
}

// Check returns an error when a route exceeds its vehicle's capacity.
func (d *Dimension) Check(vehicle int, route []int) error {
	load := d.RouteLoad(route)
	if cap := d.capacity(vehicle); load > cap {
		return fmt.Errorf("cvrp: %s of vehicle %d is %d, capacity %d", d.Name, vehicle, load, cap)
	}
	return nil
}
