package cvrp

// IndexManager maps between routing variable indices and physical node
// indices. The search works on variable indices so that every vehicle gets
// its own start and end copy of the depot: node indices occupy [0, N),
// vehicle v starts at N+2v and ends at N+2v+1.
type IndexManager struct {
	nodes    int
	vehicles int
	depot    int
}

// NewIndexManager builds the index space for a problem.
func NewIndexManager(p *Problem) *IndexManager {
	return &IndexManager{nodes: p.Size(), vehicles: p.Vehicles(), depot: p.Depot()}
}

// Size returns the total number of variable indices: N nodes plus a start
// and end copy per vehicle.
func (im *IndexManager) Size() int { return im.nodes + 2*im.vehicles }

// Vehicles returns the fleet size the index space was built for.
func (im *IndexManager) Vehicles() int { return im.vehicles }

// Start returns vehicle v's start index.
func (im *IndexManager) Start(v int) int { return im.nodes + 2*v }

// End returns vehicle v's end index.
func (im *IndexManager) End(v int) int { return im.nodes + 2*v + 1 }

// IsStart reports whether idx is some vehicle's start index.
func (im *IndexManager) IsStart(idx int) bool {
	return idx >= im.nodes && (idx-im.nodes)%2 == 0
}

// IsEnd reports whether idx is some vehicle's end index.
func (im *IndexManager) IsEnd(idx int) bool {
	return idx >= im.nodes && (idx-im.nodes)%2 == 1
}

// VehicleOf returns the vehicle owning a start or end index, or -1 for a
// plain node index.
func (im *IndexManager) VehicleOf(idx int) int {
	if idx < im.nodes {
		return -1
	}
	return (idx - im.nodes) / 2
}

// IndexToNode resolves a variable index to its physical node. Start and end
// copies resolve to the depot.
func (im *IndexManager) IndexToNode(idx int) int {
	if idx >= im.nodes {
		return im.depot
	}
	return idx
}

// NodeToIndex returns the variable index for a physical node. The depot has
// no dedicated customer index; callers use Start/End for vehicle endpoints.
func (im *IndexManager) NodeToIndex(node int) int { return node }
