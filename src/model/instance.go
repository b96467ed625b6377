package model

import (
	"fmt"
	"math"
	"strings"

	"github.com/yourbasic/bit"
)

type Kind int

const (
	DepotSource Kind = iota
	Customer
	DepotSink
	ChargingSource
	ChargingStep
)

func (k Kind) String() string {
	switch k {
	case DepotSource:
		return "depot-source"
	case Customer:
		return "customer"
	case DepotSink:
		return "depot-sink"
	case ChargingSource:
		return "charging-source"
	case ChargingStep:
		return "charging-step"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

type Vertex struct {
	ID      int
	Kind    Kind
	X, Y    float64
	Load    int
	Opening int
	Closing int
}

// Arc is a directed link between two vertices. Between the same pair of
// customers there may be several alternatives trading cost for time or
// energy; the Min* fields hold the minimum over all of them.
type Arc struct {
	ID     int
	Tail   int
	Head   int
	Cost   int
	Time   int
	Energy int

	MinCost            int
	MinTime            int
	MinEnergy          int
	MinCostAlternative bool
}

// Instance is the static graph and resource model. Vertex ids are laid
// out as: 0 depot source, 1..C customers, C+1 depot sink, C+2 charging
// super-source, C+2+t charging timestep t for t in 1..LastChargingPeriod.
type Instance struct {
	Name               string
	NumCustomers       int
	Capacity           int
	EnergyCapacity     int
	Chargers           int
	LastChargingPeriod int
	PeriodLength       int
	Delta              int
	DeltaMax           int

	Vertices []*Vertex
	Arcs     []*Arc

	// Unreachable[j] holds the customers that cannot precede customer j.
	Unreachable []*bit.Set
	// Neighbors[j] is the initial ng-neighborhood of customer j, j included.
	Neighbors []*bit.Set

	NumPhysicalArcs int

	chargingPeriods []int
	incoming        [][]*Arc
	outgoing        [][]*Arc
	cheapest        map[[2]int]*Arc
	depotTime       []int
	depotEnergy     []int
}

func (inst *Instance) Source() int         { return 0 }
func (inst *Instance) Sink() int           { return inst.NumCustomers + 1 }
func (inst *Instance) ChargingSource() int { return inst.NumCustomers + 2 }
func (inst *Instance) NumVertices() int    { return len(inst.Vertices) }

func (inst *Instance) ChargingVertex(t int) int {
	return inst.ChargingSource() + t
}

// Timestep returns the charging period of a charging-step vertex.
func (inst *Instance) Timestep(v int) int {
	return v - inst.ChargingSource()
}

func (inst *Instance) IsCustomer(v int) bool {
	return v >= 1 && v <= inst.NumCustomers
}

func (inst *Instance) IsChargingStage(v int) bool {
	return v >= inst.ChargingSource()
}

func (inst *Instance) Incoming(v int) []*Arc { return inst.incoming[v] }
func (inst *Instance) Outgoing(v int) []*Arc { return inst.outgoing[v] }

// Arc returns the cheapest alternative from tail to head.
func (inst *Instance) Arc(tail, head int) (*Arc, bool) {
	a, ok := inst.cheapest[[2]int{tail, head}]
	return a, ok
}

// DepotBounds returns the minimum time and energy needed to reach customer
// j straight from the depot source.
func (inst *Instance) DepotBounds(j int) (time, energy int, ok bool) {
	if inst.depotTime[j] == math.MaxInt {
		return 0, 0, false
	}
	return inst.depotTime[j], inst.depotEnergy[j], true
}

// ChargingPeriods returns the number of charging periods needed to recover
// the given energy deficit.
func (inst *Instance) ChargingPeriods(deficit int) int {
	if deficit <= 0 {
		return 0
	}
	if deficit >= len(inst.chargingPeriods) {
		return inst.chargingPeriods[len(inst.chargingPeriods)-1]
	}
	return inst.chargingPeriods[deficit]
}

func (inst *Instance) TotalLoad() int {
	total := 0
	for c := 1; c <= inst.NumCustomers; c++ {
		total += inst.Vertices[c].Load
	}
	return total
}

// MinVehicles is the rounded capacity bound ceil(total load / capacity).
func (inst *Instance) MinVehicles() int {
	return int(math.Ceil(float64(inst.TotalLoad()) / float64(inst.Capacity)))
}

// Period converts a remaining time into the charging period it falls in.
func (inst *Instance) Period(time int) int {
	return time / inst.PeriodLength
}

func (inst *Instance) String() string {
	s := new(strings.Builder)
	fmt.Fprintf(s, "Instance: %s\n", inst.Name)
	fmt.Fprintf(s, "N. customers: %d\n", inst.NumCustomers)
	fmt.Fprintf(s, "Capacity: %d, energy: %d\n", inst.Capacity, inst.EnergyCapacity)
	fmt.Fprintf(s, "Chargers: %d, periods: %d\n", inst.Chargers, inst.LastChargingPeriod)
	fmt.Fprintf(s, "N. arcs: %d (%d physical)\n", len(inst.Arcs), inst.NumPhysicalArcs)
	fmt.Fprintf(s, "ng size: %d (max %d)", inst.Delta, inst.DeltaMax)
	return s.String()
}
