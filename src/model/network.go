package model

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"github.com/yourbasic/bit"
)

var ErrInvalidInstance = errors.New("model: invalid instance")

func errorCoalesce(args ...error) error {
	for _, e := range args {
		if e != nil {
			return e
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidInstance, format, args...)
}

// NewInstance builds the graph and resource model from raw instance data:
// physical vertices and arcs, ng-neighborhoods, a priori unreachable sets
// and the charging sub-network.
func NewInstance(d *Data) (*Instance, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}

	inst := &Instance{
		Name:               d.Name,
		NumCustomers:       len(d.Nodes) - 2,
		Capacity:           d.Capacity,
		EnergyCapacity:     d.EnergyCapacity,
		Chargers:           d.Chargers,
		LastChargingPeriod: d.LastChargingPeriod,
		PeriodLength:       d.PeriodLength,
		Delta:              d.Delta,
		DeltaMax:           d.DeltaMax,
	}
	if inst.Delta == 0 {
		inst.Delta = defaultDelta(d.Name)
	}
	if inst.DeltaMax == 0 {
		inst.DeltaMax = inst.Delta + 5
	}

	err := errorCoalesce(
		inst.buildVertices(d),
		inst.buildArcs(d),
		inst.buildChargingFunction(d),
	)
	if err != nil {
		return nil, err
	}
	inst.buildChargingNetwork()
	inst.indexArcs()
	inst.buildNeighborhoods()
	inst.buildUnreachable()
	return inst, nil
}

func defaultDelta(name string) int {
	for _, prefix := range []string{"R1", "C1", "RC1"} {
		if strings.HasPrefix(name, prefix) {
			return 7
		}
	}
	return 12
}

func (inst *Instance) buildVertices(d *Data) error {
	sink := inst.Sink()
	nodes := slices.Clone(d.Nodes)
	slices.SortFunc(nodes, func(a, b NodeData) int { return cmp.Compare(a.ID, b.ID) })

	for i, n := range nodes {
		if n.ID != i {
			return invalid("node ids must be 0..%d, found %d at position %d", sink, n.ID, i)
		}
		if n.Opening > n.Closing {
			return invalid("node %d has an empty time window", n.ID)
		}
		kind := Customer
		switch n.ID {
		case 0:
			kind = DepotSource
		case sink:
			kind = DepotSink
		}
		inst.Vertices = append(inst.Vertices, &Vertex{
			ID:      n.ID,
			Kind:    kind,
			X:       n.X,
			Y:       n.Y,
			Load:    n.Load,
			Opening: n.Opening,
			Closing: n.Closing,
		})
	}

	inst.Vertices = append(inst.Vertices, &Vertex{ID: inst.ChargingSource(), Kind: ChargingSource})
	for t := 1; t <= inst.LastChargingPeriod; t++ {
		inst.Vertices = append(inst.Vertices, &Vertex{ID: inst.ChargingVertex(t), Kind: ChargingStep})
	}
	return nil
}

func (inst *Instance) buildArcs(d *Data) error {
	sink := inst.Sink()
	type pairMin struct{ cost, time, energy, first int }
	mins := make(map[[2]int]*pairMin)

	for i, l := range d.Links {
		if l.Tail < 0 || l.Tail > sink || l.Head < 0 || l.Head > sink {
			return invalid("link %d: endpoint out of range (%d -> %d)", i, l.Tail, l.Head)
		}
		if l.Tail == l.Head || l.Tail == sink || l.Head == 0 {
			return invalid("link %d: %d -> %d is not allowed", i, l.Tail, l.Head)
		}
		if l.Cost < 0 || l.Time < 0 || l.Energy < 0 {
			return invalid("link %d: negative attribute", i)
		}
		arc := &Arc{
			ID:     len(inst.Arcs),
			Tail:   l.Tail,
			Head:   l.Head,
			Cost:   l.Cost,
			Time:   l.Time,
			Energy: l.Energy,
		}
		inst.Arcs = append(inst.Arcs, arc)

		key := [2]int{l.Tail, l.Head}
		m, ok := mins[key]
		if !ok {
			mins[key] = &pairMin{cost: l.Cost, time: l.Time, energy: l.Energy, first: arc.ID}
			continue
		}
		if l.Cost < m.cost {
			m.cost, m.first = l.Cost, arc.ID
		}
		m.time = min(m.time, l.Time)
		m.energy = min(m.energy, l.Energy)
	}

	for _, a := range inst.Arcs {
		m := mins[[2]int{a.Tail, a.Head}]
		a.MinCost, a.MinTime, a.MinEnergy = m.cost, m.time, m.energy
		a.MinCostAlternative = m.first == a.ID
	}
	inst.NumPhysicalArcs = len(inst.Arcs)
	return nil
}

func (inst *Instance) buildChargingFunction(d *Data) error {
	points := slices.Clone(d.ChargingBreakpoints)
	slices.SortFunc(points, func(a, b Breakpoint) int { return cmp.Compare(a.Energy, b.Energy) })
	if points[len(points)-1].Energy < inst.EnergyCapacity {
		return invalid("charging breakpoints stop at %d, below energy capacity %d",
			points[len(points)-1].Energy, inst.EnergyCapacity)
	}

	inst.chargingPeriods = make([]int, inst.EnergyCapacity+1)
	p, periods := 0, 0
	for e := 1; e <= inst.EnergyCapacity; e++ {
		for points[p].Energy < e {
			p++
		}
		periods = max(periods, points[p].Periods)
		inst.chargingPeriods[e] = periods
	}
	return nil
}

func (inst *Instance) buildChargingNetwork() {
	v := inst.ChargingSource()
	add := func(tail, head int) {
		inst.Arcs = append(inst.Arcs, &Arc{
			ID:                 len(inst.Arcs),
			Tail:               tail,
			Head:               head,
			MinCostAlternative: true,
		})
	}
	for t := 1; t <= inst.LastChargingPeriod; t++ {
		add(v, inst.ChargingVertex(t))
		add(inst.ChargingVertex(t), inst.Source())
		if t < inst.LastChargingPeriod {
			add(inst.ChargingVertex(t), inst.ChargingVertex(t+1))
		}
	}
}

func (inst *Instance) indexArcs() {
	n := inst.NumVertices()
	inst.incoming = make([][]*Arc, n)
	inst.outgoing = make([][]*Arc, n)
	inst.cheapest = make(map[[2]int]*Arc)
	inst.depotTime = make([]int, n)
	inst.depotEnergy = make([]int, n)
	for i := range n {
		inst.depotTime[i] = math.MaxInt
		inst.depotEnergy[i] = math.MaxInt
	}

	for _, a := range inst.Arcs {
		inst.incoming[a.Head] = append(inst.incoming[a.Head], a)
		inst.outgoing[a.Tail] = append(inst.outgoing[a.Tail], a)
		if a.MinCostAlternative {
			inst.cheapest[[2]int{a.Tail, a.Head}] = a
		}
		if a.Tail == inst.Source() && a.ID < inst.NumPhysicalArcs {
			inst.depotTime[a.Head] = min(inst.depotTime[a.Head], a.Time)
			inst.depotEnergy[a.Head] = min(inst.depotEnergy[a.Head], a.Energy)
		}
	}
}

func (inst *Instance) buildNeighborhoods() {
	inst.Neighbors = make([]*bit.Set, inst.NumCustomers+1)
	for j := 1; j <= inst.NumCustomers; j++ {
		arcs := make([]*Arc, 0, len(inst.incoming[j])+len(inst.outgoing[j]))
		arcs = append(arcs, inst.incoming[j]...)
		arcs = append(arcs, inst.outgoing[j]...)
		slices.SortStableFunc(arcs, func(a, b *Arc) int { return cmp.Compare(a.Cost, b.Cost) })

		neighbors := new(bit.Set)
		for _, a := range arcs {
			if neighbors.Size() == inst.Delta {
				break
			}
			other := a.Tail
			if other == j {
				other = a.Head
			}
			if inst.IsCustomer(other) {
				neighbors.Add(other)
			}
		}
		inst.Neighbors[j] = neighbors.Add(j)
	}
}

// buildUnreachable marks, for every customer j, the customers with no
// direct arc into j. Labeling runs backwards, so they can never be the
// predecessor of j.
func (inst *Instance) buildUnreachable() {
	inst.Unreachable = make([]*bit.Set, inst.NumCustomers+1)
	for j := 1; j <= inst.NumCustomers; j++ {
		u := new(bit.Set).AddRange(1, inst.NumCustomers+1).Delete(j)
		for _, a := range inst.incoming[j] {
			if inst.IsCustomer(a.Tail) {
				u.Delete(a.Tail)
			}
		}
		inst.Unreachable[j] = u
	}
}
