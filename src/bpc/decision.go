package bpc

import (
	"fmt"

	"evrptw_bpc/src/master"
	"evrptw_bpc/src/model"
	"evrptw_bpc/src/pricing"
)

type DecisionKind int

const (
	VehiclesAtMost DecisionKind = iota
	VehiclesAtLeast
	RemoveArc
	FixArc
	ChargingAtMost
	ChargingAtLeast
)

func (k DecisionKind) String() string {
	switch k {
	case VehiclesAtMost:
		return "vehicles<="
	case VehiclesAtLeast:
		return "vehicles>="
	case RemoveArc:
		return "remove-arc"
	case FixArc:
		return "fix-arc"
	case ChargingAtMost:
		return "charging<="
	case ChargingAtLeast:
		return "charging>="
	}
	return fmt.Sprintf("decision(%d)", int(k))
}

// Decision is one branching constraint. Vehicle and charging decisions
// become master rows; arc decisions forbid arcs in pricing and filter the
// inherited columns.
type Decision struct {
	Kind        DecisionKind
	Coefficient int
	Arc         int
	Timestep    int
	Start       bool
	// Flow is the fractional value that triggered the branch.
	Flow float64

	InfeasibleArcs []int
}

func NewVehicleDecision(atLeast bool, bound int, flow float64) *Decision {
	k := VehiclesAtMost
	if atLeast {
		k = VehiclesAtLeast
	}
	return &Decision{Kind: k, Coefficient: bound, Flow: flow}
}

func NewRemoveArcDecision(arc *model.Arc, flow float64) *Decision {
	return &Decision{Kind: RemoveArc, Arc: arc.ID, Flow: flow, InfeasibleArcs: []int{arc.ID}}
}

// NewFixArcDecision forces the arc: every other arc leaving its tail and
// entering its head is forbidden. The depot ends are left free.
func NewFixArcDecision(inst *model.Instance, arc *model.Arc, flow float64) *Decision {
	d := &Decision{Kind: FixArc, Arc: arc.ID, Flow: flow}
	if arc.Tail != inst.Source() {
		for _, a := range inst.Outgoing(arc.Tail) {
			if a.ID != arc.ID {
				d.InfeasibleArcs = append(d.InfeasibleArcs, a.ID)
			}
		}
	}
	if inst.IsCustomer(arc.Head) {
		for _, a := range inst.Incoming(arc.Head) {
			if a.ID != arc.ID {
				d.InfeasibleArcs = append(d.InfeasibleArcs, a.ID)
			}
		}
	}
	return d
}

func NewChargingDecision(atLeast, start bool, timestep, bound int, flow float64) *Decision {
	k := ChargingAtMost
	if atLeast {
		k = ChargingAtLeast
	}
	return &Decision{Kind: k, Timestep: timestep, Start: start, Coefficient: bound, Flow: flow}
}

// ColumnIsCompatible reports whether a parent column may be inherited.
func (d *Decision) ColumnIsCompatible(r *model.Route) bool {
	if r.Artificial {
		return true
	}
	for _, a := range d.InfeasibleArcs {
		if r.Uses(a) {
			return false
		}
	}
	return true
}

// CutIsCompatible reports whether a parent cut may be inherited. Subset-row
// cuts stay valid under every branching decision.
func (d *Decision) CutIsCompatible(c *model.SubsetRow) bool {
	return true
}

// AddToMaster adds the row the decision needs, if any.
func (d *Decision) AddToMaster(m *master.Master) {
	switch d.Kind {
	case VehiclesAtMost, VehiclesAtLeast:
		m.AddVehicleBranch(d.Coefficient, d.Kind == VehiclesAtLeast)
	case ChargingAtMost, ChargingAtLeast:
		m.AddChargingBranch(pricing.ChargingBranch{
			Timestep: d.Timestep,
			Start:    d.Start,
			AtLeast:  d.Kind == ChargingAtLeast,
		}, d.Coefficient)
	}
}

func (d *Decision) Apply(h pricing.Hierarchy) {
	if len(d.InfeasibleArcs) > 0 {
		h.AddInfeasibleArcs(d.InfeasibleArcs)
	}
}

func (d *Decision) Reverse(h pricing.Hierarchy) {
	if len(d.InfeasibleArcs) > 0 {
		h.RemoveInfeasibleArcs(d.InfeasibleArcs)
	}
}

func (d *Decision) String() string {
	switch d.Kind {
	case VehiclesAtMost, VehiclesAtLeast:
		return fmt.Sprintf("%v %d (flow %.3f)", d.Kind, d.Coefficient, d.Flow)
	case RemoveArc, FixArc:
		return fmt.Sprintf("%v %d (flow %.3f)", d.Kind, d.Arc, d.Flow)
	}
	side := "end"
	if d.Start {
		side = "start"
	}
	return fmt.Sprintf("%v %d at %s %d (flow %.3f)", d.Kind, d.Coefficient, side, d.Timestep, d.Flow)
}
