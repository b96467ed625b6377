package model

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"
)

// Route is a column of the master problem: one vehicle path from the depot
// back to the depot together with the charging window assigned to it.
type Route struct {
	Visits   map[int]int
	Sequence []int
	Arcs     []int

	Cost      int
	Energy    int
	Load      int
	Departure int

	InitialChargingTime int
	ChargingTime        int

	ReducedCost float64
	Artificial  bool
	// Node is the branch-and-price node the route was first assigned to,
	// -1 while it has not been assigned yet.
	Node  int
	Value float64

	key string
}

// NewArtificialRoute returns the high cost column covering every customer
// once, keeping the master feasible before real routes exist.
func NewArtificialRoute(inst *Instance, cost int) *Route {
	visits := make(map[int]int, inst.NumCustomers)
	seq := make([]int, 0, inst.NumCustomers)
	for c := 1; c <= inst.NumCustomers; c++ {
		visits[c] = 1
		seq = append(seq, c)
	}
	return &Route{
		Visits:     visits,
		Sequence:   seq,
		Cost:       cost,
		Artificial: true,
		Node:       -1,
	}
}

// Key identifies the column: the arc sequence plus the charging window.
func (r *Route) Key() string {
	if r.key != "" {
		return r.key
	}
	s := new(strings.Builder)
	if r.Artificial {
		s.WriteString("artificial")
	}
	for i, a := range r.Arcs {
		if i > 0 {
			s.WriteByte(',')
		}
		s.WriteString(strconv.Itoa(a))
	}
	fmt.Fprintf(s, "|%d:%d", r.InitialChargingTime, r.ChargingTime)
	r.key = s.String()
	return r.key
}

func (r *Route) Equal(o *Route) bool {
	return r.Key() == o.Key()
}

func (r *Route) ChargingEnd() int {
	return r.InitialChargingTime + r.ChargingTime - 1
}

func (r *Route) VisitCount(c int) int {
	return r.Visits[c]
}

func (r *Route) Elementary() bool {
	for _, n := range r.Visits {
		if n > 1 {
			return false
		}
	}
	return true
}

func (r *Route) Uses(arc int) bool {
	return slices.Contains(r.Arcs, arc)
}

// Customers returns the visited customers in increasing order.
func (r *Route) Customers() []int {
	cs := maps.Keys(r.Visits)
	slices.Sort(cs)
	return cs
}

func (r *Route) String() string {
	s := new(strings.Builder)
	if r.Artificial {
		fmt.Fprintf(s, "artificial cost: %d", r.Cost)
		return s.String()
	}
	fmt.Fprintf(s, "cost: %d, route: %v, ", r.Cost, r.Sequence)
	fmt.Fprintf(s, "load: %d, energy: %d, departure: %d, ", r.Load, r.Energy, r.Departure)
	fmt.Fprintf(s, "charging: [%d, %d]", r.InitialChargingTime, r.ChargingEnd())
	if r.Value > 0 {
		fmt.Fprintf(s, ", value: %.3f", r.Value)
	}
	return s.String()
}
