package bpc

import (
	"evrptw_bpc/src/model"
)

// initialColumns returns one depot-customer-depot route per customer that
// can be served alone, charging right before its latest departure.
func initialColumns(inst *model.Instance) []*model.Route {
	var routes []*model.Route
	sink := inst.Vertices[inst.Sink()]
	for c := 1; c <= inst.NumCustomers; c++ {
		out, ok := inst.Arc(inst.Source(), c)
		if !ok {
			continue
		}
		back, ok := inst.Arc(c, inst.Sink())
		if !ok {
			continue
		}
		v := inst.Vertices[c]
		energy := out.Energy + back.Energy
		if energy > inst.EnergyCapacity || v.Load > inst.Capacity {
			continue
		}
		arrival := min(sink.Closing-back.Time, v.Closing)
		if arrival < v.Opening {
			continue
		}
		departure := inst.Period(arrival - out.Time)
		charging := inst.ChargingPeriods(energy)
		end := min(departure-1, inst.LastChargingPeriod)
		start := end - charging + 1
		if start < 1 {
			continue
		}

		routes = append(routes, &model.Route{
			Visits:              map[int]int{c: 1},
			Sequence:            []int{c},
			Arcs:                []int{out.ID, back.ID},
			Cost:                out.Cost + back.Cost,
			Energy:              energy,
			Load:                v.Load,
			Departure:           departure,
			InitialChargingTime: start,
			ChargingTime:        charging,
			Node:                -1,
		})
	}
	return routes
}
