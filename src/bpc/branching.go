package bpc

import (
	"math"
	"slices"

	"evrptw_bpc/src/model"

	"golang.org/x/exp/maps"
)

func fractional(x, tol float64) bool {
	return x-math.Floor(x) > tol && math.Ceil(x)-x > tol
}

// branch returns the two decisions splitting the fractional solution held
// in the column values, trying in order the fleet size, the arc flows and
// the charging end and start timesteps. It returns nil when none of them
// is fractional.
func branch(inst *model.Instance, columns []*model.Route, tol float64) []*Decision {
	var used []*model.Route
	vehicles := 0.0
	for _, r := range columns {
		if r.Artificial || r.Value <= tol {
			continue
		}
		used = append(used, r)
		vehicles += r.Value
	}

	if fractional(vehicles, tol) {
		return []*Decision{
			NewVehicleDecision(false, int(math.Floor(vehicles)), vehicles),
			NewVehicleDecision(true, int(math.Ceil(vehicles)), vehicles),
		}
	}

	if ds := branchOnArcs(inst, used, tol); ds != nil {
		return ds
	}

	for _, start := range []bool{false, true} {
		window := func(r *model.Route) int {
			if start {
				return r.InitialChargingTime
			}
			return r.ChargingEnd()
		}
		flow := make([]float64, inst.LastChargingPeriod+1)
		for _, r := range used {
			if t := window(r); t >= 1 && t <= inst.LastChargingPeriod {
				flow[t] += r.Value
			}
		}
		// the first route, in solution order, sitting on a fractional timestep
		for _, r := range used {
			t := window(r)
			if t >= 1 && t <= inst.LastChargingPeriod && fractional(flow[t], tol) {
				return []*Decision{
					NewChargingDecision(false, start, t, int(math.Floor(flow[t])), flow[t]),
					NewChargingDecision(true, start, t, int(math.Ceil(flow[t])), flow[t]),
				}
			}
		}
	}
	return nil
}

// branchOnArcs picks the arc whose flow is closest to one half, preferring
// arcs between two customers over arcs touching the depot.
func branchOnArcs(inst *model.Instance, used []*model.Route, tol float64) []*Decision {
	flow := make(map[int]float64)
	candidates := make(map[int]bool)
	for _, r := range used {
		for _, a := range r.Arcs {
			flow[a] += r.Value
			if r.Value < 1-tol {
				candidates[a] = true
			}
		}
	}

	ids := maps.Keys(candidates)
	slices.Sort(ids)

	inner, depot := -1, -1
	innerDist, depotDist := math.Inf(1), math.Inf(1)
	for _, id := range ids {
		f := flow[id]
		if !fractional(f, tol) {
			continue
		}
		d := math.Abs(f - math.Floor(f) - 0.5)
		a := inst.Arcs[id]
		if inst.IsCustomer(a.Tail) && inst.IsCustomer(a.Head) {
			if d < eps {
				inner = id
				break
			}
			if d < innerDist {
				inner, innerDist = id, d
			}
		} else if d < depotDist {
			depot, depotDist = id, d
		}
	}

	pick := inner
	if pick < 0 {
		pick = depot
	}
	if pick < 0 {
		return nil
	}
	a := inst.Arcs[pick]
	return []*Decision{
		NewRemoveArcDecision(a, flow[pick]),
		NewFixArcDecision(inst, a, flow[pick]),
	}
}
