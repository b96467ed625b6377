package pricing

import (
	"cmp"
	"slices"

	"evrptw_bpc/src/model"
)

// buildRoute walks the predecessor chain of a charging source label back to
// the depot sink.
func (s *Solver) buildRoute(l *Label) *model.Route {
	inst := s.inst
	r := &model.Route{
		Visits:      make(map[int]int),
		Node:        -1,
		ReducedCost: l.ReducedCost,
		Departure:   inst.Period(l.Time),
		Load:        inst.Capacity - l.Load,
		Energy:      inst.EnergyCapacity - l.Energy,
	}
	r.InitialChargingTime = inst.Timestep(inst.Arcs[l.Arc].Head)

	for cur := l; cur.Vertex != inst.Sink(); {
		a := inst.Arcs[cur.Arc]
		r.Cost += a.Cost
		switch {
		case inst.IsCustomer(cur.Vertex):
			r.Visits[cur.Vertex]++
		case cur.Vertex > inst.ChargingSource():
			r.ChargingTime++
		}
		if a.Tail <= inst.NumCustomers {
			r.Arcs = append(r.Arcs, a.ID)
		}
		cur = s.processed[a.Head][cur.Pred]
	}

	for _, id := range r.Arcs[:len(r.Arcs)-1] {
		r.Sequence = append(r.Sequence, inst.Arcs[id].Head)
	}
	return r
}

// enlargeNeighborhoods adds, for every cycle of a non-elementary route, the
// repeated customer to the neighborhoods of the customers inside the cycle.
// It reports whether any neighborhood grew.
func (s *Solver) enlargeNeighborhoods(routes []*model.Route) bool {
	grew := false
	for _, r := range routes {
		if r.Elementary() {
			continue
		}
		visited := make([]int, 0, len(r.Sequence))
		for _, c := range r.Sequence {
			if slices.Contains(visited, c) {
				for k := len(visited) - 1; k >= 0 && visited[k] != c; k-- {
					n := s.neighbors[visited[k]]
					if !n.Contains(c) && n.Size()-1 < s.inst.DeltaMax {
						n.Add(c)
						grew = true
					}
				}
			}
			visited = append(visited, c)
		}
	}
	return grew
}

// disjointBlocks keeps, cheapest first, the routes that fit in one of a few
// blocks of mostly disjoint customer sets.
func (s *Solver) disjointBlocks(routes []*model.Route) []*model.Route {
	slices.SortStableFunc(routes, func(a, b *model.Route) int {
		return cmp.Compare(a.ReducedCost, b.ReducedCost)
	})

	blocks := make([][]int, s.opts.Blocks)
	for b := range blocks {
		blocks[b] = make([]int, s.inst.NumCustomers+1)
	}

	var selected []*model.Route
	for _, r := range routes {
		for _, block := range blocks {
			similarity := 0
			for c := range r.Visits {
				similarity += block[c]
			}
			if similarity > s.opts.SimilarityThreshold {
				continue
			}
			for c := range r.Visits {
				if s.exact() {
					block[c]++
				} else {
					block[c] = 1
				}
			}
			selected = append(selected, r)
			break
		}
	}
	return selected
}
