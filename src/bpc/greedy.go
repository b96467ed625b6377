package bpc

import (
	"evrptw_bpc/src/model"

	"github.com/pkg/errors"
	"gopkg.in/dnaeon/go-priorityqueue.v1"
)

var errGreedyInfeasible = errors.New("greedy: customers left uncovered")

// greedyPartition builds a primal solution from the given columns, taking
// the cheapest route per customer first as long as it covers no customer
// twice and fits the free chargers.
func greedyPartition(inst *model.Instance, columns []*model.Route) ([]*model.Route, int, error) {
	pq := priorityqueue.New[int, float64](priorityqueue.MinHeap)
	for j, r := range columns {
		if r.Artificial || !r.Elementary() || len(r.Visits) == 0 {
			continue
		}
		pq.Put(j, float64(r.Cost)/float64(len(r.Visits)))
	}

	covered := make([]bool, inst.NumCustomers+1)
	chargers := make([]int, inst.LastChargingPeriod+1)
	numCovered, cost := 0, 0
	var selected []*model.Route

	for numCovered < inst.NumCustomers {
		if pq.Len() == 0 {
			return nil, 0, errGreedyInfeasible
		}
		r := columns[pq.Get().Value]
		if !fits(inst, r, covered, chargers) {
			continue
		}
		for c := range r.Visits {
			covered[c] = true
			numCovered++
		}
		for t := r.InitialChargingTime; t <= r.ChargingEnd(); t++ {
			chargers[t]++
		}
		selected = append(selected, r)
		cost += r.Cost
	}
	if len(selected) < inst.MinVehicles() {
		return nil, 0, errGreedyInfeasible
	}
	return selected, cost, nil
}

func fits(inst *model.Instance, r *model.Route, covered []bool, chargers []int) bool {
	for c := range r.Visits {
		if covered[c] {
			return false
		}
	}
	for t := r.InitialChargingTime; t <= r.ChargingEnd(); t++ {
		if t < 1 || t > inst.LastChargingPeriod || chargers[t] >= inst.Chargers {
			return false
		}
	}
	return true
}
