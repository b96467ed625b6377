package report

import (
	"math"

	"evrptw_bpc/src/model"
)

// ChargingStats summarizes how a solution uses the chargers between the
// first and the last period in which some vehicle charges. Values are
// truncated to four decimals.
type ChargingStats struct {
	// InUse is the share of periods with at least one vehicle charging.
	InUse float64 `yaml:"in_use"`
	// VehiclesCharging is the average number of vehicles charging per
	// period, relative to the number of chargers.
	VehiclesCharging float64 `yaml:"vehicles_charging"`
	FullCapacity     float64 `yaml:"full_capacity"`
}

func truncate4(x float64) float64 {
	return math.Floor(x*10000) / 10000
}

func NewChargingStats(inst *model.Instance, routes []*model.Route) ChargingStats {
	first, last := math.MaxInt, 0
	for _, r := range routes {
		if r.Artificial || r.ChargingTime == 0 {
			continue
		}
		first = min(first, r.InitialChargingTime)
		last = max(last, r.ChargingEnd())
	}
	if last < first {
		return ChargingStats{}
	}

	busy := make([]int, last+1)
	for _, r := range routes {
		if r.Artificial || r.ChargingTime == 0 {
			continue
		}
		for t := r.InitialChargingTime; t <= r.ChargingEnd(); t++ {
			busy[t]++
		}
	}

	inUse, vehicles, full := 0, 0, 0
	for t := first; t <= last; t++ {
		if busy[t] == 0 {
			continue
		}
		inUse++
		vehicles += busy[t]
		if busy[t] == inst.Chargers {
			full++
		}
	}
	span := float64(last - first + 1)
	return ChargingStats{
		InUse:            truncate4(float64(inUse) / span),
		VehiclesCharging: truncate4(float64(vehicles) / span / float64(inst.Chargers)),
		FullCapacity:     truncate4(float64(full) / span),
	}
}
