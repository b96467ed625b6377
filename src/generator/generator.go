package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"

	"evrptw_bpc/src/model"
)

type params struct {
	name             string
	customers        int
	grid             float64
	capacity         int
	energy           int
	chargers         int
	periods          int
	periodLength     int
	horizon          int
	windowWidth      int
	energyPerUnit    float64
	breakpointPeriod int
}

// GenerateInstance places the customers at random on a square grid around
// the depot. Every pair gets a fast link and an energy-saving one that
// takes half as long again and uses a quarter less energy. Distances are
// scaled by ten.
func GenerateInstance(p params, rng *rand.Rand) *model.Data {
	d := &model.Data{
		Name:               p.name,
		Capacity:           p.capacity,
		EnergyCapacity:     p.energy,
		Chargers:           p.chargers,
		LastChargingPeriod: p.periods,
		PeriodLength:       p.periodLength,
	}

	// linear charging: breakpointPeriod periods per step
	steps := max(1, p.energy/10)
	for e := steps; e <= p.energy; e += steps {
		d.ChargingBreakpoints = append(d.ChargingBreakpoints, model.Breakpoint{
			Energy:  e,
			Periods: p.breakpointPeriod * e / steps,
		})
	}
	if last := d.ChargingBreakpoints[len(d.ChargingBreakpoints)-1]; last.Energy < p.energy {
		d.ChargingBreakpoints = append(d.ChargingBreakpoints, model.Breakpoint{Energy: p.energy, Periods: last.Periods + p.breakpointPeriod})
	}

	sink := p.customers + 1
	d.Nodes = append(d.Nodes, model.NodeData{ID: 0, Closing: p.horizon})
	for i := 1; i <= p.customers; i++ {
		opening := rng.Intn(max(1, p.horizon-p.windowWidth))
		d.Nodes = append(d.Nodes, model.NodeData{
			ID:      i,
			X:       math.Round(rng.Float64()*p.grid*10) / 10,
			Y:       math.Round(rng.Float64()*p.grid*10) / 10,
			Load:    1 + rng.Intn(max(1, p.capacity/3)),
			Opening: opening,
			Closing: min(p.horizon, opening+p.windowWidth),
		})
	}
	d.Nodes = append(d.Nodes, model.NodeData{ID: sink, Closing: p.horizon})

	dist := func(i, j int) int {
		a, b := d.Nodes[i], d.Nodes[j]
		return int(math.Round(10 * math.Hypot(a.X-b.X, a.Y-b.Y)))
	}
	for i := 0; i <= p.customers; i++ {
		for j := 1; j <= sink; j++ {
			if i == j || (i == 0 && j == sink) {
				continue
			}
			dd := dist(i, j)
			e := int(math.Ceil(float64(dd) * p.energyPerUnit))
			d.Links = append(d.Links,
				model.LinkData{Tail: i, Head: j, Cost: dd, Time: dd, Energy: e},
				model.LinkData{Tail: i, Head: j, Cost: dd, Time: dd * 3 / 2, Energy: e * 3 / 4},
			)
		}
	}
	return d
}

func main() {
	var outPath string
	var seed int64
	var p params

	flag.StringVar(&outPath, "out", "out.yaml", "The output file")
	flag.StringVar(&p.name, "name", "random", "The instance name")
	flag.IntVar(&p.customers, "customers", 0, "The number of customers")
	flag.Float64Var(&p.grid, "grid", 10, "The side of the square holding the customers")
	flag.IntVar(&p.capacity, "capacity", 10, "The vehicle load capacity")
	flag.IntVar(&p.energy, "energy", 0, "The battery capacity")
	flag.IntVar(&p.chargers, "chargers", 1, "The number of chargers at the depot")
	flag.IntVar(&p.periods, "periods", 0, "The last charging period")
	flag.IntVar(&p.periodLength, "period-length", 10, "The length of a charging period")
	flag.IntVar(&p.horizon, "horizon", 0, "The closing time of the depot")
	flag.IntVar(&p.windowWidth, "window", 100, "The width of the customer time windows")
	flag.Float64Var(&p.energyPerUnit, "energy-rate", 1, "The energy used per unit of distance")
	flag.IntVar(&p.breakpointPeriod, "charge-step", 1, "The periods needed to recharge a tenth of the battery")
	flag.Int64Var(&seed, "seed", 1, "The random seed")

	flag.Parse()

	err := false
	if p.customers == 0 {
		fmt.Fprintln(os.Stderr, "Must specify the number of customers")
		err = true
	}
	if p.energy == 0 {
		fmt.Fprintln(os.Stderr, "Must specify the battery capacity")
		err = true
	}
	if p.periods == 0 {
		fmt.Fprintln(os.Stderr, "Must specify the number of charging periods")
		err = true
	}
	if p.horizon == 0 {
		p.horizon = (p.periods + 1) * p.periodLength * 3
	}

	if err {
		os.Exit(1)
	}

	d := GenerateInstance(p, rand.New(rand.NewSource(seed)))
	if _, e := model.NewInstance(d); e != nil {
		fmt.Fprintln(os.Stderr, "Generated an invalid instance:", e)
		os.Exit(1)
	}
	if e := model.WriteData(outPath, d); e != nil {
		fmt.Fprintln(os.Stderr, e)
		os.Exit(1)
	}
}
