package bpc

import (
	"fmt"
	"math"
	"strings"
	"time"

	"evrptw_bpc/src/model"

	"github.com/google/uuid"
)

type Status string

const (
	StatusOptimal    Status = "optimal"
	StatusTimeLimit  Status = "time-limit"
	StatusInfeasible Status = "infeasible"
	StatusFailed     Status = "failed"
)

type Result struct {
	RunID    uuid.UUID `yaml:"run_id"`
	Instance string    `yaml:"instance"`
	Status   Status    `yaml:"status"`

	Objective float64 `yaml:"objective"`
	RootBound float64 `yaml:"root_bound"`

	Nodes      int `yaml:"nodes"`
	Iterations int `yaml:"iterations"`
	Columns    int `yaml:"columns"`
	Cuts       int `yaml:"cuts"`

	MasterTime  time.Duration `yaml:"master_time"`
	PricingTime time.Duration `yaml:"pricing_time"`
	Duration    time.Duration `yaml:"duration"`

	Routes []*model.Route `yaml:"-"`
}

// ScaledObjective reports the objective with one decimal, instances being
// stored with distances scaled by ten.
func (r *Result) ScaledObjective() float64 {
	if math.IsInf(r.Objective, 0) {
		return r.Objective
	}
	return math.Floor((r.Objective*0.1+0.05)*10) / 10
}

// Gap is the relative distance between the objective and the root bound.
func (r *Result) Gap() float64 {
	if math.IsInf(r.Objective, 0) || math.IsNaN(r.RootBound) || r.Objective == 0 {
		return math.NaN()
	}
	return (r.Objective - r.RootBound) / r.Objective
}

func (r *Result) String() string {
	s := new(strings.Builder)
	fmt.Fprintf(s, "Instance: %s (run %s)\n", r.Instance, r.RunID)
	fmt.Fprintf(s, "Status: %s\n", r.Status)
	fmt.Fprintf(s, "Objective: %.1f (scaled %.1f), root bound: %.3f\n", r.Objective, r.ScaledObjective(), r.RootBound)
	fmt.Fprintf(s, "Nodes: %d, iterations: %d, columns: %d, cuts: %d\n", r.Nodes, r.Iterations, r.Columns, r.Cuts)
	fmt.Fprintf(s, "Time: %v (master %v, pricing %v)\n", r.Duration, r.MasterTime, r.PricingTime)
	for _, route := range r.Routes {
		fmt.Fprintln(s, route)
	}
	return s.String()
}
