// Package report persists solver results.
package report

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"evrptw_bpc/src/bpc"
	"evrptw_bpc/src/model"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Sink interface {
	Write(ctx context.Context, res *bpc.Result) error
}

type routeRecord struct {
	Customers []int   `yaml:"customers"`
	Cost      int     `yaml:"cost"`
	Energy    int     `yaml:"energy"`
	Load      int     `yaml:"load"`
	Departure int     `yaml:"departure"`
	Charging  [2]int  `yaml:"charging,flow"`
	Value     float64 `yaml:"value"`
}

type runRecord struct {
	RunID           string        `yaml:"run_id"`
	Instance        string        `yaml:"instance"`
	Status          bpc.Status    `yaml:"status"`
	Objective       float64       `yaml:"objective"`
	ScaledObjective float64       `yaml:"scaled_objective"`
	RootBound       float64       `yaml:"root_bound"`
	Nodes           int           `yaml:"nodes"`
	Iterations      int           `yaml:"iterations"`
	Columns         int           `yaml:"columns"`
	Cuts            int           `yaml:"cuts"`
	MasterTime      time.Duration `yaml:"master_time"`
	PricingTime     time.Duration `yaml:"pricing_time"`
	Duration        time.Duration `yaml:"duration"`
	Charging        ChargingStats `yaml:"charging"`
	Routes          []routeRecord `yaml:"routes"`
}

func newRouteRecord(r *model.Route) routeRecord {
	return routeRecord{
		Customers: r.Sequence,
		Cost:      r.Cost,
		Energy:    r.Energy,
		Load:      r.Load,
		Departure: r.Departure,
		Charging:  [2]int{r.InitialChargingTime, r.ChargingEnd()},
		Value:     r.Value,
	}
}

// YAMLSink writes one file per run, named after the instance, in Dir.
type YAMLSink struct {
	Dir  string
	inst map[string]*model.Instance
}

func NewYAMLSink(dir string, instances ...*model.Instance) *YAMLSink {
	s := &YAMLSink{Dir: dir, inst: make(map[string]*model.Instance)}
	for _, inst := range instances {
		s.inst[inst.Name] = inst
	}
	return s
}

// Register makes the charger statistics of inst available to Write.
func (s *YAMLSink) Register(inst *model.Instance) {
	s.inst[inst.Name] = inst
}

func (s *YAMLSink) Path(res *bpc.Result) string {
	return filepath.Join(s.Dir, res.Instance+".result.yaml")
}

func (s *YAMLSink) Write(ctx context.Context, res *bpc.Result) error {
	rec := runRecord{
		RunID:           res.RunID.String(),
		Instance:        res.Instance,
		Status:          res.Status,
		Objective:       res.Objective,
		ScaledObjective: res.ScaledObjective(),
		RootBound:       res.RootBound,
		Nodes:           res.Nodes,
		Iterations:      res.Iterations,
		Columns:         res.Columns,
		Cuts:            res.Cuts,
		MasterTime:      res.MasterTime,
		PricingTime:     res.PricingTime,
		Duration:        res.Duration,
	}
	if inst, ok := s.inst[res.Instance]; ok {
		rec.Charging = NewChargingStats(inst, res.Routes)
	}
	for _, r := range res.Routes {
		rec.Routes = append(rec.Routes, newRouteRecord(r))
	}

	raw, err := yaml.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "encoding result")
	}
	if err := os.MkdirAll(s.Dir, 0777); err != nil {
		return err
	}
	return errors.Wrapf(os.WriteFile(s.Path(res), raw, 0666), "writing result of %s", res.Instance)
}

// MultiSink forwards a result to every sink and returns the first error.
type MultiSink []Sink

func (m MultiSink) Write(ctx context.Context, res *bpc.Result) error {
	var first error
	for _, s := range m {
		if err := s.Write(ctx, res); err != nil && first == nil {
			first = err
		}
	}
	return first
}
