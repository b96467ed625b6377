package model

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Breakpoint struct {
	Energy  int `yaml:"energy"`
	Periods int `yaml:"periods"`
}

type NodeData struct {
	ID      int     `yaml:"id"`
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
	Load    int     `yaml:"load"`
	Opening int     `yaml:"opening"`
	Closing int     `yaml:"closing"`
}

type LinkData struct {
	Tail   int `yaml:"tail"`
	Head   int `yaml:"head"`
	Cost   int `yaml:"cost"`
	Time   int `yaml:"time"`
	Energy int `yaml:"energy"`
}

// Data is the on-disk form of an instance. Node 0 is the depot source and
// the node with the highest id is the depot sink; costs are expected to be
// already scaled to integers.
type Data struct {
	Name                string       `yaml:"name"`
	Capacity            int          `yaml:"capacity"`
	EnergyCapacity      int          `yaml:"energy_capacity"`
	Chargers            int          `yaml:"chargers"`
	LastChargingPeriod  int          `yaml:"last_charging_period"`
	PeriodLength        int          `yaml:"period_length"`
	Delta               int          `yaml:"delta,omitempty"`
	DeltaMax            int          `yaml:"delta_max,omitempty"`
	ChargingBreakpoints []Breakpoint `yaml:"charging_breakpoints"`
	Nodes               []NodeData   `yaml:"nodes"`
	Links               []LinkData   `yaml:"links"`
}

func positive(name string, v int) error {
	if v <= 0 {
		return invalid("%s must be positive, got %d", name, v)
	}
	return nil
}

func (d *Data) validate() error {
	err := errorCoalesce(
		positive("capacity", d.Capacity),
		positive("energy_capacity", d.EnergyCapacity),
		positive("chargers", d.Chargers),
		positive("last_charging_period", d.LastChargingPeriod),
		positive("period_length", d.PeriodLength),
	)
	if err != nil {
		return err
	}
	if len(d.Nodes) < 3 {
		return invalid("need a depot source, a depot sink and at least one customer")
	}
	if len(d.ChargingBreakpoints) == 0 {
		return invalid("missing charging breakpoints")
	}
	if d.Delta < 0 || d.DeltaMax < 0 || (d.DeltaMax > 0 && d.DeltaMax < d.Delta) {
		return invalid("bad ng sizes delta=%d delta_max=%d", d.Delta, d.DeltaMax)
	}
	return nil
}

func ReadData(filename string) (*Data, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	d := new(Data)
	if err := yaml.Unmarshal(raw, d); err != nil {
		return nil, fmt.Errorf("error while parsing %s: %v", filename, err)
	}
	return d, nil
}

func LoadInstance(filename string) (*Instance, error) {
	d, err := ReadData(filename)
	if err != nil {
		return nil, err
	}
	inst, err := NewInstance(d)
	if err != nil {
		return nil, errors.Wrapf(err, "instance %s", filename)
	}
	return inst, nil
}

func WriteData(filename string, d *Data) error {
	raw, err := yaml.Marshal(d)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, raw, 0666)
}
