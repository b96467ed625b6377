package bpc

import (
	"math"
	"os"
	"time"

	"evrptw_bpc/src/pricing"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type NodeOrder string

const (
	BestBound    NodeOrder = "best-bound"
	DepthFirst   NodeOrder = "depth-first"
	BreadthFirst NodeOrder = "breadth-first"
)

type Config struct {
	TimeLimit            time.Duration `yaml:"time_limit"`
	Precision            float64       `yaml:"precision"`
	IntegralityTolerance float64       `yaml:"integrality_tolerance"`
	NodeOrder            NodeOrder     `yaml:"node_order"`
	Pricing              []string      `yaml:"pricing"`
	MaxSourceLabels      int           `yaml:"max_source_labels"`
	SimilarityThreshold  int           `yaml:"similarity_threshold"`

	Cuts               bool    `yaml:"cuts"`
	MaxCuts            int     `yaml:"max_cuts"`
	MaxCutsPerCustomer int     `yaml:"max_cuts_per_customer"`
	MinCutViolation    float64 `yaml:"min_cut_violation"`

	RootHeuristic    bool          `yaml:"root_heuristic"`
	RootMIP          bool          `yaml:"root_mip"`
	RootMIPTimeLimit time.Duration `yaml:"root_mip_time_limit"`

	LPOracle       string `yaml:"lp_oracle"`
	MIPOracle      string `yaml:"mip_oracle"`
	ArtificialCost int    `yaml:"artificial_cost"`
}

func DefaultConfig() Config {
	return Config{
		TimeLimit:            time.Hour,
		Precision:            0.09,
		IntegralityTolerance: 0.001,
		NodeOrder:            BestBound,
		Pricing: []string{
			pricing.HeuristicMinCost.String(),
			pricing.HeuristicMultigraph.String(),
			pricing.Exact.String(),
		},
		MaxSourceLabels:     400,
		SimilarityThreshold: 5,
		Cuts:                true,
		MaxCuts:             30,
		MaxCutsPerCustomer:  5,
		MinCutViolation:     0.1,
		RootHeuristic:       true,
		RootMIP:             true,
		RootMIPTimeLimit:    10 * time.Second,
		LPOracle:            "highs",
		MIPOracle:           "highs",
		ArtificialCost:      math.MaxInt32,
	}
}

// LoadConfig reads a YAML file over the defaults.
func LoadConfig(filename string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(filename)
	if err != nil {
		return cfg, errors.Wrap(err, "reading config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "error while parsing config %s", filename)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.NodeOrder {
	case BestBound, DepthFirst, BreadthFirst:
	default:
		return errors.Errorf("unknown node order %q", c.NodeOrder)
	}
	if len(c.Pricing) == 0 {
		return errors.New("no pricing variant configured")
	}
	if _, err := c.Variants(); err != nil {
		return err
	}
	if c.Precision <= 0 || c.IntegralityTolerance <= 0 {
		return errors.New("precision and integrality tolerance must be positive")
	}
	if c.ArtificialCost <= 0 {
		return errors.New("artificial cost must be positive")
	}
	return nil
}

func (c Config) Variants() ([]pricing.Variant, error) {
	vs := make([]pricing.Variant, 0, len(c.Pricing))
	for _, name := range c.Pricing {
		v, err := pricing.ParseVariant(name)
		if err != nil {
			return nil, err
		}
		vs = append(vs, v)
	}
	return vs, nil
}

func (c Config) pricingOptions() pricing.Options {
	opts := pricing.DefaultOptions()
	opts.Precision = c.Precision
	opts.Tolerance = c.Precision
	opts.MaxSourceLabels = c.MaxSourceLabels
	opts.SimilarityThreshold = c.SimilarityThreshold
	return opts
}
