// Package pricing searches the charging-extended network for routes of
// negative reduced cost with a backward labeling algorithm.
package pricing

import (
	"context"
	"fmt"
	"math"
	"strings"

	"evrptw_bpc/src/model"

	"github.com/pkg/errors"
	"github.com/yourbasic/bit"
)

// ErrInfeasible is returned when no label reaches the depot source at all,
// so the node cannot host any route.
var ErrInfeasible = errors.New("pricing: no feasible path")

const eps = 1e-6

type Variant int

const (
	// HeuristicMinCost keeps only the cheapest alternative between each pair
	// of vertices and forbids any revisit.
	HeuristicMinCost Variant = iota
	// HeuristicMultigraph forbids revisits over the full multigraph.
	HeuristicMultigraph
	// Exact enumerates ng-routes and tightens neighborhoods until the best
	// routes are elementary.
	Exact
)

func (v Variant) String() string {
	switch v {
	case HeuristicMinCost:
		return "heuristic-mincost"
	case HeuristicMultigraph:
		return "heuristic-multigraph"
	case Exact:
		return "exact"
	}
	return fmt.Sprintf("variant(%d)", int(v))
}

func ParseVariant(s string) (Variant, error) {
	for _, v := range []Variant{HeuristicMinCost, HeuristicMultigraph, Exact} {
		if strings.EqualFold(s, v.String()) {
			return v, nil
		}
	}
	return 0, errors.Errorf("unknown pricing variant %q", s)
}

// Duals are the master prices, already split per role.
type Duals struct {
	Customers        []float64
	Chargers         []float64
	Cuts             []float64
	ChargingBranches []float64
	// Constant collects the duals every route pays once: the rounded
	// capacity row and the vehicle branching rows.
	Constant float64
}

// ChargingBranch is an active branching row on the start or end timestep
// of the charging windows.
type ChargingBranch struct {
	Timestep int
	Start    bool
	AtLeast  bool
}

type Input struct {
	Duals            Duals
	Cuts             []*model.SubsetRow
	ChargingBranches []ChargingBranch
}

type Result struct {
	Routes []*model.Route
	// BestReducedCost is the least reduced cost over all routes; it is only
	// meaningful when Complete.
	BestReducedCost float64
	// Complete reports that enumeration was neither cut by the source label
	// cap nor by the deadline.
	Complete bool
	Labels   int
}

type Options struct {
	// Precision is the reduced cost a route must beat to be returned.
	Precision float64
	// Tolerance is the slack on reduced costs used by dominance and by the
	// pruning of labels reaching the depot.
	Tolerance       float64
	MaxSourceLabels int
	// Blocks is the number of disjoint column blocks; zero picks the
	// variant default.
	Blocks              int
	SimilarityThreshold int
}

func DefaultOptions() Options {
	return Options{
		Precision:           0.09,
		Tolerance:           0.09,
		MaxSourceLabels:     400,
		SimilarityThreshold: 5,
	}
}

type Solver struct {
	inst    *model.Instance
	variant Variant
	opts    Options

	modifiedCost []float64
	infeasible   []int
	neighbors    []*bit.Set
	threshold    float64
	constantDual float64

	cuts                 []*model.SubsetRow
	cutDuals             []float64
	cutsOf               [][]int
	chargingBranchActive bool

	chargingIn  []int
	chargingOut []int

	pools        []*labelPool
	processed    [][]*Label
	frontier     *frontier
	sourceLabels []*Label
	seq          int
	reachedDepot bool
}

func NewSolver(inst *model.Instance, variant Variant, opts Options) *Solver {
	s := &Solver{
		inst:         inst,
		variant:      variant,
		opts:         opts,
		modifiedCost: make([]float64, len(inst.Arcs)),
		infeasible:   make([]int, len(inst.Arcs)),
		neighbors:    make([]*bit.Set, len(inst.Neighbors)),
		cutsOf:       make([][]int, inst.NumVertices()),
		chargingIn:   make([]int, inst.LastChargingPeriod+1),
		chargingOut:  make([]int, inst.LastChargingPeriod+1),
	}
	if s.opts.Blocks == 0 {
		s.opts.Blocks = 5
		if variant == Exact {
			s.opts.Blocks = 10
		}
	}
	for i, n := range inst.Neighbors {
		if n != nil {
			s.neighbors[i] = new(bit.Set).Set(n)
		}
	}
	for _, a := range inst.Arcs {
		switch {
		case a.Tail == inst.ChargingSource():
			s.chargingIn[inst.Timestep(a.Head)] = a.ID
		case a.Head == inst.Source():
			s.chargingOut[inst.Timestep(a.Tail)] = a.ID
		}
	}
	return s
}

func (s *Solver) Variant() Variant {
	return s.variant
}

func (s *Solver) exact() bool {
	return s.variant == Exact
}

// chargingStage reports whether labels at v only carry the charging window
// state: the depot sink and the charging chain.
func (s *Solver) chargingStage(v int) bool {
	return v > s.inst.NumCustomers && v != s.inst.Source()
}

// Neighborhood returns the current ng-neighborhood of a customer.
func (s *Solver) Neighborhood(customer int) *bit.Set {
	return s.neighbors[customer]
}

// AddInfeasibleArcs forbids the arcs until a matching RemoveInfeasibleArcs.
func (s *Solver) AddInfeasibleArcs(arcs []int) {
	for _, a := range arcs {
		s.infeasible[a]++
	}
}

func (s *Solver) RemoveInfeasibleArcs(arcs []int) {
	for _, a := range arcs {
		if s.infeasible[a] > 0 {
			s.infeasible[a]--
		}
	}
}

func (s *Solver) ArcInfeasible(arc int) bool {
	return s.infeasible[arc] > 0
}

func (s *Solver) setObjective(in *Input) {
	inst := s.inst
	d := in.Duals
	for _, a := range inst.Arcs {
		switch {
		case inst.IsCustomer(a.Tail):
			s.modifiedCost[a.ID] = float64(a.Cost) - d.Customers[a.Tail-1]
		case a.Tail == inst.Source():
			s.modifiedCost[a.ID] = float64(a.Cost)
		case a.Tail > inst.ChargingSource():
			s.modifiedCost[a.ID] = float64(a.Cost) - d.Chargers[inst.Timestep(a.Tail)-1]
		default:
			s.modifiedCost[a.ID] = float64(a.Cost)
		}
	}

	s.constantDual = d.Constant
	s.threshold = 0
	for i, br := range in.ChargingBranches {
		dual := d.ChargingBranches[i]
		if br.Start {
			s.modifiedCost[s.chargingIn[br.Timestep]] -= dual
		} else {
			s.modifiedCost[s.chargingOut[br.Timestep]] -= dual
		}
		if br.AtLeast {
			s.threshold += dual
		}
	}
	s.chargingBranchActive = len(in.ChargingBranches) > 0

	s.cuts = in.Cuts
	s.cutDuals = d.Cuts
	for v := range s.cutsOf {
		s.cutsOf[v] = s.cutsOf[v][:0]
	}
	for i, c := range in.Cuts {
		for _, m := range c.Triplet {
			s.cutsOf[m] = append(s.cutsOf[m], i)
		}
	}
}

// Solve prices the network under the given duals. It returns ErrInfeasible
// when not even a zero-dual path reaches the depot.
func (s *Solver) Solve(ctx context.Context, in *Input) (*Result, error) {
	s.setObjective(in)
	defer s.reset()

	res := new(Result)
	for {
		complete := s.label(ctx)
		res.Labels += s.seq
		res.Complete = complete

		if len(s.sourceLabels) == 0 {
			if !s.reachedDepot {
				return nil, ErrInfeasible
			}
			res.BestReducedCost = 0
			return res, nil
		}

		res.BestReducedCost = math.Inf(1)
		routes := make([]*model.Route, 0, len(s.sourceLabels))
		for _, l := range s.sourceLabels {
			res.BestReducedCost = math.Min(res.BestReducedCost, l.ReducedCost)
			if l.ReducedCost <= -s.opts.Precision {
				routes = append(routes, s.buildRoute(l))
			}
		}

		if s.exact() {
			elementary := make([]*model.Route, 0, len(routes))
			for _, r := range routes {
				if r.Elementary() {
					elementary = append(elementary, r)
				}
			}
			if len(elementary) == 0 && len(routes) > 0 && ctx.Err() == nil && s.enlargeNeighborhoods(routes) {
				s.reset()
				continue
			}
			// Once the neighborhoods are capped the ng-routes are the best
			// columns left; dropping them would report a false convergence.
			if len(elementary) > 0 {
				routes = elementary
			}
		}

		res.Routes = s.disjointBlocks(routes)
		return res, nil
	}
}

func (s *Solver) reset() {
	s.pools = nil
	s.processed = nil
	s.frontier = nil
	s.sourceLabels = nil
	s.seq = 0
	s.reachedDepot = false
}

// Hierarchy runs several solvers from the cheapest to the exact one and
// keeps their branching state in sync.
type Hierarchy []*Solver

func NewHierarchy(inst *model.Instance, variants []Variant, opts Options) Hierarchy {
	h := make(Hierarchy, len(variants))
	for i, v := range variants {
		h[i] = NewSolver(inst, v, opts)
	}
	return h
}

func (h Hierarchy) AddInfeasibleArcs(arcs []int) {
	for _, s := range h {
		s.AddInfeasibleArcs(arcs)
	}
}

func (h Hierarchy) RemoveInfeasibleArcs(arcs []int) {
	for _, s := range h {
		s.RemoveInfeasibleArcs(arcs)
	}
}

// Solve tries each solver in turn and stops at the first that returns
// routes. The solver that produced the result is returned with it. Only the
// last solver may declare the network infeasible, since the cheaper ones
// search a restricted graph.
func (h Hierarchy) Solve(ctx context.Context, in *Input) (*Result, *Solver, error) {
	res := new(Result)
	var last *Solver
	for i, s := range h {
		r, err := s.Solve(ctx, in)
		last = s
		if errors.Is(err, ErrInfeasible) && i < len(h)-1 {
			continue
		}
		if err != nil {
			return nil, s, err
		}
		res = r
		if len(res.Routes) > 0 || ctx.Err() != nil {
			break
		}
	}
	return res, last, nil
}
