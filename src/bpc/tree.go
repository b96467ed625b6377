// Package bpc solves the electric vehicle routing problem with time windows
// and charger capacity by branch-and-price-and-cut.
package bpc

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"evrptw_bpc/src/cuts"
	"evrptw_bpc/src/master"
	"evrptw_bpc/src/model"
	"evrptw_bpc/src/oracle"
	"evrptw_bpc/src/pricing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type Node struct {
	ID        int
	Parent    *Node
	Depth     int
	Decisions []*Decision
	Columns   []*model.Route
	Cuts      []*model.SubsetRow
	Bound     float64
}

func (n *Node) String() string {
	s := new(strings.Builder)
	fmt.Fprintf(s, "Node %d (depth %d), bound: %.3f", n.ID, n.Depth, n.Bound)
	if len(n.Decisions) > 0 {
		fmt.Fprint(s, ", last decision: ", n.Decisions[len(n.Decisions)-1])
	}
	return s.String()
}

// child inherits the columns and cuts compatible with the extra decision.
func (n *Node) child(id int, d *Decision, columns []*model.Route, cuts []*model.SubsetRow) *Node {
	c := &Node{
		ID:        id,
		Parent:    n,
		Depth:     n.Depth + 1,
		Decisions: append(append([]*Decision(nil), n.Decisions...), d),
		Bound:     n.Bound,
	}
	for _, r := range columns {
		if !r.Artificial && d.ColumnIsCompatible(r) {
			c.Columns = append(c.Columns, r)
		}
	}
	for _, cut := range cuts {
		if d.CutIsCompatible(cut) {
			c.Cuts = append(c.Cuts, cut)
		}
	}
	return c
}

type Tree struct {
	inst      *model.Instance
	cfg       Config
	lp        oracle.Oracle
	mip       oracle.Oracle
	pricing   pricing.Hierarchy
	separator *cuts.Separator
	log       *log.Entry

	active    []*Decision
	incumbent []*model.Route
	bestCost  float64
	nextID    int
	result    *Result
}

// NewTree prepares a search. lp must provide duals; mip is only used to
// strengthen the root and may be nil.
func NewTree(inst *model.Instance, cfg Config, lp, mip oracle.Oracle) (*Tree, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	variants, err := cfg.Variants()
	if err != nil {
		return nil, err
	}
	t := &Tree{
		inst:     inst,
		cfg:      cfg,
		lp:       lp,
		mip:      mip,
		pricing:  pricing.NewHierarchy(inst, variants, cfg.pricingOptions()),
		bestCost: math.Inf(1),
	}
	if cfg.Cuts {
		t.separator = &cuts.Separator{
			MaxCuts:        cfg.MaxCuts,
			MaxPerCustomer: cfg.MaxCutsPerCustomer,
			MinViolation:   cfg.MinCutViolation,
		}
	}
	return t, nil
}

func (t *Tree) pruned(bound float64) bool {
	return boundReaches(bound, t.bestCost)
}

func (t *Tree) updateIncumbent(routes []*model.Route, cost float64, source string) {
	if cost >= t.bestCost-eps {
		return
	}
	t.incumbent = routes
	t.bestCost = cost
	Incumbent.Set(cost)
	t.log.WithFields(log.Fields{"cost": cost, "source": source}).Info("new incumbent")
}

// switchTo reverses the pricing decisions of the previous node and applies
// those of n.
func (t *Tree) switchTo(n *Node) {
	for i := len(t.active) - 1; i >= 0; i-- {
		t.active[i].Reverse(t.pricing)
	}
	for _, d := range n.Decisions {
		d.Apply(t.pricing)
	}
	t.active = n.Decisions
}

func (t *Tree) buildMaster(n *Node, o oracle.Oracle) (*master.Master, error) {
	m := master.New(t.inst, o, t.cfg.ArtificialCost)
	for _, d := range n.Decisions {
		d.AddToMaster(m)
	}
	for _, c := range n.Cuts {
		if err := m.AddCut(c); err != nil {
			return nil, err
		}
	}
	m.AddColumns(n.Columns)
	return m, nil
}

// Solve runs the search until the tree is exhausted or the time limit
// expires. On time limit the best solution found so far is returned along
// with ErrTimeLimit.
func (t *Tree) Solve(ctx context.Context) (*Result, error) {
	runID := uuid.New()
	t.log = log.WithFields(log.Fields{"run": runID.String(), "instance": t.inst.Name})
	t.result = &Result{RunID: runID, Instance: t.inst.Name, Status: StatusOptimal, RootBound: math.NaN()}
	started := time.Now()

	if t.cfg.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.TimeLimit)
		defer cancel()
	}

	err := t.search(ctx)
	t.switchTo(&Node{})

	t.result.Duration = time.Since(started)
	t.result.Routes = t.incumbent
	t.result.Objective = t.bestCost
	switch {
	case errors.Is(err, ErrTimeLimit):
		t.result.Status = StatusTimeLimit
	case errors.Is(err, ErrInfeasible):
		t.result.Status = StatusInfeasible
	case err != nil:
		t.result.Status = StatusFailed
	case t.incumbent == nil:
		t.result.Status = StatusInfeasible
		err = ErrInfeasible
	}
	t.log.WithFields(log.Fields{
		"status":    t.result.Status,
		"objective": t.result.Objective,
		"nodes":     t.result.Nodes,
		"elapsed":   t.result.Duration,
	}).Info("search finished")
	return t.result, err
}

func (t *Tree) search(ctx context.Context) error {
	root := &Node{ID: t.nextID, Columns: initialColumns(t.inst), Bound: math.Inf(-1)}
	t.nextID++

	open := newOpenNodes(t.cfg.NodeOrder)
	open.Push(root)
	for open.Size() > 0 {
		if ctx.Err() != nil {
			return ErrTimeLimit
		}
		n := open.Pop()
		if t.pruned(n.Bound) {
			NodesProcessed.WithLabelValues("pruned").Inc()
			continue
		}
		children, err := t.process(ctx, n)
		if err != nil {
			return err
		}
		for _, c := range children {
			open.Push(c)
		}
	}
	return nil
}

// process solves the relaxation of n and returns its children, if any.
func (t *Tree) process(ctx context.Context, n *Node) ([]*Node, error) {
	entry := t.log.WithFields(log.Fields{"node": n.ID, "depth": n.Depth})
	entry.Debug(n)
	t.result.Nodes++
	t.switchTo(n)

	m, err := t.buildMaster(n, t.lp)
	if err != nil {
		return nil, err
	}
	cg := NewColumnGeneration(t.inst, m, t.pricing, t.separator, t.cfg.IntegralityTolerance, t.bestCost, entry)
	err = cg.Run(ctx)
	t.collect(cg)
	if cg.Best != nil {
		t.updateIncumbent(cg.Best, cg.BestCost, "master")
	}

	switch {
	case errors.Is(err, pricing.ErrInfeasible):
		if n.Parent == nil {
			return nil, errors.Wrap(ErrInfeasible, "no feasible route at the root")
		}
		NodesProcessed.WithLabelValues("infeasible").Inc()
		return nil, nil
	case err != nil:
		return nil, err
	}

	n.Bound = math.Max(n.Bound, cg.Bound)
	if n.Parent == nil {
		t.result.RootBound = n.Bound
		t.strengthenRoot(ctx, m)
	}

	if m.ArtificialInUse() {
		NodesProcessed.WithLabelValues("infeasible").Inc()
		return nil, nil
	}
	if t.pruned(n.Bound) {
		NodesProcessed.WithLabelValues("pruned").Inc()
		return nil, nil
	}
	if m.Integral(t.cfg.IntegralityTolerance) {
		NodesProcessed.WithLabelValues("integral").Inc()
		return nil, nil
	}

	decisions := branch(t.inst, m.Columns(), t.cfg.IntegralityTolerance)
	if decisions == nil {
		entry.Warn("fractional solution with no branching candidate")
		NodesProcessed.WithLabelValues("unbranchable").Inc()
		return nil, nil
	}
	NodesProcessed.WithLabelValues("branched").Inc()

	for _, r := range m.Columns() {
		if r.Node < 0 {
			r.Node = n.ID
		}
	}
	children := make([]*Node, 0, len(decisions))
	for _, d := range decisions {
		entry.WithField("decision", d).Debug("branching")
		children = append(children, n.child(t.nextID, d, m.Columns(), m.Cuts()))
		t.nextID++
	}
	return children, nil
}

func (t *Tree) collect(cg *ColumnGeneration) {
	t.result.Iterations += cg.Iterations
	t.result.Columns += cg.ColumnsAdded
	t.result.Cuts += cg.CutsAdded
	t.result.MasterTime += cg.MasterTime
	t.result.PricingTime += cg.PricingTime
}

// strengthenRoot looks for a first incumbent among the root columns, with
// the greedy partition and then an integer solve of the root master.
func (t *Tree) strengthenRoot(ctx context.Context, m *master.Master) {
	values := make([]float64, len(m.Columns()))
	for j, r := range m.Columns() {
		values[j] = r.Value
	}
	defer func() {
		for j, r := range m.Columns() {
			r.Value = values[j]
		}
	}()

	if t.cfg.RootHeuristic {
		routes, cost, err := greedyPartition(t.inst, m.Columns())
		if err == nil {
			copies := make([]*model.Route, len(routes))
			for i, r := range routes {
				c := *r
				c.Value = 1
				copies[i] = &c
			}
			t.updateIncumbent(copies, float64(cost), "greedy")
		} else {
			t.log.WithError(err).Debug("greedy heuristic failed")
		}
	}

	if !t.cfg.RootMIP || t.mip == nil || ctx.Err() != nil {
		return
	}
	mctx, cancel := context.WithTimeout(ctx, t.cfg.RootMIPTimeLimit)
	defer cancel()
	intMaster, err := t.buildMaster(&Node{Columns: m.Columns(), Cuts: m.Cuts()}, t.mip)
	if err != nil {
		t.log.WithError(err).Warn("root MIP skipped")
		return
	}
	sol, err := intMaster.SolveInteger(mctx)
	if sol == nil {
		t.log.WithError(err).Debug("root MIP found no solution")
		return
	}
	if intMaster.ArtificialInUse() {
		return
	}
	t.updateIncumbent(selectedRoutes(intMaster.Columns()), sol.Objective, "root-mip")
}
