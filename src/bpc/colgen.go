package bpc

import (
	"context"
	"math"
	"time"

	"evrptw_bpc/src/cuts"
	"evrptw_bpc/src/master"
	"evrptw_bpc/src/model"
	"evrptw_bpc/src/oracle"
	"evrptw_bpc/src/pricing"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const eps = 1e-6

type cgState int

const (
	stateSolveMaster cgState = iota
	stateCheckBound
	stateSolvePricing
	stateCheckCuts
	stateConverged
	stateTimeExceeded
)

func (s cgState) String() string {
	return [...]string{"solve-master", "check-bound", "solve-pricing", "check-cuts", "converged", "time-exceeded"}[s]
}

// ColumnGeneration solves the linear relaxation of one node.
type ColumnGeneration struct {
	inst      *model.Instance
	master    *master.Master
	pricing   pricing.Hierarchy
	separator *cuts.Separator
	tol       float64
	log       *log.Entry

	// Cutoff is the cost of the best known integer solution; the loop
	// stops as soon as the bound proves the node cannot beat it.
	Cutoff float64
	Bound  float64

	// Best is set when an integral master solution beats Cutoff.
	Best     []*model.Route
	BestCost float64

	Solution     *master.Solution
	Iterations   int
	ColumnsAdded int
	CutsAdded    int
	MasterTime   time.Duration
	PricingTime  time.Duration
}

func NewColumnGeneration(inst *model.Instance, m *master.Master, h pricing.Hierarchy, sep *cuts.Separator, tol float64, cutoff float64, entry *log.Entry) *ColumnGeneration {
	return &ColumnGeneration{
		inst:      inst,
		master:    m,
		pricing:   h,
		separator: sep,
		tol:       tol,
		log:       entry,
		Cutoff:    cutoff,
		Bound:     math.Inf(-1),
	}
}

func boundReaches(bound, cutoff float64) bool {
	return math.Ceil(bound-1e-6) >= cutoff-eps
}

// Run iterates master and pricing until no column prices out, the bound
// reaches the cutoff or the context expires. Cuts are separated when
// pricing is exhausted.
func (cg *ColumnGeneration) Run(ctx context.Context) error {
	st := stateSolveMaster
	for {
		cg.log.WithField("state", st).Trace("column generation")
		switch st {
		case stateSolveMaster:
			if ctx.Err() != nil {
				st = stateTimeExceeded
				continue
			}
			start := time.Now()
			sol, err := cg.master.Solve(ctx)
			elapsed := time.Since(start)
			cg.MasterTime += elapsed
			PhaseDuration.WithLabelValues("master").Observe(elapsed.Seconds())
			if err != nil {
				if errors.Is(err, oracle.ErrTimeLimit) || ctx.Err() != nil {
					st = stateTimeExceeded
					continue
				}
				return errors.Wrapf(ErrOracle, "%v", err)
			}
			cg.Solution = sol
			cg.Iterations++

			if sol.Objective < cg.Bound-eps {
				return errors.Wrapf(ErrBoundViolation, "objective %.6f, bound %.6f", sol.Objective, cg.Bound)
			}
			cg.recordIntegral(sol)
			st = stateCheckBound

		case stateCheckBound:
			switch {
			case boundReaches(cg.Bound, cg.Cutoff):
				st = stateConverged
			case math.Abs(cg.Solution.Objective-cg.Bound) < eps:
				// the gap is closed, only cuts can still move the relaxation
				st = stateCheckCuts
			default:
				st = stateSolvePricing
			}

		case stateSolvePricing:
			if ctx.Err() != nil {
				st = stateTimeExceeded
				continue
			}
			start := time.Now()
			res, solver, err := cg.pricing.Solve(ctx, cg.master.PricingInput(cg.Solution))
			elapsed := time.Since(start)
			cg.PricingTime += elapsed
			PhaseDuration.WithLabelValues("pricing").Observe(elapsed.Seconds())
			if err != nil {
				return err
			}
			PricingCalls.WithLabelValues(solver.Variant().String()).Inc()
			LabelsCreated.Add(float64(res.Labels))
			if ctx.Err() != nil {
				st = stateTimeExceeded
				continue
			}

			added := cg.master.AddColumns(res.Routes)
			cg.ColumnsAdded += added
			ColumnsAdded.Add(float64(added))

			if solver.Variant() == pricing.Exact {
				switch {
				case len(res.Routes) == 0:
					cg.Bound = cg.Solution.Objective
				case res.Complete:
					lagrangian := cg.Solution.Objective + res.BestReducedCost*float64(cg.master.MaxVehicles())
					cg.Bound = math.Max(cg.Bound, lagrangian)
				}
			}
			cg.log.WithFields(log.Fields{
				"variant":   solver.Variant(),
				"objective": cg.Solution.Objective,
				"bound":     cg.Bound,
				"columns":   added,
			}).Debug("pricing done")

			if added > 0 {
				st = stateSolveMaster
			} else {
				st = stateCheckCuts
			}

		case stateCheckCuts:
			if cg.separator == nil || cg.master.ArtificialInUse() || cg.master.Integral(cg.tol) {
				st = stateConverged
				continue
			}
			found := cg.separator.Separate(cg.inst, cg.master.Columns(), cg.master.Cuts())
			if len(found) == 0 {
				st = stateConverged
				continue
			}
			for _, c := range found {
				if err := cg.master.AddCut(c); err != nil {
					return err
				}
			}
			cg.CutsAdded += len(found)
			CutsAdded.Add(float64(len(found)))
			cg.log.WithField("cuts", len(found)).Debug("subset-row cuts added")
			st = stateSolveMaster

		case stateConverged:
			return nil

		case stateTimeExceeded:
			return ErrTimeLimit
		}
	}
}

func (cg *ColumnGeneration) recordIntegral(sol *master.Solution) {
	if cg.master.ArtificialInUse() || !cg.master.Integral(cg.tol) || sol.Objective >= cg.Cutoff-eps {
		return
	}
	cg.Best = selectedRoutes(cg.master.Columns())
	cg.BestCost = sol.Objective
	cg.Cutoff = sol.Objective
}

// selectedRoutes copies the routes taking value in the current solution.
func selectedRoutes(columns []*model.Route) []*model.Route {
	var routes []*model.Route
	for _, r := range columns {
		if r.Artificial || r.Value < 0.5 {
			continue
		}
		c := *r
		c.Value = 1
		routes = append(routes, &c)
	}
	return routes
}
