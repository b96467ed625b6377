// Package lpsolve solves the integer master over binary columns with
// lp_solve. lp_solve's Go binding exposes no dual prices, so only the MIP
// half of the oracle contract is available.
package lpsolve

import (
	"context"
	"fmt"

	"evrptw_bpc/src/oracle"

	"github.com/draffensperger/golp"
	"github.com/pkg/errors"
)

type Oracle struct{}

func New() *Oracle {
	return &Oracle{}
}

func (o *Oracle) SolveLP(ctx context.Context, p *oracle.Problem) (*oracle.Result, error) {
	return &oracle.Result{Status: oracle.Error}, errors.Wrap(oracle.ErrNotSupported, "lp_solve: dual prices")
}

func constraintType(s oracle.Sense) golp.ConstraintType {
	switch s {
	case oracle.LessEqual:
		return golp.LE
	case oracle.GreaterEqual:
		return golp.GE
	}
	return golp.EQ
}

func (o *Oracle) SolveMIP(ctx context.Context, p *oracle.Problem) (*oracle.Result, error) {
	if err := ctx.Err(); err != nil {
		return &oracle.Result{Status: oracle.TimeLimit}, oracle.StatusError(oracle.TimeLimit, err.Error())
	}

	numCols := p.NumCols()
	lp := golp.NewLP(0, numCols)

	obj := make([]float64, numCols)
	rows := make([][]golp.Entry, p.NumRows())
	for j, col := range p.Columns {
		obj[j] = col.Cost
		lp.SetBinary(j, true)
		for _, e := range col.Entries {
			rows[e.Row] = append(rows[e.Row], golp.Entry{Col: j, Val: e.Value})
		}
	}
	lp.SetObjFn(obj)

	for i, r := range p.Rows {
		if len(rows[i]) == 0 {
			if (r.Sense == oracle.Equal && r.RHS != 0) ||
				(r.Sense == oracle.LessEqual && r.RHS < 0) ||
				(r.Sense == oracle.GreaterEqual && r.RHS > 0) {
				return &oracle.Result{Status: oracle.Infeasible}, oracle.StatusError(oracle.Infeasible, "empty row "+r.Name)
			}
			continue
		}
		if err := lp.AddConstraintSparse(rows[i], constraintType(r.Sense), r.RHS); err != nil {
			return &oracle.Result{Status: oracle.Error}, errors.Wrapf(err, "lp_solve: row %s", r.Name)
		}
	}

	status := lp.Solve()
	switch status {
	case golp.OPTIMAL, golp.SUBOPTIMAL:
		return &oracle.Result{Status: oracle.Optimal, Objective: lp.Objective(), Primal: lp.Variables()}, nil
	case golp.INFEASIBLE:
		return &oracle.Result{Status: oracle.Infeasible}, oracle.StatusError(oracle.Infeasible, "lp_solve")
	}
	return &oracle.Result{Status: oracle.Error}, oracle.StatusError(oracle.Error, fmt.Sprintf("lp_solve status: %v", status))
}
