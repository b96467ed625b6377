// Package highsoracle solves master problems with HiGHS.
package highsoracle

import (
	"context"
	"fmt"
	"math"

	"evrptw_bpc/src/oracle"

	"github.com/lanl/highs"
)

type Oracle struct{}

func New() *Oracle {
	return &Oracle{}
}

func defModel(p *oracle.Problem, integer bool) *highs.Model {
	lp := new(highs.Model)
	numCols := p.NumCols()

	lp.ColCosts = make([]float64, numCols)
	lp.ColLower = make([]float64, numCols)
	lp.ColUpper = make([]float64, numCols)
	if integer {
		lp.VarTypes = make([]highs.VariableType, numCols)
	}
	for j, col := range p.Columns {
		lp.ColCosts[j] = col.Cost
		lp.ColUpper[j] = math.Inf(1)
		if integer {
			lp.VarTypes[j] = highs.IntegerType
			lp.ColUpper[j] = 1
		}
		for _, e := range col.Entries {
			lp.ConstMatrix = append(lp.ConstMatrix, highs.Nonzero{Row: e.Row, Col: j, Val: e.Value})
		}
	}

	lp.RowLower = make([]float64, p.NumRows())
	lp.RowUpper = make([]float64, p.NumRows())
	for i, r := range p.Rows {
		switch r.Sense {
		case oracle.Equal:
			lp.RowLower[i], lp.RowUpper[i] = r.RHS, r.RHS
		case oracle.LessEqual:
			lp.RowLower[i], lp.RowUpper[i] = math.Inf(-1), r.RHS
		case oracle.GreaterEqual:
			lp.RowLower[i], lp.RowUpper[i] = r.RHS, math.Inf(1)
		}
	}
	return lp
}

type outcome struct {
	res *oracle.Result
	err error
}

// runHighsSolver solves the model off the caller's goroutine so that an
// expired context returns immediately; the cgo call itself cannot be
// interrupted and is left to finish in the background.
func runHighsSolver(ctx context.Context, lp *highs.Model, withDuals bool) (*oracle.Result, error) {
	if err := ctx.Err(); err != nil {
		return &oracle.Result{Status: oracle.TimeLimit}, oracle.StatusError(oracle.TimeLimit, err.Error())
	}

	done := make(chan outcome, 1)
	go func() {
		solution, err := lp.Solve()
		if err != nil {
			done <- outcome{&oracle.Result{Status: oracle.Error}, oracle.StatusError(oracle.Error, err.Error())}
			return
		}

		res := &oracle.Result{Objective: solution.Objective, Primal: solution.ColumnPrimal}
		if withDuals {
			res.Duals = solution.RowDual
		}
		switch solution.Status {
		case highs.Optimal:
			res.Status = oracle.Optimal
			done <- outcome{res, nil}
			return
		case highs.Infeasible:
			res.Status = oracle.Infeasible
		case highs.TimeLimit:
			res.Status = oracle.TimeLimit
		default:
			res.Status = oracle.Error
		}
		done <- outcome{res, oracle.StatusError(res.Status, fmt.Sprintf("status: %v", solution.Status.String()))}
	}()

	select {
	case o := <-done:
		return o.res, o.err
	case <-ctx.Done():
		return &oracle.Result{Status: oracle.TimeLimit}, oracle.StatusError(oracle.TimeLimit, ctx.Err().Error())
	}
}

func (o *Oracle) SolveLP(ctx context.Context, p *oracle.Problem) (*oracle.Result, error) {
	return runHighsSolver(ctx, defModel(p, false), true)
}

func (o *Oracle) SolveMIP(ctx context.Context, p *oracle.Problem) (*oracle.Result, error) {
	return runHighsSolver(ctx, defModel(p, true), false)
}
