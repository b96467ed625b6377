package oracle

import (
	"context"
	"math"
	"slices"
)

// SolveMIP runs a depth-first branch and bound over binary columns, using
// the simplex relaxation at every node and branching on the most
// fractional column.
func (s *Simplex) SolveMIP(ctx context.Context, p *Problem) (*Result, error) {
	best := math.Inf(1)
	var incumbent []float64

	stack := [][]fixing{make([]fixing, p.NumCols())}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			res := &Result{Status: TimeLimit}
			if incumbent != nil {
				res.Objective, res.Primal = best, incumbent
			}
			return res, StatusError(TimeLimit, "branch and bound interrupted")
		}

		fix := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		sf := buildStandardForm(p, fix, true)
		obj, x, status, err := s.solveStandard(sf)
		if status == Infeasible {
			continue
		}
		if err != nil {
			return &Result{Status: status}, err
		}
		if obj >= best-integralTol {
			continue
		}

		branchOn, dist := -1, 1.0
		for k, j := range sf.vars {
			frac := x[k] - math.Floor(x[k])
			if frac < integralTol || frac > 1-integralTol {
				continue
			}
			if d := math.Abs(frac - 0.5); d < dist {
				branchOn, dist = j, d
			}
		}

		if branchOn < 0 {
			best = obj
			incumbent = make([]float64, p.NumCols())
			for j := range fix {
				if fix[j] == fixedOne {
					incumbent[j] = 1
				}
			}
			for k, j := range sf.vars {
				incumbent[j] = math.Round(x[k])
			}
			continue
		}

		down := slices.Clone(fix)
		down[branchOn] = fixedZero
		up := slices.Clone(fix)
		up[branchOn] = fixedOne
		stack = append(stack, down, up)
	}

	if incumbent == nil {
		return &Result{Status: Infeasible}, StatusError(Infeasible, "no integer solution")
	}
	return &Result{Status: Optimal, Objective: best, Primal: incumbent}, nil
}
