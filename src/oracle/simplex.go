package oracle

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const (
	rankTol     = 1e-9
	feasTol     = 1e-6
	integralTol = 1e-6
)

type fixing int8

const (
	free fixing = iota
	fixedZero
	fixedOne
)

// Simplex is a pure Go oracle on top of gonum's dense simplex. Dual prices
// come from solving the dual program explicitly. It is meant for small
// instances and for environments without the HiGHS shared library.
type Simplex struct {
	Tol float64
}

func NewSimplex() *Simplex {
	return &Simplex{Tol: 1e-9}
}

// standardForm is min c'x s.t. Ax = b, x >= 0 after slack insertion,
// fixing substitution and removal of linearly dependent rows.
type standardForm struct {
	c      []float64
	a      *mat.Dense
	b      []float64
	offset float64

	vars    []int // column index of each structural variable
	kept    []int // original row of each kept row
	dropped []int

	full  [][]float64 // all rows before reduction, for feasibility checks
	fullB []float64
}

func buildStandardForm(p *Problem, fix []fixing, bounded bool) *standardForm {
	sf := &standardForm{}
	m := p.NumRows()
	rhs := make([]float64, m)
	for i, r := range p.Rows {
		rhs[i] = r.RHS
	}

	for j, col := range p.Columns {
		switch {
		case fix != nil && fix[j] == fixedOne:
			sf.offset += col.Cost
			for _, e := range col.Entries {
				rhs[e.Row] -= e.Value
			}
		case fix != nil && fix[j] == fixedZero:
		case len(col.Entries) == 0 && col.Cost >= 0:
		default:
			sf.vars = append(sf.vars, j)
		}
	}

	var upper []int
	if bounded {
		for k, j := range sf.vars {
			covered := false
			for _, e := range p.Columns[j].Entries {
				if p.Rows[e.Row].Sense == Equal && e.Value >= 1 && p.Rows[e.Row].RHS <= 1 {
					covered = true
					break
				}
			}
			if !covered {
				upper = append(upper, k)
			}
		}
	}

	slacks := 0
	for _, r := range p.Rows {
		if r.Sense != Equal {
			slacks++
		}
	}
	slacks += len(upper)
	nv := len(sf.vars) + slacks

	rows := make([][]float64, 0, m+len(upper))
	b := make([]float64, 0, m+len(upper))
	for i := range m {
		rows = append(rows, make([]float64, nv))
		b = append(b, rhs[i])
	}
	for k, j := range sf.vars {
		for _, e := range p.Columns[j].Entries {
			rows[e.Row][k] += e.Value
		}
	}
	s := len(sf.vars)
	for i, r := range p.Rows {
		switch r.Sense {
		case LessEqual:
			rows[i][s] = 1
			s++
		case GreaterEqual:
			rows[i][s] = -1
			s++
		}
	}
	for _, k := range upper {
		row := make([]float64, nv)
		row[k] = 1
		row[s] = 1
		s++
		rows = append(rows, row)
		b = append(b, 1)
	}

	sf.c = make([]float64, nv)
	for k, j := range sf.vars {
		sf.c[k] = p.Columns[j].Cost
	}
	sf.full, sf.fullB = rows, b

	// Gram-Schmidt over the rows keeps a maximal independent subset.
	var basis [][]float64
	for i, row := range rows {
		v := append([]float64(nil), row...)
		for _, q := range basis {
			floats.AddScaled(v, -floats.Dot(v, q), q)
		}
		norm := floats.Norm(v, 2)
		if norm <= rankTol*math.Max(1, floats.Norm(row, 2)) {
			sf.dropped = append(sf.dropped, i)
			continue
		}
		floats.Scale(1/norm, v)
		basis = append(basis, v)
		sf.kept = append(sf.kept, i)
	}

	if len(sf.kept) > 0 && nv > 0 {
		sf.a = mat.NewDense(len(sf.kept), nv, nil)
		sf.b = make([]float64, len(sf.kept))
		for r, i := range sf.kept {
			sf.a.SetRow(r, rows[i])
			sf.b[r] = b[i]
		}
	}
	return sf
}

// satisfied checks every row, dropped ones included, against x.
func (sf *standardForm) satisfied(x []float64) bool {
	for i, row := range sf.full {
		if math.Abs(floats.Dot(row, x)-sf.fullB[i]) > feasTol {
			return false
		}
	}
	return true
}

func (s *Simplex) solveStandard(sf *standardForm) (float64, []float64, Status, error) {
	nv := len(sf.c)
	if sf.a == nil {
		x := make([]float64, nv)
		if !sf.satisfied(x) {
			return 0, nil, Infeasible, StatusError(Infeasible, "empty reduced system")
		}
		return sf.offset, x, Optimal, nil
	}

	obj, x, err := lp.Simplex(sf.c, sf.a, sf.b, s.Tol, nil)
	if err != nil {
		if errors.Is(err, lp.ErrInfeasible) {
			return 0, nil, Infeasible, StatusError(Infeasible, err.Error())
		}
		return 0, nil, Error, StatusError(Error, err.Error())
	}
	if len(sf.dropped) > 0 && !sf.satisfied(x) {
		return 0, nil, Infeasible, StatusError(Infeasible, "dependent rows violated")
	}
	return obj + sf.offset, x, Optimal, nil
}

// duals solves max b'y s.t. A'y <= c with y free, written in standard form
// over (y+, y-, z).
func (s *Simplex) duals(sf *standardForm) ([]float64, error) {
	k, nv := sf.a.Dims()
	a := mat.NewDense(nv, 2*k+nv, nil)
	c := make([]float64, 2*k+nv)
	for i := range k {
		for j := range nv {
			v := sf.a.At(i, j)
			a.Set(j, i, v)
			a.Set(j, k+i, -v)
		}
		c[i] = -sf.b[i]
		c[k+i] = sf.b[i]
	}
	for j := range nv {
		a.Set(j, 2*k+j, 1)
	}

	_, x, err := lp.Simplex(c, a, sf.c, s.Tol, nil)
	if err != nil {
		return nil, errors.Wrap(err, "dual simplex")
	}
	y := make([]float64, k)
	for i := range k {
		y[i] = x[i] - x[k+i]
	}
	return y, nil
}

func (s *Simplex) SolveLP(ctx context.Context, p *Problem) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return &Result{Status: TimeLimit}, StatusError(TimeLimit, err.Error())
	}
	sf := buildStandardForm(p, nil, false)
	obj, x, status, err := s.solveStandard(sf)
	if err != nil {
		return &Result{Status: status}, err
	}

	res := &Result{
		Status:    Optimal,
		Objective: obj,
		Primal:    make([]float64, p.NumCols()),
		Duals:     make([]float64, p.NumRows()),
	}
	for k, j := range sf.vars {
		res.Primal[j] = x[k]
	}
	if sf.a != nil {
		y, err := s.duals(sf)
		if err != nil {
			return &Result{Status: Error}, StatusError(Error, err.Error())
		}
		for r, i := range sf.kept {
			if i < p.NumRows() {
				res.Duals[i] = y[r]
			}
		}
	}
	return res, nil
}
