// Package oracle defines the contract between the branch-and-price engine
// and the linear/integer programming solver behind the master problem.
package oracle

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrInfeasible   = errors.New("oracle: problem infeasible")
	ErrTimeLimit    = errors.New("oracle: time limit reached")
	ErrFailed       = errors.New("oracle: solve failed")
	ErrNotSupported = errors.New("oracle: not supported")
)

type Sense int

const (
	Equal Sense = iota
	LessEqual
	GreaterEqual
)

func (s Sense) String() string {
	switch s {
	case Equal:
		return "="
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	}
	return fmt.Sprintf("sense(%d)", int(s))
}

type Status int

const (
	Optimal Status = iota
	Infeasible
	TimeLimit
	Error
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "optimal"
	case Infeasible:
		return "infeasible"
	case TimeLimit:
		return "time limit"
	}
	return "error"
}

// Err maps a non-optimal status to its sentinel error.
func (s Status) Err() error {
	switch s {
	case Optimal:
		return nil
	case Infeasible:
		return ErrInfeasible
	case TimeLimit:
		return ErrTimeLimit
	}
	return ErrFailed
}

type Entry struct {
	Row   int
	Value float64
}

type Row struct {
	Name  string
	Sense Sense
	RHS   float64
}

type Column struct {
	Cost    float64
	Entries []Entry
}

// Problem is a minimization problem over nonnegative columns. Rows and
// columns can be appended at any time; solvers read it as a whole.
type Problem struct {
	Rows    []Row
	Columns []Column
}

func (p *Problem) NumRows() int { return len(p.Rows) }
func (p *Problem) NumCols() int { return len(p.Columns) }

func (p *Problem) AddRow(name string, sense Sense, rhs float64) int {
	p.Rows = append(p.Rows, Row{Name: name, Sense: sense, RHS: rhs})
	return len(p.Rows) - 1
}

func (p *Problem) AddColumn(cost float64, entries []Entry) int {
	p.Columns = append(p.Columns, Column{Cost: cost, Entries: entries})
	return len(p.Columns) - 1
}

// SetCoefficient adds a coefficient for an existing column, used when a row
// is added after the columns it covers.
func (p *Problem) SetCoefficient(row, col int, v float64) {
	if v == 0 {
		return
	}
	p.Columns[col].Entries = append(p.Columns[col].Entries, Entry{Row: row, Value: v})
}

type Result struct {
	Status    Status
	Objective float64
	// Primal holds one value per column.
	Primal []float64
	// Duals holds one price per row; empty for integer solves.
	Duals []float64
}

// Oracle solves the LP relaxation of a Problem with dual prices, or the
// Problem itself with binary columns. A non-optimal outcome is reported
// both in Result.Status and as an error wrapping the status sentinel.
type Oracle interface {
	SolveLP(ctx context.Context, p *Problem) (*Result, error)
	SolveMIP(ctx context.Context, p *Problem) (*Result, error)
}

func StatusError(s Status, detail string) error {
	return errors.Wrap(s.Err(), detail)
}
