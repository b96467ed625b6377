package oracle_test

import (
	"context"
	"testing"
	"time"

	"evrptw_bpc/src/oracle"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-6

// two customers, two singleton columns and one pairing column, optionally
// with a capacity row forbidding both singletons together.
func pairing(capacity bool) *oracle.Problem {
	p := new(oracle.Problem)
	p.AddRow("c1", oracle.Equal, 1)
	p.AddRow("c2", oracle.Equal, 1)
	if capacity {
		p.AddRow("cap", oracle.LessEqual, 1)
	}
	p.AddColumn(1, []oracle.Entry{{Row: 0, Value: 1}})
	p.AddColumn(1, []oracle.Entry{{Row: 1, Value: 1}})
	p.AddColumn(3, []oracle.Entry{{Row: 0, Value: 1}, {Row: 1, Value: 1}})
	if capacity {
		p.SetCoefficient(2, 0, 1)
		p.SetCoefficient(2, 1, 1)
	}
	return p
}

func TestSimplexLPWithDuals(t *testing.T) {
	res, err := oracle.NewSimplex().SolveLP(context.Background(), pairing(false))
	require.NoError(t, err)
	assert.Equal(t, oracle.Optimal, res.Status)
	assert.InDelta(t, 2, res.Objective, tol)
	assert.InDeltaSlice(t, []float64{1, 1, 0}, res.Primal, tol)
	assert.InDeltaSlice(t, []float64{1, 1}, res.Duals, tol)
}

func TestSimplexLPFractional(t *testing.T) {
	res, err := oracle.NewSimplex().SolveLP(context.Background(), pairing(true))
	require.NoError(t, err)
	assert.InDelta(t, 2.5, res.Objective, tol)
	assert.InDeltaSlice(t, []float64{0.5, 0.5, 0.5}, res.Primal, tol)
	assert.InDeltaSlice(t, []float64{1.5, 1.5, -0.5}, res.Duals, tol)
}

func TestSimplexGreaterEqualDual(t *testing.T) {
	p := new(oracle.Problem)
	p.AddRow("fleet", oracle.GreaterEqual, 2)
	p.AddColumn(1, []oracle.Entry{{Row: 0, Value: 1}})
	p.AddColumn(2, []oracle.Entry{{Row: 0, Value: 1}})

	res, err := oracle.NewSimplex().SolveLP(context.Background(), p)
	require.NoError(t, err)
	assert.InDelta(t, 2, res.Objective, tol)
	assert.InDelta(t, 1, res.Duals[0], tol)
}

func TestSimplexDependentRows(t *testing.T) {
	p := new(oracle.Problem)
	p.AddRow("a", oracle.Equal, 1)
	p.AddRow("b", oracle.Equal, 1)
	p.AddColumn(1, []oracle.Entry{{Row: 0, Value: 1}, {Row: 1, Value: 1}})
	p.AddColumn(2, []oracle.Entry{{Row: 0, Value: 1}, {Row: 1, Value: 1}})

	res, err := oracle.NewSimplex().SolveLP(context.Background(), p)
	require.NoError(t, err)
	assert.InDelta(t, 1, res.Objective, tol)
	assert.InDelta(t, 1, res.Primal[0], tol)
	assert.InDelta(t, 1, res.Duals[0]+res.Duals[1], tol)
}

func TestSimplexInfeasible(t *testing.T) {
	p := new(oracle.Problem)
	p.AddRow("a", oracle.Equal, 1)
	p.AddRow("b", oracle.Equal, 2)
	p.AddColumn(1, []oracle.Entry{{Row: 0, Value: 1}, {Row: 1, Value: 1}})

	res, err := oracle.NewSimplex().SolveLP(context.Background(), p)
	require.Error(t, err)
	assert.Equal(t, oracle.Infeasible, res.Status)
	assert.Equal(t, oracle.ErrInfeasible, errors.Cause(err))
}

func TestSimplexMIP(t *testing.T) {
	res, err := oracle.NewSimplex().SolveMIP(context.Background(), pairing(true))
	require.NoError(t, err)
	assert.InDelta(t, 3, res.Objective, tol)
	assert.Equal(t, []float64{0, 0, 1}, res.Primal)

	res, err = oracle.NewSimplex().SolveMIP(context.Background(), pairing(false))
	require.NoError(t, err)
	assert.InDelta(t, 2, res.Objective, tol)
	assert.Equal(t, []float64{1, 1, 0}, res.Primal)
}

func TestSimplexDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	res, err := oracle.NewSimplex().SolveLP(ctx, pairing(false))
	require.Error(t, err)
	assert.Equal(t, oracle.TimeLimit, res.Status)
	assert.Equal(t, oracle.ErrTimeLimit, errors.Cause(err))
}
