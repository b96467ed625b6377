package master_test

import (
	"context"
	"testing"

	"evrptw_bpc/src/master"
	"evrptw_bpc/src/model"
	"evrptw_bpc/src/oracle"
	"evrptw_bpc/src/pricing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const artificialCost = 1000

func loadToy(t *testing.T) *model.Instance {
	t.Helper()
	inst, err := model.LoadInstance("../model/testdata/toy5.yaml")
	require.NoError(t, err)
	return inst
}

func route(cost, start int, arcs []int, customers ...int) *model.Route {
	r := &model.Route{
		Visits:              map[int]int{},
		Sequence:            customers,
		Arcs:                arcs,
		Cost:                cost,
		InitialChargingTime: start,
		ChargingTime:        1,
		Node:                -1,
	}
	for _, c := range customers {
		r.Visits[c]++
	}
	return r
}

func toyColumns() []*model.Route {
	return []*model.Route{
		route(22, 1, []int{0, 10, 6}, 1, 2),
		route(22, 2, []int{0, 10, 6}, 1, 2),
		route(24, 2, []int{2, 11, 12, 9}, 3, 4, 5),
		route(20, 1, []int{0, 5}, 1),
		route(20, 2, []int{4, 9}, 5),
	}
}

func TestArtificialOnly(t *testing.T) {
	inst := loadToy(t)
	m := master.New(inst, oracle.NewSimplex(), artificialCost)
	require.Len(t, m.Columns(), 1)

	sol, err := m.Solve(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, artificialCost, sol.Objective, 1e-6)
	assert.True(t, m.ArtificialInUse())
}

func TestSolveToyColumns(t *testing.T) {
	inst := loadToy(t)
	m := master.New(inst, oracle.NewSimplex(), artificialCost)
	assert.Equal(t, 5, m.AddColumns(toyColumns()))
	assert.Equal(t, 0, m.AddColumns(toyColumns()[:2]))

	sol, err := m.Solve(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 46, sol.Objective, 1e-6)
	assert.False(t, m.ArtificialInUse())
	assert.True(t, m.Integral(0.001))

	for _, r := range m.Columns() {
		rc := m.ReducedCost(r, sol)
		assert.GreaterOrEqual(t, rc, -1e-6, r.String())
		if r.Value > 1e-6 {
			assert.InDelta(t, 0, rc, 1e-6, r.String())
		}
	}
	cols := m.Columns()
	assert.InDelta(t, 1, cols[1].Value+cols[2].Value, 1e-6)
	assert.InDelta(t, 1, cols[3].Value, 1e-6)

	in := m.PricingInput(sol)
	assert.Len(t, in.Duals.Customers, inst.NumCustomers)
	assert.Len(t, in.Duals.Chargers, inst.LastChargingPeriod)
	assert.Empty(t, in.Cuts)
}

func TestChargerCapacity(t *testing.T) {
	inst := loadToy(t)
	m := master.New(inst, oracle.NewSimplex(), artificialCost)
	// both routes want the single charger in period 1
	m.AddColumns([]*model.Route{
		route(22, 1, []int{0, 10, 6}, 1, 2),
		route(24, 1, []int{2, 11, 12, 9}, 3, 4, 5),
	})

	sol, err := m.Solve(context.Background())
	require.NoError(t, err)
	assert.Greater(t, sol.Objective, 46.0)
	assert.True(t, m.ArtificialInUse())
}

func TestVehicleBranch(t *testing.T) {
	inst := loadToy(t)
	m := master.New(inst, oracle.NewSimplex(), artificialCost)
	m.AddColumns(toyColumns())
	m.AddVehicleBranch(1, false)
	assert.Equal(t, 1, m.MaxVehicles())

	sol, err := m.Solve(context.Background())
	require.NoError(t, err)
	assert.Greater(t, sol.Objective, 46.0)

	in := m.PricingInput(sol)
	assert.InDelta(t, sol.Raw[m.NumRows()-1]+sol.Raw[inst.NumCustomers+inst.LastChargingPeriod], in.Duals.Constant, 1e-9)
}

func TestChargingBranch(t *testing.T) {
	inst := loadToy(t)
	m := master.New(inst, oracle.NewSimplex(), artificialCost)
	m.AddColumns(toyColumns())
	br := pricing.ChargingBranch{Timestep: 2, Start: true, AtLeast: false}
	m.AddChargingBranch(br, 0)

	sol, err := m.Solve(context.Background())
	require.NoError(t, err)
	for _, r := range m.Columns() {
		if !r.Artificial && r.InitialChargingTime == 2 {
			assert.InDelta(t, 0, r.Value, 1e-6)
		}
	}
	in := m.PricingInput(sol)
	assert.Equal(t, []pricing.ChargingBranch{br}, in.ChargingBranches)
	assert.Len(t, in.Duals.ChargingBranches, 1)
}

func TestAddCut(t *testing.T) {
	inst := loadToy(t)
	m := master.New(inst, oracle.NewSimplex(), artificialCost)
	m.AddColumns(toyColumns())

	require.NoError(t, m.AddCut(model.NewSubsetRow(3, 1, 2, 0.5)))
	err := m.AddCut(model.NewSubsetRow(1, 2, 3, 0.2))
	assert.ErrorIs(t, err, master.ErrDuplicateCut)
	require.Len(t, m.Cuts(), 1)

	sol, err := m.Solve(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 46, sol.Objective, 1e-6)
	assert.Len(t, sol.CutDuals, 1)
}

func TestSolveInteger(t *testing.T) {
	inst := loadToy(t)
	m := master.New(inst, oracle.NewSimplex(), artificialCost)
	m.AddColumns(toyColumns())

	sol, err := m.SolveInteger(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 46, sol.Objective, 1e-6)
	assert.False(t, m.ArtificialInUse())
}
