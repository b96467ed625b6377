package bpc

import (
	"testing"

	"evrptw_bpc/src/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 0.001

func loadToy(t *testing.T) *model.Instance {
	t.Helper()
	inst, err := model.LoadInstance("../model/testdata/toy5.yaml")
	require.NoError(t, err)
	return inst
}

func column(value float64, start int, arcs []int, customers ...int) *model.Route {
	r := &model.Route{
		Visits:              map[int]int{},
		Sequence:            customers,
		Arcs:                arcs,
		InitialChargingTime: start,
		ChargingTime:        1,
		Node:                -1,
		Value:               value,
	}
	for _, c := range customers {
		r.Visits[c]++
	}
	return r
}

func TestBranchOnVehicles(t *testing.T) {
	inst := loadToy(t)
	cols := []*model.Route{
		column(1, 1, []int{0, 5}, 1),
		column(1, 1, []int{1, 6}, 2),
		column(1, 2, []int{2, 7}, 3),
		column(0.4, 2, []int{3, 8}, 4),
	}
	ds := branch(inst, cols, tol)
	require.Len(t, ds, 2)
	assert.Equal(t, VehiclesAtMost, ds[0].Kind)
	assert.Equal(t, 3, ds[0].Coefficient)
	assert.Equal(t, VehiclesAtLeast, ds[1].Kind)
	assert.Equal(t, 4, ds[1].Coefficient)

	// every integer fleet size satisfies exactly one child
	for k := 0; k <= inst.NumCustomers; k++ {
		atMost := k <= ds[0].Coefficient
		atLeast := k >= ds[1].Coefficient
		assert.True(t, atMost != atLeast, "fleet %d", k)
	}
}

func TestBranchOnArcs(t *testing.T) {
	inst := loadToy(t)
	r12 := column(0.5, 1, []int{0, 10, 6}, 1, 2)
	r1 := column(0.5, 1, []int{0, 5}, 1)
	r2 := column(0.5, 2, []int{1, 6}, 2)
	r345 := column(0.5, 2, []int{2, 11, 12, 9}, 3, 4, 5)
	cols := []*model.Route{r12, r1, r2, r345}

	ds := branch(inst, cols, tol)
	require.Len(t, ds, 2)
	remove, fix := ds[0], ds[1]
	assert.Equal(t, RemoveArc, remove.Kind)
	assert.Equal(t, 10, remove.Arc)
	assert.Equal(t, FixArc, fix.Kind)
	assert.ElementsMatch(t, []int{5, 1}, fix.InfeasibleArcs)

	assert.False(t, remove.ColumnIsCompatible(r12))
	assert.True(t, remove.ColumnIsCompatible(r1))
	assert.True(t, fix.ColumnIsCompatible(r12))
	assert.False(t, fix.ColumnIsCompatible(r1))
	assert.False(t, fix.ColumnIsCompatible(r2))
	assert.True(t, fix.ColumnIsCompatible(r345))
	assert.True(t, fix.ColumnIsCompatible(model.NewArtificialRoute(inst, 1000)))
}

func TestBranchPrefersCustomerArcs(t *testing.T) {
	inst := loadToy(t)
	// arc 7 (3->6) carries exactly one half, arc 11 (3->4) only 0.3
	cols := []*model.Route{
		column(0.5, 1, []int{2, 7}, 3),
		column(0.3, 1, []int{2, 11, 8}, 3, 4),
		column(0.2, 2, []int{3, 8}, 4),
		column(1, 2, []int{0, 10, 6}, 1, 2),
	}
	ds := branch(inst, cols, tol)
	require.Len(t, ds, 2)
	assert.Equal(t, 11, ds[0].Arc)
}

func TestBranchOnChargingEnd(t *testing.T) {
	inst := loadToy(t)
	cols := []*model.Route{
		column(0.5, 1, []int{0, 10, 6}, 1, 2),
		column(0.5, 2, []int{0, 10, 6}, 1, 2),
		column(1, 2, []int{2, 11, 12, 9}, 3, 4, 5),
	}
	ds := branch(inst, cols, tol)
	require.Len(t, ds, 2)
	assert.Equal(t, ChargingAtMost, ds[0].Kind)
	assert.False(t, ds[0].Start)
	assert.Equal(t, 1, ds[0].Timestep)
	assert.Equal(t, 0, ds[0].Coefficient)
	assert.Equal(t, ChargingAtLeast, ds[1].Kind)
	assert.Equal(t, 1, ds[1].Coefficient)
}

func TestBranchIntegral(t *testing.T) {
	inst := loadToy(t)
	cols := []*model.Route{
		model.NewArtificialRoute(inst, 1000),
		column(1, 1, []int{0, 10, 6}, 1, 2),
		column(1, 2, []int{2, 11, 12, 9}, 3, 4, 5),
	}
	assert.Nil(t, branch(inst, cols, tol))
}

func TestFixArcKeepsDepotFree(t *testing.T) {
	inst := loadToy(t)
	out, ok := inst.Arc(inst.Source(), 3)
	require.True(t, ok)
	d := NewFixArcDecision(inst, out, 0.5)
	// only the other arc into 3 would be forbidden, and there is none
	assert.Empty(t, d.InfeasibleArcs)

	last, ok := inst.Arc(5, inst.Sink())
	require.True(t, ok)
	d = NewFixArcDecision(inst, last, 0.5)
	assert.Empty(t, d.InfeasibleArcs)
}

func TestBranchOnChargingEndFollowsSolutionOrder(t *testing.T) {
	inst := loadToy(t)
	// both periods carry a fractional end flow; the first route ends in 2
	late := column(0.5, 2, []int{2, 11, 12, 9}, 3, 4, 5)
	early := column(0.5, 1, []int{2, 11, 12, 9}, 3, 4, 5)
	pair := column(1, 1, []int{0, 10, 6}, 1, 2)

	ds := branch(inst, []*model.Route{late, early, pair}, tol)
	require.Len(t, ds, 2)
	assert.False(t, ds[0].Start)
	assert.Equal(t, 2, ds[0].Timestep)
	assert.InDelta(t, 0.5, ds[0].Flow, 1e-9)

	ds = branch(inst, []*model.Route{early, late, pair}, tol)
	require.Len(t, ds, 2)
	assert.Equal(t, 1, ds[0].Timestep)
	assert.InDelta(t, 1.5, ds[0].Flow, 1e-9)
}

func TestBranchOnChargingStart(t *testing.T) {
	inst := loadToy(t)
	// every window ends in 2, so only the starts can split the solution
	long := column(0.5, 1, []int{2, 11, 12, 9}, 3, 4, 5)
	long.ChargingTime = 2
	short := column(0.5, 2, []int{2, 11, 12, 9}, 3, 4, 5)
	pair := column(1, 2, []int{0, 10, 6}, 1, 2)

	ds := branch(inst, []*model.Route{long, short, pair}, tol)
	require.Len(t, ds, 2)
	assert.Equal(t, ChargingAtMost, ds[0].Kind)
	assert.True(t, ds[0].Start)
	assert.Equal(t, 1, ds[0].Timestep)
	assert.Equal(t, 0, ds[0].Coefficient)
	assert.Equal(t, ChargingAtLeast, ds[1].Kind)
	assert.True(t, ds[1].Start)
	assert.Equal(t, 1, ds[1].Coefficient)
}

func TestEveryColumnFitsOneChild(t *testing.T) {
	inst := loadToy(t)
	pool := []*model.Route{
		model.NewArtificialRoute(inst, 1000),
		column(0.5, 1, []int{0, 10, 6}, 1, 2),
		column(0.5, 1, []int{0, 5}, 1),
		column(0.5, 2, []int{1, 6}, 2),
		column(0.5, 2, []int{2, 11, 12, 9}, 3, 4, 5),
		column(0.5, 2, []int{2, 13, 9}, 3, 5),
		column(0.5, 1, []int{2, 11, 8}, 3, 4),
		column(0.5, 1, []int{4, 9}, 5),
		column(0.5, 2, []int{3, 12, 9}, 4, 5),
	}
	solutions := [][]*model.Route{
		{pool[1], pool[2], pool[3], pool[4]},
		{pool[5], pool[6], pool[7], pool[8]},
		{pool[1], pool[6], pool[8]},
	}
	kinds := []DecisionKind{RemoveArc, RemoveArc, VehiclesAtMost}
	for i, sol := range solutions {
		ds := branch(inst, sol, tol)
		require.Len(t, ds, 2, "solution %d", i)
		assert.Equal(t, kinds[i], ds[0].Kind, "solution %d", i)
		for _, r := range pool {
			assert.True(t, ds[0].ColumnIsCompatible(r) || ds[1].ColumnIsCompatible(r),
				"solution %d: %v fits neither %v nor %v", i, r.Sequence, ds[0], ds[1])
		}
	}
}
