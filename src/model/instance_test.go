package model_test

import (
	"testing"

	"evrptw_bpc/src/model"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourbasic/bit"
)

func loadToy(t *testing.T) *model.Instance {
	t.Helper()
	inst, err := model.LoadInstance("testdata/toy5.yaml")
	require.NoError(t, err)
	return inst
}

func TestLoadInstanceLayout(t *testing.T) {
	inst := loadToy(t)

	assert.Equal(t, 5, inst.NumCustomers)
	assert.Equal(t, 6, inst.Sink())
	assert.Equal(t, 7, inst.ChargingSource())
	assert.Equal(t, 10, inst.NumVertices())
	assert.Equal(t, 14, inst.NumPhysicalArcs)
	assert.Len(t, inst.Arcs, 19)
	assert.Equal(t, 12, inst.Delta)
	assert.Equal(t, 17, inst.DeltaMax)
	assert.Equal(t, 2, inst.MinVehicles())

	assert.Equal(t, model.DepotSource, inst.Vertices[0].Kind)
	assert.Equal(t, model.Customer, inst.Vertices[3].Kind)
	assert.Equal(t, model.DepotSink, inst.Vertices[6].Kind)
	assert.Equal(t, model.ChargingSource, inst.Vertices[7].Kind)
	assert.Equal(t, model.ChargingStep, inst.Vertices[9].Kind)
	assert.Equal(t, 2, inst.Timestep(9))
}

func TestChargingNetwork(t *testing.T) {
	inst := loadToy(t)

	for _, a := range inst.Arcs[inst.NumPhysicalArcs:] {
		assert.Zero(t, a.Cost)
		assert.Zero(t, a.Time)
		assert.Zero(t, a.Energy)
		assert.True(t, inst.IsChargingStage(a.Tail))
	}

	in := inst.Incoming(inst.Source())
	require.Len(t, in, 2)
	assert.Equal(t, inst.ChargingVertex(1), in[0].Tail)
	assert.Equal(t, inst.ChargingVertex(2), in[1].Tail)

	tails := []int{}
	for _, a := range inst.Incoming(inst.ChargingVertex(2)) {
		tails = append(tails, a.Tail)
	}
	assert.ElementsMatch(t, []int{inst.ChargingSource(), inst.ChargingVertex(1)}, tails)
}

func TestChargingPeriods(t *testing.T) {
	inst := loadToy(t)

	assert.Equal(t, 0, inst.ChargingPeriods(0))
	assert.Equal(t, 1, inst.ChargingPeriods(1))
	assert.Equal(t, 1, inst.ChargingPeriods(50))
	assert.Equal(t, 2, inst.ChargingPeriods(51))
	assert.Equal(t, 2, inst.ChargingPeriods(100))
}

func members(s *bit.Set) []int {
	out := []int{}
	s.Visit(func(n int) bool {
		out = append(out, n)
		return false
	})
	return out
}

func TestNeighborhoodsAndUnreachable(t *testing.T) {
	inst := loadToy(t)

	assert.Equal(t, []int{1, 2}, members(inst.Neighbors[1]))
	assert.Equal(t, []int{3, 4, 5}, members(inst.Neighbors[4]))
	assert.Equal(t, []int{3, 4, 5}, members(inst.Unreachable[2]))
	assert.Equal(t, []int{1, 2}, members(inst.Unreachable[5]))
	assert.Equal(t, []int{1, 2, 5}, members(inst.Unreachable[4]))
	assert.Equal(t, []int{1, 2, 4, 5}, members(inst.Unreachable[3]))
	assert.Equal(t, []int{2, 3, 4, 5}, members(inst.Unreachable[1]))
}

func TestUnreachableNeedsDirectArc(t *testing.T) {
	d, err := model.ReadData("testdata/toy5.yaml")
	require.NoError(t, err)
	// 3 still reaches 5 through 4, but without the direct link it is
	// never the predecessor of 5
	d.Links = d.Links[:len(d.Links)-1]

	inst, err := model.NewInstance(d)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, members(inst.Unreachable[5]))
	assert.Equal(t, []int{1, 2, 5}, members(inst.Unreachable[4]))
}

func TestDepotBoundsAndCheapestArc(t *testing.T) {
	inst := loadToy(t)

	tm, en, ok := inst.DepotBounds(3)
	require.True(t, ok)
	assert.Equal(t, 10, tm)
	assert.Equal(t, 10, en)

	_, _, ok = inst.DepotBounds(inst.Sink())
	assert.False(t, ok)

	a, ok := inst.Arc(3, 4)
	require.True(t, ok)
	assert.Equal(t, 11, a.ID)
	_, ok = inst.Arc(2, 3)
	assert.False(t, ok)
}

func TestMultigraphAlternatives(t *testing.T) {
	d, err := model.ReadData("testdata/toy5.yaml")
	require.NoError(t, err)
	d.Links = append(d.Links, model.LinkData{Tail: 1, Head: 2, Cost: 1, Time: 20, Energy: 3})

	inst, err := model.NewInstance(d)
	require.NoError(t, err)

	fast, slow := inst.Arcs[10], inst.Arcs[14]
	assert.False(t, fast.MinCostAlternative)
	assert.True(t, slow.MinCostAlternative)
	for _, a := range []*model.Arc{fast, slow} {
		assert.Equal(t, 1, a.MinCost)
		assert.Equal(t, 10, a.MinTime)
		assert.Equal(t, 3, a.MinEnergy)
	}
	cheapest, _ := inst.Arc(1, 2)
	assert.Equal(t, slow.ID, cheapest.ID)
}

func TestInvalidInstances(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *model.Data)
	}{
		{"zero capacity", func(d *model.Data) { d.Capacity = 0 }},
		{"missing breakpoints", func(d *model.Data) { d.ChargingBreakpoints = nil }},
		{"short breakpoints", func(d *model.Data) { d.ChargingBreakpoints = d.ChargingBreakpoints[:1] }},
		{"bad node id", func(d *model.Data) { d.Nodes[3].ID = 42 }},
		{"link into source", func(d *model.Data) { d.Links[0].Head = 0 }},
		{"link out of sink", func(d *model.Data) { d.Links[0].Tail = 6 }},
		{"empty window", func(d *model.Data) { d.Nodes[2].Opening = 200 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := model.ReadData("testdata/toy5.yaml")
			require.NoError(t, err)
			tt.mutate(d)
			_, err = model.NewInstance(d)
			require.Error(t, err)
			assert.Equal(t, model.ErrInvalidInstance, errors.Cause(err))
		})
	}
}
