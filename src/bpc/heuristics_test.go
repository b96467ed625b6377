package bpc

import (
	"testing"

	"evrptw_bpc/src/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialColumns(t *testing.T) {
	inst := loadToy(t)
	cols := initialColumns(inst)
	require.Len(t, cols, inst.NumCustomers)

	for i, r := range cols {
		c := i + 1
		assert.Equal(t, []int{c}, r.Sequence)
		assert.Equal(t, 20, r.Cost)
		assert.Equal(t, 20, r.Energy)
		assert.Equal(t, inst.Vertices[c].Load, r.Load)
		assert.Equal(t, 8, r.Departure)
		assert.Equal(t, 2, r.InitialChargingTime)
		assert.Equal(t, 2, r.ChargingEnd())
		assert.Equal(t, -1, r.Node)
	}
}

func TestInitialColumnsLateSink(t *testing.T) {
	d, err := model.ReadData("../model/testdata/toy5.yaml")
	require.NoError(t, err)
	d.Nodes[len(d.Nodes)-1].Closing = 15
	inst, err := model.NewInstance(d)
	require.NoError(t, err)

	assert.Empty(t, initialColumns(inst))
}

func toyColumns() []*model.Route {
	r := func(cost, start int, arcs []int, customers ...int) *model.Route {
		c := column(0, start, arcs, customers...)
		c.Cost = cost
		return c
	}
	return []*model.Route{
		r(22, 1, []int{0, 10, 6}, 1, 2),
		r(22, 2, []int{0, 10, 6}, 1, 2),
		r(24, 2, []int{2, 11, 12, 9}, 3, 4, 5),
		r(20, 1, []int{0, 5}, 1),
		r(20, 2, []int{4, 9}, 5),
	}
}

func TestGreedyPartition(t *testing.T) {
	inst := loadToy(t)
	cols := append([]*model.Route{model.NewArtificialRoute(inst, 1000)}, toyColumns()...)

	routes, cost, err := greedyPartition(inst, cols)
	require.NoError(t, err)
	assert.Equal(t, 46, cost)
	require.Len(t, routes, 2)
	assert.Equal(t, []int{3, 4, 5}, routes[0].Customers())
	assert.Equal(t, []int{1, 2}, routes[1].Customers())
	// the single charger is taken in period 2
	assert.Equal(t, 1, routes[1].InitialChargingTime)
}

func TestGreedyPartitionChargerConflict(t *testing.T) {
	inst := loadToy(t)
	_, _, err := greedyPartition(inst, initialColumns(inst))
	assert.ErrorIs(t, err, errGreedyInfeasible)
}

func TestSelectedRoutes(t *testing.T) {
	inst := loadToy(t)
	cols := toyColumns()
	cols[0].Value = 1
	cols[2].Value = 0.999
	cols[3].Value = 0.2
	art := model.NewArtificialRoute(inst, 1000)
	art.Value = 1

	sel := selectedRoutes(append(cols, art))
	require.Len(t, sel, 2)
	assert.Equal(t, 1.0, sel[1].Value)
	assert.NotSame(t, cols[2], sel[1])
	assert.Equal(t, 0.999, cols[2].Value)
}
