package model

import (
	"fmt"
	"slices"
)

// SubsetRow is a subset-row inequality over a customer triplet:
// sum over routes of floor(visits to the triplet / 2) * x_r <= 1.
type SubsetRow struct {
	Triplet   [3]int
	Violation float64
}

func NewSubsetRow(i, j, k int, violation float64) *SubsetRow {
	t := []int{i, j, k}
	slices.Sort(t)
	return &SubsetRow{Triplet: [3]int{t[0], t[1], t[2]}, Violation: violation}
}

func (c *SubsetRow) Coefficient(r *Route) int {
	visits := 0
	for _, v := range c.Triplet {
		visits += r.Visits[v]
	}
	return visits / 2
}

func (c *SubsetRow) Contains(customer int) bool {
	return slices.Contains(c.Triplet[:], customer)
}

func (c *SubsetRow) Key() [3]int {
	return c.Triplet
}

func (c *SubsetRow) String() string {
	return fmt.Sprintf("SRC%v (violation %.3f)", c.Triplet, c.Violation)
}
