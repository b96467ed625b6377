// Package cuts separates subset-row inequalities over customer triplets
// from a fractional master solution.
package cuts

import (
	"cmp"
	"math"
	"slices"

	"evrptw_bpc/src/model"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/combin"
)

const (
	integralRoute  = 0.999
	violationSlack = 0.01
)

type Separator struct {
	MaxCuts        int
	MaxPerCustomer int
	// MinViolation is the violation the best cut must reach for any cut to
	// be returned.
	MinViolation float64
}

func NewSeparator() *Separator {
	return &Separator{
		MaxCuts:        30,
		MaxPerCustomer: 5,
		MinViolation:   0.1,
	}
}

// Separate returns the violated subset-row cuts of the solution given by
// the route values, leaving out those already in existing.
func (s *Separator) Separate(inst *model.Instance, routes []*model.Route, existing []*model.SubsetRow) []*model.SubsetRow {
	covered := make([]bool, inst.NumCustomers+1)
	var fractional []*model.Route
	for _, r := range routes {
		if r.Artificial || r.Value <= 1-integralRoute {
			continue
		}
		if r.Value >= integralRoute {
			for c := range r.Visits {
				covered[c] = true
			}
			continue
		}
		fractional = append(fractional, r)
	}

	var candidates []int
	for c := 1; c <= inst.NumCustomers; c++ {
		if covered[c] {
			continue
		}
		for _, r := range fractional {
			if r.Visits[c] > 0 {
				candidates = append(candidates, c)
				break
			}
		}
	}
	if len(candidates) < 3 {
		return nil
	}

	visits := mat.NewDense(len(candidates), len(fractional), nil)
	values := mat.NewVecDense(len(fractional), nil)
	for j, r := range fractional {
		values.SetVec(j, r.Value)
		for i, c := range candidates {
			visits.Set(i, j, float64(r.Visits[c]))
		}
	}

	var violated []*model.SubsetRow
	coeffs := mat.NewVecDense(len(fractional), nil)
	gen := combin.NewCombinationGenerator(len(candidates), 3)
	triplet := make([]int, 3)
	for gen.Next() {
		gen.Combination(triplet)
		for j := range fractional {
			n := visits.At(triplet[0], j) + visits.At(triplet[1], j) + visits.At(triplet[2], j)
			coeffs.SetVec(j, math.Floor(n/2))
		}
		lhs := mat.Dot(coeffs, values)
		if lhs > 1+violationSlack {
			violated = append(violated, model.NewSubsetRow(
				candidates[triplet[0]], candidates[triplet[1]], candidates[triplet[2]], lhs-1))
		}
	}
	if len(violated) == 0 {
		return nil
	}

	slices.SortStableFunc(violated, func(a, b *model.SubsetRow) int {
		return cmp.Compare(b.Violation, a.Violation)
	})
	if violated[0].Violation < s.MinViolation {
		return nil
	}

	present := make(map[[3]int]bool, len(existing))
	for _, c := range existing {
		present[c.Key()] = true
	}
	perCustomer := make([]int, inst.NumCustomers+1)
	var selected []*model.SubsetRow
	for _, c := range violated {
		if len(selected) >= s.MaxCuts {
			break
		}
		if present[c.Key()] {
			continue
		}
		if slices.ContainsFunc(c.Triplet[:], func(m int) bool { return perCustomer[m] >= s.MaxPerCustomer }) {
			continue
		}
		for _, m := range c.Triplet {
			perCustomer[m]++
		}
		selected = append(selected, c)
	}
	return selected
}
