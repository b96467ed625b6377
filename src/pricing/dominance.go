package pricing

// dominated reports whether l1 is dominated by l2, both resting at the same
// vertex. Identical labels dominate each other.
func (s *Solver) dominated(l1, l2 *Label) bool {
	if s.chargingStage(l1.Vertex) {
		return l2.Charging <= l1.Charging && l2.ReducedCost-l1.ReducedCost <= s.opts.Tolerance
	}

	if l1.Vertex != s.inst.Source() && l2.Load < l1.Load {
		return false
	}
	if s.exact() && l2.ReducedCost-l1.ReducedCost > s.opts.Tolerance {
		return false
	}
	if l2.Time < l1.Time || l2.Energy < l1.Energy {
		return false
	}

	// A cut open in l2 but closed in l1 may still cost l2 its dual, unless
	// every remaining member of the triplet is already out of reach.
	extra := 0.0
	if l1.Vertex != s.inst.Source() {
		aborted := l2.Eta.Visit(func(i int) bool {
			if l1.Eta.Contains(i) {
				return false
			}
			for _, m := range s.cuts[i].Triplet {
				if !l2.Unreachable.Contains(m) {
					extra += s.cutDuals[i]
					break
				}
			}
			return l2.ReducedCost-extra-l1.ReducedCost > s.opts.Tolerance
		})
		if aborted {
			return false
		}
	}
	if l2.ReducedCost-extra-l1.ReducedCost > s.opts.Tolerance {
		return false
	}

	if s.exact() && l1.Vertex != s.inst.Source() {
		aborted := s.neighbors[l1.Vertex].Visit(func(i int) bool {
			return l2.NGPath.Contains(i) && !l1.Unreachable.Contains(i) && !l1.NGPath.Contains(i)
		})
		if aborted {
			return false
		}
	}
	return true
}

// strictlyDominated reports dominance with at least one resource strictly
// better, so that identical labels do not dominate each other.
func (s *Solver) strictlyDominated(l1, l2 *Label) bool {
	if !s.dominated(l1, l2) {
		return false
	}
	if s.chargingStage(l1.Vertex) {
		return l2.Charging < l1.Charging || l1.ReducedCost-l2.ReducedCost > eps
	}
	return l2.Load > l1.Load || l2.Time > l1.Time || l2.Energy > l1.Energy ||
		l1.ReducedCost-l2.ReducedCost > eps
}
