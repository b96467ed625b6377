package pricing

import (
	"container/heap"
	"context"
	"math"

	"evrptw_bpc/src/model"

	"github.com/yourbasic/bit"
)

func floor4(x float64) float64 {
	return math.Floor(x*1e4) / 1e4
}

// label runs one backward labeling pass from the depot sink and reports
// whether it enumerated every non-dominated label.
func (s *Solver) label(ctx context.Context) bool {
	inst := s.inst
	n := inst.NumVertices()
	s.pools = make([]*labelPool, n)
	for v := range s.pools {
		s.pools[v] = &labelPool{s: s}
	}
	s.processed = make([][]*Label, n)
	s.frontier = newFrontier(s, n)
	s.sourceLabels = nil
	s.seq = 0
	s.reachedDepot = false

	sink := inst.Vertices[inst.Sink()]
	s.enqueue(&Label{
		Vertex:      sink.ID,
		Arc:         -1,
		Pred:        -1,
		ReducedCost: -s.constantDual,
		Load:        inst.Capacity,
		Time:        sink.Closing,
		Energy:      inst.EnergyCapacity,
		Unreachable: new(bit.Set),
		NGPath:      new(bit.Set),
		Eta:         new(bit.Set),
	})

	for s.frontier.Len() > 0 {
		if len(s.sourceLabels) > s.opts.MaxSourceLabels || ctx.Err() != nil {
			return false
		}
		v := heap.Pop(s.frontier).(int)
		batch := s.nextBatch(v)
		s.frontier.update(v)

		for _, l := range batch {
			if !s.admit(l) {
				continue
			}
			for _, a := range inst.Incoming(v) {
				if !s.usable(a) {
					continue
				}
				var ext *Label
				if a.Tail <= inst.NumCustomers {
					ext = s.extend(l, a)
				} else {
					ext = s.extendCharging(l, a)
				}
				if ext != nil {
					s.enqueue(ext)
				}
			}
		}
	}
	return true
}

func (s *Solver) usable(a *model.Arc) bool {
	if s.infeasible[a.ID] > 0 {
		return false
	}
	if s.variant == HeuristicMinCost && a.Head >= 1 && a.Head <= s.inst.Sink() && !a.MinCostAlternative {
		return false
	}
	return true
}

func (s *Solver) enqueue(l *Label) {
	s.seq++
	l.seq = s.seq
	if l.Vertex == s.inst.ChargingSource() {
		s.sourceLabels = append(s.sourceLabels, l)
		return
	}
	heap.Push(s.pools[l.Vertex], l)
	s.frontier.update(l.Vertex)
}

// nextBatch pops the labels of v to extend next. At a customer these are
// the labels sharing the largest remaining load; labels of the batch
// dominated by an earlier one are dropped.
func (s *Solver) nextBatch(v int) []*Label {
	pool := s.pools[v]
	var batch []*Label
	for pool.Len() > 0 {
		l := heap.Pop(pool).(*Label)
		dominated := false
		for _, b := range batch {
			if s.dominated(l, b) {
				dominated = true
				break
			}
		}
		if !dominated {
			batch = append(batch, l)
		}
		if pool.Len() > 0 && s.inst.IsCustomer(v) && pool.labels[0].Load < l.Load {
			break
		}
	}
	return batch
}

// admit removes the pending labels l dominates, rejects l if a processed
// label dominates it and otherwise stores it as processed.
func (s *Solver) admit(l *Label) bool {
	v := l.Vertex
	if s.pools[v].removeIf(func(u *Label) bool { return s.dominated(u, l) }) {
		s.frontier.update(v)
	}
	for _, p := range s.processed[v] {
		if s.dominated(l, p) {
			return false
		}
	}
	l.index = len(s.processed[v])
	s.processed[v] = append(s.processed[v], l)
	return true
}

// extend moves l backwards over an arc leaving the depot source or a
// customer.
func (s *Solver) extend(l *Label, a *model.Arc) *Label {
	inst := s.inst
	src := a.Tail
	vtx := inst.Vertices[src]
	depot := inst.Vertices[inst.Source()]

	if inst.IsCustomer(src) && (l.Unreachable.Contains(src) || (s.exact() && l.NGPath.Contains(src))) {
		return nil
	}

	rc := l.ReducedCost + s.modifiedCost[a.ID]
	eta := l.Eta
	if cs := s.cutsOf[src]; len(cs) > 0 {
		eta = new(bit.Set).Set(l.Eta)
		for _, i := range cs {
			if eta.Contains(i) {
				eta.Delete(i)
				rc -= s.cutDuals[i]
			} else {
				eta.Add(i)
			}
		}
	}
	rc = floor4(rc)

	load := l.Load - vtx.Load
	if load < 0 {
		return nil
	}
	time := min(l.Time-a.Time, vtx.Closing)
	energy := l.Energy - a.Energy
	if energy < 0 {
		return nil
	}
	charging := inst.ChargingPeriods(inst.EnergyCapacity - energy)

	if src != inst.Source() {
		dt, de, ok := inst.DepotBounds(src)
		if !ok || time-dt < depot.Opening || energy-de < 0 {
			return nil
		}
	}
	if time < vtx.Opening || charging >= inst.Period(time) {
		return nil
	}
	if src == inst.Source() {
		s.reachedDepot = true
		if rc >= s.threshold-s.opts.Tolerance {
			return nil
		}
	}

	unreachable, ng := l.Unreachable, l.NGPath
	if src != inst.Source() {
		unreachable = new(bit.Set).Set(l.Unreachable)
		unreachable.Or(inst.Unreachable[src])
		if s.exact() {
			ng = new(bit.Set).Add(src)
		} else {
			unreachable.Add(src)
		}
		for _, c := range inst.Incoming(src) {
			t := c.Tail
			if !inst.IsCustomer(t) || unreachable.Contains(t) {
				continue
			}
			tv := inst.Vertices[t]
			dt, de, ok := inst.DepotBounds(t)
			if !ok || load-tv.Load < 0 || time-c.MinTime < tv.Opening || energy-c.MinEnergy < 0 ||
				min(time-c.MinTime, tv.Closing)-dt < depot.Opening || energy-c.MinEnergy-de < 0 {
				unreachable.Add(t)
				continue
			}
			if s.exact() && l.NGPath.Contains(t) && s.neighbors[src].Contains(t) {
				ng.Add(t)
			}
		}
	}

	return &Label{
		Vertex:      src,
		Arc:         a.ID,
		Pred:        l.index,
		ReducedCost: rc,
		Load:        load,
		Time:        time,
		Energy:      energy,
		Charging:    charging,
		Unreachable: unreachable,
		NGPath:      ng,
		Eta:         eta,
	}
}

// extendCharging moves l backwards over an arc of the charging chain,
// assigning one charging period per step.
func (s *Solver) extendCharging(l *Label, a *model.Arc) *Label {
	inst := s.inst
	src := a.Tail

	if a.Head == inst.Source() {
		t := inst.Timestep(src)
		if t < l.Charging || t >= inst.Period(l.Time) {
			return nil
		}
	}
	if src == inst.ChargingSource() && (l.Charging > 0 || l.ReducedCost > -s.opts.Tolerance) {
		return nil
	}

	rc := floor4(l.ReducedCost + s.modifiedCost[a.ID])
	charging := l.Charging
	if src != inst.ChargingSource() {
		charging--
		if charging < 0 && !(s.exact() && s.chargingBranchActive) {
			return nil
		}
	}

	return &Label{
		Vertex:      src,
		Arc:         a.ID,
		Pred:        l.index,
		ReducedCost: rc,
		Load:        l.Load,
		Time:        l.Time,
		Energy:      l.Energy,
		Charging:    charging,
		Unreachable: l.Unreachable,
		NGPath:      l.NGPath,
		Eta:         l.Eta,
	}
}
