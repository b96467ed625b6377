package pricing

import (
	"container/heap"
	"fmt"

	"github.com/yourbasic/bit"
)

// Label is a partial backward path ending at Vertex. Resources are what is
// left when leaving Vertex towards the sink.
type Label struct {
	Vertex int
	// Arc leads from Vertex to the vertex of the predecessor label, which
	// sits at index Pred of that vertex's processed labels.
	Arc  int
	Pred int

	ReducedCost float64
	Load        int
	Time        int
	Energy      int
	// Charging is the number of charging periods still to be assigned.
	Charging int

	Unreachable *bit.Set
	NGPath      *bit.Set
	// Eta holds the subset-row cuts visited an odd number of times.
	Eta *bit.Set

	index int
	seq   int
}

func (l *Label) String() string {
	return fmt.Sprintf("L(v=%d rc=%.4f q=%d t=%d e=%d ch=%d)",
		l.Vertex, l.ReducedCost, l.Load, l.Time, l.Energy, l.Charging)
}

// before is the strict total order on labels of the same stage: more
// remaining resources first, then lower reduced cost. Charging-stage labels
// go by fewer pending periods, then reduced cost.
func (s *Solver) before(a, b *Label) bool {
	if s.chargingStage(a.Vertex) && s.chargingStage(b.Vertex) {
		if a.Charging != b.Charging {
			return a.Charging < b.Charging
		}
	} else {
		if a.Load != b.Load {
			return a.Load > b.Load
		}
		if a.Energy != b.Energy {
			return a.Energy > b.Energy
		}
		if a.Time != b.Time {
			return a.Time > b.Time
		}
	}
	if a.ReducedCost != b.ReducedCost {
		return a.ReducedCost < b.ReducedCost
	}
	return a.seq < b.seq
}

// vertexBefore orders the processing frontier: customers ahead of the depot
// source, the customer network ahead of the charging chain, later charging
// periods first, then by the best pending label.
func (s *Solver) vertexBefore(u, v int) bool {
	inst := s.inst
	if u == inst.Source() && inst.IsCustomer(v) {
		return false
	}
	if v == inst.Source() && inst.IsCustomer(u) {
		return true
	}
	us, vs := u >= inst.ChargingSource(), v >= inst.ChargingSource()
	if us != vs {
		return vs
	}
	if us {
		return u > v
	}
	return s.before(s.pools[u].labels[0], s.pools[v].labels[0])
}

type labelPool struct {
	s      *Solver
	labels []*Label
}

func (p *labelPool) Len() int           { return len(p.labels) }
func (p *labelPool) Less(i, j int) bool { return p.s.before(p.labels[i], p.labels[j]) }
func (p *labelPool) Swap(i, j int)      { p.labels[i], p.labels[j] = p.labels[j], p.labels[i] }
func (p *labelPool) Push(x any)         { p.labels = append(p.labels, x.(*Label)) }
func (p *labelPool) Pop() any {
	n := len(p.labels)
	l := p.labels[n-1]
	p.labels[n-1] = nil
	p.labels = p.labels[:n-1]
	return l
}

// removeIf drops every pending label matching drop and reports whether
// anything was removed.
func (p *labelPool) removeIf(drop func(*Label) bool) bool {
	kept := p.labels[:0]
	for _, l := range p.labels {
		if !drop(l) {
			kept = append(kept, l)
		}
	}
	removed := len(kept) != len(p.labels)
	clear(p.labels[len(kept):])
	p.labels = kept
	if removed {
		heap.Init(p)
	}
	return removed
}

// frontier is the heap of vertices holding unprocessed labels.
type frontier struct {
	s     *Solver
	items []int
	pos   []int
}

func newFrontier(s *Solver, n int) *frontier {
	f := &frontier{s: s, pos: make([]int, n)}
	for i := range f.pos {
		f.pos[i] = -1
	}
	return f
}

func (f *frontier) Len() int           { return len(f.items) }
func (f *frontier) Less(i, j int) bool { return f.s.vertexBefore(f.items[i], f.items[j]) }
func (f *frontier) Swap(i, j int) {
	f.items[i], f.items[j] = f.items[j], f.items[i]
	f.pos[f.items[i]] = i
	f.pos[f.items[j]] = j
}
func (f *frontier) Push(x any) {
	v := x.(int)
	f.pos[v] = len(f.items)
	f.items = append(f.items, v)
}
func (f *frontier) Pop() any {
	n := len(f.items)
	v := f.items[n-1]
	f.items = f.items[:n-1]
	f.pos[v] = -1
	return v
}

// update re-positions v after its pool changed, inserting or removing it
// as needed.
func (f *frontier) update(v int) {
	empty := f.s.pools[v].Len() == 0
	switch {
	case f.pos[v] < 0 && !empty:
		heap.Push(f, v)
	case f.pos[v] >= 0 && empty:
		heap.Remove(f, f.pos[v])
	case f.pos[v] >= 0:
		heap.Fix(f, f.pos[v])
	}
}
