package bpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func drain(open OpenNodes) []int {
	var ids []int
	for open.Size() > 0 {
		ids = append(ids, open.Pop().ID)
	}
	return ids
}

func TestNodeOrders(t *testing.T) {
	nodes := []*Node{{ID: 0, Bound: 30}, {ID: 1, Bound: 10}, {ID: 2, Bound: 20}}
	for _, tc := range []struct {
		order NodeOrder
		want  []int
	}{
		{DepthFirst, []int{2, 1, 0}},
		{BreadthFirst, []int{0, 1, 2}},
		{BestBound, []int{1, 2, 0}},
	} {
		t.Run(string(tc.order), func(t *testing.T) {
			open := newOpenNodes(tc.order)
			for _, n := range nodes {
				open.Push(n)
			}
			assert.Equal(t, 3, open.Size())
			assert.Equal(t, tc.want, drain(open))
			assert.Nil(t, open.Pop())
		})
	}
}

func TestOpenNodesInterleaved(t *testing.T) {
	a, b, c := &Node{ID: 1, Bound: 5}, &Node{ID: 2, Bound: 1}, &Node{ID: 3, Bound: 3}

	stack := NewNodeStack()
	stack.Push(a)
	stack.Push(b)
	assert.Same(t, b, stack.Pop())
	stack.Push(c)
	assert.Equal(t, []int{3, 1}, drain(stack))

	queue := NewNodeQueue()
	queue.Push(a)
	assert.Same(t, a, queue.Pop())
	assert.Nil(t, queue.Pop())
	queue.Push(b)
	queue.Push(c)
	assert.Equal(t, []int{2, 3}, drain(queue))

	best := NewBestBoundQueue()
	best.Push(a)
	best.Push(c)
	assert.Same(t, c, best.Pop())
	best.Push(b)
	assert.Equal(t, []int{2, 1}, drain(best))
}
