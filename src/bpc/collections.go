package bpc

import (
	"gopkg.in/dnaeon/go-priorityqueue.v1"
)

type nodeListElem struct {
	node *Node
	next *nodeListElem
}

type nodeList struct {
	head *nodeListElem
	tail *nodeListElem
	size int
}

func (l *nodeList) pushFront(n *Node) {
	e := &nodeListElem{node: n, next: l.head}
	l.head = e
	if l.tail == nil {
		l.tail = e
	}
	l.size++
}

func (l *nodeList) pushBack(n *Node) {
	e := &nodeListElem{node: n}
	if l.size == 0 {
		l.head = e
	} else {
		l.tail.next = e
	}
	l.tail = e
	l.size++
}

func (l *nodeList) popFront() *Node {
	if l.size == 0 {
		return nil
	}
	e := l.head
	l.head = e.next
	l.size--
	if l.size == 0 {
		l.tail = nil
	}
	return e.node
}

// OpenNodes holds the nodes of the tree still to be processed. Pop returns
// nil when it is empty.
type OpenNodes interface {
	Push(n *Node)
	Pop() *Node
	Size() int
}

// NodeStack explores the tree depth first.
type NodeStack struct {
	list nodeList
}

func NewNodeStack() *NodeStack {
	return &NodeStack{}
}

func (s *NodeStack) Push(n *Node) {
	s.list.pushFront(n)
}

func (s *NodeStack) Pop() *Node {
	return s.list.popFront()
}

func (s *NodeStack) Size() int {
	return s.list.size
}

// NodeQueue explores the tree breadth first.
type NodeQueue struct {
	list nodeList
}

func NewNodeQueue() *NodeQueue {
	return &NodeQueue{}
}

func (q *NodeQueue) Push(n *Node) {
	q.list.pushBack(n)
}

func (q *NodeQueue) Pop() *Node {
	return q.list.popFront()
}

func (q *NodeQueue) Size() int {
	return q.list.size
}

// BestBoundQueue pops the node of least bound, as known when it was pushed.
type BestBoundQueue struct {
	pq *priorityqueue.PriorityQueue[*Node, float64]
}

func NewBestBoundQueue() *BestBoundQueue {
	return &BestBoundQueue{pq: priorityqueue.New[*Node, float64](priorityqueue.MinHeap)}
}

func (b *BestBoundQueue) Push(n *Node) {
	b.pq.Put(n, n.Bound)
}

func (b *BestBoundQueue) Pop() *Node {
	if b.pq.Len() == 0 {
		return nil
	}
	return b.pq.Get().Value
}

func (b *BestBoundQueue) Size() int {
	return b.pq.Len()
}

func newOpenNodes(order NodeOrder) OpenNodes {
	switch order {
	case DepthFirst:
		return NewNodeStack()
	case BreadthFirst:
		return NewNodeQueue()
	}
	return NewBestBoundQueue()
}
