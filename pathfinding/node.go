package pathfinding

import "math"

// Node is the search state of one tile. A Finder keeps one Node per tile
// for its whole lifetime and resets every node at the start of a search.
type Node struct {
	X int
	Y int

	cost      float64
	heuristic float64
	depth     int
	parent    *Node

	index  int
	seq    uint64
	closed bool
}

func (n *Node) reset() {
	n.cost = math.Inf(1)
	n.heuristic = 0
	n.depth = 0
	n.parent = nil
	n.index = -1
	n.seq = 0
	n.closed = false
}

// Cost is the accumulated cost from the start of the last search.
func (n *Node) Cost() float64 { return n.cost }

// Depth is the number of steps from the start of the last search.
func (n *Node) Depth() int { return n.depth }

func (n *Node) Parent() *Node { return n.parent }

func (n *Node) rank() float64 { return n.cost + n.heuristic }

func (n *Node) inOpen() bool { return n.index >= 0 }

// openList is a min-heap on cost+heuristic. Ties go to the node inserted
// first so the order is deterministic.
type openList []*Node

func (o openList) Len() int { return len(o) }

func (o openList) Less(i, j int) bool {
	ri, rj := o[i].rank(), o[j].rank()
	if ri != rj {
		return ri < rj
	}
	return o[i].seq < o[j].seq
}

func (o openList) Swap(i, j int) {
	o[i], o[j] = o[j], o[i]
	o[i].index = i
	o[j].index = j
}

func (o *openList) Push(x any) {
	n := x.(*Node)
	n.index = len(*o)
	*o = append(*o, n)
}

func (o *openList) Pop() any {
	old := *o
	last := len(old) - 1
	n := old[last]
	old[last] = nil
	n.index = -1
	*o = old[:last]
	return n
}
