package rbtree

import "golang.org/x/exp/constraints"

// Color of a node. The zero value is Black so a zeroed slot (including the
// sentinel) is black without further setup.
type Color uint8

const (
	Black Color = iota
	Red
)

func (c Color) String() string {
	switch c {
	case Black:
		return "BLACK"
	case Red:
		return "RED"
	default:
		return "UNKNOWN"
	}
}

// Handle addresses a node slot in a tree's arena. Handles of live nodes are
// stable for as long as the node stays in the tree.
type Handle uint32

// Nil is the sentinel handle.
const Nil Handle = 0

type node[K constraints.Ordered] struct {
	key    K
	color  Color
	left   Handle
	right  Handle
	parent Handle
}

// Node is a read-only view of a tree node.
type Node[K constraints.Ordered] struct {
	Handle Handle
	Key    K
	Color  Color
}

/******************** Node store ********************/

// alloc returns a fresh red leaf holding key, reusing a freed slot when one
// is available.
func (t *Tree[K]) alloc(key K, parent Handle) Handle {
	n := node[K]{key: key, color: Red, left: Nil, right: Nil, parent: parent}
	if last := len(t.free) - 1; last >= 0 {
		h := t.free[last]
		t.free = t.free[:last]
		t.nodes[h] = n
		return h
	}
	t.nodes = append(t.nodes, n)
	return Handle(len(t.nodes) - 1)
}

// release zeroes a slot that is no longer reachable and queues it for reuse.
func (t *Tree[K]) release(h Handle) {
	t.nodes[h] = node[K]{}
	t.free = append(t.free, h)
}

func (t *Tree[K]) view(h Handle) Node[K] {
	n := &t.nodes[h]
	return Node[K]{Handle: h, Key: n.key, Color: n.color}
}

func (t *Tree[K]) colorOf(h Handle) Color { return t.nodes[h].color }

// setColor never writes the sentinel; it is black for its whole life.
func (t *Tree[K]) setColor(h Handle, c Color) {
	if h == Nil {
		return
	}
	t.nodes[h].color = c
}

func (t *Tree[K]) left(h Handle) Handle   { return t.nodes[h].left }
func (t *Tree[K]) right(h Handle) Handle  { return t.nodes[h].right }
func (t *Tree[K]) parent(h Handle) Handle { return t.nodes[h].parent }
