package rbtree

import "golang.org/x/exp/constraints"

// Tree is a red-black tree holding distinct keys of type K.
// The zero value is not usable; construct trees with New.
type Tree[K constraints.Ordered] struct {
	nodes []node[K] // nodes[0] is the sentinel
	free  []Handle
	root  Handle
	size  int
}

// New constructs an empty tree with its own black sentinel.
func New[K constraints.Ordered]() *Tree[K] {
	return &Tree[K]{
		nodes: make([]node[K], 1, 16),
		root:  Nil,
	}
}

// Len returns the number of keys in the tree.
func (t *Tree[K]) Len() int { return t.size }

// Root returns the root node, or false when the tree is empty.
func (t *Tree[K]) Root() (Node[K], bool) {
	if t.root == Nil {
		return Node[K]{}, false
	}
	return t.view(t.root), true
}

// Height returns the number of nodes on the longest root-to-leaf path.
func (t *Tree[K]) Height() int { return t.height(t.root) }

func (t *Tree[K]) height(h Handle) int {
	if h == Nil {
		return 0
	}
	return 1 + max(t.height(t.left(h)), t.height(t.right(h)))
}

// BlackHeight returns the number of black nodes on the leftmost
// root-to-sentinel path, sentinel excluded. For a valid tree every path
// has the same count.
func (t *Tree[K]) BlackHeight() int {
	bh := 0
	for h := t.root; h != Nil; h = t.left(h) {
		if t.colorOf(h) == Black {
			bh++
		}
	}
	return bh
}

// Clear removes every key and releases the arena.
func (t *Tree[K]) Clear() {
	t.nodes = t.nodes[:1]
	t.free = t.free[:0]
	t.root = Nil
	t.size = 0
}
