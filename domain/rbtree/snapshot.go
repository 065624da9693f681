package rbtree

import (
	"cmp"

	"golang.org/x/exp/constraints"
)

// Shape is a detached copy of a subtree: keys, colors and structure.
// A nil *Shape is the empty subtree.
type Shape[K constraints.Ordered] struct {
	Key   K
	Color Color
	Left  *Shape[K]
	Right *Shape[K]
}

// StructureSnapshot copies the current tree shape. It returns nil for an
// empty tree. The copy shares nothing with the tree.
func (t *Tree[K]) StructureSnapshot() *Shape[K] {
	return t.shape(t.root)
}

func (t *Tree[K]) shape(h Handle) *Shape[K] {
	if h == Nil {
		return nil
	}
	n := &t.nodes[h]
	return &Shape[K]{
		Key:   n.key,
		Color: n.color,
		Left:  t.shape(n.left),
		Right: t.shape(n.right),
	}
}

// Equal reports whether two shapes have the same structure, keys and colors.
func (s *Shape[K]) Equal(o *Shape[K]) bool {
	if s == nil || o == nil {
		return s == o
	}
	return cmp.Compare(s.Key, o.Key) == 0 &&
		s.Color == o.Color &&
		s.Left.Equal(o.Left) &&
		s.Right.Equal(o.Right)
}
