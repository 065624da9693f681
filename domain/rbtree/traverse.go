package rbtree

import (
	"iter"
	"strings"

	"github.com/cockroachdb/errors"
)

// Order selects a depth-first traversal.
type Order uint8

const (
	InOrder Order = iota
	PreOrder
	PostOrder
)

func (o Order) String() string {
	switch o {
	case InOrder:
		return "in"
	case PreOrder:
		return "pre"
	case PostOrder:
		return "post"
	default:
		return "unknown"
	}
}

// ParseOrder maps "in", "pre", "post" (or "inorder", "preorder",
// "postorder"; any case) to an Order.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in", "inorder", "in-order":
		return InOrder, nil
	case "pre", "preorder", "pre-order":
		return PreOrder, nil
	case "post", "postorder", "post-order":
		return PostOrder, nil
	}
	return 0, errors.Wrapf(ErrUnknownOrder, "%q", s)
}

// Walk yields every key in the given order. The sequence can be ranged
// over any number of times; the tree must not be mutated while a walk is
// in progress.
func (t *Tree[K]) Walk(order Order) iter.Seq[K] {
	switch order {
	case PreOrder:
		return t.preOrder
	case PostOrder:
		return t.postOrder
	default:
		return t.inOrder
	}
}

// Traverse collects Walk(order) into a slice.
func (t *Tree[K]) Traverse(order Order) []K {
	out := make([]K, 0, t.size)
	for k := range t.Walk(order) {
		out = append(out, k)
	}
	return out
}

// Keys returns every key in increasing order.
func (t *Tree[K]) Keys() []K { return t.Traverse(InOrder) }

func (t *Tree[K]) inOrder(yield func(K) bool) {
	var stack []Handle
	cur := t.root
	for cur != Nil || len(stack) > 0 {
		for cur != Nil {
			stack = append(stack, cur)
			cur = t.left(cur)
		}
		cur = stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !yield(t.nodes[cur].key) {
			return
		}
		cur = t.right(cur)
	}
}

func (t *Tree[K]) preOrder(yield func(K) bool) {
	if t.root == Nil {
		return
	}
	stack := []Handle{t.root}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !yield(t.nodes[cur].key) {
			return
		}
		if r := t.right(cur); r != Nil {
			stack = append(stack, r)
		}
		if l := t.left(cur); l != Nil {
			stack = append(stack, l)
		}
	}
}

func (t *Tree[K]) postOrder(yield func(K) bool) {
	var stack []Handle
	last := Nil
	cur := t.root
	for cur != Nil || len(stack) > 0 {
		for cur != Nil {
			stack = append(stack, cur)
			cur = t.left(cur)
		}
		top := stack[len(stack)-1]
		if r := t.right(top); r != Nil && r != last {
			cur = r
			continue
		}
		stack = stack[:len(stack)-1]
		if !yield(t.nodes[top].key) {
			return
		}
		last = top
	}
}
