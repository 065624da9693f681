package rbtree

import (
	"cmp"

	"github.com/cockroachdb/errors"
)

// Validate checks every red-black and BST invariant plus the parent links
// and the cached size. It returns nil for a well-formed tree, otherwise an
// error marked with ErrInvariant that names the first violation found.
//
// Keys are ordered by cmp.Compare, so a float NaN sorts before every other
// key and equals only itself.
//
// Validate exists for tests and diagnostics; the tree never calls it.
func (t *Tree[K]) Validate() error {
	if s := t.nodes[Nil]; s.color != Black || s.left != Nil || s.right != Nil || s.parent != Nil {
		return violation("sentinel was written: color=%s left=%d right=%d parent=%d",
			s.color, s.left, s.right, s.parent)
	}
	if t.root == Nil {
		if t.size != 0 {
			return violation("empty tree reports size %d", t.size)
		}
		return nil
	}
	if t.colorOf(t.root) != Black {
		return violation("root %v is red", t.nodes[t.root].key)
	}
	if p := t.parent(t.root); p != Nil {
		return violation("root %v has parent handle %d", t.nodes[t.root].key, p)
	}

	count := 0
	if _, err := t.check(t.root, &count); err != nil {
		return err
	}
	if count != t.size {
		return violation("size is %d but %d nodes are reachable", t.size, count)
	}

	var prev K
	first := true
	for k := range t.inOrder {
		if !first && !cmp.Less(prev, k) {
			return violation("in-order keys not increasing: %v then %v", prev, k)
		}
		prev, first = k, false
	}
	return nil
}

// check returns the black height of h, sentinel excluded.
func (t *Tree[K]) check(h Handle, count *int) (int, error) {
	if h == Nil {
		return 0, nil
	}
	*count++
	n := &t.nodes[h]

	for _, c := range []Handle{n.left, n.right} {
		if c == Nil {
			continue
		}
		if t.parent(c) != h {
			return 0, violation("node %v does not point back at parent %v", t.nodes[c].key, n.key)
		}
		if n.color == Red && t.colorOf(c) == Red {
			return 0, violation("red node %v has red child %v", n.key, t.nodes[c].key)
		}
	}
	if n.left != Nil && !cmp.Less(t.nodes[n.left].key, n.key) {
		return 0, violation("left child %v not less than %v", t.nodes[n.left].key, n.key)
	}
	if n.right != Nil && !cmp.Less(n.key, t.nodes[n.right].key) {
		return 0, violation("right child %v not greater than %v", t.nodes[n.right].key, n.key)
	}

	lh, err := t.check(n.left, count)
	if err != nil {
		return 0, err
	}
	rh, err := t.check(n.right, count)
	if err != nil {
		return 0, err
	}
	if lh != rh {
		return 0, violation("black height differs under %v: left %d right %d", n.key, lh, rh)
	}
	if n.color == Black {
		lh++
	}
	return lh, nil
}

func violation(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrInvariant)
}
