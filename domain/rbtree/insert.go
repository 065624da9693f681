package rbtree

import "cmp"

// Insert adds key to the tree. It returns ErrDuplicateKey, and changes
// nothing, when the key is already present.
func (t *Tree[K]) Insert(key K) error {
	parent := Nil
	cur := t.root
	for cur != Nil {
		parent = cur
		switch c := cmp.Compare(key, t.nodes[cur].key); {
		case c < 0:
			cur = t.nodes[cur].left
		case c > 0:
			cur = t.nodes[cur].right
		default:
			return ErrDuplicateKey
		}
	}

	z := t.alloc(key, parent)
	switch {
	case parent == Nil:
		t.root = z
	case cmp.Less(key, t.nodes[parent].key):
		t.nodes[parent].left = z
	default:
		t.nodes[parent].right = z
	}

	t.fixUpInsert(z)
	t.size++
	return nil
}

// fixUpInsert repairs a red node with a red parent, walking up from z.
func (t *Tree[K]) fixUpInsert(z Handle) {
	for t.colorOf(t.parent(z)) == Red {
		// A red parent is never the root, so the grandparent is real.
		parent := t.parent(z)
		grand := t.parent(parent)

		if parent == t.left(grand) {
			uncle := t.right(grand)
			if t.colorOf(uncle) == Red {
				t.setColor(parent, Black)
				t.setColor(uncle, Black)
				t.setColor(grand, Red)
				z = grand
				continue
			}
			if z == t.right(parent) {
				t.rotateLeft(parent)
				z, parent = parent, z
			}
			t.setColor(parent, Black)
			t.setColor(grand, Red)
			t.rotateRight(grand)
		} else {
			uncle := t.left(grand)
			if t.colorOf(uncle) == Red {
				t.setColor(parent, Black)
				t.setColor(uncle, Black)
				t.setColor(grand, Red)
				z = grand
				continue
			}
			if z == t.left(parent) {
				t.rotateRight(parent)
				z, parent = parent, z
			}
			t.setColor(parent, Black)
			t.setColor(grand, Red)
			t.rotateLeft(grand)
		}
	}
	t.setColor(t.root, Black)
}
