package rbtree

// Delete removes key from the tree. It returns ErrKeyNotFound, and changes
// nothing, when the key is absent.
func (t *Tree[K]) Delete(key K) error {
	z := t.find(key)
	if z == Nil {
		return ErrKeyNotFound
	}

	var x, xParent Handle
	origColor := t.colorOf(z)

	switch {
	case t.left(z) == Nil:
		x, xParent = t.right(z), t.parent(z)
		t.transplant(z, x)
	case t.right(z) == Nil:
		x, xParent = t.left(z), t.parent(z)
		t.transplant(z, x)
	default:
		y := t.minimum(t.right(z))
		origColor = t.colorOf(y)
		x = t.right(y)
		if t.parent(y) == z {
			xParent = y
		} else {
			xParent = t.parent(y)
			t.transplant(y, x)
			t.nodes[y].right = t.right(z)
			t.nodes[t.right(y)].parent = y
		}
		t.transplant(z, y)
		t.nodes[y].left = t.left(z)
		t.nodes[t.left(y)].parent = y
		t.nodes[y].color = t.colorOf(z)
	}

	t.release(z)
	t.size--

	if origColor == Black {
		t.fixUpDelete(x, xParent)
	}
	return nil
}

// transplant puts v where u hangs in the tree. u's own links are left as is.
// The sentinel's parent field is never written.
func (t *Tree[K]) transplant(u, v Handle) {
	p := t.parent(u)
	switch {
	case p == Nil:
		t.root = v
	case u == t.left(p):
		t.nodes[p].left = v
	default:
		t.nodes[p].right = v
	}
	if v != Nil {
		t.nodes[v].parent = p
	}
}

func (t *Tree[K]) minimum(h Handle) Handle {
	for t.left(h) != Nil {
		h = t.left(h)
	}
	return h
}

func (t *Tree[K]) maximum(h Handle) Handle {
	for t.right(h) != Nil {
		h = t.right(h)
	}
	return h
}

// fixUpDelete removes the extra black carried by x. parent is x's parent,
// tracked explicitly because x may be the sentinel.
func (t *Tree[K]) fixUpDelete(x, parent Handle) {
	for x != t.root && t.colorOf(x) == Black {
		if x == t.left(parent) {
			w := t.right(parent)
			if t.colorOf(w) == Red {
				t.setColor(w, Black)
				t.setColor(parent, Red)
				t.rotateLeft(parent)
				w = t.right(parent)
			}
			if t.colorOf(t.left(w)) == Black && t.colorOf(t.right(w)) == Black {
				t.setColor(w, Red)
				x = parent
				parent = t.parent(x)
				continue
			}
			if t.colorOf(t.right(w)) == Black {
				t.setColor(t.left(w), Black)
				t.setColor(w, Red)
				t.rotateRight(w)
				w = t.right(parent)
			}
			t.setColor(w, t.colorOf(parent))
			t.setColor(parent, Black)
			t.setColor(t.right(w), Black)
			t.rotateLeft(parent)
			x = t.root
		} else {
			w := t.left(parent)
			if t.colorOf(w) == Red {
				t.setColor(w, Black)
				t.setColor(parent, Red)
				t.rotateRight(parent)
				w = t.left(parent)
			}
			if t.colorOf(t.right(w)) == Black && t.colorOf(t.left(w)) == Black {
				t.setColor(w, Red)
				x = parent
				parent = t.parent(x)
				continue
			}
			if t.colorOf(t.left(w)) == Black {
				t.setColor(t.right(w), Black)
				t.setColor(w, Red)
				t.rotateLeft(w)
				w = t.left(parent)
			}
			t.setColor(w, t.colorOf(parent))
			t.setColor(parent, Black)
			t.setColor(t.left(w), Black)
			t.rotateRight(parent)
			x = t.root
		}
	}
	t.setColor(x, Black)
}
