package rbtree

import "cmp"

// Search returns the node holding key, or false when it is absent.
func (t *Tree[K]) Search(key K) (Node[K], bool) {
	h := t.find(key)
	if h == Nil {
		return Node[K]{}, false
	}
	return t.view(h), true
}

// Contains reports whether key is in the tree.
func (t *Tree[K]) Contains(key K) bool { return t.find(key) != Nil }

// Min returns the node with the smallest key.
func (t *Tree[K]) Min() (Node[K], bool) {
	if t.root == Nil {
		return Node[K]{}, false
	}
	return t.view(t.minimum(t.root)), true
}

// Max returns the node with the largest key.
func (t *Tree[K]) Max() (Node[K], bool) {
	if t.root == Nil {
		return Node[K]{}, false
	}
	return t.view(t.maximum(t.root)), true
}

func (t *Tree[K]) find(key K) Handle {
	h := t.root
	for h != Nil {
		switch c := cmp.Compare(key, t.nodes[h].key); {
		case c < 0:
			h = t.nodes[h].left
		case c > 0:
			h = t.nodes[h].right
		default:
			return h
		}
	}
	return Nil
}
