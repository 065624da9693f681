package rbtree

// rotateLeft promotes x's right child into x's position.
//
//	    P                P
//	    |                |
//	    x                y
//	   / \              / \
//	  A   y     ->     x   C
//	     / \          / \
//	    B   C        A   B
//
// x must have a real right child.
func (t *Tree[K]) rotateLeft(x Handle) {
	y := t.nodes[x].right
	b := t.nodes[y].left

	t.nodes[x].right = b
	if b != Nil {
		t.nodes[b].parent = x
	}

	p := t.nodes[x].parent
	t.nodes[y].parent = p
	switch {
	case p == Nil:
		t.root = y
	case x == t.nodes[p].left:
		t.nodes[p].left = y
	default:
		t.nodes[p].right = y
	}

	t.nodes[y].left = x
	t.nodes[x].parent = y
}

// rotateRight is the mirror of rotateLeft; y must have a real left child.
//
//	      P            P
//	      |            |
//	      y            x
//	     / \          / \
//	    x   C   ->   A   y
//	   / \              / \
//	  A   B            B   C
func (t *Tree[K]) rotateRight(y Handle) {
	x := t.nodes[y].left
	b := t.nodes[x].right

	t.nodes[y].left = b
	if b != Nil {
		t.nodes[b].parent = y
	}

	p := t.nodes[y].parent
	t.nodes[x].parent = p
	switch {
	case p == Nil:
		t.root = x
	case y == t.nodes[p].right:
		t.nodes[p].right = x
	default:
		t.nodes[p].left = x
	}

	t.nodes[x].right = y
	t.nodes[y].parent = x
}
