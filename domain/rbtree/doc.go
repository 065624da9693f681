// Package rbtree implements the balanced tree engine: a red-black tree
// over a single ordered key type, with rotations and the insert/delete
// fix-up procedures that keep its height within 2*log2(n+1).
//
// Nodes live in an arena owned by the tree and are addressed by Handle.
// Slot 0 of every arena is the tree's sentinel: a black node standing in
// for every absent child and for the parent of the root. The sentinel is
// written once, at construction, and never again.
//
// A Tree is not safe for concurrent use. Callers that share one (see the
// service package) must serialize access themselves.
package rbtree
