package rbtree

import "github.com/cockroachdb/errors"

var (
	// ErrDuplicateKey is returned by Insert when the key is already present.
	// The tree is left untouched.
	ErrDuplicateKey = errors.New("rbtree: key already present")

	// ErrKeyNotFound is returned by Delete when the key is absent.
	ErrKeyNotFound = errors.New("rbtree: key not found")

	// ErrUnknownOrder is returned by ParseOrder for an unrecognised name.
	ErrUnknownOrder = errors.New("rbtree: unknown traversal order")

	// ErrInvariant marks every error produced by Validate.
	ErrInvariant = errors.New("rbtree: invariant violated")
)
