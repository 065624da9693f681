// Package display renders tree snapshots and traversals as text for the
// interactive front ends. It only consumes rbtree's public snapshot types.
package display

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/exp/constraints"

	"rbtengine/domain/rbtree"
)

const indentPerLevel = 4

// Render writes the tree sideways: the right subtree above its parent, the
// left subtree below, every node as KEY[R] or KEY[B] indented by depth.
func Render[K constraints.Ordered](w io.Writer, s *rbtree.Shape[K]) error {
	if s == nil {
		_, err := io.WriteString(w, "(empty)\n")
		return err
	}
	return render(w, s, 0)
}

func render[K constraints.Ordered](w io.Writer, s *rbtree.Shape[K], level int) error {
	if s == nil {
		return nil
	}
	if err := render(w, s.Right, level+1); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%v%s\n", strings.Repeat(" ", level*indentPerLevel), s.Key, tag(s.Color)); err != nil {
		return err
	}
	return render(w, s.Left, level+1)
}

func tag(c rbtree.Color) string {
	if c == rbtree.Red {
		return "[R]"
	}
	return "[B]"
}

// Sequence writes label on its own line followed by keys separated by
// single spaces.
func Sequence[K any](w io.Writer, label string, keys []K) error {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprint(k)
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n", label, strings.Join(parts, " "))
	return err
}
