package index

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrInvalid is returned by Validate for structurally invalid trees.
var ErrInvalid = errors.New("invalid index")

// Content is the payload of a Node.
//
// The implementations are Absent, Range and Tree. A nil Content is treated
// as Absent.
type Content interface {
	isContent()
}

// Absent is content with no payload. It is never produced when packing but
// round-trips through the codec.
type Absent struct{}

// Range is a half-open byte interval [Start, End) into the archive blob.
type Range struct {
	Start uint64
	End   uint64
}

// Len returns the number of bytes covered by the range.
func (r Range) Len() uint64 {
	return r.End - r.Start
}

// Tree is an ordered list of nodes. It is both the top-level index and the
// content of a directory node.
type Tree []Node

func (Absent) isContent() {}
func (Range) isContent()  {}
func (Tree) isContent()   {}

// Node is a labeled entry in the index.
type Node struct {
	Label   string
	Content Content
}

// File returns a node for a file occupying [start, end) in the blob.
func File(label string, start, end uint64) Node {
	return Node{Label: label, Content: Range{Start: start, End: end}}
}

// Dir returns a directory node with the given children.
func Dir(label string, children ...Node) Node {
	t := make(Tree, 0, len(children))
	t = append(t, children...)
	return Node{Label: label, Content: t}
}

// IsDir reports whether the node holds a subtree.
func (n Node) IsDir() bool {
	_, ok := n.Content.(Tree)
	return ok
}

// WalkFunc is called for every node visited by Walk. The path slice holds the
// labels from the top level down to and including n.Label; it is reused
// between calls and must be copied if retained.
type WalkFunc func(path []string, n Node) error

// Walk visits every node depth-first in pre-order, children in tree order.
// It stops at and returns the first error returned by fn.
func (t Tree) Walk(fn WalkFunc) error {
	path := make([]string, 0, 16)
	return t.walk(path, fn)
}

func (t Tree) walk(path []string, fn WalkFunc) error {
	for _, n := range t {
		p := append(path, n.Label)
		if err := fn(p, n); err != nil {
			return err
		}
		if sub, ok := n.Content.(Tree); ok {
			if err := sub.walk(p, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Ranges returns the file ranges of the tree in visitation order.
func (t Tree) Ranges() []Range {
	var ranges []Range
	_ = t.Walk(func(_ []string, n Node) error {
		if r, ok := n.Content.(Range); ok {
			ranges = append(ranges, r)
		}
		return nil
	})
	return ranges
}

// Counts returns the number of file and directory nodes in the tree.
func (t Tree) Counts() (files, dirs int) {
	_ = t.Walk(func(_ []string, n Node) error {
		switch n.Content.(type) {
		case Range:
			files++
		case Tree:
			dirs++
		}
		return nil
	})
	return files, dirs
}

// Validate checks that every label is a single path element and every range
// is ordered.
func (t Tree) Validate() error {
	return t.Walk(func(path []string, n Node) error {
		if err := ValidLabel(n.Label); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalid, strings.Join(path, "/"), err)
		}
		switch c := n.Content.(type) {
		case nil, Absent, Tree:
		case Range:
			if c.Start > c.End {
				return fmt.Errorf("%w: %s: range start %d after end %d", ErrInvalid, strings.Join(path, "/"), c.Start, c.End)
			}
		default:
			return fmt.Errorf("%w: %s: unknown content %T", ErrInvalid, strings.Join(path, "/"), c)
		}
		return nil
	})
}

// ValidLabel reports whether label can name a single filesystem entry
// without escaping its parent directory.
func ValidLabel(label string) error {
	switch {
	case label == "":
		return errors.New("empty label")
	case label == "." || label == "..":
		return fmt.Errorf("reserved label %q", label)
	case strings.ContainsAny(label, "/\x00") || strings.ContainsRune(label, filepath.Separator):
		return fmt.Errorf("label %q contains a path separator or NUL", label)
	}
	return nil
}
