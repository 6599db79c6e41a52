package ezark

import "github.com/meigma/ezark/internal/index"

// --- Re-exports from internal/index ---

type (
	// Tree is an ordered list of index nodes: the top level of an archive
	// index, and the content of every directory node.
	Tree = index.Tree

	// Node is a labeled index entry.
	Node = index.Node

	// Content is the payload of a Node: Range, Tree or Absent.
	Content = index.Content

	// Range is a half-open byte interval [Start, End) into the blob.
	Range = index.Range

	// Absent is content with no payload.
	Absent = index.Absent
)

// Constructors re-exported from internal/index.
var (
	// FileNode returns a node for a file occupying [start, end) in the blob.
	FileNode = index.File

	// DirNode returns a directory node with the given children.
	DirNode = index.Dir
)

// EncodeIndex serializes t to the archive's index text.
func EncodeIndex(t Tree) ([]byte, error) {
	return index.Encode(t)
}

// DecodeIndex parses index text produced by EncodeIndex.
func DecodeIndex(data []byte) (Tree, error) {
	return index.Decode(data)
}
