package ezark

import (
	"bufio"
	"io"
	"strings"
)

const (
	printIndent = "|   "
	printBranch = "|---"
)

// printConfig holds configuration for PrintTree.
type printConfig struct {
	dirStyle func(string) string
}

// PrintOption configures PrintTree.
type PrintOption func(*printConfig)

// PrintWithDirStyle decorates directory labels, for example with color
// escapes. File labels are printed as stored.
func PrintWithDirStyle(fn func(string) string) PrintOption {
	return func(cfg *printConfig) {
		cfg.dirStyle = fn
	}
}

// PrintTree writes t to w as an indented outline, one node per line.
//
// Top-level labels are printed alone. A node at depth d > 0 is prefixed by
// d-1 copies of "|   " followed by "|---":
//
//	proj
//	|---readme.txt
//	|---src
//	|   |---a.txt
//
// Only write errors are returned.
func PrintTree(w io.Writer, t Tree, opts ...PrintOption) error {
	cfg := printConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	bw := bufio.NewWriter(w)
	err := t.Walk(func(path []string, n Node) error {
		depth := len(path) - 1
		if depth > 0 {
			bw.WriteString(strings.Repeat(printIndent, depth-1))
			bw.WriteString(printBranch)
		}
		label := n.Label
		if cfg.dirStyle != nil && n.IsDir() {
			label = cfg.dirStyle(label)
		}
		bw.WriteString(label)
		return bw.WriteByte('\n')
	})
	if err != nil {
		return err
	}
	return bw.Flush()
}

// PrintTree writes the archive's index to w. It never reads the blob.
func (a *Archive) PrintTree(w io.Writer, opts ...PrintOption) error {
	return PrintTree(w, a.index, opts...)
}
