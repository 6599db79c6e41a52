// Package testutil provides helpers shared by package tests.
package testutil

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opencontainers/go-digest"
)

// MockByteSource implements a simple in-memory byte source for tests.
type MockByteSource struct {
	data []byte
	size int64
	err  error
}

// NewMockByteSource returns a byte source backed by the provided data.
func NewMockByteSource(data []byte) *MockByteSource {
	return &MockByteSource{data: data, size: int64(len(data))}
}

// WithReportedSize makes Size report n regardless of the backing data,
// simulating a source that shrank after it was measured.
func (m *MockByteSource) WithReportedSize(n int64) *MockByteSource {
	m.size = n
	return m
}

// WithReadError makes every ReadAt fail with err.
func (m *MockByteSource) WithReadError(err error) *MockByteSource {
	m.err = err
	return m
}

// ReadAt implements io.ReaderAt semantics over the backing slice.
func (m *MockByteSource) ReadAt(p []byte, off int64) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the reported size of the source.
func (m *MockByteSource) Size() int64 {
	return m.size
}

// WriteTree creates files under dir. Keys are slash-separated relative
// paths; a key ending in "/" creates an empty directory.
func WriteTree(tb testing.TB, dir string, files map[string]string) {
	tb.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if strings.HasSuffix(name, "/") {
			if err := os.MkdirAll(path, 0o755); err != nil {
				tb.Fatalf("mkdir %s: %v", name, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			tb.Fatalf("mkdir parent of %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			tb.Fatalf("write %s: %v", name, err)
		}
	}
}

// TreeDigests walks dir and returns a digest for every regular file keyed by
// slash-separated relative path. Directories are keyed with a trailing "/"
// and an empty digest, so two trees compare equal only if their shapes and
// contents match. Symlinks and other file types are ignored.
func TreeDigests(tb testing.TB, dir string) map[string]digest.Digest {
	tb.Helper()
	out := make(map[string]digest.Digest)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		switch {
		case d.IsDir():
			out[rel+"/"] = ""
		case d.Type().IsRegular():
			data, err := os.ReadFile(path) //nolint:gosec // test fixture path
			if err != nil {
				return err
			}
			out[rel] = digest.FromBytes(data)
		}
		return nil
	})
	if err != nil {
		tb.Fatalf("walk %s: %v", dir, err)
	}
	return out
}
