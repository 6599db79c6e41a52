package ezark

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/ezark/internal/file"
	"github.com/meigma/ezark/internal/platform"
)

// ExtractStats summarizes an extraction.
type ExtractStats struct {
	// Files is the number of files written.
	Files int

	// Dirs is the number of directories created. Directories that already
	// existed are reused and not counted.
	Dirs int

	// Bytes is the number of file bytes written.
	Bytes uint64
}

// Extract recreates the archive's tree under destDir.
//
// destDir is created with its parents if needed. Existing directories are
// reused and existing files are truncated and overwritten. An existing
// entry that is not a directory where the archive has one, or a symlink
// where the archive has a file, fails with ErrConflict. A range that ends
// past the blob fails with ErrCorruptArchive. Nodes with absent content
// produce nothing.
//
// The stats returned are valid even when an error is returned and count
// the work done up to the failure.
func (a *Archive) Extract(ctx context.Context, destDir string, opts ...ExtractOption) (ExtractStats, error) {
	cfg := extractConfig{logger: a.logger}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil { //nolint:gosec // extracted trees are meant to be shared
		return ExtractStats{}, &fs.PathError{Op: "extract", Path: destDir, Err: unwrapPathError(err)}
	}

	x := &extractor{
		cfg:  &cfg,
		blob: a.blob,
	}
	if cfg.progress != nil {
		x.filesTotal, _ = a.index.Counts()
		for _, r := range a.index.Ranges() {
			x.bytesTotal += r.Len()
		}
	}

	var err error
	if cfg.workers > 1 {
		walkCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		g, gctx := errgroup.WithContext(walkCtx)
		g.SetLimit(cfg.workers)
		x.group = g
		err = x.extractTree(gctx, destDir, a.index)
		if err != nil {
			cancel()
		}
		if werr := g.Wait(); err == nil {
			err = werr
		}
	} else {
		x.buf = make([]byte, file.BufferSize)
		err = x.extractTree(ctx, destDir, a.index)
	}

	stats := x.stats()
	cfg.log().Debug("extraction finished",
		"path", destDir,
		"file_count", stats.Files,
		"dir_count", stats.Dirs,
		"bytes", stats.Bytes)
	return stats, err
}

// extractor holds the state of one Extract call. Traversal runs on one
// goroutine; when group is set, file contents are written by its workers.
type extractor struct {
	cfg   *extractConfig
	blob  *io.SectionReader
	group *errgroup.Group
	buf   []byte

	filesTotal int
	bytesTotal uint64

	files atomic.Int64
	dirs  atomic.Int64
	bytes atomic.Uint64
}

func (x *extractor) stats() ExtractStats {
	return ExtractStats{
		Files: int(x.files.Load()),
		Dirs:  int(x.dirs.Load()),
		Bytes: x.bytes.Load(),
	}
}

func (x *extractor) extractTree(ctx context.Context, base string, t Tree) error {
	for _, n := range t {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(base, n.Label)

		switch c := n.Content.(type) {
		case Tree:
			if err := x.ensureDir(path); err != nil {
				return err
			}
			if err := x.extractTree(ctx, path, c); err != nil {
				return err
			}
		case Range:
			if err := x.extractFile(ctx, path, c); err != nil {
				return err
			}
		default:
			// Absent content has nothing to materialize.
		}
	}
	return nil
}

// ensureDir makes sure path is a directory, creating one level if missing.
func (x *extractor) ensureDir(path string) error {
	info, err := os.Lstat(path)
	switch {
	case err == nil && info.IsDir():
		return nil
	case err == nil:
		return &fs.PathError{
			Op:   "extract",
			Path: path,
			Err:  fmt.Errorf("%w: existing %s entry where a directory belongs", ErrConflict, describeMode(info.Mode())),
		}
	case !errors.Is(err, fs.ErrNotExist):
		return &fs.PathError{Op: "extract", Path: path, Err: unwrapPathError(err)}
	}

	x.cfg.log().Info("extracting directory", "path", path)
	if err := os.Mkdir(path, 0o755); err != nil { //nolint:gosec // extracted trees are meant to be shared
		return &fs.PathError{Op: "extract", Path: path, Err: unwrapPathError(err)}
	}
	x.dirs.Add(1)
	return nil
}

func (x *extractor) extractFile(ctx context.Context, path string, r Range) error {
	if r.End > uint64(x.blob.Size()) { //nolint:gosec // section sizes are never negative
		return &fs.PathError{
			Op:   "extract",
			Path: path,
			Err:  fmt.Errorf("%w: range [%d, %d) exceeds blob length %d", ErrCorruptArchive, r.Start, r.End, x.blob.Size()),
		}
	}

	x.cfg.log().Info("extracting file", "path", path, "size", r.Len())
	if x.group == nil {
		return x.writeFile(ctx, path, r, x.buf)
	}
	x.group.Go(func() error {
		return x.writeFile(ctx, path, r, nil)
	})
	return nil
}

// writeFile creates or truncates path and fills it with the blob bytes of r.
// A nil buf allocates a fresh buffer.
func (x *extractor) writeFile(ctx context.Context, path string, r Range, buf []byte) (err error) {
	f, err := platform.CreateFileNoFollow(path, 0o644)
	if err != nil {
		if errors.Is(err, ErrSymlink) {
			return &fs.PathError{Op: "extract", Path: path, Err: fmt.Errorf("%w: refusing to write through a symlink", ErrConflict)}
		}
		return &fs.PathError{Op: "extract", Path: path, Err: unwrapPathError(err)}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &fs.PathError{Op: "extract", Path: path, Err: unwrapPathError(cerr)}
		}
	}()

	//nolint:gosec // Start <= End <= blob size, checked by extractFile
	section := io.NewSectionReader(x.blob, int64(r.Start), int64(r.Len()))
	n, err := file.CopyWithContext(ctx, f, section, buf)
	x.bytes.Add(n)
	if err != nil {
		return &fs.PathError{Op: "extract", Path: path, Err: unwrapPathError(err)}
	}
	if n != r.Len() {
		return &fs.PathError{
			Op:   "extract",
			Path: path,
			Err:  fmt.Errorf("%w: read %d of %d bytes", ErrCorruptArchive, n, r.Len()),
		}
	}

	files := x.files.Add(1)
	x.cfg.reportProgress(ProgressEvent{
		Stage:      StageExtracting,
		Path:       path,
		BytesDone:  x.bytes.Load(),
		BytesTotal: x.bytesTotal,
		FilesDone:  int(files),
		FilesTotal: x.filesTotal,
	})
	return nil
}

func describeMode(m fs.FileMode) string {
	switch {
	case m&fs.ModeSymlink != 0:
		return "symlink"
	case m.IsRegular():
		return "file"
	default:
		return m.Type().String()
	}
}
