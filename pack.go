package ezark

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/meigma/ezark/internal/file"
	"github.com/meigma/ezark/internal/index"
	"github.com/meigma/ezark/internal/platform"
)

// Source is a file whose bytes make up part of the blob.
type Source struct {
	// Path is the filesystem path the bytes are read from.
	Path string

	// Size is the number of bytes recorded for Path while packing.
	Size uint64

	// FollowLinks reports whether Path was named directly as an input, in
	// which case a symlink at Path is resolved when its bytes are read.
	FollowLinks bool
}

// Manifest is the in-memory result of packing: the index and the ordered
// list of files whose concatenated bytes form the blob.
type Manifest struct {
	// Index is the archive index, one top-level node per packed input.
	Index Tree

	// Sources lists blob sources in the order their ranges were assigned.
	Sources []Source

	// Size is the total blob length in bytes.
	Size uint64
}

// Pack walks inputs and builds the archive manifest.
//
// Each input becomes one top-level node labeled with its base name: a
// directory becomes a subtree, a regular file becomes a range. Inputs
// named directly are resolved through symlinks; inside directories,
// symlinks are skipped and never followed. Directory entries are visited
// in lexical order.
//
// A missing input fails the whole call with ErrMissingInput before any
// directory is walked. Files that cannot be read are recorded with zero
// length and directories that cannot be listed are recorded empty; both
// are logged rather than returned as errors.
//
// A directory is packed at most once per call. If it is reached again
// through another input it contributes an empty subtree.
func Pack(ctx context.Context, inputs []string, opts ...CreateOption) (*Manifest, error) {
	cfg := newCreateConfig(opts)
	return pack(ctx, inputs, &cfg)
}

func pack(ctx context.Context, inputs []string, cfg *createConfig) (*Manifest, error) {
	tops, err := statInputs(inputs)
	if err != nil {
		return nil, err
	}

	p := &packer{
		cfg:     cfg,
		visited: make(map[string]struct{}),
		buf:     make([]byte, file.BufferSize),
	}

	idx := make(Tree, 0, len(tops))
	for _, in := range tops {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p.excluded(in.path) {
			p.log().Debug("skipped excluded input", "path", in.path)
			continue
		}

		if in.info.IsDir() {
			sub, err := p.packDir(ctx, in.path)
			if err != nil {
				return nil, err
			}
			idx = append(idx, Node{Label: in.label, Content: sub})
			continue
		}

		node, ok, err := p.packFile(ctx, in.path, in.label, true)
		if err != nil {
			return nil, err
		}
		if ok {
			idx = append(idx, node)
		}
	}

	p.log().Debug("archive mapped", "file_count", len(p.sources), "blob_size", p.offset)
	return &Manifest{Index: idx, Sources: p.sources, Size: p.offset}, nil
}

// packInput is a top-level input that passed validation.
type packInput struct {
	path  string
	label string
	info  fs.FileInfo
}

// statInputs checks every input before anything is walked.
func statInputs(inputs []string) ([]packInput, error) {
	tops := make([]packInput, 0, len(inputs))
	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, &fs.PathError{Op: "pack", Path: in, Err: ErrMissingInput}
			}
			return nil, &fs.PathError{Op: "pack", Path: in, Err: unwrapPathError(err)}
		}
		if !info.IsDir() && !info.Mode().IsRegular() {
			return nil, &fs.PathError{Op: "pack", Path: in, Err: fmt.Errorf("%w: not a regular file or directory", ErrInvalidInput)}
		}
		label, err := inputLabel(in)
		if err != nil {
			return nil, &fs.PathError{Op: "pack", Path: in, Err: fmt.Errorf("%w: %w", ErrInvalidInput, err)}
		}
		tops = append(tops, packInput{path: in, label: label, info: info})
	}
	return tops, nil
}

// inputLabel returns the base name used to label a top-level input.
// Relative forms such as "." and "dir/.." take the name of the directory
// they resolve to.
func inputLabel(p string) (string, error) {
	base := filepath.Base(filepath.Clean(p))
	if base == "." || base == ".." {
		base = filepath.Base(resolvePath(p))
	}
	if err := index.ValidLabel(base); err != nil {
		return "", err
	}
	return base, nil
}

// packer holds the traversal state of one Pack call. It is owned by a
// single goroutine.
type packer struct {
	cfg     *createConfig
	visited map[string]struct{}
	offset  uint64
	sources []Source
	buf     []byte
}

func (p *packer) log() *slog.Logger {
	return p.cfg.log()
}

func (p *packer) excluded(path string) bool {
	if len(p.cfg.exclude) == 0 {
		return false
	}
	_, ok := p.cfg.exclude[resolvePath(path)]
	return ok
}

// packDir packs dir depth-first and returns its subtree.
func (p *packer) packDir(ctx context.Context, dir string) (Tree, error) {
	key := resolvePath(dir)
	if _, seen := p.visited[key]; seen {
		p.log().Debug("skipped visited directory", "path", dir)
		return Tree{}, nil
	}

	p.log().Info("mapping directory", "path", dir)
	p.cfg.reportProgress(ProgressEvent{
		Stage:     StageMapping,
		Path:      dir,
		BytesDone: p.offset,
		FilesDone: len(p.sources),
	})

	entries, err := os.ReadDir(dir)
	if err != nil {
		p.log().Warn("cannot list directory, storing it empty", "path", dir, "error", err)
		return Tree{}, nil
	}

	children := make(Tree, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, e.Name())
		if p.excluded(path) {
			p.log().Debug("skipped excluded path", "path", path)
			continue
		}

		typ := e.Type()
		switch {
		case typ&fs.ModeSymlink != 0:
			p.log().Debug("skipped symlink", "path", path)
		case typ.IsDir():
			sub, err := p.packDir(ctx, path)
			if err != nil {
				return nil, err
			}
			children = append(children, Node{Label: e.Name(), Content: sub})
		case typ.IsRegular():
			node, ok, err := p.packFile(ctx, path, e.Name(), false)
			if err != nil {
				return nil, err
			}
			if ok {
				children = append(children, node)
			}
		default:
			p.log().Debug("skipped irregular file", "path", path, "mode", typ.String())
		}
	}

	p.visited[key] = struct{}{}
	return children, nil
}

// packFile measures path and assigns it the next range of the blob.
// ok is false when the entry must be left out of the index.
func (p *packer) packFile(ctx context.Context, path, label string, follow bool) (node Node, ok bool, err error) {
	size, err := p.measure(ctx, path, follow)
	switch {
	case errors.Is(err, ErrSymlink):
		p.log().Debug("skipped symlink", "path", path)
		return Node{}, false, nil
	case ctx.Err() != nil:
		return Node{}, false, ctx.Err()
	case err != nil:
		p.log().Warn("cannot read file, storing it empty", "path", path, "error", err)
		size = 0
	}

	if size > ^uint64(0)-p.offset {
		return Node{}, false, &fs.PathError{Op: "pack", Path: path, Err: ErrSizeOverflow}
	}
	r := Range{Start: p.offset, End: p.offset + size}
	p.offset = r.End
	p.sources = append(p.sources, Source{Path: path, Size: size, FollowLinks: follow})

	p.log().Info("mapping file", "path", path, "size", size)
	p.cfg.reportProgress(ProgressEvent{
		Stage:     StageMapping,
		Path:      path,
		BytesDone: p.offset,
		FilesDone: len(p.sources),
	})
	return Node{Label: label, Content: r}, true, nil
}

// measure reads path to the end and returns its length in bytes.
func (p *packer) measure(ctx context.Context, path string, follow bool) (uint64, error) {
	open := platform.OpenFileNoFollow
	if follow {
		open = os.Open
	}
	f, err := open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	return file.CopyWithContext(ctx, io.Discard, f, p.buf)
}
