package ezark

import (
	"bufio"
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/meigma/ezark/internal/file"
)

// Create packs inputs and writes the archive to the file dest.
//
// Packing runs first, so a missing input fails before dest is touched.
// dest itself is excluded from packing, which keeps an archive written
// inside one of its inputs out of its own blob. dest is created or
// truncated and written through a buffered writer.
//
// A failure after dest was opened leaves a partial archive behind; Create
// does not remove it.
//
// The context can be used for cancellation of long-running archive creation.
func Create(ctx context.Context, dest string, inputs []string, opts ...CreateOption) (m *Manifest, err error) {
	cfg := newCreateConfig(append(opts[:len(opts):len(opts)], WithExclude(dest)))

	m, err = pack(ctx, inputs, &cfg)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(dest) //nolint:gosec // dest is a caller-chosen output path
	if err != nil {
		return nil, &fs.PathError{Op: "create", Path: dest, Err: unwrapPathError(err)}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			m, err = nil, &fs.PathError{Op: "create", Path: dest, Err: cerr}
		}
	}()

	bw := bufio.NewWriterSize(f, file.BufferSize)
	n, err := writeArchive(ctx, bw, m, &cfg)
	if err != nil {
		return nil, err
	}
	if err := bw.Flush(); err != nil {
		return nil, &fs.PathError{Op: "create", Path: dest, Err: unwrapPathError(err)}
	}

	cfg.log().Debug("archive created", "path", dest, "archive_size", n)
	return m, nil
}

// unwrapPathError strips an *fs.PathError so that the path is not repeated
// when the error is rewrapped with a different operation.
func unwrapPathError(err error) error {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}
