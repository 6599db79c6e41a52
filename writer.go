package ezark

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"

	"github.com/meigma/ezark/internal/file"
	"github.com/meigma/ezark/internal/index"
	"github.com/meigma/ezark/internal/platform"
)

// WriteArchive serializes m to w as a single archive stream:
//
//	<decimal index length><index text><blob>
//
// The blob is produced by streaming each source, in order, for exactly the
// size recorded when it was packed. A source that is missing or shorter
// than its recorded size fails with ErrSourceChanged. Bytes appended to a
// source after packing are ignored so that every range stays accurate.
//
// WriteArchive returns the number of bytes written to w. On error, w may
// hold a partial archive; WriteArchive never truncates or removes it.
func WriteArchive(ctx context.Context, w io.Writer, m *Manifest, opts ...CreateOption) (int64, error) {
	cfg := newCreateConfig(opts)
	return writeArchive(ctx, w, m, &cfg)
}

func writeArchive(ctx context.Context, w io.Writer, m *Manifest, cfg *createConfig) (int64, error) {
	if m == nil {
		return 0, errors.New("ezark: nil manifest")
	}
	if err := checkManifest(m); err != nil {
		return 0, err
	}

	indexText, err := index.Encode(m.Index)
	if err != nil {
		return 0, fmt.Errorf("encode index: %w", err)
	}

	cw := &file.CountingWriter{W: w}
	header := strconv.AppendUint(make([]byte, 0, 20), uint64(len(indexText)), 10)
	if _, err := cw.Write(header); err != nil {
		return written(cw), fmt.Errorf("write header: %w", err)
	}
	if _, err := cw.Write(indexText); err != nil {
		return written(cw), fmt.Errorf("write index: %w", err)
	}
	cfg.log().Debug("wrote index", "index_size", len(indexText), "file_count", len(m.Sources))

	buf := make([]byte, file.BufferSize)
	var done uint64
	for i, src := range m.Sources {
		if err := ctx.Err(); err != nil {
			return written(cw), err
		}
		if src.Size > 0 {
			if err := writeSource(ctx, cw, src, buf); err != nil {
				return written(cw), err
			}
		}
		done += src.Size
		cfg.reportProgress(ProgressEvent{
			Stage:      StageWriting,
			Path:       src.Path,
			BytesDone:  done,
			BytesTotal: m.Size,
			FilesDone:  i + 1,
			FilesTotal: len(m.Sources),
		})
	}

	cfg.log().Debug("wrote blob", "blob_size", done)
	return written(cw), nil
}

// checkManifest verifies that the index is well formed and that the
// sources account for exactly the blob the index describes.
func checkManifest(m *Manifest) error {
	if err := m.Index.Validate(); err != nil {
		return err
	}

	var total uint64
	for _, src := range m.Sources {
		if src.Size > ^uint64(0)-total {
			return ErrSizeOverflow
		}
		total += src.Size
	}
	if total != m.Size {
		return fmt.Errorf("%w: sources hold %d bytes, manifest records %d", ErrSizeMismatch, total, m.Size)
	}

	for _, r := range m.Index.Ranges() {
		if r.End > m.Size {
			return fmt.Errorf("%w: range [%d, %d) ends past blob size %d", ErrSizeMismatch, r.Start, r.End, m.Size)
		}
	}
	return nil
}

// writeSource appends exactly src.Size bytes of src.Path to w.
func writeSource(ctx context.Context, w io.Writer, src Source, buf []byte) error {
	if src.Size > math.MaxInt64 {
		return &fs.PathError{Op: "write", Path: src.Path, Err: ErrSizeOverflow}
	}

	open := platform.OpenFileNoFollow
	if src.FollowLinks {
		open = os.Open
	}
	f, err := open(src.Path)
	if err != nil {
		return &fs.PathError{Op: "write", Path: src.Path, Err: fmt.Errorf("%w: %w", ErrSourceChanged, err)}
	}
	defer f.Close()

	n, err := file.CopyWithContext(ctx, w, io.LimitReader(f, int64(src.Size)), buf)
	if err != nil {
		return &fs.PathError{Op: "write", Path: src.Path, Err: err}
	}
	if n != src.Size {
		return &fs.PathError{
			Op:   "write",
			Path: src.Path,
			Err:  fmt.Errorf("%w: read %d of %d bytes", ErrSourceChanged, n, src.Size),
		}
	}
	return nil
}

func written(cw *file.CountingWriter) int64 {
	return int64(cw.N) //nolint:gosec // archive sizes are bounded by int64 file offsets
}
