package ezark

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/meigma/ezark/internal/index"
)

// maxHeaderDigits is the number of decimal digits in the largest uint64.
const maxHeaderDigits = 20

// ByteSource provides random access to an archive.
//
// *bytes.Reader satisfies it; OpenFile wraps *os.File.
type ByteSource interface {
	io.ReaderAt
	Size() int64
}

// Header describes where the parts of an archive live.
type Header struct {
	// IndexOffset is the offset of the index text, equal to the number of
	// header digits.
	IndexOffset int64

	// IndexLen is the index text length the header declares.
	IndexLen int64

	// BlobOffset is the offset of the first blob byte.
	BlobOffset int64

	// BlobLen is the number of blob bytes.
	BlobLen int64
}

// ReadHeader parses the decimal length prefix of the archive in source.
//
// The prefix is a run of 1 to 20 ASCII digits. The byte that ends it must
// be '{', the first byte of the index text; it is counted inside the
// declared length and is not consumed. Malformed prefixes fail with
// ErrCorruptHeader and a declared length larger than the remaining data
// fails with ErrCorruptArchive.
func ReadHeader(source ByteSource) (Header, error) {
	size := source.Size()
	buf := make([]byte, maxHeaderDigits+1)
	n, err := source.ReadAt(buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return Header{}, fmt.Errorf("read header: %w", err)
	}
	buf = buf[:n]

	var (
		digits int
		length uint64
	)
	for digits < len(buf) && isDigit(buf[digits]) {
		d := uint64(buf[digits] - '0')
		if length > (^uint64(0)-d)/10 {
			return Header{}, fmt.Errorf("%w: length does not fit in 64 bits", ErrCorruptHeader)
		}
		length = length*10 + d
		digits++
	}

	switch {
	case digits == 0:
		return Header{}, fmt.Errorf("%w: missing length prefix", ErrCorruptHeader)
	case digits > maxHeaderDigits:
		return Header{}, fmt.Errorf("%w: length prefix longer than %d digits", ErrCorruptHeader, maxHeaderDigits)
	case digits == len(buf):
		return Header{}, fmt.Errorf("%w: no index after length prefix", ErrCorruptHeader)
	case buf[digits] != index.OpenByte:
		return Header{}, fmt.Errorf("%w: unexpected byte %q after length prefix", ErrCorruptHeader, buf[digits])
	}

	off := int64(digits)
	if length > uint64(size-off) { //nolint:gosec // size-off is positive: a terminator byte was read past off
		return Header{}, fmt.Errorf("%w: index length %d exceeds remaining %d bytes", ErrCorruptArchive, length, size-off)
	}
	indexLen := int64(length) //nolint:gosec // bounded by size above

	return Header{
		IndexOffset: off,
		IndexLen:    indexLen,
		BlobOffset:  off + indexLen,
		BlobLen:     size - off - indexLen,
	}, nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// readerConfig holds configuration for opening archives.
type readerConfig struct {
	logger *slog.Logger
}

// Option configures New and OpenFile.
type Option func(*readerConfig)

// WithReaderLogger sets the logger used while opening an archive.
func WithReaderLogger(l *slog.Logger) Option {
	return func(cfg *readerConfig) {
		cfg.logger = l
	}
}

func (cfg *readerConfig) log() *slog.Logger {
	if cfg.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return cfg.logger
}

// Archive is a decoded archive: its index and a view of its blob.
//
// An Archive is safe for concurrent use. It does not own source; callers
// that opened a file should use OpenFile and close the ArchiveFile.
type Archive struct {
	header Header
	index  Tree
	blob   *io.SectionReader
	logger *slog.Logger

	statsOnce sync.Once
	stats     Stats
}

// New reads the header and index of the archive in source.
//
// The index is decoded and validated eagerly. Blob bytes are read later, on
// demand, through the returned Archive.
func New(source ByteSource, opts ...Option) (*Archive, error) {
	cfg := readerConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	h, err := ReadHeader(source)
	if err != nil {
		return nil, err
	}

	text := make([]byte, h.IndexLen)
	n, err := source.ReadAt(text, h.IndexOffset)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read index: %w", err)
	}
	if n != len(text) {
		return nil, fmt.Errorf("%w: read %d of %d index bytes", ErrCorruptArchive, n, len(text))
	}

	t, err := index.Decode(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptArchive, err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptArchive, err)
	}

	cfg.log().Debug("archive opened",
		"index_size", h.IndexLen,
		"blob_size", h.BlobLen)

	return &Archive{
		header: h,
		index:  t,
		blob:   io.NewSectionReader(source, h.BlobOffset, h.BlobLen),
		logger: cfg.logger,
	}, nil
}

// Header returns the archive's layout.
func (a *Archive) Header() Header {
	return a.header
}

// Index returns the archive index. The tree is shared and must not be
// modified.
func (a *Archive) Index() Tree {
	return a.index
}

// Blob returns a reader over the blob. Range offsets are relative to it.
func (a *Archive) Blob() *io.SectionReader {
	return io.NewSectionReader(a.blob, 0, a.blob.Size())
}
