package ezark

import (
	"errors"

	"github.com/meigma/ezark/internal/index"
	"github.com/meigma/ezark/internal/platform"
)

// Sentinel errors. Failures tied to a path are returned as *fs.PathError
// wrapping one of these; use errors.Is to match them.
var (
	// ErrMissingInput is returned when a pack input does not exist.
	ErrMissingInput = errors.New("ezark: missing input")

	// ErrInvalidInput is returned when a pack input cannot be archived,
	// such as a filesystem root or a device node.
	ErrInvalidInput = errors.New("ezark: invalid input")

	// ErrSizeOverflow is returned when blob offsets exceed supported limits.
	ErrSizeOverflow = errors.New("ezark: size overflow")

	// ErrSizeMismatch is returned when a manifest's sources do not add up
	// to its blob size.
	ErrSizeMismatch = errors.New("ezark: blob size mismatch")

	// ErrSourceChanged is returned when a source file shrank or vanished
	// between packing and writing.
	ErrSourceChanged = errors.New("ezark: source changed during archive creation")

	// ErrInvalidIndex is returned when an index tree breaks a structural
	// rule, such as a label containing a path separator.
	ErrInvalidIndex = index.ErrInvalid

	// ErrCorruptHeader is returned when the length prefix is malformed.
	ErrCorruptHeader = errors.New("ezark: corrupt header")

	// ErrCorruptArchive is returned when the index text is malformed or a
	// range points outside the blob.
	ErrCorruptArchive = errors.New("ezark: corrupt archive")

	// ErrConflict is returned when extraction finds an existing entry it
	// must not replace, such as a file where a directory belongs.
	ErrConflict = errors.New("ezark: extraction conflict")

	// ErrSymlink is returned by the platform layer when a path turned out to
	// be a symbolic link. Packing treats it as a skip, never as a failure.
	ErrSymlink = platform.ErrSymlink
)
