//go:build !unix

package platform

import (
	"errors"
	"io/fs"
	"os"
)

// ErrSymlink is returned when attempting to open a symbolic link.
var ErrSymlink = errors.New("symbolic links not supported")

// OpenFileNoFollow opens a file for reading without following symlinks.
// Returns ErrSymlink if the path is a symbolic link.
func OpenFileNoFollow(name string) (*os.File, error) {
	if err := checkNotSymlink(name); err != nil {
		return nil, err
	}
	return os.Open(name)
}

// CreateFileNoFollow creates or truncates a file for writing without
// following a symlink at name. Returns ErrSymlink if name is a symbolic link.
func CreateFileNoFollow(name string, perm os.FileMode) (*os.File, error) {
	if err := checkNotSymlink(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
}

func checkNotSymlink(name string) error {
	info, err := os.Lstat(name)
	if err != nil {
		return err
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		return ErrSymlink
	}
	return nil
}
