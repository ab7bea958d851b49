package filesystem

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Error constants for better error handling
var (
	ErrFileNotFound = errors.New("filesystem: file not found")
	ErrNotRegular   = errors.New("filesystem: not a regular file")
	ErrShortRead    = errors.New("filesystem: short read")
	ErrInvalidPath  = errors.New("filesystem: invalid path")
)

// Filesystem is a read-only view of the files under a single root. Paths
// are request paths such as "/css/site.css" and are appended to the root
// verbatim; callers are responsible for rejecting traversal.
type Filesystem interface {
	ReadFile(path string) ([]byte, error)
	FileMetaData(path string) (os.FileInfo, error)
}

type localFileSystem struct {
	root string
}

func NewLocalFileSystem(root string) Filesystem {
	return &localFileSystem{root: root}
}

// absolutePath returns the on-disk path for a request path: the root
// followed by the path, without any cleaning.
func (filesystem *localFileSystem) absolutePath(path string) (string, error) {
	if path == "" || path[0] != '/' {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return filesystem.root + path, nil
}

// FileMetaData stats the file. Any stat failure is reported as
// ErrFileNotFound since the caller cannot tell them apart usefully.
func (filesystem *localFileSystem) FileMetaData(path string) (os.FileInfo, error) {
	fullPath, err := filesystem.absolutePath(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFileNotFound, path, err)
	}

	return info, nil
}

// ReadFile reads the whole regular file at path. It fails with
// ErrShortRead when fewer bytes than the stat size could be read.
func (filesystem *localFileSystem) ReadFile(path string) ([]byte, error) {
	info, err := filesystem.FileMetaData(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegular, path)
	}

	fullPath, _ := filesystem.absolutePath(path)
	file, err := os.Open(fullPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			slog.Error("closing file error", "path", fullPath, "error", closeErr)
		}
	}()

	content := make([]byte, info.Size())
	if _, err := io.ReadFull(file, content); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s", ErrShortRead, path)
		}
		return nil, err
	}

	return content, nil
}
