package static

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/freekieb7/hearth/filesystem"
)

var (
	ErrForbidden = errors.New("static: forbidden")
	ErrNotFound  = errors.New("static: not found")
	ErrInternal  = errors.New("static: internal error")
)

const indexPath = "/index.html"

type Resource struct {
	Path            string
	ContentType     string
	ContentEncoding string
	Body            []byte
}

type Resolver struct {
	FS     filesystem.Filesystem
	Logger *slog.Logger
}

func NewResolver(root string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}

	return &Resolver{
		FS:     filesystem.NewLocalFileSystem(root),
		Logger: logger,
	}
}

// Resolve maps a request path to the bytes to send. Errors are one of
// ErrForbidden, ErrNotFound or ErrInternal, possibly wrapped.
//
// Any path containing ".." is refused outright; the check is a plain
// substring match, so names like "a..b.html" are refused too.
func (r *Resolver) Resolve(path, acceptEncoding string) (*Resource, error) {
	if strings.Contains(path, "..") {
		return nil, fmt.Errorf("%w: %q", ErrForbidden, path)
	}

	if path == "/" {
		path = indexPath
	}

	info, err := r.FS.FileMetaData(path)
	if err != nil {
		if errors.Is(err, filesystem.ErrFileNotFound) || errors.Is(err, filesystem.ErrInvalidPath) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrForbidden, path)
	}

	content, err := r.FS.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	res := &Resource{
		Path:        path,
		ContentType: MimeType(path),
		Body:        content,
	}

	if Compressible(res.ContentType) && AcceptsGzip(acceptEncoding) {
		r.compress(res)
	}

	return res, nil
}

// compress swaps in the gzipped body only when it is strictly smaller.
func (r *Resolver) compress(res *Resource) {
	compressed, err := Gzip(res.Body)
	if err != nil {
		if !errors.Is(err, ErrEmptyInput) {
			r.Logger.Warn("gzip failed, sending uncompressed", "path", res.Path, "error", err)
		}
		return
	}

	if len(compressed) >= len(res.Body) {
		return
	}

	res.Body = compressed
	res.ContentEncoding = EncodingGzip
}
