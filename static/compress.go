package static

import (
	"bytes"
	"errors"
	"strings"

	"github.com/klauspost/compress/gzip"
)

const EncodingGzip = "gzip"

var ErrEmptyInput = errors.New("static: nothing to compress")

// AcceptsGzip reports whether an Accept-Encoding value mentions gzip
// anywhere, without parsing q-values.
func AcceptsGzip(acceptEncoding string) bool {
	return strings.Contains(acceptEncoding, EncodingGzip)
}

// Gzip compresses data in one shot at the default level.
func Gzip(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}

	var b bytes.Buffer
	b.Grow(len(data) / 2)

	gz, err := gzip.NewWriterLevel(&b, gzip.DefaultCompression)
	if err != nil {
		return nil, err
	}

	if _, err := gz.Write(data); err != nil {
		gz.Close()
		return nil, err
	}

	// Explicitly close the writer: https://www.joeshaw.org/dont-defer-close-on-writable-files/
	if err := gz.Close(); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}
