package static

import "strings"

const (
	MimeHTML        = "text/html"
	MimeCSS         = "text/css"
	MimeJavaScript  = "application/javascript"
	MimeJPEG        = "image/jpeg"
	MimePNG         = "image/png"
	MimeGIF         = "image/gif"
	MimeJSON        = "application/json"
	MimePDF         = "application/pdf"
	MimeIcon        = "image/x-icon"
	MimeOctetStream = "application/octet-stream"
)

var mimeTypes = map[string]string{
	".html": MimeHTML,
	".htm":  MimeHTML,
	".css":  MimeCSS,
	".js":   MimeJavaScript,
	".jpg":  MimeJPEG,
	".jpeg": MimeJPEG,
	".png":  MimePNG,
	".gif":  MimeGIF,
	".json": MimeJSON,
	".pdf":  MimePDF,
	".ico":  MimeIcon,
}

// MimeType classifies path by the suffix after its last dot. The match is
// case-sensitive, so "INDEX.HTML" is served as application/octet-stream.
func MimeType(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return MimeOctetStream
	}

	if mime, ok := mimeTypes[path[i:]]; ok {
		return mime
	}
	return MimeOctetStream
}

// Compressible reports whether responses of this type may be gzipped.
func Compressible(mime string) bool {
	switch mime {
	case MimeHTML, MimeCSS, MimeJavaScript:
		return true
	}
	return false
}
