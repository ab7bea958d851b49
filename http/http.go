package http

const (
	DefaultReadBufferSize = 4096 // 4kB
	DefaultMaxHeaders     = 32
	DefaultMaxHeaderLen   = 256
	DefaultMaxMethodLen   = 15
	DefaultMaxBodySize    = 2 * DefaultReadBufferSize
)

const (
	MethodGet  = "GET"
	MethodHead = "HEAD"
	MethodPost = "POST"
	MethodPut  = "PUT"
)

const (
	headerConnection      = "Connection"
	headerContentLength   = "Content-Length"
	headerContentType     = "Content-Type"
	headerContentEncoding = "Content-Encoding"
	headerAcceptEncoding  = "Accept-Encoding"

	connectionClose     = "close"
	connectionKeepAlive = "keep-alive"

	contentTypeHTML = "text/html"
)

var (
	crlf     = []byte("\r\n")
	crlfCrlf = []byte("\r\n\r\n")

	placeholderBody = []byte("<h1>OK</h1><p>Request processed successfully.</p>")
)

// Limits bounds everything the engine allocates on behalf of a peer.
type Limits struct {
	ReadBufferSize int
	MaxHeaders     int
	// MaxHeaderLen includes room for a terminator, so at most MaxHeaderLen-1
	// bytes of a key or value are kept.
	MaxHeaderLen int
	MaxMethodLen int
	// Declared bodies larger than MaxBodySize are not read at all.
	MaxBodySize int
}

func DefaultLimits() Limits {
	return Limits{
		ReadBufferSize: DefaultReadBufferSize,
		MaxHeaders:     DefaultMaxHeaders,
		MaxHeaderLen:   DefaultMaxHeaderLen,
		MaxMethodLen:   DefaultMaxMethodLen,
		MaxBodySize:    DefaultMaxBodySize,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.ReadBufferSize <= 0 {
		l.ReadBufferSize = d.ReadBufferSize
	}
	if l.MaxHeaders <= 0 {
		l.MaxHeaders = d.MaxHeaders
	}
	if l.MaxHeaderLen <= 1 {
		l.MaxHeaderLen = d.MaxHeaderLen
	}
	if l.MaxMethodLen <= 0 {
		l.MaxMethodLen = d.MaxMethodLen
	}
	if l.MaxBodySize <= 0 {
		l.MaxBodySize = 2 * l.ReadBufferSize
	}
	return l
}
