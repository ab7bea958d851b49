package http

import (
	"bytes"
	"errors"
)

var ErrMalformedRequestLine = errors.New("http: malformed request line")

type Request struct {
	Method  string
	Path    string
	Headers Headers

	// BodyStart is the offset just past the first CRLFCRLF in the read that
	// carried the request, or -1 when the header block was not terminated.
	BodyStart int

	ContentLength int64
	// BodyTruncated is set when a declared body exceeded Limits.MaxBodySize
	// and was therefore never read.
	BodyTruncated bool
	Body          []byte
}

// ParseRequest parses the request line and header block held in buf. The
// returned request owns copies of everything it references, so buf may be
// reused as soon as ParseRequest returns.
func ParseRequest(buf []byte, limits Limits) (*Request, error) {
	req := &Request{}
	if err := req.Parse(buf, limits); err != nil {
		return nil, err
	}
	return req, nil
}

func (req *Request) Parse(buf []byte, limits Limits) error {
	limits = limits.withDefaults()
	req.Reset(limits)

	path, err := extractPath(buf)
	if err != nil {
		return err
	}
	req.Path = path
	req.Method = extractMethod(buf, limits.MaxMethodLen)

	head := buf
	req.BodyStart = -1
	if i := bytes.Index(buf, crlfCrlf); i >= 0 {
		req.BodyStart = i + len(crlfCrlf)
		// keep the first CRLF of the terminator so the last header line
		// is still CRLF-delimited
		head = buf[:i+len(crlf)]
	}

	parseHeaders(head, &req.Headers)
	return nil
}

func (req *Request) Header(key string) (string, bool) {
	return req.Headers.Get(key)
}

func (req *Request) Reset(limits Limits) {
	req.Method = ""
	req.Path = ""
	req.BodyStart = -1
	req.ContentLength = 0
	req.BodyTruncated = false
	req.Body = nil
	if req.Headers.max != limits.MaxHeaders || req.Headers.maxLen != limits.MaxHeaderLen {
		req.Headers = NewHeaders(limits.MaxHeaders, limits.MaxHeaderLen)
	} else {
		req.Headers.Reset()
	}
}

// extractPath returns the token between the first and second space of the
// request line.
func extractPath(buf []byte) (string, error) {
	line := buf
	if i := bytes.Index(buf, crlf); i >= 0 {
		line = buf[:i]
	}

	start := bytes.IndexByte(line, ' ')
	if start < 0 {
		return "", ErrMalformedRequestLine
	}
	start++

	end := bytes.IndexByte(line[start:], ' ')
	if end <= 0 {
		return "", ErrMalformedRequestLine
	}

	return string(line[start : start+end]), nil
}

// extractMethod returns the first whitespace-delimited token of buf, cut to
// maxLen bytes.
func extractMethod(buf []byte, maxLen int) string {
	i := 0
	for i < len(buf) && isSpace(buf[i]) {
		i++
	}
	j := i
	for j < len(buf) && !isSpace(buf[j]) && j-i < maxLen {
		j++
	}
	return string(buf[i:j])
}

// parseHeaders fills headers from the CRLF-delimited lines that follow the
// request line. It stops at the first empty line, at an unterminated line,
// or once the table is full. Lines without a colon are skipped.
func parseHeaders(head []byte, headers *Headers) int {
	i := bytes.Index(head, crlf)
	if i < 0 {
		return 0
	}
	rest := head[i+len(crlf):]

	for !headers.Full() {
		end := bytes.Index(rest, crlf)
		if end <= 0 {
			break
		}
		line := rest[:end]
		rest = rest[end+len(crlf):]

		colon := bytes.IndexByte(line, ':')
		if colon < 0 {
			continue
		}

		value := line[colon+1:]
		for len(value) > 0 && (value[0] == ' ' || value[0] == '\t') {
			value = value[1:]
		}

		headers.Add(string(line[:colon]), string(value))
	}

	return headers.Len()
}
