package http

import (
	"io"
)

// ReadBody completes the body of req. buf[:n] is the read that carried the
// request head; any bytes in it past req.BodyStart are used first and the
// rest is pulled from r. A short body caused by the peer closing early is
// returned as is.
//
// A declared length above limits.MaxBodySize is not read: the request is
// marked BodyTruncated and carries no body.
func ReadBody(r io.Reader, req *Request, buf []byte, n int, limits Limits) []byte {
	limits = limits.withDefaults()

	v, ok := req.Header(headerContentLength)
	if !ok {
		return nil
	}
	req.ContentLength = parseContentLength(v)
	if req.ContentLength <= 0 || req.BodyStart < 0 {
		return nil
	}
	if req.ContentLength > int64(limits.MaxBodySize) {
		req.BodyTruncated = true
		return nil
	}

	contentLength := int(req.ContentLength)
	body := make([]byte, contentLength)

	already := 0
	if req.BodyStart < n {
		already = copy(body, buf[req.BodyStart:n])
	}

	total := already
	for total < contentLength {
		m, err := r.Read(body[total:])
		if m > 0 {
			total += m
		}
		if err != nil || m <= 0 {
			break
		}
	}

	return body[:total]
}
