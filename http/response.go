package http

import (
	"bufio"
	"fmt"
	"strconv"
)

type Response struct {
	Status          uint16
	ContentType     string
	ContentEncoding string
	Body            []byte

	// OmitBody keeps Content-Length describing Body but never writes it,
	// which is what HEAD needs.
	OmitBody bool
	// Written counts the body bytes put on the wire by the last WriteTo.
	Written int
}

func (res *Response) Reset() {
	res.Status = StatusOK
	res.ContentType = ""
	res.ContentEncoding = ""
	res.Body = nil
	res.OmitBody = false
	res.Written = 0
}

func (res *Response) WithStatus(status uint16) *Response {
	res.Status = status
	return res
}

func (res *Response) WithBody(contentType string, body []byte) *Response {
	res.ContentType = contentType
	res.Body = body
	return res
}

// WithError replaces the response with the HTML error page for status.
func (res *Response) WithError(status uint16) *Response {
	res.Status = status
	res.ContentType = contentTypeHTML
	res.ContentEncoding = ""
	res.Body = errorPage(status)
	return res
}

func errorPage(status uint16) []byte {
	text := StatusText(status)
	detail, ok := statusDetails[status]
	if !ok {
		detail = text
	}
	return fmt.Appendf(nil,
		"<html><head><title>%d %s</title></head><body><h1>Error %d: %s</h1><p>%s</p></body></html>",
		status, text, status, text, detail)
}

// WriteTo writes the status line, the header block and, unless OmitBody is
// set, the body to bw and flushes it.
func (res *Response) WriteTo(bw *bufio.Writer, keepAlive bool) error {
	res.Written = 0

	contentType := res.ContentType
	if contentType == "" {
		contentType = contentTypeHTML
	}

	bw.Write(statusLine(res.Status))
	writeHeader(bw, headerContentType, contentType)
	if res.ContentEncoding != "" {
		writeHeader(bw, headerContentEncoding, res.ContentEncoding)
	}
	bw.WriteString(headerContentLength)
	bw.WriteString(": ")
	var num [20]byte
	bw.Write(strconv.AppendInt(num[:0], int64(len(res.Body)), 10))
	bw.Write(crlf)
	if keepAlive {
		writeHeader(bw, headerConnection, connectionKeepAlive)
	} else {
		writeHeader(bw, headerConnection, connectionClose)
	}
	bw.Write(crlf)

	if !res.OmitBody && len(res.Body) > 0 {
		if _, err := bw.Write(res.Body); err != nil {
			return err
		}
	}

	if err := bw.Flush(); err != nil {
		return err
	}

	if !res.OmitBody {
		res.Written = len(res.Body)
	}
	return nil
}

func writeHeader(bw *bufio.Writer, key, value string) {
	bw.WriteString(key)
	bw.WriteString(": ")
	bw.WriteString(value)
	bw.Write(crlf)
}
