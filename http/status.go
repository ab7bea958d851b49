package http

import "strconv"

const (
	StatusOK                  uint16 = 200 // RFC 7231, 6.3.1
	StatusBadRequest          uint16 = 400 // RFC 7231, 6.5.1
	StatusForbidden           uint16 = 403 // RFC 7231, 6.5.3
	StatusNotFound            uint16 = 404 // RFC 7231, 6.5.4
	StatusInternalServerError uint16 = 500 // RFC 7231, 6.6.1
	StatusNotImplemented      uint16 = 501 // RFC 7231, 6.6.2
)

var (
	unknownStatusCode = "Unknown Status Code"

	statusMessages = map[uint16]string{
		StatusOK:                  "OK",
		StatusBadRequest:          "Bad Request",
		StatusForbidden:           "Forbidden",
		StatusNotFound:            "Not Found",
		StatusInternalServerError: "Internal Server Error",
		StatusNotImplemented:      "Not Implemented",
	}

	statusDetails = map[uint16]string{
		StatusBadRequest:          "The request line could not be understood.",
		StatusForbidden:           "Access to the requested resource is forbidden.",
		StatusNotFound:            "The requested resource could not be found.",
		StatusInternalServerError: "The server failed to read the requested resource.",
		StatusNotImplemented:      "The request method is not supported.",
	}

	statusLines = func() map[uint16][]byte {
		lines := make(map[uint16][]byte, len(statusMessages))
		for code := range statusMessages {
			lines[code] = buildStatusLine(code)
		}
		return lines
	}()
)

// StatusText returns the reason phrase for code, or "Unknown Status Code".
func StatusText(code uint16) string {
	if msg, ok := statusMessages[code]; ok {
		return msg
	}
	return unknownStatusCode
}

func statusLine(code uint16) []byte {
	if line, ok := statusLines[code]; ok {
		return line
	}
	return buildStatusLine(code)
}

func buildStatusLine(code uint16) []byte {
	line := make([]byte, 0, 32)
	line = append(line, "HTTP/1.1 "...)
	line = strconv.AppendUint(line, uint64(code), 10)
	line = append(line, ' ')
	line = append(line, StatusText(code)...)
	return append(line, crlf...)
}
