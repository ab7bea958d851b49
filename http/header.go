package http

type Header struct {
	Key   string
	Value string
}

// Headers is an ordered, capacity-bounded header table. Keys keep the case
// they were sent with; lookups fold case and the first match wins.
type Headers struct {
	entries []Header
	max     int
	maxLen  int
}

func NewHeaders(maxHeaders, maxLen int) Headers {
	return Headers{
		entries: make([]Header, 0, maxHeaders),
		max:     maxHeaders,
		maxLen:  maxLen,
	}
}

// Add appends a header, truncating key and value to maxLen-1 bytes. It
// reports false once the table is full.
func (h *Headers) Add(key, value string) bool {
	if h.Full() {
		return false
	}

	h.entries = append(h.entries, Header{
		Key:   h.truncate(key),
		Value: h.truncate(value),
	})
	return true
}

func (h *Headers) truncate(s string) string {
	if h.maxLen > 0 && len(s) > h.maxLen-1 {
		return s[:h.maxLen-1]
	}
	return s
}

func (h *Headers) Full() bool {
	return h.max > 0 && len(h.entries) >= h.max
}

func (h *Headers) Get(key string) (string, bool) {
	for i := range h.entries {
		if equalFold(h.entries[i].Key, key) {
			return h.entries[i].Value, true
		}
	}
	return "", false
}

func (h *Headers) Len() int {
	return len(h.entries)
}

func (h *Headers) All() []Header {
	return h.entries
}

func (h *Headers) Reset() {
	h.entries = h.entries[:0]
}
