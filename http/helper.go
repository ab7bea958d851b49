package http

// parseContentLength reads a decimal the way C atol does: optional leading
// whitespace and sign, then as many digits as follow. Anything unparsable
// yields 0.
func parseContentLength(s string) int64 {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}

	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}

	var n int64
	for ; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		if n > (1<<62)/10 {
			// saturate instead of overflowing
			n = 1 << 62
			continue
		}
		n = n*10 + int64(c-'0')
	}

	if neg {
		return -n
	}
	return n
}
