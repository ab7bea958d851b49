package http

import "testing"

func TestEqualFold(t *testing.T) {
	testCases := []struct {
		a, b     string
		expected bool
	}{
		{"Connection", "connection", true},
		{"CONNECTION", "connection", true},
		{"content-length", "Content-Length", true},
		{"content-length", "content-type", false},
		{"", "", true},
		{"a", "A", true},
		{"a", "b", false},
		{"Accept-Encoding", "Accept-Encodin", false},
		{"x[y", "X{Y", false},
	}

	for _, tc := range testCases {
		result := equalFold(tc.a, tc.b)

		if result != tc.expected {
			t.Errorf("equalFold(%q, %q) = %v, want %v", tc.a, tc.b, result, tc.expected)
		}
	}
}

func BenchmarkEqualFold(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		equalFold("Transfer-Encoding", "transfer-encoding")
	}
}
