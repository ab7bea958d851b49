package test

import (
	"strings"
	"testing"
)

func AssertEqual[T comparable](t *testing.T, expected, actual T) bool {
	t.Helper()

	if expected != actual {
		t.Errorf(""+
			"Not equal: \n"+
			"Expected: %v\n"+
			"Actual: %v", expected, actual)
		return false
	}

	return true
}

func AssertContains(t *testing.T, s, substr string) bool {
	t.Helper()

	if !strings.Contains(s, substr) {
		t.Errorf(""+
			"Missing substring: \n"+
			"Expected to contain: %q\n"+
			"Actual: %q", substr, s)
		return false
	}

	return true
}

func AssertNoError(t *testing.T, err error) bool {
	t.Helper()

	if err != nil {
		t.Errorf("Unexpected error: %v", err)
		return false
	}

	return true
}
