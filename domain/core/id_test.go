package core

import (
	"testing"
	"time"
)

// TestNewRunIDUniqueness tests that NewRunID generates unique identifiers
func TestNewRunIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[RunID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewRunID()
		if ID(id).IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}
}

// TestParseRunID tests run ID parsing
func TestParseRunID(t *testing.T) {
	valid := NewRunID().String()
	tests := []struct {
		input    string
		expected RunID
		hasError bool
	}{
		{valid, RunID(valid), false},
		{"  " + valid + " ", RunID(valid), false},
		{"run-123", "", true},
		{"", "", true},
	}

	for _, test := range tests {
		result, err := ParseRunID(test.input)
		if test.hasError && err == nil {
			t.Errorf("Expected error for input '%s', but got none", test.input)
		}
		if !test.hasError && err != nil {
			t.Errorf("Unexpected error for input '%s': %v", test.input, err)
		}
		if result != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, result)
		}
	}
}

func TestHasherDeterministic(t *testing.T) {
	a := NewHasher().Add("row", "1", "2").Sum()
	b := NewHasher().Add("row", "1", "2").Sum()
	c := NewHasher().Add("row", "12").Sum()

	if a != b {
		t.Errorf("Fingerprints not identical: %s vs %s", a, b)
	}
	if a == c {
		t.Errorf("Separator must distinguish part boundaries")
	}
	if len(a.Short()) != 12 {
		t.Errorf("Short() should be 12 chars, got %q", a.Short())
	}
}

func TestStamp(t *testing.T) {
	ts := time.Date(2024, 3, 9, 7, 5, 1, 0, time.UTC)
	if got := Stamp(ts); got != "20240309_070501" {
		t.Errorf("Stamp() = %s", got)
	}
}
