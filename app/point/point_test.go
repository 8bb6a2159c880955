package point

import "testing"

// TestCompare tests big-integer ordering of execution point strings
func TestCompare(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected int
	}{
		{name: "simple less", a: "1", b: "2", expected: -1},
		{name: "simple greater", a: "10", b: "9", expected: 1},
		{name: "equal", a: "42", b: "42", expected: 0},
		{name: "different lengths", a: "9", b: "100", expected: -1},
		{name: "beyond int64", a: "18446744073709551617", b: "18446744073709551616", expected: 1},
		{name: "beyond float64 precision", a: "9007199254740993", b: "9007199254740992", expected: 1},
		{name: "empty sorts first", a: "", b: "1", expected: -1},
		{name: "both empty", a: "", b: "", expected: 0},
		{name: "malformed treated as zero", a: "not-a-point", b: "1", expected: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.a, tt.b); got != tt.expected {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestMinMax(t *testing.T) {
	if got := Min("100", "99"); got != "99" {
		t.Errorf("Min = %q, want %q", got, "99")
	}
	if got := Max("100", "99"); got != "100" {
		t.Errorf("Max = %q, want %q", got, "100")
	}
	// Ties keep the first argument
	if got := Min("7", "7"); got != "7" {
		t.Errorf("Min tie = %q, want %q", got, "7")
	}
	if !IsBefore("99", "100") {
		t.Error("IsBefore(99, 100) = false, want true")
	}
	if !IsAfter("100", "99") {
		t.Error("IsAfter(100, 99) = false, want true")
	}
}
