// Package point implements ordering over execution points. An execution
// point is an opaque identifier of an instant in a recorded execution,
// encoded as a decimal string. Points can exceed 2^63 so comparisons must go
// through big-integer semantics rather than numeric or lexicographic string
// comparison.
package point

import "math/big"

// parse converts a point string to a big integer. The empty string (used as
// an "unknown point" sentinel) and malformed input both parse as zero so an
// invalid point sorts before every real one.
func parse(p string) *big.Int {
	if p == "" {
		return new(big.Int)
	}
	n, ok := new(big.Int).SetString(p, 10)
	if !ok {
		return new(big.Int)
	}
	return n
}

// Compare returns -1, 0 or 1 as a is before, equal to or after b.
func Compare(a, b string) int {
	return parse(a).Cmp(parse(b))
}

// IsBefore reports whether a strictly precedes b in execution order.
func IsBefore(a, b string) bool {
	return Compare(a, b) < 0
}

// IsAfter reports whether a strictly follows b in execution order.
func IsAfter(a, b string) bool {
	return Compare(a, b) > 0
}

// Min returns the earlier of the two points.
func Min(a, b string) string {
	if Compare(a, b) <= 0 {
		return a
	}
	return b
}

// Max returns the later of the two points.
func Max(a, b string) string {
	if Compare(a, b) >= 0 {
		return a
	}
	return b
}
