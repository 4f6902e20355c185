package client

import "strings"

// NormalizeIDNumber reduces a national ID in any legacy spelling to its
// canonical form: digits only, no leading zeros, and without the trailing
// check-digit padding some exports append.
func NormalizeIDNumber(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := strings.TrimLeft(b.String(), "0")

	for len(digits) > 8 && strings.HasSuffix(digits, "0") {
		digits = digits[:len(digits)-1]
	}
	if len(digits) == 8 && strings.HasSuffix(digits, "0") {
		digits = digits[:len(digits)-1]
	}
	return digits
}

// NormalizeIDNumberPtr is NormalizeIDNumber for nullable inputs
func NormalizeIDNumberPtr(raw *string) string {
	if raw == nil {
		return ""
	}
	return NormalizeIDNumber(*raw)
}
