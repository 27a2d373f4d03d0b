package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"unicode"
)

// Slugify lowercases a display name and collapses every run of
// non-alphanumeric characters into a single hyphen.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// RandomSuffix returns n random bytes hex-encoded, for synthesizing
// unique references when the upstream record carries no stable id.
func RandomSuffix(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return strings.Repeat("0", n*2)
	}
	return hex.EncodeToString(buf)
}
