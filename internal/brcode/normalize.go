// Package brcode builds static Pix BR Codes: the EMV-style tag-length-value
// payload a banking app scans to pay a fixed amount to a fixed beneficiary.
// Everything in this package is pure and stateless; the same inputs always
// produce the same payload, so it is safe to call concurrently.
package brcode

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/pedidofacil/pix-checkout-go/internal/domain"
)

// stripMarks decomposes accented characters and removes the combining
// marks, so "São Paulo" becomes "Sao Paulo".
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize prepares a human-readable field for the payload: decomposes
// accents to their base form, uppercases, drops every character outside
// [A-Z0-9 ], trims surrounding whitespace and truncates to maxLen.
// Returns ErrNormalization when the result is empty. Idempotent.
func Normalize(s string, maxLen int) (string, error) {
	stripped, _, err := transform.String(stripMarks, s)
	if err != nil {
		// Malformed UTF-8; fall back to the raw input, the charset
		// filter below drops anything non-ASCII anyway.
		stripped = s
	}

	var b strings.Builder
	for _, r := range strings.ToUpper(stripped) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == ' ' {
			b.WriteRune(r)
		}
	}

	out := strings.TrimSpace(b.String())
	if maxLen > 0 && len(out) > maxLen {
		// Trim again: truncation may expose a trailing space.
		out = strings.TrimRight(out[:maxLen], " ")
	}

	if out == "" {
		return "", &domain.ErrNormalization{Input: s}
	}
	return out, nil
}
