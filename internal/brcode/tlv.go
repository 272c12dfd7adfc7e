package brcode

import (
	"fmt"
	"strings"

	"github.com/pedidofacil/pix-checkout-go/internal/domain"
)

// maxValueLen is the largest value a two-digit decimal length can describe.
const maxValueLen = 99

// TLV encodes a single field as tag + zero-padded two-digit length + value.
// The tag must be exactly two ASCII digits and the value at most 99
// characters; violations are internal defects reported as ErrEncoding.
func TLV(tag, value string) (string, error) {
	if len(tag) != 2 || !isDigits(tag) {
		return "", &domain.ErrEncoding{Tag: tag, Reason: "tag must be exactly two digits"}
	}
	if len(value) > maxValueLen {
		return "", &domain.ErrEncoding{Tag: tag, Reason: fmt.Sprintf("value length %d exceeds %d", len(value), maxValueLen)}
	}
	return fmt.Sprintf("%s%02d%s", tag, len(value), value), nil
}

// Composite concatenates already-encoded child fields and wraps them in a
// parent TLV field, enabling nested structures such as the merchant
// account information field.
func Composite(tag string, children ...string) (string, error) {
	return TLV(tag, strings.Join(children, ""))
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
