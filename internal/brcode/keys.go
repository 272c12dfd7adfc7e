package brcode

import (
	"regexp"
	"strings"

	"github.com/pedidofacil/pix-checkout-go/internal/domain"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateKey reports whether key satisfies the shape required by its
// type. It never returns an error; callers decide whether a false result
// is a hard failure (payload build) or a soft warning (config screen).
func ValidateKey(key string, t domain.PixKeyType) bool {
	switch t {
	case domain.KeyTypeEmail:
		return emailPattern.MatchString(key)
	case domain.KeyTypeCPF:
		return len(digitsOf(key)) == 11
	case domain.KeyTypeCNPJ:
		return len(digitsOf(key)) == 14
	case domain.KeyTypePhone:
		n := len(digitsOf(key))
		return n >= 10 && n <= 11
	case domain.KeyTypeRandom:
		return len(key) >= 32
	default:
		return false
	}
}

// digitsOf strips punctuation and everything else non-numeric, so
// "123.456.789-00" and "12345678900" validate the same way.
func digitsOf(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
