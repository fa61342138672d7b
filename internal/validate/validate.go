package validate

import (
	"regexp"
	"strings"
)

var (
	rePostal = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 -]{1,9}$`)
	reEmail  = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reQ      = regexp.MustCompile(`^[\p{L}\p{N} _'&.\-]{1,50}$`)
	reID     = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reLast4  = regexp.MustCompile(`^[0-9]{4}$`)
	reSID    = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

// MaxQty bounds a single add-to-cart or quantity update request.
const MaxQty = 99

func Postal(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, rePostal.MatchString(s)
}

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 64 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Q validates search text: trims, truncates to 50 bytes and checks the
// allowed characters. An empty query is valid and means no text filter.
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	if len(s) > 50 {
		s = strings.TrimSpace(strings.ToValidUTF8(s[:50], ""))
	}
	return s, reQ.MatchString(s)
}

// Qty checks a requested quantity. Zero is allowed so an update can remove a
// line; negatives are rejected. Anything above MaxQty comes back as MaxQty
// with capped set.
func Qty(n int) (qty int, capped, ok bool) {
	if n < 0 {
		return 0, false, false
	}
	if n > MaxQty {
		return MaxQty, true, true
	}
	return n, false, true
}

// ID validates a simple resource identifier (product and order ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// SessionID accepts only the canonical UUID form issued for the sid cookie.
func SessionID(s string) bool { return reSID.MatchString(s) }

func Last4(s string) bool { return reLast4.MatchString(strings.TrimSpace(s)) }

// Name validates a displayable name with a reasonable max length.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 60 {
		return "", false
	}
	return s, true
}

// Password enforces a length window and mixed character classes.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 64 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}
