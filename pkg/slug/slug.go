package slug

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

// MaxLength is the maximum slug length. Slugs double as DNS subdomain
// labels, which are limited to 63 octets.
const MaxLength = 63

var (
	// ErrInvalidSlug is returned when a slug fails validation.
	ErrInvalidSlug = errors.New("slug: invalid slug")

	// ErrReservedSlug is returned when a slug collides with a reserved subdomain.
	ErrReservedSlug = errors.New("slug: reserved slug")
)

// slugPattern requires DNS-label shape: starts and ends alphanumeric,
// hyphens allowed in between, lowercase only.
var slugPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// reserved lists subdomain labels that can never be tenant slugs because the
// platform routes them itself.
var reserved = map[string]struct{}{
	"www":    {},
	"api":    {},
	"app":    {},
	"auth":   {},
	"admin":  {},
	"status": {},
}

// Make normalizes an arbitrary workspace name into a URL-safe slug:
// lowercase ASCII letters and digits, runs of anything else collapsed into a
// single hyphen, no leading or trailing hyphens, truncated to MaxLength.
func Make(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	lastWasSep := true // avoid leading separator
	for _, r := range name {
		if b.Len() >= MaxLength {
			break
		}

		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastWasSep = false
			continue
		}

		if !lastWasSep {
			b.WriteByte('-')
			lastWasSep = true
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}

// Validate reports whether s is usable as a tenant slug. It distinguishes
// malformed slugs from reserved ones so callers can surface precise
// validation messages.
func Validate(s string) error {
	if s == "" || len(s) > MaxLength || !slugPattern.MatchString(s) {
		return ErrInvalidSlug
	}
	if _, ok := reserved[s]; ok {
		return ErrReservedSlug
	}
	return nil
}
