package utils

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/ttacon/libphonenumber"
)

var (
	emailRegex   = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	markupRegex  = regexp.MustCompile(`<[^>]*>`)
	controlRegex = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	spaceRegex   = regexp.MustCompile(`\s+`)
)

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// SanitizeString removes markup tags and control characters and collapses whitespace
func SanitizeString(s string) string {
	s = html.UnescapeString(s)
	s = markupRegex.ReplaceAllString(s, "")
	s = controlRegex.ReplaceAllString(s, " ")
	s = spaceRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizePhone formats a phone number as E.164 using the default region
// when the number carries no country code
func NormalizePhone(phone, defaultRegion string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", nil
	}

	p, err := libphonenumber.Parse(phone, defaultRegion)
	if err != nil {
		return "", fmt.Errorf("invalid phone number %q: %w", phone, err)
	}
	if !libphonenumber.IsValidNumber(p) {
		return "", fmt.Errorf("phone number is not valid: %s", phone)
	}

	return libphonenumber.Format(p, libphonenumber.E164), nil
}

// SanitizeFileName replaces every non-alphanumeric character with an underscore
func SanitizeFileName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
