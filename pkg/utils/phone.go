package utils

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

var (
	// An optional leading + and 7 to 15 digits (E.164 upper bound)
	phoneRegex = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	// Separators people type between digit groups
	formattingRegex = regexp.MustCompile(`[\s\-().]`)
)

// ErrInvalidPhone is returned for numbers that do not normalize
var ErrInvalidPhone = errors.New("invalid phone number format")

// NormalizePhoneNumber removes formatting characters and checks the result
// is a plausible phone number. A "00" international prefix becomes "+".
func NormalizePhoneNumber(phone string) (string, error) {
	if strings.TrimSpace(phone) == "" {
		return "", errors.New("phone number cannot be empty")
	}

	normalized := formattingRegex.ReplaceAllString(phone, "")
	if strings.HasPrefix(normalized, "00") {
		normalized = "+" + normalized[2:]
	}

	if !phoneRegex.MatchString(normalized) {
		return "", ErrInvalidPhone
	}
	return normalized, nil
}

// NormalizeOrKeep returns the normalized number, or phone unchanged when it
// cannot be normalized.
func NormalizeOrKeep(phone string) string {
	if normalized, err := NormalizePhoneNumber(phone); err == nil {
		return normalized
	}
	return phone
}

// PhoneNumber is a validation rule for optional phone fields
var PhoneNumber = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	_, err := NormalizePhoneNumber(s)
	return err
})
