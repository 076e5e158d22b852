package utils

import (
	"testing"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/stretchr/testify/assert"
)

func TestNormalizePhoneNumber(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    string
		shouldError bool
	}{
		{
			name:     "formatted national number",
			input:    "090-930-0861",
			expected: "0909300861",
		},
		{
			name:     "international with plus",
			input:    "+66 90 930 0861",
			expected: "+66909300861",
		},
		{
			name:     "international with 00 prefix",
			input:    "0044 20 7946 0958",
			expected: "+442079460958",
		},
		{
			name:     "with parentheses and dots",
			input:    "(415) 555.0100",
			expected: "4155550100",
		},
		{
			name:        "too short",
			input:       "12345",
			shouldError: true,
		},
		{
			name:        "too long",
			input:       "+1234567890123456",
			shouldError: true,
		},
		{
			name:        "letters",
			input:       "call me maybe",
			shouldError: true,
		},
		{
			name:        "empty",
			input:       "  ",
			shouldError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NormalizePhoneNumber(tt.input)
			if tt.shouldError {
				assert.Error(t, err)
				assert.Empty(t, result)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestNormalizeOrKeep(t *testing.T) {
	assert.Equal(t, "+15550100123", NormalizeOrKeep("+1 (555) 010-0123"))
	assert.Equal(t, "ext. 12", NormalizeOrKeep("ext. 12"))
}

func TestPhoneNumberRule(t *testing.T) {
	assert.NoError(t, validation.Validate("", PhoneNumber))
	assert.NoError(t, validation.Validate("090-930-0861", PhoneNumber))
	assert.ErrorIs(t, validation.Validate("12", PhoneNumber), ErrInvalidPhone)
}
