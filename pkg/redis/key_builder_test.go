package redis

import (
	"testing"
)

func TestKeyBuilder_Environment_Prefixes(t *testing.T) {
	tests := []struct {
		name           string
		environment    string
		expectedPrefix string
	}{
		{
			name:           "Production environment should use prod prefix",
			environment:    "production",
			expectedPrefix: "prod",
		},
		{
			name:           "Development environment should use staging prefix",
			environment:    "development",
			expectedPrefix: "staging",
		},
		{
			name:           "Staging environment should use staging prefix",
			environment:    "staging",
			expectedPrefix: "staging",
		},
		{
			name:           "Test environment keeps its own prefix",
			environment:    "test",
			expectedPrefix: "test",
		},
		{
			name:           "Unknown environment should default to prod prefix",
			environment:    "unknown",
			expectedPrefix: "prod",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kb := NewKeyBuilder(tt.environment)
			if kb.GetPrefix() != tt.expectedPrefix {
				t.Errorf("NewKeyBuilder(%s).GetPrefix() = %s, want %s",
					tt.environment, kb.GetPrefix(), tt.expectedPrefix)
			}
		})
	}
}

func TestKeyBuilder_KeySession(t *testing.T) {
	kb := NewKeyBuilder("production")

	tests := []struct {
		name      string
		namespace string
		key       string
		expected  string
	}{
		{
			name:      "named namespace",
			namespace: "ops",
			key:       "piaxe_auth_token",
			expected:  "prod:session:ops:piaxe_auth_token",
		},
		{
			name:      "empty namespace falls back to default",
			namespace: "",
			key:       "piaxe_device_id",
			expected:  "prod:session:default:piaxe_device_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := kb.KeySession(tt.namespace, tt.key); got != tt.expected {
				t.Errorf("KeySession(%q, %q) = %s, want %s", tt.namespace, tt.key, got, tt.expected)
			}
		})
	}
}
