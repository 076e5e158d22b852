package redis

import "fmt"

// KeySession is the pattern for persisted session entries:
// session:{namespace}:{storage key}
const KeySession = "session:%s:%s"

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	switch environment {
	case "development", "staging":
		prefix = "staging"
	case "test", "local":
		prefix = environment
	}

	return &KeyBuilder{prefix: prefix}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

// KeySession scopes a session storage key to a namespace (one per
// operator, tab or tenant sharing the same Redis)
func (kb *KeyBuilder) KeySession(namespace, key string) string {
	if namespace == "" {
		namespace = "default"
	}
	return kb.BuildKey(fmt.Sprintf(KeySession, namespace, key))
}
