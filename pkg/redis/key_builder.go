package redis

import "fmt"

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string // Environment prefix (staging/prod)
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	if environment == "development" || environment == "staging" || environment == "test" {
		prefix = "staging"
	}

	return &KeyBuilder{
		prefix: prefix,
	}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

// KeySettingsProvider builds the cache key for a provider's OAuth settings
func (kb *KeyBuilder) KeySettingsProvider(provider string) string {
	return kb.BuildKey(fmt.Sprintf(KeySettingsProvider, provider))
}

// KeyLoginEnabled builds the cache key for the global login flag
func (kb *KeyBuilder) KeyLoginEnabled() string {
	return kb.BuildKey(KeyLoginEnabled)
}
