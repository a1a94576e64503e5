// Package config provides the configuration schema, loader, and hot-reload
// watcher for the STT gateway.
package config

import "time"

// Config is the root configuration structure for the gateway.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig             `yaml:"server"`
	Providers map[string]ProviderEntry `yaml:"providers"`
	Routing   RoutingConfig            `yaml:"routing"`
	Vault     VaultConfig              `yaml:"vault"`
}

// ServerConfig holds network, auth, and logging settings for the relay HTTP
// server.
type ServerConfig struct {
	// ListenAddr is the TCP address the relay listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity. Valid values: "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`

	// SupabaseJWTSecret verifies end-user bearer tokens on /listen. Empty
	// disables verification, for local development.
	SupabaseJWTSecret string `yaml:"supabase_jwt_secret"`
}

// ProviderEntry is the credential and override block for one STT provider,
// keyed by provider name (e.g. "deepgram", "soniox") in [Config.Providers].
type ProviderEntry struct {
	// APIKey is the authentication key for the provider's API. A provider
	// with an empty APIKey is treated as not configured and excluded from
	// the hyprnote routing chain.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the adapter's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model names a model for this provider. It is loaded and compared by
	// [Diff], but the relay does not read it: per-request model resolution in
	// internal/relay is not overridden by this field.
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by
	// the standard fields above. Values may be strings, numbers, booleans,
	// or nested maps.
	Options map[string]any `yaml:"options"`
}

// RoutingConfig tunes the hyprnote meta-provider's retry and batch-client
// behavior.
type RoutingConfig struct {
	CircuitBreaker CircuitBreakerEntry `yaml:"circuit_breaker"`
	BatchRetry     BatchRetryEntry     `yaml:"batch_retry"`
}

// CircuitBreakerEntry configures internal/resilience.CircuitBreakerConfig
// for every provider's per-kind breaker.
type CircuitBreakerEntry struct {
	// MaxFailures is consecutive failures before the breaker opens. 0 means
	// use internal/resilience's default.
	MaxFailures int `yaml:"max_failures"`

	// ResetTimeoutSecs is how long the breaker stays open before probing
	// again. 0 means use internal/resilience's default.
	ResetTimeoutSecs int `yaml:"reset_timeout_secs"`

	// HalfOpenMax caps probe calls allowed while half-open. 0 means use
	// internal/resilience's default.
	HalfOpenMax int `yaml:"half_open_max"`
}

// ResetTimeout returns the configured reset timeout as a [time.Duration].
func (c CircuitBreakerEntry) ResetTimeout() time.Duration {
	return time.Duration(c.ResetTimeoutSecs) * time.Second
}

// BatchRetryEntry configures internal/batchclient.RetryConfig.
type BatchRetryEntry struct {
	NumRetries   int `yaml:"num_retries"`
	MaxDelaySecs int `yaml:"max_delay_secs"`
}

// VaultConfig configures internal/vault's persisted session state layout.
type VaultConfig struct {
	// Dir is the root directory sessions are persisted under. Empty
	// disables persistence (in-memory only).
	Dir string `yaml:"dir"`
}
