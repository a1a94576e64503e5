package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/hyprnote/stt-gateway/internal/adapter"
)

// validLogLevels lists the recognised Server.LogLevel values.
var validLogLevels = []string{"debug", "info", "warn", "error"}

// knownProviderNames lists every provider kind the gateway's adapter
// registry can dispatch to. Used by [Validate] to warn about typos in a
// config's Providers keys.
var knownProviderNames = []string{
	string(adapter.KindDeepgram), string(adapter.KindSoniox), string(adapter.KindAssemblyAI),
	string(adapter.KindGladia), string(adapter.KindElevenLabs), string(adapter.KindFireworks),
	string(adapter.KindOpenAI), string(adapter.KindMistral), string(adapter.KindCactus),
	string(adapter.KindArgmax), string(adapter.KindHyprnote), string(adapter.KindGoogle),
	string(adapter.KindAzure),
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !slices.Contains(validLogLevels, cfg.Server.LogLevel) {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: %v", cfg.Server.LogLevel, validLogLevels))
	}

	if cfg.Server.ListenAddr == "" {
		errs = append(errs, errors.New("server.listen_addr is required"))
	}

	configured := 0
	for name, entry := range cfg.Providers {
		if !slices.Contains(knownProviderNames, name) {
			slog.Warn("unknown provider name — may be a typo or third-party provider",
				"name", name, "known", knownProviderNames)
		}
		if entry.APIKey != "" {
			configured++
		}
	}
	if configured == 0 {
		slog.Warn("no provider has api_key configured; every /listen request will fail routing")
	}

	if cfg.Routing.CircuitBreaker.MaxFailures < 0 {
		errs = append(errs, fmt.Errorf("routing.circuit_breaker.max_failures %d must be >= 0", cfg.Routing.CircuitBreaker.MaxFailures))
	}
	if cfg.Routing.CircuitBreaker.ResetTimeoutSecs < 0 {
		errs = append(errs, fmt.Errorf("routing.circuit_breaker.reset_timeout_secs %d must be >= 0", cfg.Routing.CircuitBreaker.ResetTimeoutSecs))
	}
	if cfg.Routing.BatchRetry.NumRetries < 0 {
		errs = append(errs, fmt.Errorf("routing.batch_retry.num_retries %d must be >= 0", cfg.Routing.BatchRetry.NumRetries))
	}

	return errors.Join(errs...)
}

// Credentials returns the set of providers with a non-empty APIKey, suitable
// for internal/routing.Chain/SelectProvider's available-provider gate.
func (c *Config) Credentials() map[adapter.Kind]bool {
	out := make(map[adapter.Kind]bool, len(c.Providers))
	for name, entry := range c.Providers {
		if entry.APIKey != "" {
			out[adapter.Kind(name)] = true
		}
	}
	return out
}

// APIKeyFor returns the configured API key for kind, or "" if unconfigured.
func (c *Config) APIKeyFor(kind adapter.Kind) string {
	return c.Providers[string(kind)].APIKey
}

// APIBaseFor returns the configured base URL override for kind, or "" to use
// the adapter's built-in default.
func (c *Config) APIBaseFor(kind adapter.Kind) string {
	return c.Providers[string(kind)].BaseURL
}
