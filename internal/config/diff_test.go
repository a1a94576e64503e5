package config_test

import (
	"sort"
	"testing"

	"github.com/hyprnote/stt-gateway/internal/config"
)

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{
		Server: config.ServerConfig{LogLevel: "info"},
		Providers: map[string]config.ProviderEntry{
			"deepgram": {APIKey: "dg-key"},
		},
	}
	d := config.Diff(cfg, cfg)
	if d.LogLevelChanged {
		t.Error("expected LogLevelChanged=false for identical configs")
	}
	if len(d.ProvidersChanged) != 0 {
		t.Errorf("expected 0 provider changes, got %d", len(d.ProvidersChanged))
	}
	if d.RoutingChanged {
		t.Error("expected RoutingChanged=false for identical configs")
	}
}

func TestDiff_LogLevelChanged(t *testing.T) {
	t.Parallel()
	old := &config.Config{Server: config.ServerConfig{LogLevel: "info"}}
	updated := &config.Config{Server: config.ServerConfig{LogLevel: "debug"}}

	d := config.Diff(old, updated)
	if !d.LogLevelChanged {
		t.Error("expected LogLevelChanged=true")
	}
	if d.NewLogLevel != "debug" {
		t.Errorf("expected NewLogLevel=debug, got %q", d.NewLogLevel)
	}
}

func TestDiff_ProviderFieldChanged(t *testing.T) {
	t.Parallel()
	old := &config.Config{
		Providers: map[string]config.ProviderEntry{
			"deepgram": {APIKey: "old-key", Model: "nova-2"},
		},
	}
	updated := &config.Config{
		Providers: map[string]config.ProviderEntry{
			"deepgram": {APIKey: "old-key", Model: "nova-3"},
		},
	}

	d := config.Diff(old, updated)
	if len(d.ProvidersChanged) != 1 || d.ProvidersChanged[0] != "deepgram" {
		t.Errorf("expected [deepgram] changed, got %v", d.ProvidersChanged)
	}
}

func TestDiff_ProviderOptionsChanged(t *testing.T) {
	t.Parallel()
	old := &config.Config{
		Providers: map[string]config.ProviderEntry{
			"gladia": {Options: map[string]any{"region": "eu"}},
		},
	}
	updated := &config.Config{
		Providers: map[string]config.ProviderEntry{
			"gladia": {Options: map[string]any{"region": "us"}},
		},
	}

	d := config.Diff(old, updated)
	if len(d.ProvidersChanged) != 1 || d.ProvidersChanged[0] != "gladia" {
		t.Errorf("expected [gladia] changed, got %v", d.ProvidersChanged)
	}
}

func TestDiff_ProviderAdded(t *testing.T) {
	t.Parallel()
	old := &config.Config{
		Providers: map[string]config.ProviderEntry{
			"deepgram": {APIKey: "dg-key"},
		},
	}
	updated := &config.Config{
		Providers: map[string]config.ProviderEntry{
			"deepgram": {APIKey: "dg-key"},
			"soniox":   {APIKey: "sx-key"},
		},
	}

	d := config.Diff(old, updated)
	if len(d.ProvidersChanged) != 1 || d.ProvidersChanged[0] != "soniox" {
		t.Errorf("expected [soniox] changed, got %v", d.ProvidersChanged)
	}
}

func TestDiff_ProviderRemoved(t *testing.T) {
	t.Parallel()
	old := &config.Config{
		Providers: map[string]config.ProviderEntry{
			"deepgram": {APIKey: "dg-key"},
			"soniox":   {APIKey: "sx-key"},
		},
	}
	updated := &config.Config{
		Providers: map[string]config.ProviderEntry{
			"deepgram": {APIKey: "dg-key"},
		},
	}

	d := config.Diff(old, updated)
	if len(d.ProvidersChanged) != 1 || d.ProvidersChanged[0] != "soniox" {
		t.Errorf("expected [soniox] changed, got %v", d.ProvidersChanged)
	}
}

func TestDiff_RoutingChanged(t *testing.T) {
	t.Parallel()
	old := &config.Config{
		Routing: config.RoutingConfig{
			CircuitBreaker: config.CircuitBreakerEntry{MaxFailures: 5},
		},
	}
	updated := &config.Config{
		Routing: config.RoutingConfig{
			CircuitBreaker: config.CircuitBreakerEntry{MaxFailures: 10},
		},
	}

	d := config.Diff(old, updated)
	if !d.RoutingChanged {
		t.Error("expected RoutingChanged=true")
	}
}

func TestDiff_MultipleChanges(t *testing.T) {
	t.Parallel()
	old := &config.Config{
		Server: config.ServerConfig{LogLevel: "info"},
		Providers: map[string]config.ProviderEntry{
			"deepgram": {APIKey: "dg-key"},
			"soniox":   {APIKey: "sx-key"},
		},
	}
	updated := &config.Config{
		Server: config.ServerConfig{LogLevel: "warn"},
		Providers: map[string]config.ProviderEntry{
			"deepgram": {APIKey: "new-key"},
			"gladia":   {APIKey: "gl-key"},
		},
	}

	d := config.Diff(old, updated)
	if !d.LogLevelChanged {
		t.Error("expected LogLevelChanged=true")
	}
	sort.Strings(d.ProvidersChanged)
	want := []string{"deepgram", "gladia", "soniox"}
	if len(d.ProvidersChanged) != len(want) {
		t.Fatalf("ProvidersChanged = %v, want %v", d.ProvidersChanged, want)
	}
	for i, name := range want {
		if d.ProvidersChanged[i] != name {
			t.Errorf("ProvidersChanged[%d] = %q, want %q", i, d.ProvidersChanged[i], name)
		}
	}
}
