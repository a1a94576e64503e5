package config

// ConfigDiff describes what changed between two configs when the watcher
// reloads. Only fields safe to apply without a process restart are tracked.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     string

	// ProvidersChanged lists provider names whose credentials or overrides
	// changed (added, removed, or any field differs).
	ProvidersChanged []string

	RoutingChanged bool
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	seen := make(map[string]bool, len(old.Providers)+len(new.Providers))
	for name, oldEntry := range old.Providers {
		seen[name] = true
		newEntry, ok := new.Providers[name]
		if !ok || !providerEntryEqual(oldEntry, newEntry) {
			d.ProvidersChanged = append(d.ProvidersChanged, name)
		}
	}
	for name := range new.Providers {
		if !seen[name] {
			d.ProvidersChanged = append(d.ProvidersChanged, name)
		}
	}

	if old.Routing != new.Routing {
		d.RoutingChanged = true
	}

	return d
}

// providerEntryEqual compares two ProviderEntry values field by field,
// since Options (a map) makes the struct non-comparable with ==.
func providerEntryEqual(a, b ProviderEntry) bool {
	if a.APIKey != b.APIKey || a.BaseURL != b.BaseURL || a.Model != b.Model {
		return false
	}
	if len(a.Options) != len(b.Options) {
		return false
	}
	for k, v := range a.Options {
		if bv, ok := b.Options[k]; !ok || bv != v {
			return false
		}
	}
	return true
}
