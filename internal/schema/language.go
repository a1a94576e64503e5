// Package schema defines the wire-level types shared by every STT provider
// adapter: languages, listen parameters, the unified StreamResponse union,
// control messages, and audio-chunk framing.
//
// Every provider speaks its own proprietary protocol; schema is the common
// currency the rest of the gateway (listen client, relay, accumulator) is
// written against. Adapters translate to and from it; nothing upstream of
// an adapter ever sees a provider-specific shape.
package schema

import "strings"

// Language wraps an ISO-639 code with an optional BCP-47 region tag, e.g.
// "en" or "en-GB".
type Language struct {
	Code   string
	Region string
}

// ParseLanguage splits a BCP-47-ish tag ("en-GB") into its base code and
// region. A bare code ("en") yields an empty Region.
func ParseLanguage(tag string) Language {
	code, region, _ := strings.Cut(tag, "-")
	return Language{Code: strings.ToLower(code), Region: strings.ToUpper(region)}
}

// String renders the language back to its BCP-47 form.
func (l Language) String() string {
	if l.Region == "" {
		return l.Code
	}
	return l.Code + "-" + l.Region
}

// Base returns the bare ISO-639 code, discarding any region.
func (l Language) Base() string {
	return l.Code
}

// DedupLanguages removes duplicates, preferring the bare base form over a
// regional variant when both are present, and preserves the first-seen
// order of remaining entries.
func DedupLanguages(langs []Language) []Language {
	seen := make(map[string]bool, len(langs))
	baseSeen := make(map[string]bool, len(langs))
	for _, l := range langs {
		if l.Region == "" {
			baseSeen[l.Code] = true
		}
	}

	out := make([]Language, 0, len(langs))
	for _, l := range langs {
		key := l.String()
		if seen[key] {
			continue
		}
		if l.Region != "" && baseSeen[l.Code] {
			// A bare form of this code is already present; the regional
			// variant is redundant.
			continue
		}
		seen[key] = true
		out = append(out, l)
	}
	return out
}
