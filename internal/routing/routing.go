// Package routing implements the hyprnote meta-provider's selection policy:
// given a requested language set and the set of providers with configured
// credentials, produce an ordered retry chain, then drive it with the
// teacher's circuit-breaker/fallback machinery instead of a flat
// primary/fallback list.
package routing

import (
	"sort"

	"github.com/hyprnote/stt-gateway/internal/adapter"
	"github.com/hyprnote/stt-gateway/internal/schema"
)

// Quality is a coarse per-provider, per-language-set recognition quality
// tier, used only to order an already-supported provider set — it is never
// used to decide support (Adapter.IsSupportedLanguages is the boolean gate).
type Quality int

const (
	QualityNoData Quality = iota
	QualityModerate
	QualityGood
	QualityHigh
	QualityExcellent
)

// priorityOrder is the static tie-break order from the routing algorithm:
// providers earlier in the list win ties on quality.
var priorityOrder = []adapter.Kind{
	adapter.KindDeepgram,
	adapter.KindSoniox,
	adapter.KindAssemblyAI,
	adapter.KindGladia,
	adapter.KindElevenLabs,
	adapter.KindFireworks,
	adapter.KindOpenAI,
}

// qualityTable is a coarse, hand-maintained quality estimate per provider
// for multi-language vs. single-language requests. Providers without
// native multichannel/multi-language support never reach this table because
// IsSupportedLanguages already excludes them for the request in question.
var qualityTable = map[adapter.Kind]map[bool]Quality{
	adapter.KindDeepgram:   {false: QualityExcellent, true: QualityModerate},
	adapter.KindSoniox:     {false: QualityHigh, true: QualityExcellent},
	adapter.KindAssemblyAI: {false: QualityHigh, true: QualityNoData},
	adapter.KindGladia:     {false: QualityGood, true: QualityGood},
	adapter.KindElevenLabs: {false: QualityGood, true: QualityModerate},
	adapter.KindFireworks:  {false: QualityGood, true: QualityModerate},
	adapter.KindOpenAI:     {false: QualityHigh, true: QualityModerate},
}

// candidate is one provider that passed the support gate, pending sort.
type candidate struct {
	kind     adapter.Kind
	priority int
	quality  Quality
}

// Chain builds the ordered provider chain for a requested language set,
// considering only providers present in available (the providers with
// configured credentials). Provider order within the result never depends
// on the order languages were given in — only on which languages are
// requested and what's available.
func Chain(registry adapter.Registry, available map[adapter.Kind]bool, langs []schema.Language, model string) []adapter.Kind {
	var candidates []candidate
	for idx, kind := range priorityOrder {
		if !available[kind] {
			continue
		}
		a, ok := registry[kind]
		if !ok || !a.IsSupportedLanguages(langs, model) {
			continue
		}
		candidates = append(candidates, candidate{
			kind:     kind,
			priority: idx,
			quality:  qualityTable[kind][len(langs) > 1],
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].quality != candidates[j].quality {
			return candidates[i].quality > candidates[j].quality
		}
		return candidates[i].priority < candidates[j].priority
	})

	out := make([]adapter.Kind, len(candidates))
	for i, c := range candidates {
		out[i] = c.kind
	}
	return out
}

// SelectProvider returns the head of Chain's result, or "" if no provider
// supports the request.
func SelectProvider(registry adapter.Registry, available map[adapter.Kind]bool, langs []schema.Language, model string) (adapter.Kind, bool) {
	chain := Chain(registry, available, langs, model)
	if len(chain) == 0 {
		return "", false
	}
	return chain[0], true
}
