package relay

import (
	"net/http"
	"strconv"

	"github.com/hyprnote/stt-gateway/internal/adapter"
	"github.com/hyprnote/stt-gateway/internal/schema"
)

// reservedQueryKeys are consumed by the relay itself rather than passed
// through as CustomQuery, per spec.md §6.1.
var reservedQueryKeys = map[string]bool{
	"provider":    true,
	"model":       true,
	"language":    true,
	"sample_rate": true,
	"channels":    true,
	"keyword":     true,
}

// parseListenParams reads ListenParams plus the synthetic provider selector
// from r's query string, per spec.md §4.5 step 1.
func parseListenParams(r *http.Request) (params schema.ListenParams, provider string) {
	q := r.URL.Query()

	provider = q.Get("provider")
	params.Model = q.Get("model")

	for _, lang := range q["language"] {
		params.Languages = append(params.Languages, schema.ParseLanguage(lang))
	}

	if sr, err := strconv.ParseUint(q.Get("sample_rate"), 10, 32); err == nil {
		params.SampleRate = uint32(sr)
	} else {
		params.SampleRate = 16000
	}
	if ch, err := strconv.ParseUint(q.Get("channels"), 10, 8); err == nil && ch > 0 {
		params.Channels = uint8(ch)
	} else {
		params.Channels = 1
	}

	params.Keywords = q["keyword"]

	params.CustomQuery = map[string]string{}
	for k, v := range q {
		if reservedQueryKeys[k] || len(v) == 0 {
			continue
		}
		params.CustomQuery[k] = v[0]
	}

	return params.Normalize(), provider
}

// modelFor resolves a meta-model ("cloud", "", or missing) into the concrete
// model name each provider expects, per spec.md §4.5 step 3. Providers not
// listed here either have no concrete model concept (Soniox) or pass the
// meta-model through unresolved (Hyprnote).
func modelFor(kind adapter.Kind, langs []schema.Language) string {
	primary := "en"
	if len(langs) > 0 {
		primary = langs[0].Base()
	}

	switch kind {
	case adapter.KindDeepgram:
		if primary == "zh" {
			return "nova-2"
		}
		return "nova-3"
	case adapter.KindAssemblyAI:
		return "best"
	case adapter.KindOpenAI:
		return "gpt-4o-transcribe"
	default:
		return ""
	}
}

// resolveModel returns params with Model rewritten to kind's concrete model
// if params.Model names a meta-model; otherwise params is returned unchanged.
func resolveModel(params schema.ListenParams, kind adapter.Kind) schema.ListenParams {
	if !params.IsMetaModel() {
		return params
	}
	if resolved := modelFor(kind, params.Languages); resolved != "" {
		params.Model = resolved
	}
	return params
}
