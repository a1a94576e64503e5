package relay

import (
	"net/http/httptest"
	"testing"

	"github.com/hyprnote/stt-gateway/internal/adapter"
	"github.com/hyprnote/stt-gateway/internal/schema"
)

func TestParseListenParams_Defaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/listen", nil)
	params, provider := parseListenParams(r)

	if provider != "" {
		t.Fatalf("provider = %q, want empty", provider)
	}
	if params.SampleRate != 16000 {
		t.Fatalf("SampleRate = %d, want 16000", params.SampleRate)
	}
	if params.Channels != 1 {
		t.Fatalf("Channels = %d, want 1", params.Channels)
	}
}

func TestParseListenParams_FullQuery(t *testing.T) {
	r := httptest.NewRequest("GET", "/listen?provider=deepgram&model=cloud&language=en&language=ko&sample_rate=48000&channels=2&keyword=hyprnote&foo=bar", nil)
	params, provider := parseListenParams(r)

	if provider != "deepgram" {
		t.Fatalf("provider = %q, want deepgram", provider)
	}
	if params.Model != "cloud" {
		t.Fatalf("Model = %q, want cloud", params.Model)
	}
	if len(params.Languages) != 2 || params.Languages[0].Code != "en" {
		t.Fatalf("Languages = %+v", params.Languages)
	}
	if params.SampleRate != 48000 || params.Channels != 2 {
		t.Fatalf("SampleRate/Channels = %d/%d", params.SampleRate, params.Channels)
	}
	if len(params.Keywords) != 1 || params.Keywords[0] != "hyprnote" {
		t.Fatalf("Keywords = %+v", params.Keywords)
	}
	if params.CustomQuery["foo"] != "bar" {
		t.Fatalf("CustomQuery[foo] = %q, want bar", params.CustomQuery["foo"])
	}
	for _, reserved := range []string{"provider", "model", "language", "sample_rate", "channels", "keyword"} {
		if _, ok := params.CustomQuery[reserved]; ok {
			t.Fatalf("CustomQuery leaked reserved key %q", reserved)
		}
	}
}

func TestModelFor(t *testing.T) {
	cases := []struct {
		kind  adapter.Kind
		langs []schema.Language
		want  string
	}{
		{adapter.KindDeepgram, []schema.Language{{Code: "en"}}, "nova-3"},
		{adapter.KindDeepgram, []schema.Language{{Code: "zh"}}, "nova-2"},
		{adapter.KindDeepgram, nil, "nova-3"},
		{adapter.KindAssemblyAI, nil, "best"},
		{adapter.KindSoniox, nil, ""},
	}
	for _, tt := range cases {
		if got := modelFor(tt.kind, tt.langs); got != tt.want {
			t.Errorf("modelFor(%v, %v) = %q, want %q", tt.kind, tt.langs, got, tt.want)
		}
	}
}

func TestResolveModel_OnlyRewritesMetaModel(t *testing.T) {
	meta := schema.ListenParams{Model: "", Languages: []schema.Language{{Code: "en"}}}
	got := resolveModel(meta, adapter.KindDeepgram)
	if got.Model != "nova-3" {
		t.Fatalf("Model = %q, want nova-3", got.Model)
	}

	explicit := schema.ListenParams{Model: "whisper-large-v3"}
	got = resolveModel(explicit, adapter.KindDeepgram)
	if got.Model != "whisper-large-v3" {
		t.Fatalf("Model = %q, want unchanged whisper-large-v3", got.Model)
	}
}
