package routing

import (
	"reflect"
	"testing"

	"github.com/hyprnote/stt-gateway/internal/adapter"
	"github.com/hyprnote/stt-gateway/internal/schema"
)

func TestChain_MultiLanguageExcludesDeepgram(t *testing.T) {
	registry := adapter.NewRegistry()
	available := map[adapter.Kind]bool{adapter.KindDeepgram: true, adapter.KindSoniox: true}
	langs := []schema.Language{{Code: "ko"}, {Code: "en"}}

	got := Chain(registry, available, langs, "")
	want := []adapter.Kind{adapter.KindSoniox}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Chain() = %v, want %v (Deepgram lacks multi-language support)", got, want)
	}
}

func TestChain_SingleEnglishPrefersDeepgram(t *testing.T) {
	registry := adapter.NewRegistry()
	available := map[adapter.Kind]bool{
		adapter.KindDeepgram: true, adapter.KindSoniox: true, adapter.KindAssemblyAI: true,
	}
	langs := []schema.Language{{Code: "en"}}

	kind, ok := SelectProvider(registry, available, langs, "")
	if !ok || kind != adapter.KindDeepgram {
		t.Fatalf("SelectProvider() = (%v, %v), want (deepgram, true)", kind, ok)
	}
}

func TestChain_NoAvailableProviders(t *testing.T) {
	registry := adapter.NewRegistry()
	got := Chain(registry, map[adapter.Kind]bool{}, []schema.Language{{Code: "en"}}, "")
	if len(got) != 0 {
		t.Fatalf("Chain() = %v, want empty", got)
	}
	if _, ok := SelectProvider(registry, map[adapter.Kind]bool{}, []schema.Language{{Code: "en"}}, ""); ok {
		t.Fatal("SelectProvider() ok = true, want false when nothing is available")
	}
}

func TestSelectProvider_IsChainHead(t *testing.T) {
	registry := adapter.NewRegistry()
	available := map[adapter.Kind]bool{
		adapter.KindDeepgram: true, adapter.KindSoniox: true, adapter.KindGladia: true,
	}
	langs := []schema.Language{{Code: "en"}}

	chain := Chain(registry, available, langs, "")
	head, ok := SelectProvider(registry, available, langs, "")
	if !ok || len(chain) == 0 || head != chain[0] {
		t.Fatalf("SelectProvider() = %v, want chain head %v", head, chain)
	}
}

func TestChain_LanguageOrderDoesNotAffectSelection(t *testing.T) {
	registry := adapter.NewRegistry()
	available := map[adapter.Kind]bool{adapter.KindDeepgram: true, adapter.KindSoniox: true}

	a := Chain(registry, available, []schema.Language{{Code: "ko"}, {Code: "en"}}, "")
	b := Chain(registry, available, []schema.Language{{Code: "en"}, {Code: "ko"}}, "")
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("language order affected selection: %v vs %v", a, b)
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want bool
	}{
		{"timeout", "dial tcp: i/o timeout", true},
		{"connection reset", "connection reset by peer", true},
		{"5xx", "upstream returned 503", true},
		{"temporarily", "service temporarily unavailable", true},
		{"rate limit", "rate limit exceeded", true},
		{"too many requests", "429 too many requests", true},
		{"unauthorized", "401 unauthorized", false},
		{"forbidden", "403 forbidden", false},
		{"bad request", "400 invalid request", false},
		{"unrelated", "disk full", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryableError(tt.msg); got != tt.want {
				t.Errorf("IsRetryableError(%q) = %v, want %v", tt.msg, got, tt.want)
			}
		})
	}
}
