package relay

import (
	"net/http/httptest"
	"testing"

	"github.com/hyprnote/stt-gateway/internal/adapter"
	"github.com/hyprnote/stt-gateway/internal/batchclient"
	"github.com/hyprnote/stt-gateway/internal/resilience"
	"github.com/hyprnote/stt-gateway/internal/schema"
)

func testServer() *Server {
	return NewServer(Config{
		Registry:    adapter.NewRegistry(),
		Credentials: map[adapter.Kind]bool{adapter.KindDeepgram: true, adapter.KindSoniox: true},
		APIKeyFor:   func(adapter.Kind) string { return "test-key" },
		APIBaseFor:  func(adapter.Kind) string { return "" },
		Fallback:    resilience.FallbackConfig{},
		BatchRetry:  batchclient.DefaultRetryConfig,
	})
}

func TestResolveChain_Hyprnote(t *testing.T) {
	s := testServer()
	chain, err := s.resolveChain("hyprnote", schema.ListenParams{Languages: []schema.Language{{Code: "en"}}})
	if err != nil {
		t.Fatalf("resolveChain() error = %v", err)
	}
	if len(chain) == 0 {
		t.Fatal("resolveChain() returned empty chain")
	}
}

func TestResolveChain_EmptyMeansHyprnote(t *testing.T) {
	s := testServer()
	chain, err := s.resolveChain("", schema.ListenParams{Languages: []schema.Language{{Code: "en"}}})
	if err != nil {
		t.Fatalf("resolveChain() error = %v", err)
	}
	if len(chain) == 0 {
		t.Fatal("resolveChain() returned empty chain")
	}
}

func TestResolveChain_ExplicitProvider(t *testing.T) {
	s := testServer()
	chain, err := s.resolveChain("deepgram", schema.ListenParams{})
	if err != nil {
		t.Fatalf("resolveChain() error = %v", err)
	}
	if len(chain) != 1 || chain[0] != adapter.KindDeepgram {
		t.Fatalf("resolveChain() = %v, want [deepgram]", chain)
	}
}

func TestResolveChain_UnconfiguredProviderRejected(t *testing.T) {
	s := testServer()
	if _, err := s.resolveChain("assemblyai", schema.ListenParams{}); err == nil {
		t.Fatal("resolveChain() = nil error, want rejection of unconfigured provider")
	}
}

func TestResolveChain_UnknownProviderRejected(t *testing.T) {
	s := testServer()
	if _, err := s.resolveChain("not-a-real-provider", schema.ListenParams{}); err == nil {
		t.Fatal("resolveChain() = nil error, want rejection of unknown provider")
	}
}

func TestServeStatus_UnknownPipelineID(t *testing.T) {
	s := testServer()
	r := httptest.NewRequest("GET", "/status/does-not-exist", nil)
	w := httptest.NewRecorder()
	s.ServeStatus(w, r, "does-not-exist")
	if w.Code != 404 {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestServeStatus_KnownPipelineID(t *testing.T) {
	s := testServer()
	s.jobs.put(schema.BatchResponse{PipelineID: "abc", Status: schema.BatchCompleted})
	r := httptest.NewRequest("GET", "/status/abc", nil)
	w := httptest.NewRecorder()
	s.ServeStatus(w, r, "abc")
	if w.Code != 200 {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestServeCallback_AlwaysOK(t *testing.T) {
	s := testServer()
	r := httptest.NewRequest("POST", "/callback/deepgram/job-1", nil)
	w := httptest.NewRecorder()
	s.ServeCallback(w, r, "deepgram", "job-1")
	if w.Code != 200 {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestHandler_RoutesStatusAndCallback(t *testing.T) {
	s := testServer()
	s.jobs.put(schema.BatchResponse{PipelineID: "xyz", Status: schema.BatchCompleted})
	h := s.Handler()

	r := httptest.NewRequest("GET", "/status/xyz", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != 200 {
		t.Fatalf("GET /status/xyz = %d, want 200", w.Code)
	}

	r = httptest.NewRequest("POST", "/callback/deepgram/job-1", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != 200 {
		t.Fatalf("POST /callback/deepgram/job-1 = %d, want 200", w.Code)
	}
}
