// Package relay is the HTTP/WebSocket front door for remote clients, per
// spec.md §6.1: GET /listen upgrades to a streaming WebSocket session, POST
// /listen runs a one-shot batch transcription, and GET /status + POST
// /callback serve a provider's async upload-and-poll pipeline. Unlike
// internal/sessionactor (which captures audio from a local pkg/audio.Platform
// device), relay's audio source is the remote WebSocket client itself, so it
// dials upstream directly through listenclient/routing.Connector rather than
// routing through the session actor tree.
package relay

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hyprnote/stt-gateway/internal/adapter"
	"github.com/hyprnote/stt-gateway/internal/batchclient"
	"github.com/hyprnote/stt-gateway/internal/resilience"
	"github.com/hyprnote/stt-gateway/internal/routing"
	"github.com/hyprnote/stt-gateway/internal/schema"
)

// Server holds everything ServeListen/ServeBatch/ServeStatus/ServeCallback
// need: the provider registry, which providers have configured credentials,
// how to look up their API key/base URL, and the shared fallback policy.
type Server struct {
	registry    adapter.Registry
	credentials map[adapter.Kind]bool
	apiKeyFor   func(adapter.Kind) string
	apiBaseFor  func(adapter.Kind) string

	fallback resilience.FallbackConfig
	batch    *batchclient.Client
	auth     *Authenticator
	jobs     *jobStore
	log      *slog.Logger
}

// Config configures a new Server.
type Config struct {
	Registry          adapter.Registry
	Credentials       map[adapter.Kind]bool
	APIKeyFor         func(adapter.Kind) string
	APIBaseFor        func(adapter.Kind) string
	Fallback          resilience.FallbackConfig
	BatchRetry        batchclient.RetryConfig
	SupabaseJWTSecret string
	Logger            *slog.Logger
}

// NewServer builds a Server from cfg.
func NewServer(cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		registry:    cfg.Registry,
		credentials: cfg.Credentials,
		apiKeyFor:   cfg.APIKeyFor,
		apiBaseFor:  cfg.APIBaseFor,
		fallback:    cfg.Fallback,
		batch:       batchclient.New(cfg.Registry, cfg.BatchRetry),
		auth:        NewAuthenticator(cfg.SupabaseJWTSecret),
		jobs:        newJobStore(),
		log:         log,
	}
}

// resolveChain turns the requested provider name (possibly "hyprnote" or
// empty, meaning the meta-provider) into an ordered retry chain, per
// spec.md §4.5 step 2.
func (s *Server) resolveChain(providerName string, params schema.ListenParams) ([]adapter.Kind, error) {
	if providerName == "" || providerName == "hyprnote" {
		chain := routing.Chain(s.registry, s.credentials, params.Languages, params.Model)
		if len(chain) == 0 {
			return nil, fmt.Errorf("no provider supports the requested language set")
		}
		return chain, nil
	}

	kind := adapter.Kind(providerName)
	if _, ok := s.registry[kind]; !ok {
		return nil, fmt.Errorf("unknown provider %q", providerName)
	}
	if !s.credentials[kind] {
		return nil, fmt.Errorf("provider %q is not configured", providerName)
	}
	return []adapter.Kind{kind}, nil
}

// Handler wires every relay endpoint into an http.ServeMux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/listen", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			s.ServeBatch(w, r)
			return
		}
		s.ServeListen(w, r)
	})

	mux.HandleFunc("/status/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/status/")
		if id == "" {
			writeError(w, http.StatusNotFound, errInvalidProvider, "missing pipeline id")
			return
		}
		s.ServeStatus(w, r, id)
	})

	mux.HandleFunc("/callback/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/callback/")
		parts := strings.SplitN(rest, "/", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			writeError(w, http.StatusNotFound, errInvalidProvider, "malformed callback path")
			return
		}
		s.ServeCallback(w, r, parts[0], parts[1])
	})

	return mux
}
