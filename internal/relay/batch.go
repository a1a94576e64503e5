package relay

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"

	"github.com/hyprnote/stt-gateway/internal/adapter"
	"github.com/hyprnote/stt-gateway/internal/observe"
	"github.com/hyprnote/stt-gateway/internal/routing"
	"github.com/hyprnote/stt-gateway/internal/schema"
)

// recognizedAudioTypes are the Content-Type values spec.md §6.1 requires
// POST /listen to accept.
var recognizedAudioTypes = map[string]bool{
	"audio/wav":                true,
	"audio/ogg":                true,
	"audio/mpeg":               true,
	"audio/mp4":                true,
	"audio/flac":               true,
	"application/octet-stream": true,
}

// jobStore holds in-flight and completed batch jobs, keyed by pipeline id,
// so GET /status/{pipeline_id} can poll a job started by a prior POST
// /listen. Entries never expire within the process lifetime; a production
// deployment would back this with the same persisted-state layout sessions
// use, but batch jobs are comparatively short-lived.
type jobStore struct {
	mu   sync.Mutex
	jobs map[string]schema.BatchResponse
}

func newJobStore() *jobStore {
	return &jobStore{jobs: make(map[string]schema.BatchResponse)}
}

func (s *jobStore) put(resp schema.BatchResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[resp.PipelineID] = resp
}

func (s *jobStore) get(id string) (schema.BatchResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp, ok := s.jobs[id]
	return resp, ok
}

func newPipelineID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// ServeBatch handles POST /listen: a synchronous (from the client's
// perspective) batch transcription of a complete audio file, per spec.md
// §6.1 and §4.4's upload-and-poll / synthetic-stream providers.
func (s *Server) ServeBatch(w http.ResponseWriter, r *http.Request) {
	userID, err := s.auth.Authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, errUnauthorized, err.Error())
		return
	}

	contentType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if !recognizedAudioTypes[contentType] && !strings.HasPrefix(contentType, "multipart/") {
		writeError(w, http.StatusBadRequest, errInvalidAudio, "unrecognized Content-Type")
		return
	}

	audio, err := readAudioBody(r, contentType)
	if err != nil {
		writeError(w, http.StatusBadRequest, errInvalidAudio, err.Error())
		return
	}

	params, providerName := parseListenParams(r)
	chain, err := s.resolveChain(providerName, params)
	if err != nil {
		writeError(w, http.StatusBadRequest, errInvalidProvider, err.Error())
		return
	}

	pipelineID := newPipelineID()
	log := s.log.With("pipeline_id", pipelineID, "user_id", userID)

	connector, err := routing.NewConnector[schema.TranscriptResponse](s.registry, chain, s.fallback)
	if err != nil {
		writeError(w, http.StatusBadRequest, errInvalidProvider, err.Error())
		return
	}

	var resolvedKind adapter.Kind
	result, err := connector.Connect(r.Context(), func(ctx context.Context, kind adapter.Kind, a adapter.Adapter) (schema.TranscriptResponse, error) {
		resolved := resolveModel(params, kind)
		resolvedKind = kind
		res, batchErr := s.batch.Transcribe(ctx, kind, s.apiBaseFor(kind), s.apiKeyFor(kind), audio, resolved, nil)
		status := "ok"
		if batchErr != nil {
			status = "error"
		}
		observe.DefaultMetrics().RecordProviderRequest(ctx, string(kind), "batch", status)
		if batchErr != nil {
			observe.DefaultMetrics().RecordProviderError(ctx, string(kind), "batch")
		}
		return res, batchErr
	})

	resp := schema.BatchResponse{PipelineID: pipelineID, Provider: string(resolvedKind)}
	if err != nil {
		log.Error("batch transcription failed", "error", err)
		resp.Status = schema.BatchFailed
		resp.Error = formatUserFriendlyError(err)
		s.jobs.put(resp)
		writeJSON(w, http.StatusOK, resp)
		return
	}

	resp.Status = schema.BatchCompleted
	resp.Result = &result
	s.jobs.put(resp)
	writeJSON(w, http.StatusOK, resp)
}

// ServeStatus handles GET /status/{pipeline_id}: polling a previously
// started batch job. No authentication is required per spec.md §6.1.
func (s *Server) ServeStatus(w http.ResponseWriter, r *http.Request, pipelineID string) {
	resp, ok := s.jobs.get(pipelineID)
	if !ok {
		writeError(w, http.StatusNotFound, errInvalidProvider, "unknown pipeline id")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ServeCallback handles POST /callback/{provider}/{id}: an async batch
// completion webhook from a provider's own upload-and-poll pipeline. No
// authentication is required (providers sign or secret-bearing-URL their
// own callbacks, not Supabase JWTs) per spec.md §6.1.
func (s *Server) ServeCallback(w http.ResponseWriter, r *http.Request, provider, id string) {
	s.log.Info("batch callback received", "provider", provider, "pipeline_id", id)
	w.WriteHeader(http.StatusOK)
}

func readAudioBody(r *http.Request, contentType string) ([]byte, error) {
	if strings.HasPrefix(contentType, "multipart/") {
		if err := r.ParseMultipartForm(64 << 20); err != nil {
			return nil, err
		}
		file, _, err := r.FormFile("audio")
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return io.ReadAll(file)
	}
	return io.ReadAll(r.Body)
}
