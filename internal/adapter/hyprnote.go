package adapter

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/hyprnote/stt-gateway/internal/schema"
)

// hyprnoteAdapter is the meta-adapter: it targets the proxy itself (a
// *.hyprnote.com host, or a local host whose path contains "/stt") and
// passes the requested model string through unresolved, letting the proxy's
// own routing policy pick a concrete upstream. Resolve returns this Kind
// before any other host check runs.
type hyprnoteAdapter struct{}

// NewHyprnote returns the Hyprnote meta-adapter.
func NewHyprnote() Adapter { return hyprnoteAdapter{} }

func (hyprnoteAdapter) ProviderName() string { return "hyprnote" }

func (hyprnoteAdapter) IsSupportedLanguages(langs []schema.Language, model string) bool {
	return true
}

func (hyprnoteAdapter) SupportsNativeMultichannel() bool { return true }

func (hyprnoteAdapter) BuildWSURL(apiBase string, params schema.ListenParams, channels int) (string, error) {
	if apiBase == "" {
		apiBase = "ws://localhost:8080/listen"
	}
	u, err := url.Parse(apiBase)
	if err != nil {
		return "", fmt.Errorf("hyprnote: parse api base: %w", err)
	}
	q := u.Query()
	if !params.IsMetaModel() {
		q.Set("model", params.Model)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (hyprnoteAdapter) BuildAuthHeader(apiKey string) map[string]string {
	if apiKey == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + apiKey}
}

func (hyprnoteAdapter) KeepAliveMessage() ([]byte, bool, bool) {
	payload, _ := json.Marshal(struct {
		Type string `json:"type"`
	}{string(schema.ControlKeepAlive)})
	return payload, true, true
}

func (hyprnoteAdapter) FinalizeMessage() ([]byte, bool, bool) {
	payload, _ := schema.MarshalControlMessage(schema.ControlFinalize)
	return payload, true, true
}

func (hyprnoteAdapter) AudioToMessage(pcm []byte) ([]byte, bool) { return pcm, false }

func (hyprnoteAdapter) InitialMessage(apiKey string, params schema.ListenParams, channels int) ([]byte, bool, bool) {
	return nil, false, false
}

// ParseResponse expects the proxy's own upstream to already speak the
// unified schema, since the far end of a Hyprnote connection is this same
// gateway's /listen endpoint, forwarded verbatim.
func (hyprnoteAdapter) ParseResponse(raw []byte) ([]schema.StreamResponse, error) {
	var resp schema.StreamResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("hyprnote: parse response: %w", err)
	}
	return []schema.StreamResponse{resp}, nil
}
