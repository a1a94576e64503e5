package adapter

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/hyprnote/stt-gateway/internal/schema"
)

// argmaxAdapter implements Adapter for Argmax, a locally-running
// whisper-family inference server reached over a plain WebSocket. It is
// resolved by Resolve when the client's base URL is a local host without
// "/stt" in the path, grounded on the same local-REST-server shape as the
// teacher's whisper.cpp provider, here speaking WebSocket framing instead of
// per-utterance multipart POST so it fits the same Adapter contract as every
// cloud provider.
type argmaxAdapter struct{}

// NewArgmax returns the Argmax Adapter.
func NewArgmax() Adapter { return argmaxAdapter{} }

func (argmaxAdapter) ProviderName() string { return "argmax" }

func (argmaxAdapter) IsSupportedLanguages(langs []schema.Language, model string) bool {
	return true
}

func (argmaxAdapter) SupportsNativeMultichannel() bool { return false }

func (argmaxAdapter) BuildWSURL(apiBase string, params schema.ListenParams, channels int) (string, error) {
	if apiBase == "" {
		apiBase = "ws://localhost:8178/listen"
	}
	u, err := url.Parse(apiBase)
	if err != nil {
		return "", fmt.Errorf("argmax: parse api base: %w", err)
	}
	q := u.Query()
	model := params.Model
	if params.IsMetaModel() {
		model = "base.en"
	}
	q.Set("model", model)
	q.Set("sample_rate", strconv.Itoa(int(params.SampleRate)))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (argmaxAdapter) BuildAuthHeader(apiKey string) map[string]string {
	// A local inference server has no API key to present.
	return nil
}

func (argmaxAdapter) KeepAliveMessage() ([]byte, bool, bool) { return nil, false, false }

func (argmaxAdapter) FinalizeMessage() ([]byte, bool, bool) {
	payload, _ := json.Marshal(struct {
		Type string `json:"type"`
	}{"flush"})
	return payload, true, true
}

func (argmaxAdapter) AudioToMessage(pcm []byte) ([]byte, bool) { return pcm, false }

func (argmaxAdapter) InitialMessage(apiKey string, params schema.ListenParams, channels int) ([]byte, bool, bool) {
	return nil, false, false
}

type argmaxResponse struct {
	Text     string `json:"text"`
	Final    bool   `json:"final"`
	Segments []struct {
		Text  string  `json:"text"`
		Start float64 `json:"t0"`
		End   float64 `json:"t1"`
	} `json:"segments"`
	Error string `json:"error"`
}

func (argmaxAdapter) ParseResponse(raw []byte) ([]schema.StreamResponse, error) {
	var resp argmaxResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("argmax: parse response: %w", err)
	}
	if resp.Error != "" {
		return []schema.StreamResponse{schema.NewErrorResponse(schema.ErrorResponse{
			ErrorMessage: resp.Error,
			Provider:     "argmax",
		})}, nil
	}

	words := make([]schema.Word, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		words = append(words, schema.Word{Word: s.Text, Start: s.Start, End: s.End})
	}
	return []schema.StreamResponse{schema.NewTranscriptResponse(schema.TranscriptResponse{
		IsFinal: resp.Final,
		Channel: schema.ChannelResult{Alternatives: []schema.Alternative{
			{Transcript: resp.Text, Words: words},
		}},
	})}, nil
}
