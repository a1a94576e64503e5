package adapter

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/hyprnote/stt-gateway/internal/schema"
)

// gladiaAdapter implements Adapter for Gladia's real-time API. Gladia wraps
// audio chunks in a JSON envelope rather than sending raw binary frames.
// Gladia's live API hands out its WebSocket URL from a separate session-init
// POST; neither this adapter, the listen client nor the relay makes that
// call, so BuildWSURL takes apiBase as the session-scoped WebSocket URL
// itself and rejects an empty one.
type gladiaAdapter struct{}

// NewGladia returns the Gladia Adapter.
func NewGladia() Adapter { return gladiaAdapter{} }

func (gladiaAdapter) ProviderName() string { return "gladia" }

func (gladiaAdapter) IsSupportedLanguages(langs []schema.Language, model string) bool {
	return true
}

func (gladiaAdapter) SupportsNativeMultichannel() bool { return false }

func (gladiaAdapter) BuildWSURL(apiBase string, params schema.ListenParams, channels int) (string, error) {
	if apiBase == "" {
		return "", fmt.Errorf("gladia: api base must be the session-scoped url returned by session init")
	}
	return apiBase, nil
}

func (gladiaAdapter) BuildAuthHeader(apiKey string) map[string]string {
	return map[string]string{"x-gladia-key": apiKey}
}

func (gladiaAdapter) KeepAliveMessage() ([]byte, bool, bool) {
	return nil, false, false
}

func (gladiaAdapter) FinalizeMessage() ([]byte, bool, bool) {
	payload, _ := json.Marshal(struct {
		Type string `json:"type"`
	}{"stop_recording"})
	return payload, true, true
}

func (gladiaAdapter) AudioToMessage(pcm []byte) ([]byte, bool) {
	payload, _ := json.Marshal(struct {
		Type string `json:"type"`
		Data string `json:"data"`
	}{"audio_chunk", base64.StdEncoding.EncodeToString(pcm)})
	return payload, true
}

func (gladiaAdapter) InitialMessage(apiKey string, params schema.ListenParams, channels int) ([]byte, bool, bool) {
	return nil, false, false
}

type gladiaWord struct {
	Word       string  `json:"word"`
	StartTime  float64 `json:"start"`
	EndTime    float64 `json:"end"`
	Confidence float64 `json:"confidence"`
}

type gladiaResponse struct {
	Type string `json:"type"`
	Data struct {
		IsFinal   bool `json:"is_final"`
		Utterance struct {
			Text  string       `json:"text"`
			Words []gladiaWord `json:"words"`
		} `json:"utterance"`
	} `json:"data"`
	Error string `json:"message"`
}

func (gladiaAdapter) ParseResponse(raw []byte) ([]schema.StreamResponse, error) {
	var resp gladiaResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("gladia: parse response: %w", err)
	}
	if resp.Type == "error" {
		return []schema.StreamResponse{schema.NewErrorResponse(schema.ErrorResponse{
			ErrorMessage: resp.Error,
			Provider:     "gladia",
		})}, nil
	}
	if resp.Type != "transcript" {
		return nil, nil
	}

	words := make([]schema.Word, 0, len(resp.Data.Utterance.Words))
	for _, w := range resp.Data.Utterance.Words {
		words = append(words, schema.Word{
			Word:       w.Word,
			Start:      w.StartTime,
			End:        w.EndTime,
			Confidence: w.Confidence,
		})
	}
	return []schema.StreamResponse{schema.NewTranscriptResponse(schema.TranscriptResponse{
		IsFinal: resp.Data.IsFinal,
		Channel: schema.ChannelResult{Alternatives: []schema.Alternative{
			{Transcript: resp.Data.Utterance.Text, Words: words},
		}},
	})}, nil
}
