package adapter

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/hyprnote/stt-gateway/internal/schema"
)

// fireworksAdapter implements Adapter for Fireworks AI's streaming
// transcription endpoint (Whisper-family models served over WebSocket).
type fireworksAdapter struct{}

// NewFireworks returns the Fireworks Adapter.
func NewFireworks() Adapter { return fireworksAdapter{} }

func (fireworksAdapter) ProviderName() string { return "fireworks" }

func (fireworksAdapter) IsSupportedLanguages(langs []schema.Language, model string) bool {
	return len(langs) <= 1
}

func (fireworksAdapter) SupportsNativeMultichannel() bool { return false }

func (fireworksAdapter) BuildWSURL(apiBase string, params schema.ListenParams, channels int) (string, error) {
	if apiBase == "" {
		apiBase = "wss://audio-streaming.fireworks.ai/v1/audio/transcriptions/streaming"
	}
	u, err := url.Parse(apiBase)
	if err != nil {
		return "", fmt.Errorf("fireworks: parse api base: %w", err)
	}
	q := u.Query()
	model := params.Model
	if params.IsMetaModel() {
		model = "whisper-v3-turbo"
	}
	q.Set("model", model)
	q.Set("sample_rate", strconv.Itoa(int(params.SampleRate)))
	if len(params.Languages) > 0 {
		q.Set("language", params.Languages[0].Base())
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (fireworksAdapter) BuildAuthHeader(apiKey string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + apiKey}
}

func (fireworksAdapter) KeepAliveMessage() ([]byte, bool, bool) { return nil, false, false }

func (fireworksAdapter) FinalizeMessage() ([]byte, bool, bool) {
	payload, _ := json.Marshal(struct {
		Type string `json:"type"`
	}{"finalize"})
	return payload, true, true
}

func (fireworksAdapter) AudioToMessage(pcm []byte) ([]byte, bool) { return pcm, false }

func (fireworksAdapter) InitialMessage(apiKey string, params schema.ListenParams, channels int) ([]byte, bool, bool) {
	return nil, false, false
}

type fireworksResponse struct {
	Text     string `json:"text"`
	Final    bool   `json:"final"`
	Segments []struct {
		Text  string  `json:"text"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"segments"`
	Error string `json:"error"`
}

func (fireworksAdapter) ParseResponse(raw []byte) ([]schema.StreamResponse, error) {
	var resp fireworksResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("fireworks: parse response: %w", err)
	}
	if resp.Error != "" {
		return []schema.StreamResponse{schema.NewErrorResponse(schema.ErrorResponse{
			ErrorMessage: resp.Error,
			Provider:     "fireworks",
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
