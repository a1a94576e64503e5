package adapter

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hyprnote/stt-gateway/internal/schema"
)

// ErrStreamingNotSupported is returned by adapters whose provider only
// exposes a batch (upload-and-poll) transcription API.
var ErrStreamingNotSupported = errors.New("adapter: provider has no realtime streaming endpoint")

// mistralAdapter implements Adapter for Mistral's voxtral batch
// transcription API. Mistral has no realtime WebSocket endpoint, so the
// streaming-specific methods return ErrStreamingNotSupported / zero values;
// ParseResponse is still implemented because the batch client uses it to
// translate the polled job result into the unified schema.
type mistralAdapter struct{}

// NewMistral returns the Mistral Adapter.
func NewMistral() Adapter { return mistralAdapter{} }

func (mistralAdapter) ProviderName() string { return "mistral" }

func (mistralAdapter) IsSupportedLanguages(langs []schema.Language, model string) bool {
	return true
}

func (mistralAdapter) SupportsNativeMultichannel() bool { return false }

func (mistralAdapter) BuildWSURL(apiBase string, params schema.ListenParams, channels int) (string, error) {
	return "", ErrStreamingNotSupported
}

func (mistralAdapter) BuildAuthHeader(apiKey string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + apiKey}
}

func (mistralAdapter) KeepAliveMessage() ([]byte, bool, bool)  { return nil, false, false }
func (mistralAdapter) FinalizeMessage() ([]byte, bool, bool)   { return nil, false, false }
func (mistralAdapter) AudioToMessage(pcm []byte) ([]byte, bool) { return pcm, false }

func (mistralAdapter) InitialMessage(apiKey string, params schema.ListenParams, channels int) ([]byte, bool, bool) {
	return nil, false, false
}

// mistralBatchResult is the shape of a completed Mistral transcription job,
// as returned by the batch client's poll loop.
type mistralBatchResult struct {
	Text     string `json:"text"`
	Segments []struct {
		Text  string  `json:"text"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"segments"`
	Error string `json:"error"`
}

func (mistralAdapter) ParseResponse(raw []byte) ([]schema.StreamResponse, error) {
	var result mistralBatchResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("mistral: parse response: %w", err)
	}
	if result.Error != "" {
		return []schema.StreamResponse{schema.NewErrorResponse(schema.ErrorResponse{
			ErrorMessage: result.Error,
			Provider:     "mistral",
		})}, nil
	}
	words := make([]schema.Word, 0, len(result.Segments))
	for _, s := range result.Segments {
		words = append(words, schema.Word{Word: s.Text, Start: s.Start, End: s.End})
	}
	return []schema.StreamResponse{schema.NewTranscriptResponse(schema.TranscriptResponse{
		IsFinal: true,
		Channel: schema.ChannelResult{Alternatives: []schema.Alternative{
			{Transcript: result.Text, Words: words},
		}},
	})}, nil
}
