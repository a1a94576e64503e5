package adapter

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/hyprnote/stt-gateway/internal/schema"
)

// elevenLabsAdapter implements Adapter for ElevenLabs' scribe streaming
// transcription API, which frames audio as base64-in-JSON like Gladia.
type elevenLabsAdapter struct{}

// NewElevenLabs returns the ElevenLabs Adapter.
func NewElevenLabs() Adapter { return elevenLabsAdapter{} }

func (elevenLabsAdapter) ProviderName() string { return "elevenlabs" }

func (elevenLabsAdapter) IsSupportedLanguages(langs []schema.Language, model string) bool {
	return len(langs) <= 1
}

func (elevenLabsAdapter) SupportsNativeMultichannel() bool { return false }

func (elevenLabsAdapter) BuildWSURL(apiBase string, params schema.ListenParams, channels int) (string, error) {
	if apiBase == "" {
		apiBase = "wss://api.elevenlabs.io/v1/speech-to-text/stream"
	}
	u, err := url.Parse(apiBase)
	if err != nil {
		return "", fmt.Errorf("elevenlabs: parse api base: %w", err)
	}
	q := u.Query()
	model := params.Model
	if params.IsMetaModel() {
		model = "scribe_v1"
	}
	q.Set("model_id", model)
	if len(params.Languages) > 0 {
		q.Set("language_code", params.Languages[0].Base())
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (elevenLabsAdapter) BuildAuthHeader(apiKey string) map[string]string {
	return map[string]string{"xi-api-key": apiKey}
}

func (elevenLabsAdapter) KeepAliveMessage() ([]byte, bool, bool) {
	return nil, false, false
}

func (elevenLabsAdapter) FinalizeMessage() ([]byte, bool, bool) {
	payload, _ := json.Marshal(struct {
		MessageType string `json:"message_type"`
	}{"finalize"})
	return payload, true, true
}

func (elevenLabsAdapter) AudioToMessage(pcm []byte) ([]byte, bool) {
	payload, _ := json.Marshal(struct {
		MessageType string `json:"message_type"`
		AudioChunk  string `json:"audio_chunk"`
	}{"audio_chunk", base64.StdEncoding.EncodeToString(pcm)})
	return payload, true
}

func (elevenLabsAdapter) InitialMessage(apiKey string, params schema.ListenParams, channels int) ([]byte, bool, bool) {
	return nil, false, false
}

type elevenLabsResponse struct {
	MessageType string `json:"message_type"`
	Text        string `json:"text"`
	IsFinal     bool   `json:"is_final"`
	Words       []struct {
		Text    string  `json:"text"`
		Start   float64 `json:"start"`
		End     float64 `json:"end"`
		LogProb float64 `json:"logprob"`
	} `json:"words"`
	Error string `json:"error"`
}

func (elevenLabsAdapter) ParseResponse(raw []byte) ([]schema.StreamResponse, error) {
	var resp elevenLabsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("elevenlabs: parse response: %w", err)
	}
	if resp.Error != "" {
		return []schema.StreamResponse{schema.NewErrorResponse(schema.ErrorResponse{
			ErrorMessage: resp.Error,
			Provider:     "elevenlabs",
		})}, nil
	}
	if resp.MessageType != "transcript" {
		return nil, nil
	}

	words := make([]schema.Word, 0, len(resp.Words))
	for _, w := range resp.Words {
		words = append(words, schema.Word{Word: w.Text, Start: w.Start, End: w.End})
	}
	return []schema.StreamResponse{schema.NewTranscriptResponse(schema.TranscriptResponse{
		IsFinal: resp.IsFinal,
		Channel: schema.ChannelResult{Alternatives: []schema.Alternative{
			{Transcript: resp.Text, Words: words},
		}},
	})}, nil
}
