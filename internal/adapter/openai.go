package adapter

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/hyprnote/stt-gateway/internal/schema"
)

// openAIAdapter implements Adapter for OpenAI's realtime transcription
// WebSocket API (gpt-4o-transcribe family). Audio and session config travel
// as JSON "input_audio_buffer.append" events rather than raw binary frames.
type openAIAdapter struct{}

// NewOpenAI returns the OpenAI Adapter.
func NewOpenAI() Adapter { return openAIAdapter{} }

func (openAIAdapter) ProviderName() string { return "openai" }

func (openAIAdapter) IsSupportedLanguages(langs []schema.Language, model string) bool {
	return len(langs) <= 1
}

func (openAIAdapter) SupportsNativeMultichannel() bool { return false }

func (openAIAdapter) BuildWSURL(apiBase string, params schema.ListenParams, channels int) (string, error) {
	if apiBase == "" {
		apiBase = "wss://api.openai.com/v1/realtime"
	}
	u, err := url.Parse(apiBase)
	if err != nil {
		return "", fmt.Errorf("openai: parse api base: %w", err)
	}
	q := u.Query()
	q.Set("intent", "transcription")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (openAIAdapter) BuildAuthHeader(apiKey string) map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + apiKey,
		"OpenAI-Beta":   "realtime=v1",
	}
}

func (openAIAdapter) KeepAliveMessage() ([]byte, bool, bool) { return nil, false, false }

func (openAIAdapter) FinalizeMessage() ([]byte, bool, bool) {
	payload, _ := json.Marshal(struct {
		Type string `json:"type"`
	}{"input_audio_buffer.commit"})
	return payload, true, true
}

func (openAIAdapter) AudioToMessage(pcm []byte) ([]byte, bool) {
	payload, _ := json.Marshal(struct {
		Type  string `json:"type"`
		Audio string `json:"audio"`
	}{"input_audio_buffer.append", base64.StdEncoding.EncodeToString(pcm)})
	return payload, true
}

// openAITranscriptionConfig is the input_audio_transcription block of the
// session.update frame.
type openAITranscriptionConfig struct {
	Model    string `json:"model"`
	Language string `json:"language,omitempty"`
}

// openAISessionUpdate is the transcription_session.update frame OpenAI
// expects immediately after the handshake.
type openAISessionUpdate struct {
	Type    string `json:"type"`
	Session struct {
		InputAudioFormat        string                    `json:"input_audio_format"`
		InputAudioTranscription openAITranscriptionConfig `json:"input_audio_transcription"`
	} `json:"session"`
}

func (openAIAdapter) InitialMessage(apiKey string, params schema.ListenParams, channels int) ([]byte, bool, bool) {
	model := params.Model
	if params.IsMetaModel() {
		model = "gpt-4o-transcribe"
	}
	lang := ""
	if len(params.Languages) > 0 {
		lang = params.Languages[0].Base()
	}

	update := openAISessionUpdate{Type: "transcription_session.update"}
	update.Session.InputAudioFormat = "pcm16"
	update.Session.InputAudioTranscription = openAITranscriptionConfig{Model: model, Language: lang}

	payload, err := json.Marshal(update)
	if err != nil {
		return nil, false, false
	}
	return payload, true, true
}

type openAIEvent struct {
	Type       string `json:"type"`
	Transcript string `json:"transcript"`
	Delta      string `json:"delta"`
	Error      struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (openAIAdapter) ParseResponse(raw []byte) ([]schema.StreamResponse, error) {
	var evt openAIEvent
	if err := json.Unmarshal(raw, &evt); err != nil {
		return nil, fmt.Errorf("openai: parse response: %w", err)
	}

	switch evt.Type {
	case "conversation.item.input_audio_transcription.completed":
		return []schema.StreamResponse{schema.NewTranscriptResponse(schema.TranscriptResponse{
			IsFinal: true,
			Channel: schema.ChannelResult{Alternatives: []schema.Alternative{
				{Transcript: evt.Transcript},
			}},
		})}, nil
	case "conversation.item.input_audio_transcription.delta":
		return []schema.StreamResponse{schema.NewTranscriptResponse(schema.TranscriptResponse{
			IsFinal: false,
			Channel: schema.ChannelResult{Alternatives: []schema.Alternative{
				{Transcript: evt.Delta},
			}},
		})}, nil
	case "error":
		return []schema.StreamResponse{schema.NewErrorResponse(schema.ErrorResponse{
			ErrorMessage: evt.Error.Message,
			Provider:     "openai",
		})}, nil
	default:
		return nil, nil
	}
}
