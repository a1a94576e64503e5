package adapter

import (
	"encoding/json"
	"fmt"

	"github.com/hyprnote/stt-gateway/internal/schema"
)

// sonioxAdapter implements Adapter for Soniox's real-time transcription
// WebSocket API. Soniox authenticates in-band via the first text frame
// (InitialMessage) rather than an HTTP header, and supports genuine
// multi-language detection in one stream via its "cloud"-style meta-model,
// which the adapter elides rather than maps to a concrete name — see the
// Open Question on Soniox's meta-model handling.
type sonioxAdapter struct{}

// NewSoniox returns the Soniox Adapter.
func NewSoniox() Adapter { return sonioxAdapter{} }

func (sonioxAdapter) ProviderName() string { return "soniox" }

func (sonioxAdapter) IsSupportedLanguages(langs []schema.Language, model string) bool {
	// Soniox's multi-language model recognizes any number of languages in one
	// stream; it has no fixed supported-language table the gateway can check
	// locally, so the adapter accepts any request.
	return true
}

func (sonioxAdapter) SupportsNativeMultichannel() bool { return false }

func (sonioxAdapter) BuildWSURL(apiBase string, params schema.ListenParams, channels int) (string, error) {
	if apiBase == "" {
		apiBase = "wss://stt-rt.soniox.com/transcribe-websocket"
	}
	return apiBase, nil
}

func (sonioxAdapter) BuildAuthHeader(apiKey string) map[string]string {
	return nil
}

func (sonioxAdapter) KeepAliveMessage() ([]byte, bool, bool) {
	payload, _ := json.Marshal(struct {
		Type string `json:"type"`
	}{"keepalive"})
	return payload, true, true
}

func (sonioxAdapter) FinalizeMessage() ([]byte, bool, bool) {
	payload, _ := json.Marshal(struct {
		Type string `json:"type"`
	}{"finalize"})
	return payload, true, true
}

func (sonioxAdapter) AudioToMessage(pcm []byte) ([]byte, bool) {
	return pcm, false
}

// sonioxInitial is the in-band configuration + auth frame Soniox requires as
// the first message on the connection.
type sonioxInitial struct {
	APIKey                   string   `json:"api_key"`
	Model                    string   `json:"model,omitempty"`
	SampleRate               int      `json:"sample_rate"`
	NumChannels              int      `json:"num_channels"`
	LanguageHints            []string `json:"language_hints,omitempty"`
	EnableSpeakerDiarization bool     `json:"enable_speaker_diarization"`
}

func (sonioxAdapter) InitialMessage(apiKey string, params schema.ListenParams, channels int) ([]byte, bool, bool) {
	model := ""
	if !params.IsMetaModel() {
		model = params.Model
	}
	hints := make([]string, 0, len(params.Languages))
	for _, l := range params.Languages {
		hints = append(hints, l.Base())
	}
	payload, err := json.Marshal(sonioxInitial{
		APIKey:        apiKey,
		Model:         model,
		SampleRate:    int(params.SampleRate),
		NumChannels:   channels,
		LanguageHints: hints,
	})
	if err != nil {
		return nil, false, false
	}
	return payload, true, true
}

type sonioxToken struct {
	Text       string  `json:"text"`
	StartMs    float64 `json:"start_ms"`
	EndMs      float64 `json:"end_ms"`
	Confidence float64 `json:"confidence"`
	IsFinal    bool    `json:"is_final"`
	Speaker    string  `json:"speaker,omitempty"`
	Language   string  `json:"language,omitempty"`
}

type sonioxResponse struct {
	Tokens           []sonioxToken `json:"tokens"`
	FinalAudioProcMs float64       `json:"final_audio_proc_ms"`
	Error            string        `json:"error_message,omitempty"`
}

func (sonioxAdapter) ParseResponse(raw []byte) ([]schema.StreamResponse, error) {
	var resp sonioxResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("soniox: parse response: %w", err)
	}
	if resp.Error != "" {
		return []schema.StreamResponse{schema.NewErrorResponse(schema.ErrorResponse{
			ErrorMessage: resp.Error,
			Provider:     "soniox",
		})}, nil
	}
	if len(resp.Tokens) == 0 {
		return nil, nil
	}

	var finalText, partialText string
	var finalWords, partialWords []schema.Word
	for _, tok := range resp.Tokens {
		w := schema.Word{
			Word:       tok.Text,
			Start:      tok.StartMs / 1000,
			End:        tok.EndMs / 1000,
			Confidence: tok.Confidence,
			Language:   tok.Language,
		}
		if tok.IsFinal {
			finalText += tok.Text
			finalWords = append(finalWords, w)
		} else {
			partialText += tok.Text
			partialWords = append(partialWords, w)
		}
	}

	var out []schema.StreamResponse
	if len(finalWords) > 0 {
		out = append(out, schema.NewTranscriptResponse(schema.TranscriptResponse{
			IsFinal: true,
			Channel: schema.ChannelResult{Alternatives: []schema.Alternative{
				{Transcript: finalText, Words: finalWords},
			}},
		}))
	}
	if len(partialWords) > 0 {
		out = append(out, schema.NewTranscriptResponse(schema.TranscriptResponse{
			IsFinal: false,
			Channel: schema.ChannelResult{Alternatives: []schema.Alternative{
				{Transcript: partialText, Words: partialWords},
			}},
		}))
	}
	return out, nil
}
