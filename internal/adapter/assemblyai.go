package adapter

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/hyprnote/stt-gateway/internal/schema"
)

// assemblyAIAdapter implements Adapter for AssemblyAI's universal-streaming
// WebSocket API.
type assemblyAIAdapter struct{}

// NewAssemblyAI returns the AssemblyAI Adapter.
func NewAssemblyAI() Adapter { return assemblyAIAdapter{} }

func (assemblyAIAdapter) ProviderName() string { return "assemblyai" }

func (assemblyAIAdapter) IsSupportedLanguages(langs []schema.Language, model string) bool {
	if len(langs) != 1 {
		return false
	}
	switch langs[0].Base() {
	case "en", "es", "fr", "de", "it", "pt":
		return true
	default:
		return false
	}
}

func (assemblyAIAdapter) SupportsNativeMultichannel() bool { return false }

func (assemblyAIAdapter) BuildWSURL(apiBase string, params schema.ListenParams, channels int) (string, error) {
	if apiBase == "" {
		apiBase = "wss://streaming.assemblyai.com/v3/ws"
	}
	u, err := url.Parse(apiBase)
	if err != nil {
		return "", fmt.Errorf("assemblyai: parse api base: %w", err)
	}
	q := u.Query()
	q.Set("sample_rate", strconv.Itoa(int(params.SampleRate)))
	q.Set("encoding", "pcm_s16le")
	if len(params.Languages) > 0 {
		q.Set("language_code", params.Languages[0].Base())
	}
	for k, v := range params.CustomQuery {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (assemblyAIAdapter) BuildAuthHeader(apiKey string) map[string]string {
	return map[string]string{"Authorization": apiKey}
}

func (assemblyAIAdapter) KeepAliveMessage() ([]byte, bool, bool) {
	return nil, false, false
}

func (assemblyAIAdapter) FinalizeMessage() ([]byte, bool, bool) {
	payload, _ := json.Marshal(struct {
		Type string `json:"type"`
	}{"ForceEndpoint"})
	return payload, true, true
}

func (assemblyAIAdapter) AudioToMessage(pcm []byte) ([]byte, bool) {
	return pcm, false
}

func (assemblyAIAdapter) InitialMessage(apiKey string, params schema.ListenParams, channels int) ([]byte, bool, bool) {
	return nil, false, false
}

type assemblyAITranscript struct {
	Type       string  `json:"type"`
	TurnOrder  int     `json:"turn_order"`
	EndOfTurn  bool    `json:"end_of_turn"`
	Transcript string  `json:"transcript"`
	Words      []struct {
		Text       string  `json:"text"`
		Start      int     `json:"start"`
		End        int     `json:"end"`
		Confidence float64 `json:"confidence"`
	} `json:"words"`
	Error string `json:"error"`
}

func (assemblyAIAdapter) ParseResponse(raw []byte) ([]schema.StreamResponse, error) {
	var resp assemblyAITranscript
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("assemblyai: parse response: %w", err)
	}
	if resp.Error != "" {
		return []schema.StreamResponse{schema.NewErrorResponse(schema.ErrorResponse{
			ErrorMessage: resp.Error,
			Provider:     "assemblyai",
		})}, nil
	}
	if resp.Type != "Turn" {
		return nil, nil
	}

	words := make([]schema.Word, 0, len(resp.Words))
	for _, w := range resp.Words {
		words = append(words, schema.Word{
			Word:       w.Text,
			Start:      float64(w.Start) / 1000,
			End:        float64(w.End) / 1000,
			Confidence: w.Confidence,
		})
	}
	return []schema.StreamResponse{schema.NewTranscriptResponse(schema.TranscriptResponse{
		IsFinal:     resp.EndOfTurn,
		SpeechFinal: resp.EndOfTurn,
		Channel: schema.ChannelResult{Alternatives: []schema.Alternative{
			{Transcript: resp.Transcript, Words: words},
		}},
	})}, nil
}
