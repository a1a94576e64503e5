package adapter

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/hyprnote/stt-gateway/internal/schema"
)

// cactusAdapter implements Adapter for Cactus, an on-device model capable of
// handing transcription off to a cloud backend mid-session. Hand-off state
// travels as provider-specific fields in ResponseMetadata.Extra
// (cloud_handoff, cloud_job_id, cloud_corrected) rather than as
// first-class schema fields, matching the Open Question decision recorded
// for Cactus-specific wire flags.
type cactusAdapter struct{}

// NewCactus returns the Cactus Adapter.
func NewCactus() Adapter { return cactusAdapter{} }

func (cactusAdapter) ProviderName() string { return "cactus" }

func (cactusAdapter) IsSupportedLanguages(langs []schema.Language, model string) bool {
	return true
}

func (cactusAdapter) SupportsNativeMultichannel() bool { return false }

func (cactusAdapter) BuildWSURL(apiBase string, params schema.ListenParams, channels int) (string, error) {
	if apiBase == "" {
		apiBase = "ws://localhost:8765/cactus"
	}
	u, err := url.Parse(apiBase)
	if err != nil {
		return "", fmt.Errorf("cactus: parse api base: %w", err)
	}
	return u.String(), nil
}

func (cactusAdapter) BuildAuthHeader(apiKey string) map[string]string {
	if apiKey == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + apiKey}
}

func (cactusAdapter) KeepAliveMessage() ([]byte, bool, bool) { return nil, false, false }

func (cactusAdapter) FinalizeMessage() ([]byte, bool, bool) {
	payload, _ := json.Marshal(struct {
		Type string `json:"type"`
	}{"finalize"})
	return payload, true, true
}

func (cactusAdapter) AudioToMessage(pcm []byte) ([]byte, bool) { return pcm, false }

func (cactusAdapter) InitialMessage(apiKey string, params schema.ListenParams, channels int) ([]byte, bool, bool) {
	return nil, false, false
}

// cactusWord mirrors one recognized token. Hand-off job ids travel on the
// enclosing cactusResponse, not per word.
type cactusWord struct {
	Word       string  `json:"word"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
}

type cactusResponse struct {
	Transcript     string       `json:"transcript"`
	IsFinal        bool         `json:"is_final"`
	Words          []cactusWord `json:"words"`
	CloudHandoff   bool         `json:"cloud_handoff"`
	CloudCorrected bool         `json:"cloud_corrected"`
	CloudJobID     string       `json:"cloud_job_id"`
	Error          string       `json:"error"`
}

func (cactusAdapter) ParseResponse(raw []byte) ([]schema.StreamResponse, error) {
	var resp cactusResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("cactus: parse response: %w", err)
	}
	if resp.Error != "" {
		return []schema.StreamResponse{schema.NewErrorResponse(schema.ErrorResponse{
			ErrorMessage: resp.Error,
			Provider:     "cactus",
		})}, nil
	}

	words := make([]schema.Word, 0, len(resp.Words))
	for _, w := range resp.Words {
		words = append(words, schema.Word{Word: w.Word, Start: w.Start, End: w.End, Confidence: w.Confidence})
	}

	sr := schema.NewTranscriptResponse(schema.TranscriptResponse{
		IsFinal: resp.IsFinal,
		Channel: schema.ChannelResult{Alternatives: []schema.Alternative{
			{Transcript: resp.Transcript, Words: words},
		}},
	})
	if resp.CloudHandoff {
		sr = sr.SetExtra("cloud_handoff", true).SetExtra("cloud_job_id", resp.CloudJobID)
	}
	if resp.CloudCorrected {
		sr = sr.SetExtra("cloud_corrected", true).SetExtra("cloud_job_id", resp.CloudJobID)
	}
	return []schema.StreamResponse{sr}, nil
}
