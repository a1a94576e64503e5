package adapter

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/hyprnote/stt-gateway/internal/schema"
)

// azureAdapter implements Adapter for Azure Cognitive Speech's
// speech-to-text WebSocket protocol.
type azureAdapter struct{}

// NewAzure returns the Azure Cognitive Speech Adapter.
func NewAzure() Adapter { return azureAdapter{} }

func (azureAdapter) ProviderName() string { return "azure" }

func (azureAdapter) IsSupportedLanguages(langs []schema.Language, model string) bool {
	return len(langs) <= 1
}

func (azureAdapter) SupportsNativeMultichannel() bool { return false }

func (azureAdapter) BuildWSURL(apiBase string, params schema.ListenParams, channels int) (string, error) {
	if apiBase == "" {
		apiBase = "wss://stt.speech.microsoft.com/speech/recognition/conversation/cognitiveservices/v1"
	}
	u, err := url.Parse(apiBase)
	if err != nil {
		return "", fmt.Errorf("azure: parse api base: %w", err)
	}
	q := u.Query()
	lang := "en-US"
	if len(params.Languages) > 0 {
		lang = params.Languages[0].String()
	}
	q.Set("language", lang)
	q.Set("format", "detailed")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (azureAdapter) BuildAuthHeader(apiKey string) map[string]string {
	return map[string]string{"Ocp-Apim-Subscription-Key": apiKey}
}

func (azureAdapter) KeepAliveMessage() ([]byte, bool, bool) { return nil, false, false }

func (azureAdapter) FinalizeMessage() ([]byte, bool, bool) {
	payload, _ := json.Marshal(struct {
		Type string `json:"type"`
	}{"speech.endDetected"})
	return payload, true, true
}

func (azureAdapter) AudioToMessage(pcm []byte) ([]byte, bool) { return pcm, false }

func (azureAdapter) InitialMessage(apiKey string, params schema.ListenParams, channels int) ([]byte, bool, bool) {
	return nil, false, false
}

type azureResponse struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
	NBest             []struct {
		Display    string  `json:"Display"`
		Confidence float64 `json:"Confidence"`
		Words      []struct {
			Word     string `json:"Word"`
			Offset   int64  `json:"Offset"`
			Duration int64  `json:"Duration"`
		} `json:"Words"`
	} `json:"NBest"`
}

// azureTicksPerSecond is the duration unit Azure uses: 100-nanosecond ticks.
const azureTicksPerSecond = 10_000_000.0

func (azureAdapter) ParseResponse(raw []byte) ([]schema.StreamResponse, error) {
	var resp azureResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("azure: parse response: %w", err)
	}

	switch resp.RecognitionStatus {
	case "Success", "EndOfDictation":
		isFinal := resp.RecognitionStatus == "Success"
		var words []schema.Word
		var confidence float64
		if len(resp.NBest) > 0 {
			best := resp.NBest[0]
			confidence = best.Confidence
			for _, w := range best.Words {
				words = append(words, schema.Word{
					Word:       w.Word,
					Start:      float64(w.Offset) / azureTicksPerSecond,
					End:        float64(w.Offset+w.Duration) / azureTicksPerSecond,
					Confidence: best.Confidence,
				})
			}
		}
		return []schema.StreamResponse{schema.NewTranscriptResponse(schema.TranscriptResponse{
			IsFinal: isFinal,
			Channel: schema.ChannelResult{Alternatives: []schema.Alternative{
				{Transcript: resp.DisplayText, Words: words, Confidence: confidence},
			}},
		})}, nil
	case "InitialSilenceTimeout", "BabbleTimeout", "Error":
		return []schema.StreamResponse{schema.NewErrorResponse(schema.ErrorResponse{
			ErrorMessage: resp.RecognitionStatus,
			Provider:     "azure",
		})}, nil
	default:
		return nil, nil
	}
}
