package adapter

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/hyprnote/stt-gateway/internal/schema"
)

// deepgramAdapter implements Adapter for Deepgram's streaming listen API.
// Deepgram supports native dual-channel audio and one language per session
// (no concurrent multi-language detection within a single connection).
type deepgramAdapter struct{}

// NewDeepgram returns the Deepgram Adapter.
func NewDeepgram() Adapter { return deepgramAdapter{} }

func (deepgramAdapter) ProviderName() string { return "deepgram" }

func (deepgramAdapter) IsSupportedLanguages(langs []schema.Language, model string) bool {
	// A single Deepgram session recognizes exactly one language; multi-language
	// requests need the gateway to fan out across sessions, which the routing
	// policy decides, not the adapter. The adapter only vouches for langs of
	// length <= 1, or "multi" style detection when model requests it.
	return len(langs) <= 1 || model == "nova-2-general" || model == "nova-3"
}

func (deepgramAdapter) SupportsNativeMultichannel() bool { return true }

func (deepgramAdapter) BuildWSURL(apiBase string, params schema.ListenParams, channels int) (string, error) {
	if apiBase == "" {
		apiBase = "wss://api.deepgram.com/v1/listen"
	}
	u, err := url.Parse(apiBase)
	if err != nil {
		return "", fmt.Errorf("deepgram: parse api base: %w", err)
	}

	q := u.Query()
	model := params.Model
	if params.IsMetaModel() {
		model = "nova-3"
	}
	q.Set("model", model)
	if len(params.Languages) > 0 {
		q.Set("language", params.Languages[0].String())
	}
	q.Set("punctuate", "true")
	q.Set("interim_results", "true")
	q.Set("sample_rate", strconv.Itoa(int(params.SampleRate)))
	if channels > 0 {
		q.Set("channels", strconv.Itoa(channels))
		if channels > 1 {
			q.Set("multichannel", "true")
		}
	}
	for _, kw := range params.Keywords {
		q.Add("keywords", kw)
	}
	for k, v := range params.CustomQuery {
		q.Set(k, v)
	}

	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (deepgramAdapter) BuildAuthHeader(apiKey string) map[string]string {
	return map[string]string{"Authorization": "Token " + apiKey}
}

func (deepgramAdapter) KeepAliveMessage() ([]byte, bool, bool) {
	payload, _ := json.Marshal(struct {
		Type string `json:"type"`
	}{"KeepAlive"})
	return payload, true, true
}

func (deepgramAdapter) FinalizeMessage() ([]byte, bool, bool) {
	payload, _ := json.Marshal(struct {
		Type string `json:"type"`
	}{"Finalize"})
	return payload, true, true
}

func (deepgramAdapter) AudioToMessage(pcm []byte) ([]byte, bool) {
	return pcm, false
}

func (deepgramAdapter) InitialMessage(apiKey string, params schema.ListenParams, channels int) ([]byte, bool, bool) {
	return nil, false, false
}

// deepgramResponse mirrors the subset of Deepgram's "Results"/"Metadata"
// event shapes the adapter needs.
type deepgramResponse struct {
	Type         string  `json:"type"`
	IsFinal      bool    `json:"is_final"`
	SpeechFinal  bool    `json:"speech_final"`
	FromFinalize bool    `json:"from_finalize"`
	Start        float64 `json:"start"`
	Duration     float64 `json:"duration"`
	Channel      struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
			Words      []struct {
				Word       string  `json:"word"`
				Start      float64 `json:"start"`
				End        float64 `json:"end"`
				Confidence float64 `json:"confidence"`
				Speaker    *int    `json:"speaker,omitempty"`
				Punctuated string  `json:"punctuated_word,omitempty"`
				Language   string  `json:"language,omitempty"`
			} `json:"words"`
		} `json:"alternatives"`
	} `json:"channel"`
	ChannelIndex [2]int `json:"channel_index"`
	RequestID    string `json:"request_id"`
	Created      string `json:"created"`
}

func (deepgramAdapter) ParseResponse(raw []byte) ([]schema.StreamResponse, error) {
	var resp deepgramResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("deepgram: parse response: %w", err)
	}

	switch resp.Type {
	case "Results":
		alts := make([]schema.Alternative, 0, len(resp.Channel.Alternatives))
		for _, a := range resp.Channel.Alternatives {
			words := make([]schema.Word, 0, len(a.Words))
			for _, w := range a.Words {
				words = append(words, schema.Word{
					Word:           w.Word,
					Start:          w.Start,
					End:            w.End,
					Confidence:     w.Confidence,
					Speaker:        w.Speaker,
					PunctuatedWord: w.Punctuated,
					Language:       w.Language,
				})
			}
			alts = append(alts, schema.Alternative{
				Transcript: a.Transcript,
				Words:      words,
				Confidence: a.Confidence,
			})
		}
		return []schema.StreamResponse{schema.NewTranscriptResponse(schema.TranscriptResponse{
			Start:        resp.Start,
			Duration:     resp.Duration,
			IsFinal:      resp.IsFinal,
			SpeechFinal:  resp.SpeechFinal,
			FromFinalize: resp.FromFinalize,
			Channel:      schema.ChannelResult{Alternatives: alts},
			ChannelIndex: resp.ChannelIndex,
		})}, nil
	case "Metadata":
		return []schema.StreamResponse{schema.NewTerminalResponse(schema.TerminalResponse{
			RequestID: resp.RequestID,
			Created:   resp.Created,
			Duration:  resp.Duration,
		})}, nil
	case "SpeechStarted":
		return []schema.StreamResponse{schema.NewSpeechStartedResponse(schema.SpeechStartedResponse{
			Channel:   resp.ChannelIndex,
			Timestamp: resp.Start,
		})}, nil
	case "UtteranceEnd":
		return []schema.StreamResponse{schema.NewUtteranceEndResponse(schema.UtteranceEndResponse{
			Channel:     resp.ChannelIndex,
			LastWordEnd: resp.Start,
		})}, nil
	default:
		return nil, nil
	}
}
