package adapter

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/hyprnote/stt-gateway/internal/schema"
)

// googleAdapter implements Adapter for Google Cloud Speech-to-Text. Google
// has no WebSocket endpoint — its realtime API is gRPC-only and its batch
// API is upload-and-poll over REST — so BuildWSURL always fails and this
// provider is reachable only through the batch path, via [BatchAdapter].
type googleAdapter struct{}

// NewGoogle returns the Google Speech-to-Text Adapter.
func NewGoogle() Adapter { return googleAdapter{} }

func (googleAdapter) ProviderName() string { return "google" }

func (googleAdapter) IsSupportedLanguages(langs []schema.Language, model string) bool {
	return true
}

func (googleAdapter) SupportsNativeMultichannel() bool { return false }

func (googleAdapter) BuildWSURL(apiBase string, params schema.ListenParams, channels int) (string, error) {
	return "", ErrStreamingNotSupported
}

func (googleAdapter) BuildAuthHeader(apiKey string) map[string]string {
	return nil
}

func (googleAdapter) KeepAliveMessage() ([]byte, bool, bool) { return nil, false, false }

func (googleAdapter) FinalizeMessage() ([]byte, bool, bool) { return nil, false, false }

func (googleAdapter) AudioToMessage(pcm []byte) ([]byte, bool) { return pcm, false }

func (googleAdapter) InitialMessage(apiKey string, params schema.ListenParams, channels int) ([]byte, bool, bool) {
	return nil, false, false
}

// BuildBatchURL returns Google's long-running-recognize endpoint. Auth rides
// as a "key" query parameter rather than a header, matching Google's REST
// API-key auth path; BuildAuthHeader stays empty for this provider.
func (googleAdapter) BuildBatchURL(apiBase string, params schema.ListenParams) (string, error) {
	if apiBase == "" {
		apiBase = "https://speech.googleapis.com/v1/speech:longrunningrecognize"
	}
	return apiBase, nil
}

// googleOperation is Google's standard long-running-operation envelope,
// shared across every Google Cloud REST API.
type googleOperation struct {
	Name  string `json:"name"`
	Done  bool   `json:"done"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
	Response *struct {
		Results []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
				Words      []struct {
					Word       string  `json:"word"`
					Confidence float64 `json:"confidence"`
				} `json:"words"`
			} `json:"alternatives"`
		} `json:"results"`
	} `json:"response,omitempty"`
}

// ParseBatchJob reads the operation name out of the initial
// longrunningrecognize response.
func (googleAdapter) ParseBatchJob(body []byte) (string, error) {
	var op googleOperation
	if err := json.Unmarshal(body, &op); err != nil {
		return "", fmt.Errorf("google: parse batch job: %w", err)
	}
	if op.Name == "" {
		return "", fmt.Errorf("google: batch job response carried no operation name")
	}
	return op.Name, nil
}

// BuildPollURL returns the operations-poll endpoint for jobID (an operation
// resource name), rooted at the same host as apiBase so tests and regional
// endpoint overrides both work without hardcoding speech.googleapis.com.
func (googleAdapter) BuildPollURL(apiBase, jobID string) string {
	if apiBase == "" {
		apiBase = "https://speech.googleapis.com/v1/speech:longrunningrecognize"
	}
	u, err := url.Parse(apiBase)
	if err != nil {
		return apiBase
	}
	u.Path = "/v1/" + jobID
	u.RawQuery = ""
	return u.String()
}

// ParsePollResult translates a completed operation's nested result shape
// into the unified schema.
func (googleAdapter) ParsePollResult(body []byte) (schema.TranscriptResponse, bool, error) {
	var op googleOperation
	if err := json.Unmarshal(body, &op); err != nil {
		return schema.TranscriptResponse{}, false, fmt.Errorf("google: parse poll result: %w", err)
	}
	if !op.Done {
		return schema.TranscriptResponse{}, false, nil
	}
	if op.Error != nil {
		return schema.TranscriptResponse{}, true, fmt.Errorf("google: %s", op.Error.Message)
	}

	var transcript string
	var confidence float64
	var words []schema.Word
	if op.Response != nil {
		for _, r := range op.Response.Results {
			if len(r.Alternatives) == 0 {
				continue
			}
			alt := r.Alternatives[0]
			if transcript != "" {
				transcript += " "
			}
			transcript += alt.Transcript
			confidence = alt.Confidence
			for _, w := range alt.Words {
				words = append(words, schema.Word{Word: w.Word, Confidence: w.Confidence})
			}
		}
	}

	return schema.TranscriptResponse{
		IsFinal: true,
		Channel: schema.ChannelResult{Alternatives: []schema.Alternative{
			{Transcript: transcript, Words: words, Confidence: confidence},
		}},
	}, true, nil
}

// ParseResponse only ever sees completed-operation bodies here: Google has
// no realtime stream, so the only caller is the batch client's poll loop via
// ParsePollResult, which this simply wraps in a StreamResponse envelope.
func (googleAdapter) ParseResponse(raw []byte) ([]schema.StreamResponse, error) {
	resp, _, err := googleAdapter{}.ParsePollResult(raw)
	if err != nil {
		return []schema.StreamResponse{schema.NewErrorResponse(schema.ErrorResponse{
			ErrorMessage: err.Error(),
			Provider:     "google",
		})}, nil
	}
	return []schema.StreamResponse{schema.NewTranscriptResponse(resp)}, nil
}
