package schema

import (
	"encoding/json"
	"fmt"
)

// ResponseType is the wire discriminator carried in every StreamResponse's
// "type" field.
type ResponseType string

const (
	TypeTranscript    ResponseType = "Results"
	TypeTerminal      ResponseType = "Metadata"
	TypeSpeechStarted ResponseType = "SpeechStarted"
	TypeUtteranceEnd  ResponseType = "UtteranceEnd"
	TypeError         ResponseType = "Error"
)

// Alternative is one recognition hypothesis within a channel.
type Alternative struct {
	Transcript string   `json:"transcript"`
	Words      []Word   `json:"words,omitempty"`
	Confidence float64  `json:"confidence"`
	Languages  []string `json:"languages,omitempty"`
}

// ChannelResult carries the alternatives for one audio channel.
type ChannelResult struct {
	Alternatives []Alternative `json:"alternatives"`
}

// ResponseMetadata carries request/model bookkeeping plus a free-form Extra
// map used for provider-specific out-of-band flags such as the Cactus cloud
// handoff protocol (cloud_handoff, cloud_job_id, cloud_corrected).
type ResponseMetadata struct {
	RequestID string         `json:"request_id,omitempty"`
	ModelInfo string         `json:"model_info,omitempty"`
	ModelUUID string         `json:"model_uuid,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// TranscriptResponse is the "Results" variant: a partial or final
// transcription update for one channel.
type TranscriptResponse struct {
	Start        float64           `json:"start"`
	Duration     float64           `json:"duration"`
	IsFinal      bool              `json:"is_final"`
	SpeechFinal  bool              `json:"speech_final"`
	FromFinalize bool              `json:"from_finalize"`
	Channel      ChannelResult     `json:"channel"`
	Metadata     *ResponseMetadata `json:"metadata,omitempty"`
	ChannelIndex [2]int            `json:"channel_index,omitempty"`
}

// TerminalResponse is the "Metadata" variant, sent exactly once when a
// session closes cleanly.
type TerminalResponse struct {
	RequestID string  `json:"request_id"`
	Created   string  `json:"created"`
	Duration  float64 `json:"duration"`
	Channels  int     `json:"channels"`
}

// SpeechStartedResponse is the "SpeechStarted" variant.
type SpeechStartedResponse struct {
	Channel   [2]int  `json:"channel"`
	Timestamp float64 `json:"timestamp"`
}

// UtteranceEndResponse is the "UtteranceEnd" variant.
type UtteranceEndResponse struct {
	Channel     [2]int  `json:"channel"`
	LastWordEnd float64 `json:"last_word_end"`
}

// ErrorResponse is the "Error" variant.
type ErrorResponse struct {
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message"`
	Provider     string `json:"provider"`
}

// StreamResponse is the unified tagged union every adapter's parse_response
// translates into and every relay/accumulator consumer reads from. Exactly
// one of the payload pointers is non-nil, matching Type.
type StreamResponse struct {
	Type ResponseType

	Transcript    *TranscriptResponse
	Terminal      *TerminalResponse
	SpeechStarted *SpeechStartedResponse
	UtteranceEnd  *UtteranceEndResponse
	Error         *ErrorResponse
}

// NewTranscriptResponse wraps t as a StreamResponse.
func NewTranscriptResponse(t TranscriptResponse) StreamResponse {
	return StreamResponse{Type: TypeTranscript, Transcript: &t}
}

// NewTerminalResponse wraps t as a StreamResponse.
func NewTerminalResponse(t TerminalResponse) StreamResponse {
	return StreamResponse{Type: TypeTerminal, Terminal: &t}
}

// NewSpeechStartedResponse wraps s as a StreamResponse.
func NewSpeechStartedResponse(s SpeechStartedResponse) StreamResponse {
	return StreamResponse{Type: TypeSpeechStarted, SpeechStarted: &s}
}

// NewUtteranceEndResponse wraps u as a StreamResponse.
func NewUtteranceEndResponse(u UtteranceEndResponse) StreamResponse {
	return StreamResponse{Type: TypeUtteranceEnd, UtteranceEnd: &u}
}

// NewErrorResponse wraps e as a StreamResponse.
func NewErrorResponse(e ErrorResponse) StreamResponse {
	return StreamResponse{Type: TypeError, Error: &e}
}

// MarshalJSON flattens the active payload to the top level alongside "type",
// so the wire shape matches `{"type": "Results", ...}` rather than a nested
// envelope.
func (r StreamResponse) MarshalJSON() ([]byte, error) {
	var payload any
	switch r.Type {
	case TypeTranscript:
		payload = r.Transcript
	case TypeTerminal:
		payload = r.Terminal
	case TypeSpeechStarted:
		payload = r.SpeechStarted
	case TypeUtteranceEnd:
		payload = r.UtteranceEnd
	case TypeError:
		payload = r.Error
	default:
		return nil, fmt.Errorf("schema: unknown StreamResponse type %q", r.Type)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(body, &merged); err != nil {
		return nil, err
	}
	merged["type"], err = json.Marshal(r.Type)
	if err != nil {
		return nil, err
	}
	return json.Marshal(merged)
}

// UnmarshalJSON reads the "type" discriminator and decodes the remaining
// fields into the matching payload struct.
func (r *StreamResponse) UnmarshalJSON(data []byte) error {
	var probe struct {
		Type ResponseType `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	switch probe.Type {
	case TypeTranscript:
		var t TranscriptResponse
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		r.Type, r.Transcript = TypeTranscript, &t
	case TypeTerminal:
		var t TerminalResponse
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		r.Type, r.Terminal = TypeTerminal, &t
	case TypeSpeechStarted:
		var s SpeechStartedResponse
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		r.Type, r.SpeechStarted = TypeSpeechStarted, &s
	case TypeUtteranceEnd:
		var u UtteranceEndResponse
		if err := json.Unmarshal(data, &u); err != nil {
			return err
		}
		r.Type, r.UtteranceEnd = TypeUtteranceEnd, &u
	case TypeError:
		var e ErrorResponse
		if err := json.Unmarshal(data, &e); err != nil {
			return err
		}
		r.Type, r.Error = TypeError, &e
	default:
		return fmt.Errorf("schema: unknown StreamResponse type %q", probe.Type)
	}
	return nil
}
