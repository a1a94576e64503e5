package schema

import (
	"encoding/json"
	"fmt"
)

// ControlType discriminates the client-to-server JSON control messages that
// may be interleaved with binary audio frames on a /listen connection.
type ControlType string

const (
	ControlKeepAlive   ControlType = "KeepAlive"
	ControlFinalize    ControlType = "Finalize"
	ControlCloseStream ControlType = "CloseStream"
)

// ControlMessage is a client-to-server control frame. KeepAlive resets the
// idle timeout without affecting the accumulator. Finalize is the only
// deterministic flush trigger — it asks every upstream provider (and the
// accumulator) to emit final words for whatever audio has been sent so far.
// CloseStream requests a clean shutdown of the session.
type ControlMessage struct {
	Type ControlType `json:"type"`
}

// MarshalControlMessage renders a control message for the wire.
func MarshalControlMessage(t ControlType) ([]byte, error) {
	return json.Marshal(ControlMessage{Type: t})
}

// ParseControlMessage attempts to decode data as a ControlMessage. ok is
// false when data isn't a recognized control frame (e.g. it's a
// ListenInputChunk instead), in which case the caller should try that next.
func ParseControlMessage(data []byte) (msg ControlMessage, ok bool) {
	if err := json.Unmarshal(data, &msg); err != nil {
		return ControlMessage{}, false
	}
	switch msg.Type {
	case ControlKeepAlive, ControlFinalize, ControlCloseStream:
		return msg, true
	default:
		return ControlMessage{}, false
	}
}

// ChunkType discriminates the JSON-framed ListenInputChunk variants. Raw
// binary WebSocket frames are the mono/default audio path and never carry a
// ChunkType; JSON chunks exist for dual-channel input and end-of-stream
// signaling.
type ChunkType string

const (
	ChunkAudio     ChunkType = "Audio"
	ChunkDualAudio ChunkType = "DualAudio"
	ChunkEnd       ChunkType = "End"
)

// ListenInputChunk is a JSON-framed audio input chunk. Exactly one of Data or
// Mic/Speaker is populated, matching Type; End carries neither.
type ListenInputChunk struct {
	Type ChunkType

	// Data holds raw little-endian int16 PCM for the Audio variant.
	Data []byte

	// Mic and Speaker hold raw little-endian int16 PCM for the DualAudio
	// variant, one chunk per logical input device.
	Mic     []byte
	Speaker []byte
}

// NewAudioChunk builds the single-channel Audio variant.
func NewAudioChunk(data []byte) ListenInputChunk {
	return ListenInputChunk{Type: ChunkAudio, Data: data}
}

// NewDualAudioChunk builds the dual-channel DualAudio variant.
func NewDualAudioChunk(mic, speaker []byte) ListenInputChunk {
	return ListenInputChunk{Type: ChunkDualAudio, Mic: mic, Speaker: speaker}
}

// NewEndChunk builds the End variant, signaling no further audio will arrive.
func NewEndChunk() ListenInputChunk {
	return ListenInputChunk{Type: ChunkEnd}
}

func (c ListenInputChunk) MarshalJSON() ([]byte, error) {
	switch c.Type {
	case ChunkAudio:
		return json.Marshal(struct {
			Type ChunkType `json:"type"`
			Data []byte    `json:"data"`
		}{c.Type, c.Data})
	case ChunkDualAudio:
		return json.Marshal(struct {
			Type    ChunkType `json:"type"`
			Mic     []byte    `json:"mic"`
			Speaker []byte    `json:"speaker"`
		}{c.Type, c.Mic, c.Speaker})
	case ChunkEnd:
		return json.Marshal(struct {
			Type ChunkType `json:"type"`
		}{c.Type})
	default:
		return nil, fmt.Errorf("schema: unknown ListenInputChunk type %q", c.Type)
	}
}

func (c *ListenInputChunk) UnmarshalJSON(data []byte) error {
	var probe struct {
		Type    ChunkType `json:"type"`
		Data    []byte    `json:"data"`
		Mic     []byte    `json:"mic"`
		Speaker []byte    `json:"speaker"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	switch probe.Type {
	case ChunkAudio:
		*c = ListenInputChunk{Type: ChunkAudio, Data: probe.Data}
	case ChunkDualAudio:
		*c = ListenInputChunk{Type: ChunkDualAudio, Mic: probe.Mic, Speaker: probe.Speaker}
	case ChunkEnd:
		*c = ListenInputChunk{Type: ChunkEnd}
	default:
		return fmt.Errorf("schema: unknown ListenInputChunk type %q", probe.Type)
	}
	return nil
}
