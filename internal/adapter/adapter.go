// Package adapter translates between the gateway's unified schema and each
// upstream STT provider's proprietary wire protocol. Every provider is a
// sealed implementation of Adapter; nothing upstream of an adapter (listen
// client, relay, accumulator) ever sees a provider-specific shape.
//
// Adapters are dispatched by Kind, a closed enum, rather than through an
// interface{} registry — the provider set is fixed at compile time and the
// per-frame hot path (audio_to_message/parse_response) should never pay for
// dynamic dispatch discovery.
package adapter

import "github.com/hyprnote/stt-gateway/internal/schema"

// Kind identifies one of the fixed set of supported providers.
type Kind string

const (
	KindDeepgram    Kind = "deepgram"
	KindSoniox      Kind = "soniox"
	KindAssemblyAI  Kind = "assemblyai"
	KindGladia      Kind = "gladia"
	KindElevenLabs  Kind = "elevenlabs"
	KindFireworks   Kind = "fireworks"
	KindOpenAI      Kind = "openai"
	KindMistral     Kind = "mistral"
	KindCactus      Kind = "cactus"
	KindArgmax      Kind = "argmax"
	KindHyprnote    Kind = "hyprnote"
	KindGoogle      Kind = "google"
	KindAzure       Kind = "azure"
)

// Adapter is the capability set every provider implements: building the
// upstream connection URL and handshake, framing outbound audio and control
// messages, and parsing inbound frames into the unified StreamResponse union.
type Adapter interface {
	// ProviderName returns the adapter's stable identifier, used in logs,
	// metrics, and the wire-level ErrorResponse.Provider field.
	ProviderName() string

	// IsSupportedLanguages reports whether this provider (optionally pinned
	// to a concrete model) can recognize the given language set at all, and
	// whether it can do so natively in one stream (as opposed to requiring
	// per-language sessions).
	IsSupportedLanguages(langs []schema.Language, model string) bool

	// SupportsNativeMultichannel reports whether the provider can accept
	// interleaved dual-channel audio in a single connection, obviating a
	// gateway-side channel split.
	SupportsNativeMultichannel() bool

	// BuildWSURL constructs the upstream WebSocket URL for a session with the
	// given parameters and channel count.
	BuildWSURL(apiBase string, params schema.ListenParams, channels int) (string, error)

	// BuildAuthHeader returns the HTTP header(s) carrying the API key for the
	// WebSocket upgrade request.
	BuildAuthHeader(apiKey string) map[string]string

	// KeepAliveMessage returns the wire bytes (and whether they are text or
	// binary) of a provider-specific keep-alive frame, or ok=false if this
	// provider has no such frame and relies on WebSocket ping/pong instead.
	KeepAliveMessage() (payload []byte, isText bool, ok bool)

	// FinalizeMessage returns the wire bytes of the provider-specific
	// explicit-flush frame, or ok=false if the provider has no such frame.
	FinalizeMessage() (payload []byte, isText bool, ok bool)

	// AudioToMessage frames a raw PCM chunk for this provider — usually a
	// verbatim binary frame, but some providers (Gladia, ElevenLabs) wrap
	// audio in a JSON envelope.
	AudioToMessage(pcm []byte) (payload []byte, isText bool)

	// InitialMessage returns the first message (if any) a provider expects
	// immediately after the WebSocket handshake — e.g. a JSON configuration
	// frame. ok=false means no initial message is required (parameters were
	// fully expressed in the URL).
	InitialMessage(apiKey string, params schema.ListenParams, channels int) (payload []byte, isText bool, ok bool)

	// ParseResponse decodes one raw inbound WebSocket message into zero or
	// more unified StreamResponse values. A message this provider doesn't
	// recognize or that carries no actionable content yields an empty slice.
	ParseResponse(raw []byte) ([]schema.StreamResponse, error)
}

// Registry maps a Kind to the Adapter implementing it. New instances are
// created per provider at startup from configuration; the map itself is
// immutable after construction and safe for concurrent read access.
type Registry map[Kind]Adapter

// NewRegistry builds the registry of every statically known adapter
// constructor. Callers filter it down to the providers actually configured.
func NewRegistry() Registry {
	return Registry{
		KindDeepgram:   NewDeepgram(),
		KindSoniox:     NewSoniox(),
		KindAssemblyAI: NewAssemblyAI(),
		KindGladia:     NewGladia(),
		KindElevenLabs: NewElevenLabs(),
		KindFireworks:  NewFireworks(),
		KindOpenAI:     NewOpenAI(),
		KindMistral:    NewMistral(),
		KindCactus:     NewCactus(),
		KindArgmax:     NewArgmax(),
		KindHyprnote:   NewHyprnote(),
		KindGoogle:     NewGoogle(),
		KindAzure:      NewAzure(),
	}
}
