// Package eventbus defines the four tagged-union event streams a session
// actor emits toward its host (spec.md §6.3): Lifecycle, Progress, Data, and
// Error. The registration idiom — one callback per stream, replaced wholesale
// on re-registration — is carried over from
// [pkg/audio.Connection.OnParticipantChange]; unlike there, callbacks are
// invoked synchronously on the emitting goroutine.
package eventbus

import (
	"sync"

	"github.com/hyprnote/stt-gateway/internal/schema"
)

// LifecycleKind classifies a session's high-level state transitions.
type LifecycleKind int

const (
	LifecycleActive LifecycleKind = iota
	LifecycleFinalizing
	LifecycleInactive
)

func (k LifecycleKind) String() string {
	switch k {
	case LifecycleActive:
		return "active"
	case LifecycleFinalizing:
		return "finalizing"
	case LifecycleInactive:
		return "inactive"
	default:
		return "unknown"
	}
}

// Lifecycle reports a session-level state transition. Err is set only for
// LifecycleActive and LifecycleInactive when the transition was caused by a
// failure.
type Lifecycle struct {
	Kind      LifecycleKind
	SessionID string
	Err       error
}

// ProgressKind classifies a step in the session startup sequence.
type ProgressKind int

const (
	ProgressAudioInitializing ProgressKind = iota
	ProgressAudioReady
	ProgressConnecting
	ProgressConnected
)

func (k ProgressKind) String() string {
	switch k {
	case ProgressAudioInitializing:
		return "audio_initializing"
	case ProgressAudioReady:
		return "audio_ready"
	case ProgressConnecting:
		return "connecting"
	case ProgressConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Progress reports a single step of the session's startup sequence. Device is
// set for ProgressAudioReady; Adapter is set for ProgressConnected.
type Progress struct {
	Kind    ProgressKind
	Device  string
	Adapter string
}

// DataKind classifies a steady-state data event.
type DataKind int

const (
	DataAudioAmplitude DataKind = iota
	DataStreamResponse
	DataMicMuted
)

// Data carries the steady-state stream of live session data: rolling audio
// levels, normalized provider responses, and mute-state changes. Only the
// field matching Kind is populated.
type Data struct {
	Kind DataKind

	// DataAudioAmplitude
	Mic     float64
	Speaker float64

	// DataStreamResponse
	Response schema.StreamResponse

	// DataMicMuted
	Muted bool
}

// ErrorKind classifies a session-level error event.
type ErrorKind int

const (
	ErrorAudio ErrorKind = iota
	ErrorConnection
)

// Error reports a non-fatal or fatal session error. Device is set for
// ErrorAudio when the failure is attributable to a specific input device.
type Error struct {
	Kind   ErrorKind
	Err    error
	Device string
}

// Sink is implemented by the host embedding a session. A session actor holds
// one Sink and emits all four event streams through it; the host is
// responsible for fanning events out to its own subscribers (SSE, logging,
// UI, ...).
type Sink interface {
	OnLifecycle(Lifecycle)
	OnProgress(Progress)
	OnData(Data)
	OnError(Error)
}

// Bus holds one replaceable callback per stream, matching the registration
// idiom of [pkg/audio.Connection]: only one callback may be registered per
// stream at a time, and a later registration replaces the former. Emit
// methods run the registered callback synchronously on the calling
// goroutine — callers must not block inside it. [Bus.AsSink] adapts a Bus
// into the [Sink] a session actor holds.
type Bus struct {
	mu          sync.RWMutex
	onLifecycle func(Lifecycle)
	onProgress  func(Progress)
	onData      func(Data)
	onError     func(Error)
}

// NewBus constructs an empty Bus. Emitting before any callback is registered
// is a safe no-op.
func NewBus() *Bus {
	return &Bus{}
}

// OnLifecycle registers cb as the sole Lifecycle callback.
func (b *Bus) OnLifecycle(cb func(Lifecycle)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onLifecycle = cb
}

// OnProgress registers cb as the sole Progress callback.
func (b *Bus) OnProgress(cb func(Progress)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onProgress = cb
}

// OnData registers cb as the sole Data callback.
func (b *Bus) OnData(cb func(Data)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onData = cb
}

// OnError registers cb as the sole Error callback.
func (b *Bus) OnError(cb func(Error)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onError = cb
}

// EmitLifecycle passes e to the registered Lifecycle callback, if any.
func (b *Bus) EmitLifecycle(e Lifecycle) {
	b.mu.RLock()
	cb := b.onLifecycle
	b.mu.RUnlock()
	if cb != nil {
		cb(e)
	}
}

// EmitProgress passes e to the registered Progress callback, if any.
func (b *Bus) EmitProgress(e Progress) {
	b.mu.RLock()
	cb := b.onProgress
	b.mu.RUnlock()
	if cb != nil {
		cb(e)
	}
}

// EmitData passes e to the registered Data callback, if any.
func (b *Bus) EmitData(e Data) {
	b.mu.RLock()
	cb := b.onData
	b.mu.RUnlock()
	if cb != nil {
		cb(e)
	}
}

// EmitError passes e to the registered Error callback, if any.
func (b *Bus) EmitError(e Error) {
	b.mu.RLock()
	cb := b.onError
	b.mu.RUnlock()
	if cb != nil {
		cb(e)
	}
}

// busSink adapts a *Bus into the [Sink] a session actor holds: each OnX call
// from the actor is forwarded as an EmitX call to the bus's registered
// listener, if any.
type busSink struct{ bus *Bus }

// AsSink adapts b into the [Sink] interface a session actor expects,
// forwarding every event the actor reports into b's registered callbacks.
func (b *Bus) AsSink() Sink { return busSink{bus: b} }

func (s busSink) OnLifecycle(e Lifecycle) { s.bus.EmitLifecycle(e) }
func (s busSink) OnProgress(e Progress)   { s.bus.EmitProgress(e) }
func (s busSink) OnData(e Data)           { s.bus.EmitData(e) }
func (s busSink) OnError(e Error)         { s.bus.EmitError(e) }
