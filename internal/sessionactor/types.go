// Package sessionactor implements the supervised actor hierarchy of
// spec.md §4.7: a Root owning at most one live Session, and a Session
// supervisor owning the Audio, Listener, Amplitude, Mute, and Record child
// actors. It is grounded on the teacher's [session.Reconnector] (exponential
// backoff, device-change resilience) and [resilience.CircuitBreaker] (state
// enum idiom reused for the supervisor's restart policy).
package sessionactor

import (
	"github.com/hyprnote/stt-gateway/internal/adapter"
	"github.com/hyprnote/stt-gateway/internal/resilience"
	"github.com/hyprnote/stt-gateway/internal/schema"
	"github.com/hyprnote/stt-gateway/pkg/audio"
)

// State is Root's coarse session lifecycle state, reported via
// [eventbus.Lifecycle].
type State int

const (
	StateInactive State = iota
	StateActive
	StateFinalizing
)

func (s State) String() string {
	switch s {
	case StateInactive:
		return "inactive"
	case StateActive:
		return "active"
	case StateFinalizing:
		return "finalizing"
	default:
		return "unknown"
	}
}

// FailurePolicy is the supervisor's decision when a child actor fails,
// generalizing [resilience.CircuitBreaker]'s State enum idiom to a
// per-child-kind static policy table instead of a runtime breaker.
type FailurePolicy int

const (
	// PolicyRestart restarts the failed child in place; siblings and the
	// session continue unaffected.
	PolicyRestart FailurePolicy = iota
	// PolicyEscalate tears the whole session down and reports the failure to
	// Root.
	PolicyEscalate
	// PolicyStop stops just the failed child; the session continues without it.
	PolicyStop
)

// childPolicy is the static on_child_failure table from spec.md §4.7:
// Listener failures finalize-and-escalate (no in-place restart — a dropped
// upstream connection needs caller-visible re-routing, not a silent retry);
// Audio failures restart via device-change resilience; Amplitude/Mute/Record
// are best-effort and simply stop. Session does not read this table at run
// time: beyond the Audio Reconnector's own reconnection and skipping Record
// when it cannot start, no per-child policy is applied on failure.
var childPolicy = map[childKind]FailurePolicy{
	childAudio:     PolicyRestart,
	childListener:  PolicyEscalate,
	childAmplitude: PolicyStop,
	childMute:      PolicyStop,
	childRecord:    PolicyStop,
}

type childKind int

const (
	childAudio childKind = iota
	childListener
	childAmplitude
	childMute
	childRecord
)

func (k childKind) String() string {
	switch k {
	case childAudio:
		return "audio"
	case childListener:
		return "listener"
	case childAmplitude:
		return "amplitude"
	case childMute:
		return "mute"
	case childRecord:
		return "record"
	default:
		return "unknown"
	}
}

// StartParams configures a new session, per spec.md §4.7 start sequence.
type StartParams struct {
	SessionID string

	// Audio source.
	Platform  audio.Platform
	ChannelID string

	// Provider routing.
	Registry       adapter.Registry
	Chain          []adapter.Kind
	APIKeyFor      func(adapter.Kind) string
	APIBaseFor     func(adapter.Kind) string
	ListenParams   schema.ListenParams
	FallbackConfig resilience.FallbackConfig

	// RecordAudio enables the Record actor; when false no WAV is written.
	RecordAudio bool
}
