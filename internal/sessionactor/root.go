package sessionactor

import (
	"context"
	"fmt"
	"sync"

	"github.com/hyprnote/stt-gateway/internal/accumulator"
	"github.com/hyprnote/stt-gateway/internal/eventbus"
	"github.com/hyprnote/stt-gateway/internal/vault"
)

// Root owns at most one live [Session] at a time and is the relay's sole
// entry point into the actor tree, per spec.md §4.7.
type Root struct {
	vault *vault.Vault

	mu      sync.Mutex
	state   State
	session *Session
	acc     *accumulator.Accumulator
	sink    eventbus.Sink
}

// NewRoot creates a Root that persists recordings and transcripts under v.
func NewRoot(v *vault.Vault) *Root {
	return &Root{vault: v, state: StateInactive}
}

// StartSession runs the start sequence for params against sink, rejecting
// the call if a session is already active. mutePoll may be nil.
func (r *Root) StartSession(ctx context.Context, params StartParams, sink eventbus.Sink, mutePoll MutePoller) bool {
	r.mu.Lock()
	if r.state != StateInactive {
		r.mu.Unlock()
		return false
	}
	r.mu.Unlock()

	acc := accumulator.New()
	s, err := newSession(ctx, params, r.vault, sink, acc, mutePoll)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.state = StateInactive
		sink.OnLifecycle(eventbus.Lifecycle{Kind: eventbus.LifecycleInactive, SessionID: params.SessionID, Err: err})
		return false
	}
	r.session = s
	r.acc = acc
	r.sink = sink
	r.state = StateActive
	sink.OnLifecycle(eventbus.Lifecycle{Kind: eventbus.LifecycleActive, SessionID: params.SessionID})
	return true
}

// StopSession runs the stop sequence against the active session, if any.
func (r *Root) StopSession(ctx context.Context) error {
	r.mu.Lock()
	s := r.session
	sink := r.sink
	sessionID := ""
	if s != nil {
		sessionID = s.sessionID
	}
	if s == nil || r.state == StateInactive {
		r.mu.Unlock()
		return nil
	}
	r.state = StateFinalizing
	r.mu.Unlock()
	sink.OnLifecycle(eventbus.Lifecycle{Kind: eventbus.LifecycleFinalizing, SessionID: sessionID})

	err := s.Shutdown(ctx)

	r.mu.Lock()
	r.state = StateInactive
	r.session = nil
	r.acc = nil
	r.mu.Unlock()

	sink.OnLifecycle(eventbus.Lifecycle{Kind: eventbus.LifecycleInactive, SessionID: sessionID, Err: err})
	if err != nil {
		return fmt.Errorf("sessionactor: root: stop: %w", err)
	}
	return nil
}

// GetState returns Root's current coarse lifecycle state.
func (r *Root) GetState() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Accumulator returns the active session's transcript accumulator, or nil
// when no session is running.
func (r *Root) Accumulator() *accumulator.Accumulator {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.acc
}

// NotifyAudioDeviceError forwards a device-level error to the active
// session's Audio actor so its Reconnector can attempt recovery.
func (r *Root) NotifyAudioDeviceError() {
	r.mu.Lock()
	s := r.session
	r.mu.Unlock()
	if s != nil {
		s.audio.NotifyDeviceError()
	}
}
