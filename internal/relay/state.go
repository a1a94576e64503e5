package relay

import "log/slog"

// State is a relay session's position in the per-connection state machine,
// grounded on the teacher's [resilience.CircuitBreaker] State enum idiom.
type State int

const (
	StateConnecting State = iota
	StateAuthenticating
	StateStreaming
	StateFinalizing
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateStreaming:
		return "streaming"
	case StateFinalizing:
		return "finalizing"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// stateMachine tracks one connection's current state and logs every
// transition, matching the circuit breaker's "on transition" logging style.
type stateMachine struct {
	sessionID string
	state     State
	log       *slog.Logger
}

func newStateMachine(sessionID string, log *slog.Logger) *stateMachine {
	return &stateMachine{sessionID: sessionID, state: StateConnecting, log: log}
}

func (m *stateMachine) transition(to State) {
	from := m.state
	m.state = to
	m.log.Debug("relay session transition",
		"session_id", m.sessionID,
		"from", from.String(),
		"to", to.String(),
	)
}
