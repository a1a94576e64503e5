package sessionactor

import (
	"time"

	"github.com/hyprnote/stt-gateway/internal/eventbus"
)

// mutePollInterval is how often the hardware mute state is re-checked.
// Matches the teacher's config watcher's polling cadence idiom, scaled down
// for a UI-facing signal rather than a config reload.
const mutePollInterval = 200 * time.Millisecond

// MutePoller reports the current OS-level hardware mute state. The actual
// platform integration (CoreAudio, PulseAudio, WASAPI, ...) is the host's
// responsibility; this actor only owns the poll loop and state diffing.
type MutePoller func() bool

// muteActor polls a [MutePoller] and emits a DataMicMuted event for the
// initial state and then only when the state changes, per spec.md §6.3.
type muteActor struct {
	sink eventbus.Sink
	done chan struct{}
}

// startMute begins polling poll. If poll is nil, the actor is a no-op (no
// hardware mute watcher configured for this host).
func startMute(poll MutePoller, sink eventbus.Sink) *muteActor {
	m := &muteActor{sink: sink, done: make(chan struct{})}
	if poll != nil {
		go m.run(poll)
	}
	return m
}

func (m *muteActor) run(poll MutePoller) {
	ticker := time.NewTicker(mutePollInterval)
	defer ticker.Stop()

	last := poll()
	m.sink.OnData(eventbus.Data{Kind: eventbus.DataMicMuted, Muted: last})

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			cur := poll()
			if cur != last {
				last = cur
				m.sink.OnData(eventbus.Data{Kind: eventbus.DataMicMuted, Muted: cur})
			}
		}
	}
}

// Stop halts polling.
func (m *muteActor) Stop() error {
	select {
	case <-m.done:
	default:
		close(m.done)
	}
	return nil
}
