package sessionactor

import (
	"context"
	"fmt"
	"time"

	"github.com/hyprnote/stt-gateway/internal/accumulator"
	"github.com/hyprnote/stt-gateway/internal/eventbus"
	"github.com/hyprnote/stt-gateway/internal/vault"
)

// finalizeDeadline bounds how long Shutdown waits for the Listener to drain
// its terminal response, per the stop sequence in spec.md §4.7.
const finalizeDeadline = 15 * time.Second

// fanoutBuffer sizes each subscriber channel the Session fans audio frames
// out to. Per spec.md §5, continuous data is bounded and drop-on-full.
const fanoutBuffer = 64

// Session is the supervisor owning one live session's Audio, Listener,
// Amplitude, Mute, and Record children, per spec.md §4.7.
type Session struct {
	sessionID string
	sink      eventbus.Sink

	audio     *audioActor
	listener  *listenerActor
	amplitude *amplitudeActor
	mute      *muteActor
	record    *recordActor

	fanoutDone chan struct{}
}

// newSession runs the start sequence: spawn Audio, then Listener, then the
// best-effort Amplitude/Mute/Record children. If Audio or Listener fails to
// initialize, already-started children are torn down and the error is
// returned for Root to report as Inactive{error}.
func newSession(ctx context.Context, params StartParams, v *vault.Vault, sink eventbus.Sink, acc *accumulator.Accumulator, mutePoll MutePoller) (*Session, error) {
	s := &Session{sessionID: params.SessionID, sink: sink, fanoutDone: make(chan struct{})}

	audioAct, err := startAudio(ctx, params.Platform, params.ChannelID, sink)
	if err != nil {
		return nil, fmt.Errorf("sessionactor: session: audio: %w", err)
	}
	s.audio = audioAct

	toListener := make(chan ChannelFrame, fanoutBuffer)
	toAmplitude := make(chan ChannelFrame, fanoutBuffer)
	toRecord := make(chan ChannelFrame, fanoutBuffer)
	go s.fanout(audioAct.Frames(), toListener, toAmplitude, toRecord)

	listenerAct, err := startListener(ctx, params, sink, acc)
	if err != nil {
		s.audio.Stop()
		close(s.fanoutDone)
		return nil, fmt.Errorf("sessionactor: session: listener: %w", err)
	}
	s.listener = listenerAct
	go s.listener.Consume(toListener)

	s.amplitude = startAmplitude(toAmplitude, sink)
	s.mute = startMute(mutePoll, sink)

	if params.RecordAudio {
		recordAct, err := startRecord(v, params.SessionID, channelCount(params) > 1, toRecord)
		if err != nil {
			// Recording is best-effort (PolicyStop): log via the error stream
			// but do not fail the whole session over it.
			sink.OnError(eventbus.Error{Kind: eventbus.ErrorAudio, Err: err})
		} else {
			s.record = recordAct
		}
	}

	return s, nil
}

// fanout distributes each frame to every subscriber, dropping for whichever
// subscriber is backed up rather than blocking the others.
func (s *Session) fanout(in <-chan ChannelFrame, subs ...chan ChannelFrame) {
	for {
		select {
		case <-s.fanoutDone:
			return
		case cf, ok := <-in:
			if !ok {
				return
			}
			for _, sub := range subs {
				select {
				case sub <- cf:
				default:
				}
			}
		}
	}
}

// Shutdown runs the stop sequence: finalize the Listener (with a deadline),
// then stop Audio, Amplitude, Mute, and Record.
func (s *Session) Shutdown(ctx context.Context) error {
	finalizeCtx, cancel := context.WithTimeout(ctx, finalizeDeadline)
	defer cancel()

	var firstErr error
	if err := s.listener.Finalize(finalizeCtx); err != nil {
		firstErr = err
	}
	if err := s.listener.Stop(); err != nil && firstErr == nil {
		firstErr = err
	}

	close(s.fanoutDone)

	if err := s.audio.Stop(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.amplitude.Stop(); err != nil && firstErr == nil {
		firstErr = err
	}
	if s.mute != nil {
		if err := s.mute.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.record != nil {
		if err := s.record.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
