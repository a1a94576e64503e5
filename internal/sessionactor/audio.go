package sessionactor

import (
	"context"
	"fmt"
	"sync"

	"github.com/hyprnote/stt-gateway/internal/eventbus"
	"github.com/hyprnote/stt-gateway/internal/session"
	"github.com/hyprnote/stt-gateway/pkg/audio"
)

// outBuffer bounds the actor's combined output channel. Per spec.md §5,
// continuous audio data drops rather than blocks under backpressure.
const outBuffer = 128

// ChannelFrame tags an [audio.AudioFrame] with the logical channel it came
// from: 0 for the session owner's own mic capture, 1 for every other
// participant's audio, treated collectively as "speaker"/meeting audio.
type ChannelFrame struct {
	Channel int
	Frame   audio.AudioFrame
}

// audioActor owns the live platform connection for a session, using a
// [session.Reconnector] for automatic reconnection on device/network drops,
// and fans every participant's input stream into a single tagged channel.
type audioActor struct {
	reconnector *session.Reconnector
	sink        eventbus.Sink

	out  chan ChannelFrame
	done chan struct{}

	mu      sync.Mutex
	primary string // participant ID mapped to channel 0; empty until the first join
}

// startAudio connects to the platform's channel and begins forwarding every
// participant's frames, tagged by logical channel, into Frames().
func startAudio(ctx context.Context, platform audio.Platform, channelID string, sink eventbus.Sink) (*audioActor, error) {
	a := &audioActor{
		sink: sink,
		out:  make(chan ChannelFrame, outBuffer),
		done: make(chan struct{}),
	}

	sink.OnProgress(eventbus.Progress{Kind: eventbus.ProgressAudioInitializing})

	a.reconnector = session.NewReconnector(session.ReconnectorConfig{
		Platform:    platform,
		ChannelID:   channelID,
		OnReconnect: a.wireConnection,
	})

	conn, err := a.reconnector.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("sessionactor: audio: %w", err)
	}
	a.reconnector.Monitor(ctx)
	a.wireConnection(conn)

	sink.OnProgress(eventbus.Progress{Kind: eventbus.ProgressAudioReady})
	return a, nil
}

// wireConnection registers the participant-change callback and fans out
// every input stream already present on conn. It is also the Reconnector's
// OnReconnect hook, so it re-subscribes everything after a reconnect.
func (a *audioActor) wireConnection(conn audio.Connection) {
	conn.OnParticipantChange(func(ev audio.Event) {
		if ev.Type != audio.EventJoin {
			return
		}
		for id, ch := range conn.InputStreams() {
			if id == ev.UserID {
				go a.forward(a.channelFor(id), ch)
			}
		}
	})

	for id, ch := range conn.InputStreams() {
		go a.forward(a.channelFor(id), ch)
	}
}

// channelFor assigns the first participant ID it sees to channel 0 (mic);
// every other participant is channel 1 (speaker/meeting audio).
func (a *audioActor) channelFor(participantID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.primary == "" {
		a.primary = participantID
	}
	if participantID == a.primary {
		return 0
	}
	return 1
}

// forward relays frames from a single participant stream into the actor's
// combined output, dropping frames if the consumer side is backed up.
func (a *audioActor) forward(channel int, ch <-chan audio.AudioFrame) {
	for {
		select {
		case <-a.done:
			return
		case frame, ok := <-ch:
			if !ok {
				return
			}
			select {
			case a.out <- ChannelFrame{Channel: channel, Frame: frame}:
			default:
			}
		}
	}
}

// Frames returns the actor's combined, channel-tagged output stream.
func (a *audioActor) Frames() <-chan ChannelFrame {
	return a.out
}

// NotifyDeviceError signals the underlying Reconnector that the connection
// was lost, triggering its reconnection with backoff.
func (a *audioActor) NotifyDeviceError() {
	a.reconnector.NotifyDisconnect()
}

// Stop tears down the connection and halts forwarding.
func (a *audioActor) Stop() error {
	select {
	case <-a.done:
	default:
		close(a.done)
	}
	return a.reconnector.Stop()
}
