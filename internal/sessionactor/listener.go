package sessionactor

import (
	"context"
	"fmt"

	"github.com/hyprnote/stt-gateway/internal/accumulator"
	"github.com/hyprnote/stt-gateway/internal/adapter"
	"github.com/hyprnote/stt-gateway/internal/eventbus"
	"github.com/hyprnote/stt-gateway/internal/listenclient"
	"github.com/hyprnote/stt-gateway/internal/observe"
	"github.com/hyprnote/stt-gateway/internal/routing"
	"github.com/hyprnote/stt-gateway/internal/schema"
	"github.com/hyprnote/stt-gateway/pkg/audio"
)

// listenerActor holds the WS connection via a [listenclient.Client], dialed
// through the hyprnote retry chain (spec.md §4.6), and feeds every inbound
// response into the session's accumulator and event sink.
type listenerActor struct {
	client *listenclient.Client
	kind   adapter.Kind

	sink eventbus.Sink
	acc  *accumulator.Accumulator

	done chan struct{}
}

// startListener dials the first healthy provider in params.Chain and begins
// forwarding responses. It blocks until the connection succeeds or every
// provider in the chain has failed.
func startListener(ctx context.Context, params StartParams, sink eventbus.Sink, acc *accumulator.Accumulator) (*listenerActor, error) {
	conn, err := routing.NewConnector[*listenclient.Client](params.Registry, params.Chain, params.FallbackConfig)
	if err != nil {
		return nil, fmt.Errorf("sessionactor: listener: %w", err)
	}

	var resolvedKind adapter.Kind
	client, err := conn.Connect(ctx, func(ctx context.Context, kind adapter.Kind, a adapter.Adapter) (*listenclient.Client, error) {
		apiBase := params.APIBaseFor(kind)
		apiKey := params.APIKeyFor(kind)
		c, err := listenclient.Build(ctx, a, apiBase, apiKey, params.ListenParams, channelCount(params))
		status := "ok"
		if err != nil {
			status = "error"
		}
		observe.DefaultMetrics().RecordProviderRequest(ctx, string(kind), "listen", status)
		if err != nil {
			observe.DefaultMetrics().RecordProviderError(ctx, string(kind), "listen")
			return nil, err
		}
		resolvedKind = kind
		return c, nil
	})
	if err != nil {
		return nil, fmt.Errorf("sessionactor: listener: all providers failed: %w", err)
	}

	sink.OnProgress(eventbus.Progress{Kind: eventbus.ProgressConnected, Adapter: string(resolvedKind)})

	l := &listenerActor{
		client: client,
		kind:   resolvedKind,
		sink:   sink,
		acc:    acc,
		done:   make(chan struct{}),
	}
	go l.pump()
	return l, nil
}

func channelCount(params StartParams) int {
	if params.ListenParams.Channels > 0 {
		return params.ListenParams.Channels
	}
	return 1
}

// pump forwards every inbound StreamResponse to the sink and, if an
// accumulator is attached, into it as well.
func (l *listenerActor) pump() {
	for resp := range l.client.Inbound() {
		l.sink.OnData(eventbus.Data{Kind: eventbus.DataStreamResponse, Response: resp})
		if resp.Type == schema.TypeError {
			l.sink.OnError(eventbus.Error{Kind: eventbus.ErrorConnection, Err: errorFromResponse(resp)})
			continue
		}
		if l.acc != nil {
			l.acc.Ingest(resp)
		}
	}
}

func errorFromResponse(resp schema.StreamResponse) error {
	if resp.Error != nil {
		return fmt.Errorf("%s: %s", resp.Error.ErrorCode, resp.Error.ErrorMessage)
	}
	return fmt.Errorf("listener: upstream error")
}

// Consume relays frames to the upstream provider until frames closes or Stop
// is called. When the connection negotiated native dual-channel delivery,
// mic and speaker chunks are paired using each channel's most recently seen
// chunk — providers expect one combined frame per send, not two independent
// streams. Otherwise mic and speaker are additively mixed down to a single
// mono chunk before sending, so neither channel's audio is lost to the
// provider simply overwriting one with the other.
func (l *listenerActor) Consume(frames <-chan ChannelFrame) {
	var lastMic, lastSpk []byte
	for {
		select {
		case cf, ok := <-frames:
			if !ok {
				return
			}
			if cf.Channel == 1 {
				lastSpk = cf.Frame.Data
			} else {
				lastMic = cf.Frame.Data
			}
			if l.client.Dual() {
				_ = l.client.SendDualAudio(lastMic, lastSpk)
				continue
			}
			_ = l.client.SendAudio(audio.MixMono(lastMic, lastSpk))
		case <-l.done:
			return
		}
	}
}

// Finalize asks the upstream provider to flush its tail and close out
// cleanly, per the Stop sequence's "finalize Listener" step.
func (l *listenerActor) Finalize(ctx context.Context) error {
	return l.client.Finalize(ctx)
}

// Stop tears the listener down.
func (l *listenerActor) Stop() error {
	select {
	case <-l.done:
	default:
		close(l.done)
	}
	return l.client.Close()
}
