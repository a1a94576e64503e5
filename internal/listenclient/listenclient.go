// Package listenclient drives one outbound WebSocket connection to an STT
// provider through its Adapter, generalizing the teacher's Deepgram-specific
// dial/writeLoop/readLoop session into a shape every adapter shares.
package listenclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/hyprnote/stt-gateway/internal/adapter"
	"github.com/hyprnote/stt-gateway/internal/schema"
)

// ErrClosed is returned by SendAudio/SendControl once the client has been
// closed.
var ErrClosed = errors.New("listenclient: session is closed")

// dialTimeout bounds the initial WebSocket handshake.
const dialTimeout = 10 * time.Second

// keepAliveInterval is how often KeepAliveMessage is sent, for adapters that
// provide one, to prevent the provider from closing the connection on its
// own idle timeout.
const keepAliveInterval = 5 * time.Second

// finalizeDeadline bounds how long Finalize waits for the provider to emit a
// from_finalize=true response before giving up and returning what it has.
const finalizeDeadline = 15 * time.Second

// OutboundAudio is a single-channel or dual-channel PCM chunk, depending on
// how the client was built.
type OutboundAudio struct {
	Mono         []byte
	Mic, Speaker []byte
}

// Client owns one live connection to an upstream provider and translates
// between the gateway's schema and the adapter's wire protocol.
type Client struct {
	adapter adapter.Adapter
	conn    *websocket.Conn
	dual    bool

	inbound chan schema.StreamResponse
	audio   chan OutboundAudio
	control chan schema.ControlType

	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup

	finalizeMu   sync.Mutex
	finalizeSubs []chan struct{}
}

// Build dials apiBase using a, authenticating with apiKey, and requesting
// the given ListenParams over channels logical input channels (1 or 2).
// When channels == 2 and the adapter lacks native multichannel support, the
// connection falls back to a single upstream channel — callers are expected
// to mix mic+speaker themselves before calling SendAudio in that case.
func Build(ctx context.Context, a adapter.Adapter, apiBase, apiKey string, params schema.ListenParams, channels int) (*Client, error) {
	dual := channels > 1 && a.SupportsNativeMultichannel()
	upstreamChannels := 1
	if dual {
		upstreamChannels = 2
	}

	wsURL, err := a.BuildWSURL(apiBase, params, upstreamChannels)
	if err != nil {
		return nil, fmt.Errorf("listenclient: build url: %w", err)
	}

	headers := http.Header{}
	for k, v := range a.BuildAuthHeader(apiKey) {
		headers.Set(k, v)
	}

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, wsURL, &websocket.DialOptions{HTTPHeader: headers})
	if err != nil {
		return nil, fmt.Errorf("listenclient: dial: %w", err)
	}

	c := &Client{
		adapter: a,
		conn:    conn,
		dual:    dual,
		inbound: make(chan schema.StreamResponse, 64),
		audio:   make(chan OutboundAudio, 256),
		control: make(chan schema.ControlType, 8),
		done:    make(chan struct{}),
	}

	if payload, isText, ok := a.InitialMessage(apiKey, params, upstreamChannels); ok {
		if err := c.write(ctx, payload, isText); err != nil {
			conn.Close(websocket.StatusInternalError, "initial message failed")
			return nil, fmt.Errorf("listenclient: initial message: %w", err)
		}
	}

	c.wg.Add(2)
	go c.writeLoop(ctx)
	go c.readLoop(ctx)
	if _, _, ok := a.KeepAliveMessage(); ok {
		c.wg.Add(1)
		go c.keepAliveLoop(ctx)
	}

	return c, nil
}

// Inbound returns the channel of parsed StreamResponse values. Closed when
// the session ends.
func (c *Client) Inbound() <-chan schema.StreamResponse { return c.inbound }

// Dual reports whether the connection negotiated native dual-channel
// delivery; callers should use SendDualAudio rather than SendAudio when true.
func (c *Client) Dual() bool { return c.dual }

// SendAudio queues a mono PCM chunk for delivery.
func (c *Client) SendAudio(pcm []byte) error {
	return c.enqueueAudio(OutboundAudio{Mono: pcm})
}

// SendDualAudio queues a dual-channel PCM chunk. Only meaningful when the
// client was built with channels=2 and the adapter supports native
// multichannel; otherwise callers should mix down to mono first.
func (c *Client) SendDualAudio(mic, speaker []byte) error {
	return c.enqueueAudio(OutboundAudio{Mic: mic, Speaker: speaker})
}

func (c *Client) enqueueAudio(a OutboundAudio) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.audio <- a:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

// SendControl queues a control message (KeepAlive, Finalize, CloseStream).
func (c *Client) SendControl(ct schema.ControlType) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.control <- ct:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

// Finalize sends the adapter's finalize frame and blocks until a
// from_finalize=true transcript response has passed through Inbound(), the
// finalizeDeadline elapses, or ctx is cancelled — whichever comes first.
func (c *Client) Finalize(ctx context.Context) error {
	sub := make(chan struct{}, 1)
	c.finalizeMu.Lock()
	c.finalizeSubs = append(c.finalizeSubs, sub)
	c.finalizeMu.Unlock()

	if err := c.SendControl(schema.ControlFinalize); err != nil {
		return err
	}

	deadline, cancel := context.WithTimeout(ctx, finalizeDeadline)
	defer cancel()
	select {
	case <-sub:
		return nil
	case <-deadline.Done():
		return deadline.Err()
	case <-c.done:
		return nil
	}
}

// Close terminates the session: stops accepting new audio/control, drains
// any already-queued frames, and closes the underlying connection.
func (c *Client) Close() error {
	c.once.Do(func() {
		close(c.done)
		payload, _ := schema.MarshalControlMessage(schema.ControlCloseStream)
		_ = c.conn.Write(context.Background(), websocket.MessageText, payload)
		c.wg.Wait()
		c.conn.Close(websocket.StatusNormalClosure, "session closed")
	})
	return nil
}

func (c *Client) write(ctx context.Context, payload []byte, isText bool) error {
	typ := websocket.MessageBinary
	if isText {
		typ = websocket.MessageText
	}
	return c.conn.Write(ctx, typ, payload)
}

func (c *Client) writeLoop(ctx context.Context) {
	defer c.wg.Done()
	for {
		select {
		case a, ok := <-c.audio:
			if !ok {
				return
			}
			if err := c.writeAudio(ctx, a); err != nil {
				return
			}
		case ct, ok := <-c.control:
			if !ok {
				return
			}
			if err := c.writeControl(ctx, ct); err != nil {
				return
			}
		case <-c.done:
			c.drain(ctx)
			return
		}
	}
}

func (c *Client) drain(ctx context.Context) {
	for {
		select {
		case a, ok := <-c.audio:
			if !ok {
				return
			}
			_ = c.writeAudio(ctx, a)
		case ct, ok := <-c.control:
			if !ok {
				return
			}
			_ = c.writeControl(ctx, ct)
		default:
			return
		}
	}
}

func (c *Client) writeAudio(ctx context.Context, a OutboundAudio) error {
	if c.dual && (a.Mic != nil || a.Speaker != nil) {
		payload, isText := c.adapter.AudioToMessage(append(append([]byte{}, a.Mic...), a.Speaker...))
		return c.write(ctx, payload, isText)
	}
	payload, isText := c.adapter.AudioToMessage(a.Mono)
	return c.write(ctx, payload, isText)
}

func (c *Client) writeControl(ctx context.Context, ct schema.ControlType) error {
	var payload []byte
	var isText, ok bool
	switch ct {
	case schema.ControlFinalize:
		payload, isText, ok = c.adapter.FinalizeMessage()
	case schema.ControlKeepAlive:
		payload, isText, ok = c.adapter.KeepAliveMessage()
	default:
		payload, err := schema.MarshalControlMessage(ct)
		if err != nil {
			return err
		}
		return c.write(ctx, payload, true)
	}
	if !ok {
		return nil
	}
	return c.write(ctx, payload, isText)
}

func (c *Client) keepAliveLoop(ctx context.Context) {
	defer c.wg.Done()
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = c.SendControl(schema.ControlKeepAlive)
		case <-ctx.Done():
			return
		case <-c.done:
			return
		}
	}
}

func (c *Client) readLoop(ctx context.Context) {
	defer c.wg.Done()
	defer close(c.inbound)

	for {
		_, msg, err := c.conn.Read(ctx)
		if err != nil {
			return
		}

		responses, err := c.adapter.ParseResponse(msg)
		if err != nil {
			continue
		}
		for _, r := range responses {
			select {
			case c.inbound <- r:
			case <-c.done:
				return
			}
			if r.Type == schema.TypeTranscript && r.Transcript != nil && r.Transcript.FromFinalize {
				c.notifyFinalize()
			}
		}
	}
}

func (c *Client) notifyFinalize() {
	c.finalizeMu.Lock()
	subs := c.finalizeSubs
	c.finalizeSubs = nil
	c.finalizeMu.Unlock()
	for _, sub := range subs {
		select {
		case sub <- struct{}{}:
		default:
		}
	}
}
