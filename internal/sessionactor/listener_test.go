package sessionactor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/hyprnote/stt-gateway/internal/adapter"
	"github.com/hyprnote/stt-gateway/internal/listenclient"
	"github.com/hyprnote/stt-gateway/internal/schema"
	"github.com/hyprnote/stt-gateway/pkg/audio"
)

func audioFrame(pcm []byte) audio.AudioFrame {
	return audio.AudioFrame{Data: pcm, SampleRate: 16000, Channels: 1}
}

// monoAdapter is a minimal Adapter stub with no native multichannel support,
// so listener.Consume is forced onto the mixdown path.
type monoAdapter struct{}

func (monoAdapter) ProviderName() string                                    { return "mono-fake" }
func (monoAdapter) IsSupportedLanguages(_ []schema.Language, _ string) bool { return true }
func (monoAdapter) SupportsNativeMultichannel() bool                        { return false }
func (monoAdapter) BuildWSURL(apiBase string, _ schema.ListenParams, _ int) (string, error) {
	return apiBase, nil
}
func (monoAdapter) BuildAuthHeader(_ string) map[string]string { return nil }
func (monoAdapter) KeepAliveMessage() ([]byte, bool, bool)     { return nil, false, false }
func (monoAdapter) FinalizeMessage() ([]byte, bool, bool)      { return nil, false, false }
func (monoAdapter) AudioToMessage(pcm []byte) ([]byte, bool)   { return pcm, false }
func (monoAdapter) InitialMessage(_ string, _ schema.ListenParams, _ int) ([]byte, bool, bool) {
	return nil, false, false
}
func (monoAdapter) ParseResponse(_ []byte) ([]schema.StreamResponse, error) { return nil, nil }

var _ adapter.Adapter = monoAdapter{}

// recordingServer accepts one WebSocket connection and records every binary
// frame it receives.
type recordingServer struct {
	*httptest.Server
	mu       sync.Mutex
	received [][]byte
}

func newRecordingServer(t *testing.T) *recordingServer {
	t.Helper()
	rs := &recordingServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{})
		if err != nil {
			return
		}
		for {
			_, msg, err := conn.Read(r.Context())
			if err != nil {
				return
			}
			rs.mu.Lock()
			rs.received = append(rs.received, append([]byte{}, msg...))
			rs.mu.Unlock()
		}
	}))
	t.Cleanup(rs.Server.Close)
	return rs
}

func (rs *recordingServer) wsURL() string { return "ws" + strings.TrimPrefix(rs.Server.URL, "http") }

func (rs *recordingServer) last(t *testing.T) []byte {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		rs.mu.Lock()
		n := len(rs.received)
		var got []byte
		if n > 0 {
			got = rs.received[n-1]
		}
		rs.mu.Unlock()
		if n > 0 {
			return got
		}
		select {
		case <-deadline:
			t.Fatal("server never received a frame")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func int16le(v int16) []byte { return []byte{byte(v), byte(v >> 8)} }

func TestListenerActor_Consume_MixesDownWhenNotDual(t *testing.T) {
	srv := newRecordingServer(t)
	client, err := listenclient.Build(context.Background(), monoAdapter{}, srv.wsURL(), "key", schema.ListenParams{}, 2)
	if err != nil {
		t.Fatalf("listenclient.Build: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if client.Dual() {
		t.Fatal("Dual() = true, want false for an adapter without native multichannel support")
	}

	l := &listenerActor{client: client, done: make(chan struct{})}
	frames := make(chan ChannelFrame, 4)
	go l.Consume(frames)

	mic := int16le(10000)
	spk := int16le(5000)
	frames <- ChannelFrame{Channel: 0, Frame: audioFrame(mic)}
	frames <- ChannelFrame{Channel: 1, Frame: audioFrame(spk)}
	close(frames)

	got := srv.last(t)
	want := int16le(15000)
	if string(got) != string(want) {
		t.Fatalf("mixed frame = %v, want %v (10000+5000 mixed)", got, want)
	}
}

func TestListenerActor_Consume_ClampsOnOverflow(t *testing.T) {
	srv := newRecordingServer(t)
	client, err := listenclient.Build(context.Background(), monoAdapter{}, srv.wsURL(), "key", schema.ListenParams{}, 1)
	if err != nil {
		t.Fatalf("listenclient.Build: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	l := &listenerActor{client: client, done: make(chan struct{})}
	frames := make(chan ChannelFrame, 4)
	go l.Consume(frames)

	frames <- ChannelFrame{Channel: 0, Frame: audioFrame(int16le(30000))}
	frames <- ChannelFrame{Channel: 1, Frame: audioFrame(int16le(30000))}
	close(frames)

	got := srv.last(t)
	want := int16le(32767)
	if string(got) != string(want) {
		t.Fatalf("mixed frame = %v, want clamped %v", got, want)
	}
}
