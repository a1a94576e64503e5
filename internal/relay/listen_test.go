package relay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/hyprnote/stt-gateway/internal/adapter"
	"github.com/hyprnote/stt-gateway/internal/batchclient"
	"github.com/hyprnote/stt-gateway/internal/resilience"
	"github.com/hyprnote/stt-gateway/internal/schema"
)

// passthroughAdapter is a minimal Adapter stub whose BuildWSURL dials
// straight through to a fake upstream, with no init/keep-alive/finalize
// payloads of its own — listenclient.Finalize unblocks purely because the
// fake upstream closes its end, not because any FromFinalize frame arrives.
type passthroughAdapter struct{}

func (passthroughAdapter) ProviderName() string                                    { return "fake" }
func (passthroughAdapter) IsSupportedLanguages(_ []schema.Language, _ string) bool { return true }
func (passthroughAdapter) SupportsNativeMultichannel() bool                        { return false }
func (passthroughAdapter) BuildWSURL(apiBase string, _ schema.ListenParams, _ int) (string, error) {
	return apiBase, nil
}
func (passthroughAdapter) BuildAuthHeader(_ string) map[string]string { return nil }
func (passthroughAdapter) KeepAliveMessage() ([]byte, bool, bool)     { return nil, false, false }
func (passthroughAdapter) FinalizeMessage() ([]byte, bool, bool)      { return nil, false, false }
func (passthroughAdapter) AudioToMessage(pcm []byte) ([]byte, bool)   { return pcm, false }
func (passthroughAdapter) InitialMessage(_ string, _ schema.ListenParams, _ int) ([]byte, bool, bool) {
	return nil, false, false
}
func (passthroughAdapter) ParseResponse(_ []byte) ([]schema.StreamResponse, error) { return nil, nil }

var _ adapter.Adapter = passthroughAdapter{}

// newFakeUpstream accepts one WebSocket connection and closes it cleanly
// shortly after, simulating a provider that hangs up once the client is done
// sending — enough to unblock listenclient.Finalize via its done channel.
func newFakeUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{})
		if err != nil {
			return
		}
		go func() {
			for {
				if _, _, err := conn.Read(r.Context()); err != nil {
					return
				}
			}
		}()
		time.Sleep(20 * time.Millisecond)
		conn.Close(websocket.StatusNormalClosure, "")
	}))
	t.Cleanup(srv.Close)
	return srv
}

func fakeWSURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

// TestServeListen_CleanFinish_SendsTerminalFrame covers spec.md §6.2's
// unconditional requirement: on clean finish the server sends one Metadata
// (TerminalResponse) frame before closing with code 1000, regardless of
// whether the upstream adapter itself ever produced one.
func TestServeListen_CleanFinish_SendsTerminalFrame(t *testing.T) {
	upstream := newFakeUpstream(t)

	s := NewServer(Config{
		Registry:    adapter.Registry{adapter.KindDeepgram: passthroughAdapter{}},
		Credentials: map[adapter.Kind]bool{adapter.KindDeepgram: true},
		APIKeyFor:   func(adapter.Kind) string { return "test-key" },
		APIBaseFor:  func(adapter.Kind) string { return fakeWSURL(upstream.URL) },
		Fallback:    resilience.FallbackConfig{},
		BatchRetry:  batchclient.DefaultRetryConfig,
	})

	relaySrv := httptest.NewServer(s.Handler())
	t.Cleanup(relaySrv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, fakeWSURL(relaySrv.URL)+"/listen?provider=deepgram", nil)
	if err != nil {
		t.Fatalf("dial relay: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	closeMsg, err := schema.MarshalControlMessage(schema.ControlCloseStream)
	if err != nil {
		t.Fatalf("MarshalControlMessage: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, closeMsg); err != nil {
		t.Fatalf("write close control: %v", err)
	}

	var gotTerminal bool
	for i := 0; i < 10; i++ {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			break
		}
		if typ != websocket.MessageText {
			continue
		}
		var resp schema.StreamResponse
		if err := resp.UnmarshalJSON(data); err != nil {
			continue
		}
		if resp.Type == schema.TypeTerminal {
			gotTerminal = true
			break
		}
	}

	if !gotTerminal {
		t.Fatal("relay never sent a Metadata (TerminalResponse) frame before closing")
	}
}
