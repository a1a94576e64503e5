package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/hyprnote/stt-gateway/internal/accumulator"
	"github.com/hyprnote/stt-gateway/internal/adapter"
	"github.com/hyprnote/stt-gateway/internal/listenclient"
	"github.com/hyprnote/stt-gateway/internal/observe"
	"github.com/hyprnote/stt-gateway/internal/routing"
	"github.com/hyprnote/stt-gateway/internal/schema"
)

// finalizeDeadline bounds how long ServeListen waits for a clean Finalize
// round trip after the client sends CloseStream/Finalize, mirroring
// listenclient's own deadline.
const finalizeDeadline = 15 * time.Second

// ServeListen upgrades r to a WebSocket and proxies audio to the resolved
// upstream provider for the lifetime of the connection, per spec.md §6.2.
func (s *Server) ServeListen(w http.ResponseWriter, r *http.Request) {
	userID, err := s.auth.Authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, errUnauthorized, err.Error())
		return
	}

	params, providerName := parseListenParams(r)

	chain, err := s.resolveChain(providerName, params)
	if err != nil {
		writeError(w, http.StatusBadRequest, errInvalidProvider, err.Error())
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{})
	if err != nil {
		return
	}

	sessionID := fmt.Sprintf("%s-%d", deviceFingerprint(r), time.Now().UnixNano())
	log := s.log.With("session_id", sessionID, "user_id", userID)
	sm := newStateMachine(sessionID, log)
	streamStart := time.Now()

	ctx := r.Context()
	sm.transition(StateAuthenticating)

	connector, err := routing.NewConnector[*listenclient.Client](s.registry, chain, s.fallback)
	if err != nil {
		closeWithError(ctx, conn, err)
		return
	}

	var resolvedKind adapter.Kind
	client, err := connector.Connect(ctx, func(ctx context.Context, kind adapter.Kind, a adapter.Adapter) (*listenclient.Client, error) {
		resolved := resolveModel(params, kind)
		c, dialErr := listenclient.Build(ctx, a, s.apiBaseFor(kind), s.apiKeyFor(kind), resolved, int(params.Channels))
		status := "ok"
		if dialErr != nil {
			status = "error"
		}
		observe.DefaultMetrics().RecordProviderRequest(ctx, string(kind), "listen", status)
		if dialErr != nil {
			observe.DefaultMetrics().RecordProviderError(ctx, string(kind), "listen")
			return nil, dialErr
		}
		resolvedKind = kind
		return c, nil
	})
	if err != nil {
		sm.transition(StateFailed)
		closeWithError(ctx, conn, err)
		return
	}
	defer client.Close()

	sm.transition(StateStreaming)
	log.Info("relay stream started", "provider", string(resolvedKind), "model", params.Model)

	acc := accumulator.New()
	done := make(chan struct{})
	go pumpUpstream(ctx, conn, client, acc, done)

	err = pumpClient(ctx, conn, client, sm)
	<-done

	if err != nil {
		sm.transition(StateFailed)
		closeWithError(ctx, conn, err)
		return
	}

	sm.transition(StateClosed)
	writeTerminal(ctx, conn, sessionID, streamStart, int(params.Channels))
	conn.Close(websocket.StatusNormalClosure, "")
}

// writeTerminal sends the one Metadata (TerminalResponse) frame spec.md
// §6.2 requires on every clean finish, regardless of whether the upstream
// adapter itself ever produced one.
func writeTerminal(ctx context.Context, conn *websocket.Conn, sessionID string, start time.Time, channels int) {
	resp := schema.NewTerminalResponse(schema.TerminalResponse{
		RequestID: sessionID,
		Duration:  time.Since(start).Seconds(),
		Channels:  channels,
	})
	payload, err := json.Marshal(resp)
	if err != nil {
		return
	}
	_ = conn.Write(ctx, websocket.MessageText, payload)
}

// pumpUpstream forwards every upstream StreamResponse to the client as JSON
// text frames until client.Inbound() closes.
func pumpUpstream(ctx context.Context, conn *websocket.Conn, client *listenclient.Client, acc *accumulator.Accumulator, done chan<- struct{}) {
	defer close(done)
	for resp := range client.Inbound() {
		if resp.Type == schema.TypeTranscript {
			acc.Ingest(resp)
		}
		payload, err := json.Marshal(resp)
		if err != nil {
			continue
		}
		if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
			return
		}
	}
}

// pumpClient reads frames from the client connection until it closes or asks
// for Finalize/CloseStream, relaying audio to client (the upstream
// listenclient) as it goes.
func pumpClient(ctx context.Context, conn *websocket.Conn, client *listenclient.Client, sm *stateMachine) error {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return finalizeAndWait(ctx, client, sm)
			}
			return fmt.Errorf("relay: read: %w", err)
		}

		if typ == websocket.MessageBinary {
			if err := client.SendAudio(data); err != nil {
				return fmt.Errorf("relay: forward audio: %w", err)
			}
			continue
		}

		if ctrl, ok := schema.ParseControlMessage(data); ok {
			switch ctrl.Type {
			case schema.ControlFinalize:
				return finalizeAndWait(ctx, client, sm)
			case schema.ControlCloseStream:
				return finalizeAndWait(ctx, client, sm)
			case schema.ControlKeepAlive:
				continue
			}
		}

		chunk, err := parseChunk(data)
		if err != nil {
			continue
		}
		switch chunk.Type {
		case schema.ChunkAudio:
			_ = client.SendAudio(chunk.Data)
		case schema.ChunkDualAudio:
			_ = client.SendDualAudio(chunk.Mic, chunk.Speaker)
		case schema.ChunkEnd:
			return finalizeAndWait(ctx, client, sm)
		}
	}
}

func parseChunk(data []byte) (schema.ListenInputChunk, error) {
	var chunk schema.ListenInputChunk
	err := json.Unmarshal(data, &chunk)
	return chunk, err
}

func finalizeAndWait(ctx context.Context, client *listenclient.Client, sm *stateMachine) error {
	sm.transition(StateFinalizing)
	fctx, cancel := context.WithTimeout(ctx, finalizeDeadline)
	defer cancel()
	return client.Finalize(fctx)
}

func closeWithError(ctx context.Context, conn *websocket.Conn, err error) {
	resp := schema.NewErrorResponse(schema.ErrorResponse{ErrorMessage: formatUserFriendlyError(err)})
	payload, marshalErr := json.Marshal(resp)
	if marshalErr == nil {
		_ = conn.Write(ctx, websocket.MessageText, payload)
	}
	conn.Close(websocket.StatusInternalError, "")
}
