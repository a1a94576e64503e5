package sessionactor

import (
	"context"

	"github.com/hyprnote/stt-gateway/internal/accumulator"
	"github.com/hyprnote/stt-gateway/internal/adapter"
	"github.com/hyprnote/stt-gateway/internal/batchclient"
	"github.com/hyprnote/stt-gateway/internal/eventbus"
	"github.com/hyprnote/stt-gateway/internal/schema"
)

// BatchParams configures a one-shot batch transcription run.
type BatchParams struct {
	Kind    adapter.Kind
	APIBase string
	APIKey  string
	Audio   []byte
	Listen  schema.ListenParams
}

// RunBatch transcribes a complete audio file against client, streaming every
// intermediate response through sink and the accumulator exactly like a
// realtime session, then returns the final transcript. Unlike the Session
// supervisor, a batch run has no children to restart — a failure simply
// returns an error.
func RunBatch(ctx context.Context, client *batchclient.Client, params BatchParams, sink eventbus.Sink, acc *accumulator.Accumulator) (schema.TranscriptResponse, error) {
	onProgress := func(resp schema.TranscriptResponse, pct float64) {
		sr := schema.NewTranscriptResponse(resp)
		sink.OnData(eventbus.Data{Kind: eventbus.DataStreamResponse, Response: sr})
		if acc != nil {
			acc.Ingest(sr)
		}
	}

	final, err := client.Transcribe(ctx, params.Kind, params.APIBase, params.APIKey, params.Audio, params.Listen, onProgress)
	if err != nil {
		sink.OnError(eventbus.Error{Kind: eventbus.ErrorConnection, Err: err})
		return schema.TranscriptResponse{}, err
	}
	return final, nil
}
