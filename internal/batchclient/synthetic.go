package batchclient

import (
	"context"
	"fmt"
	"time"

	"github.com/hyprnote/stt-gateway/internal/adapter"
	"github.com/hyprnote/stt-gateway/internal/listenclient"
	"github.com/hyprnote/stt-gateway/internal/schema"
)

// syntheticChunkMs is the frame duration fed to adapters that lack a real
// batch endpoint.
const syntheticChunkMs = 100

// syntheticDelayMs throttles the feed to roughly realtime pace, matching
// what a live session would present to the provider.
const syntheticDelayMs = syntheticChunkMs

// syntheticStream transcribes audio by replaying it through a realtime
// [listenclient.Client] at a throttled pace and collecting the resulting
// transcript, per spec.md §4.4. Used for every adapter that does not
// implement [BatchAdapter].
func (c *Client) syntheticStream(ctx context.Context, a adapter.Adapter, apiBase, apiKey string, audio []byte, params schema.ListenParams, onProgress OnProgress) (schema.TranscriptResponse, error) {
	chunks, sampleRate, channels, err := chunkAudioBytes(audio, syntheticChunkMs)
	if err != nil {
		return schema.TranscriptResponse{}, err
	}
	params.SampleRate = sampleRate
	params.Channels = channels

	lc, err := listenclient.Build(ctx, a, apiBase, apiKey, params, channels)
	if err != nil {
		return schema.TranscriptResponse{}, fmt.Errorf("batchclient: build listen client: %w", err)
	}
	defer lc.Close()

	errCh := make(chan error, 1)
	go feedChunks(ctx, lc, chunks, errCh)

	return collectUntilFinal(ctx, lc, len(chunks), errCh, onProgress)
}

func feedChunks(ctx context.Context, lc *listenclient.Client, chunks [][]byte, errCh chan<- error) {
	ticker := time.NewTicker(syntheticDelayMs * time.Millisecond)
	defer ticker.Stop()

	for _, chunk := range chunks {
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
			return
		case <-ticker.C:
			if err := lc.SendAudio(chunk); err != nil {
				errCh <- err
				return
			}
		}
	}

	if err := lc.Finalize(ctx); err != nil {
		errCh <- err
		return
	}
	errCh <- nil
}

// collectUntilFinal drains lc's inbound responses, tracking the fraction of
// totalChunks consumed so far, until the terminal (from_finalize) response
// arrives, the feeder reports an error, or responseTimeout elapses between
// responses.
func collectUntilFinal(ctx context.Context, lc *listenclient.Client, totalChunks int, errCh <-chan error, onProgress OnProgress) (schema.TranscriptResponse, error) {
	var last schema.TranscriptResponse
	seen := 0
	timer := time.NewTimer(responseTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-timer.C:
			return last, fmt.Errorf("batchclient: synthetic stream timed out waiting for a response")
		case feedErr := <-errCh:
			if feedErr != nil {
				return last, fmt.Errorf("batchclient: feed: %w", feedErr)
			}
			// Feed completed and Finalize was sent; keep draining responses
			// until the provider closes the inbound channel.
			errCh = nil
		case resp, ok := <-lc.Inbound():
			if !ok {
				return last, nil
			}
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(responseTimeout)

			if resp.Type != schema.TypeTranscript || resp.Transcript == nil {
				continue
			}
			last = *resp.Transcript
			seen++
			pct := percentage(seen, totalChunks)
			if onProgress != nil {
				onProgress(last, pct)
			}
			if last.FromFinalize {
				return last, nil
			}
		}
	}
}

// percentage reports how much of totalChunks has been consumed so far,
// surfaced to the BatchResponseStreamed event per spec.md §4.7.
func percentage(seen, total int) float64 {
	if total <= 0 {
		return 100
	}
	pct := 100 * float64(seen) / float64(total)
	if pct > 100 {
		pct = 100
	}
	return pct
}
