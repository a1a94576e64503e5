// Package batchclient drives file-upload and synthetic-stream batch
// transcription (spec.md §4.4). Providers that expose a real upload-and-poll
// batch API are used directly; every other provider falls back to a
// synthetic realtime stream built on [listenclient], feeding the file's PCM
// through the same adapter the live path uses.
package batchclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/hyprnote/stt-gateway/internal/adapter"
	"github.com/hyprnote/stt-gateway/internal/schema"
)

// RetryConfig bounds batch attempt retries, per spec.md §4.4.
type RetryConfig struct {
	// NumRetries is the maximum number of attempts beyond the first.
	NumRetries int
	// MaxDelaySecs caps the backoff between attempts.
	MaxDelaySecs int
}

// DefaultRetryConfig matches the teacher's conservative provider-call retry
// posture: a handful of attempts, capped backoff.
var DefaultRetryConfig = RetryConfig{NumRetries: 3, MaxDelaySecs: 10}

// responseTimeout is the per-response stream timeout for both shapes.
const responseTimeout = 30 * time.Second

// BatchAdapter is an optional capability an [adapter.Adapter] may implement
// to expose a real upload-and-poll batch endpoint. Adapters that don't
// implement it are transcribed via the synthetic realtime stream fallback,
// which works against any adapter's existing realtime protocol.
type BatchAdapter interface {
	adapter.Adapter

	// BuildBatchURL returns the provider's upload endpoint for the given
	// params.
	BuildBatchURL(apiBase string, params schema.ListenParams) (string, error)

	// ParseBatchJob parses the provider's upload-accepted response into an
	// opaque job id pollable via BuildPollURL.
	ParseBatchJob(body []byte) (jobID string, err error)

	// BuildPollURL returns the status-polling URL for jobID.
	BuildPollURL(apiBase, jobID string) string

	// ParsePollResult parses a poll response; done is false while the job is
	// still processing.
	ParsePollResult(body []byte) (resp schema.TranscriptResponse, done bool, err error)
}

// Client transcribes audio files against a registry of adapters.
type Client struct {
	registry adapter.Registry
	http     *resty.Client
	retry    RetryConfig
}

// New constructs a Client. A zero RetryConfig is replaced with
// [DefaultRetryConfig].
func New(registry adapter.Registry, retry RetryConfig) *Client {
	if retry.NumRetries <= 0 && retry.MaxDelaySecs <= 0 {
		retry = DefaultRetryConfig
	}
	return &Client{
		registry: registry,
		http:     resty.New().SetTimeout(responseTimeout),
		retry:    retry,
	}
}

// OnProgress is called as a batch transcription makes headway: pct is the
// estimated fraction (0-100) of the input consumed so far. It may be nil.
type OnProgress func(resp schema.TranscriptResponse, pct float64)

// Transcribe runs a complete batch transcription of audio against kind,
// returning the final unified transcript. It dispatches to the
// upload-and-poll path when the registered adapter implements
// [BatchAdapter], and to the synthetic-stream path otherwise. onProgress, if
// non-nil, is invoked once per intermediate response.
func (c *Client) Transcribe(ctx context.Context, kind adapter.Kind, apiBase, apiKey string, audio []byte, params schema.ListenParams, onProgress OnProgress) (schema.TranscriptResponse, error) {
	a, ok := c.registry[kind]
	if !ok {
		return schema.TranscriptResponse{}, fmt.Errorf("batchclient: no adapter registered for %v", kind)
	}

	if ba, ok := a.(BatchAdapter); ok {
		return c.uploadAndPoll(ctx, ba, apiBase, apiKey, audio, params, onProgress)
	}
	return c.syntheticStream(ctx, a, apiBase, apiKey, audio, params, onProgress)
}
