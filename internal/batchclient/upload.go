package batchclient

import (
	"context"
	"fmt"
	"time"

	"github.com/hyprnote/stt-gateway/internal/schema"
)

// pollInterval is how often an in-flight upload-and-poll job is re-checked.
const pollInterval = 500 * time.Millisecond

// maxPollAttempts bounds the polling loop independently of RetryConfig,
// which governs whole-attempt retries rather than poll ticks.
const maxPollAttempts = 120

// uploadAndPoll posts audio to ba's batch endpoint and polls until the job
// resolves or responseTimeout elapses, retrying the whole attempt up to
// c.retry.NumRetries times on any failure (errors are not classified as
// transient or permanent).
func (c *Client) uploadAndPoll(ctx context.Context, ba BatchAdapter, apiBase, apiKey string, audio []byte, params schema.ListenParams, onProgress OnProgress) (schema.TranscriptResponse, error) {
	var lastErr error
	delay := time.Second
	maxDelay := time.Duration(c.retry.MaxDelaySecs) * time.Second

	for attempt := 0; attempt <= c.retry.NumRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return schema.TranscriptResponse{}, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if maxDelay > 0 && delay > maxDelay {
				delay = maxDelay
			}
		}

		resp, err := c.tryUploadAndPoll(ctx, ba, apiBase, apiKey, audio, params)
		if err == nil {
			if onProgress != nil {
				onProgress(resp, 100)
			}
			return resp, nil
		}
		lastErr = err
	}
	return schema.TranscriptResponse{}, fmt.Errorf("batchclient: upload-and-poll exhausted retries: %w", lastErr)
}

func (c *Client) tryUploadAndPoll(ctx context.Context, ba BatchAdapter, apiBase, apiKey string, audio []byte, params schema.ListenParams) (schema.TranscriptResponse, error) {
	uploadURL, err := ba.BuildBatchURL(apiBase, params)
	if err != nil {
		return schema.TranscriptResponse{}, fmt.Errorf("batchclient: build batch url: %w", err)
	}

	req := c.http.R().SetContext(ctx).SetBody(audio)
	for k, v := range ba.BuildAuthHeader(apiKey) {
		req.SetHeader(k, v)
	}
	res, err := req.Post(uploadURL)
	if err != nil {
		return schema.TranscriptResponse{}, fmt.Errorf("batchclient: upload: %w", err)
	}
	if res.IsError() {
		return schema.TranscriptResponse{}, fmt.Errorf("batchclient: upload rejected: %s", res.Status())
	}

	jobID, err := ba.ParseBatchJob(res.Body())
	if err != nil {
		return schema.TranscriptResponse{}, fmt.Errorf("batchclient: parse job: %w", err)
	}

	pollURL := ba.BuildPollURL(apiBase, jobID)
	deadline := time.Now().Add(responseTimeout)
	for attempt := 0; attempt < maxPollAttempts; attempt++ {
		if time.Now().After(deadline) {
			return schema.TranscriptResponse{}, fmt.Errorf("batchclient: job %s timed out waiting for completion", jobID)
		}

		pollReq := c.http.R().SetContext(ctx)
		for k, v := range ba.BuildAuthHeader(apiKey) {
			pollReq.SetHeader(k, v)
		}
		pollRes, err := pollReq.Get(pollURL)
		if err != nil {
			return schema.TranscriptResponse{}, fmt.Errorf("batchclient: poll: %w", err)
		}

		result, done, err := ba.ParsePollResult(pollRes.Body())
		if err != nil {
			return schema.TranscriptResponse{}, fmt.Errorf("batchclient: parse poll result: %w", err)
		}
		if done {
			return result, nil
		}

		select {
		case <-ctx.Done():
			return schema.TranscriptResponse{}, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
	return schema.TranscriptResponse{}, fmt.Errorf("batchclient: job %s exceeded %d poll attempts", jobID, maxPollAttempts)
}
