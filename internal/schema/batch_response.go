package schema

// BatchStatus is the lifecycle state of a batch transcription job, returned
// from both POST /listen (synchronous completion) and GET /status/{id}
// (polling an async upload-and-poll job).
type BatchStatus string

const (
	BatchQueued     BatchStatus = "queued"
	BatchProcessing BatchStatus = "processing"
	BatchCompleted  BatchStatus = "completed"
	BatchFailed     BatchStatus = "failed"
)

// BatchResponse is the unified JSON body for the batch transcription
// endpoints, wrapping whatever the resolved provider's upload-and-poll or
// synthetic-stream path ultimately produced.
type BatchResponse struct {
	PipelineID string              `json:"pipeline_id"`
	Provider   string              `json:"provider"`
	Status     BatchStatus         `json:"status"`
	Result     *TranscriptResponse `json:"result,omitempty"`
	Error      string              `json:"error,omitempty"`
}
