// Package llm wraps the OpenAI-compatible chat API behind a narrow
// interface so the summariser can be tested against a scripted fake.
package llm

import "context"

// Usage is the token accounting for one completion.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	CachedTokens     int
}

// BatchRequest is one line of a batch submission. CustomID carries the
// cluster ID so results can be matched back.
type BatchRequest struct {
	CustomID string
	System   string
	User     string
}

// BatchState is a provider-side snapshot of a batch job.
type BatchState struct {
	Status       string // validating, in_progress, finalizing, completed, failed, expired, cancelled
	OutputFileID string
	Total        int
	Completed    int
	Failed       int
}

// Done reports whether the provider will make no further progress.
func (s *BatchState) Done() bool {
	switch s.Status {
	case "completed", "failed", "expired", "cancelled":
		return true
	}
	return false
}

// BatchResult is one line of a finished batch's output file.
type BatchResult struct {
	CustomID string
	Content  string
	Usage    Usage
	Err      string // provider error for this line, empty on success
}

// Provider is the summariser's view of the LLM vendor.
type Provider interface {
	Model() string

	// Complete runs one synchronous chat completion and returns the
	// assistant text plus token usage.
	Complete(ctx context.Context, system, user string) (string, Usage, error)

	// SubmitBatch uploads the requests as a batch job and returns the
	// provider-assigned batch ID.
	SubmitBatch(ctx context.Context, reqs []BatchRequest) (string, error)

	PollBatch(ctx context.Context, batchID string) (*BatchState, error)

	// FetchBatchResults downloads and parses a completed batch's output.
	FetchBatchResults(ctx context.Context, outputFileID string) ([]BatchResult, error)
}
