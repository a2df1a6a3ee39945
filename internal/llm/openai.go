package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements Provider on the OpenAI API (or any compatible
// endpoint via a custom base URL).
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

func NewOpenAIProvider(apiKey, model, baseURL string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (p *OpenAIProvider) Model() string { return p.model }

func (p *OpenAIProvider) chatRequest(system, user string) openai.ChatCompletionRequest {
	// No forced JSON response format: the headline re-evaluation prompt
	// expects a bare line, and the summary parser validates its own JSON.
	return openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: 0.3,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
}

func (p *OpenAIProvider) Complete(ctx context.Context, system, user string) (string, Usage, error) {
	resp, err := p.client.CreateChatCompletion(ctx, p.chatRequest(system, user))
	if err != nil {
		return "", Usage{}, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", Usage{}, fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, usageFrom(resp.Usage), nil
}

func usageFrom(u openai.Usage) Usage {
	usage := Usage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
	}
	if u.PromptTokensDetails != nil {
		usage.CachedTokens = u.PromptTokensDetails.CachedTokens
	}
	return usage
}

func (p *OpenAIProvider) SubmitBatch(ctx context.Context, reqs []BatchRequest) (string, error) {
	lines := make([]openai.BatchLineItem, 0, len(reqs))
	for _, r := range reqs {
		lines = append(lines, openai.BatchChatCompletionRequest{
			CustomID: r.CustomID,
			Method:   "POST",
			URL:      openai.BatchEndpointChatCompletions,
			Body:     p.chatRequest(r.System, r.User),
		})
	}

	resp, err := p.client.CreateBatchWithUploadFile(ctx, openai.CreateBatchWithUploadFileRequest{
		Endpoint:         openai.BatchEndpointChatCompletions,
		CompletionWindow: "24h",
		UploadBatchFileRequest: openai.UploadBatchFileRequest{
			FileName: "summaries.jsonl",
			Lines:    lines,
		},
	})
	if err != nil {
		return "", fmt.Errorf("batch submission failed: %w", err)
	}
	return resp.ID, nil
}

func (p *OpenAIProvider) PollBatch(ctx context.Context, batchID string) (*BatchState, error) {
	resp, err := p.client.RetrieveBatch(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("batch retrieval failed: %w", err)
	}
	state := &BatchState{
		Status:    resp.Status,
		Total:     resp.RequestCounts.Total,
		Completed: resp.RequestCounts.Completed,
		Failed:    resp.RequestCounts.Failed,
	}
	if resp.OutputFileID != nil {
		state.OutputFileID = *resp.OutputFileID
	}
	return state, nil
}

// batchOutputLine is one record of the batch output JSONL file.
type batchOutputLine struct {
	CustomID string `json:"custom_id"`
	Response *struct {
		StatusCode int                           `json:"status_code"`
		Body       openai.ChatCompletionResponse `json:"body"`
	} `json:"response"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *OpenAIProvider) FetchBatchResults(ctx context.Context, outputFileID string) ([]BatchResult, error) {
	raw, err := p.client.GetFileContent(ctx, outputFileID)
	if err != nil {
		return nil, fmt.Errorf("batch output download failed: %w", err)
	}
	defer raw.Close()

	var results []BatchResult
	scanner := bufio.NewScanner(raw)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var out batchOutputLine
		if err := json.Unmarshal(line, &out); err != nil {
			return nil, fmt.Errorf("malformed batch output line: %w", err)
		}

		result := BatchResult{CustomID: out.CustomID}
		switch {
		case out.Error != nil:
			result.Err = out.Error.Message
		case out.Response == nil || out.Response.StatusCode != 200:
			result.Err = "non-success response"
		case len(out.Response.Body.Choices) == 0:
			result.Err = "no choices in response"
		default:
			result.Content = out.Response.Body.Choices[0].Message.Content
			result.Usage = usageFrom(out.Response.Body.Usage)
		}
		results = append(results, result)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("batch output read failed: %w", err)
	}
	return results, nil
}
