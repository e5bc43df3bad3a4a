// Package llm wraps the chat-completion service used by the analyzer, the
// generator, and the validation loop's repair sub-protocol. All callers go
// through the Client interface so tests can substitute a fake without network
// access.
package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Client is the minimal completion surface the pipeline needs: one system
// prompt, one user prompt, one text response.
type Client interface {
	Complete(ctx context.Context, system, user string, maxTokens int) (string, error)
}

// OpenAIClient implements Client over the OpenAI chat-completion API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates an OpenAIClient for the given API key and model.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// Complete sends one system+user exchange and returns the assistant's text.
// An empty choice list is an error; callers treat any error here according to
// their own policy (the repair path absorbs it, the analyzer propagates it).
func (c *OpenAIClient) Complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.7,
		MaxTokens:   maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// StripFences removes a surrounding markdown code fence from s, if present.
// Models frequently wrap JSON or code responses in ``` blocks even when asked
// not to; the opening fence's language tag (```json, ```python) is discarded
// along with the fence lines. Content without fences is returned trimmed but
// otherwise unchanged.
func StripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	// Drop the opening fence line (``` or ```lang).
	if idx := strings.Index(trimmed, "\n"); idx != -1 {
		trimmed = trimmed[idx+1:]
	} else {
		return ""
	}

	// Drop the closing fence.
	trimmed = strings.TrimRight(trimmed, " \t\n")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimRight(trimmed, " \t\n")
}
