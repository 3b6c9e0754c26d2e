// Model client plumbing. The Extractor interface is the black-box boundary
// the pipeline depends on; OpenAIExtractor is the production implementation.
package llm

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Extractor invokes the language model with a prepared instruction and a
// transcript, returning the raw response text. Implementations must not
// retry; they surface the first failure to the caller.
type Extractor interface {
	Extract(ctx context.Context, instruction, transcript string) (string, error)
}

// OpenAIExtractor calls an OpenAI-compatible chat completions endpoint.
type OpenAIExtractor struct {
	client openai.Client

	// Model is the chat model identifier sent with every request.
	Model string
	// MaxTokens caps the completion length; values <= 0 default to 1024.
	MaxTokens int64
}

// NewOpenAIExtractor builds an extractor for the given API key and model.
// baseURL overrides the endpoint when non-empty (local gateways, proxies).
func NewOpenAIExtractor(apiKey, baseURL, model string, maxTokens int64) *OpenAIExtractor {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIExtractor{
		client:    openai.NewClient(opts...),
		Model:     model,
		MaxTokens: maxTokens,
	}
}

// Extract sends one request/response round trip: the instruction plus the
// quoted transcript as a single user message. No streaming, no multi-turn.
func (x *OpenAIExtractor) Extract(ctx context.Context, instruction, transcript string) (string, error) {
	maxTokens := x.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	resp, err := x.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(x.Model),
		MaxTokens: openai.Int(maxTokens),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(BuildUserMessage(instruction, transcript)),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
