package openai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/poiesic/groundwork/ai"
	"github.com/poiesic/groundwork/core"
)

// ChatModel implements ai.ChatModel using OpenAI-compatible chat APIs.
// Completions run in JSON mode at temperature zero; the request seed is
// forwarded so providers that honor seeding reproduce identical inputs.
type ChatModel struct {
	client       llms.Model
	defaultModel string
	logger       *slog.Logger
}

// newChatModel is an internal constructor that returns the concrete type.
func newChatModel(config *ai.Config) (*ChatModel, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken("none"),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return &ChatModel{
		client:       client,
		defaultModel: config.ChatModel,
		logger:       slog.Default().With("component", "openai-chat"),
	}, nil
}

// NewChatModel creates a new chat model using the provided configuration.
//
// Returns ai.ChatModel interface to enforce abstraction.
func NewChatModel(config *ai.Config) (ai.ChatModel, error) {
	return newChatModel(config)
}

// Complete sends the system+user pair and returns raw content plus usage.
// Rate limit or server-side failures are wrapped as transient so a
// surrounding ai.GuardedModel can retry them.
func (c *ChatModel) Complete(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(req.System)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(req.User)},
		},
	}

	opts := []llms.CallOption{
		llms.WithTemperature(0.0),
		llms.WithJSONMode(),
	}
	if req.Seed != 0 {
		opts = append(opts, llms.WithSeed(req.Seed))
	}
	model := c.defaultModel
	if req.Model != "" {
		model = req.Model
		opts = append(opts, llms.WithModel(req.Model))
	}

	response, err := c.client.GenerateContent(ctx, content, opts...)
	if err != nil {
		c.logger.Error("failed to generate content", "model", model, "err", err)
		return nil, classifyErr(err)
	}
	if len(response.Choices) < 1 {
		c.logger.Debug("no choices returned from model", "model", model)
		return &ai.ChatResponse{Content: "", Model: model}, nil
	}

	choice := response.Choices[0]
	return &ai.ChatResponse{
		Content: choice.Content,
		Model:   model,
		Usage: core.TokenUsage{
			PromptTokens:     infoInt(choice.GenerationInfo, "PromptTokens"),
			CompletionTokens: infoInt(choice.GenerationInfo, "CompletionTokens"),
		},
	}, nil
}

// classifyErr tags retryable provider failures with the ai sentinels.
func classifyErr(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "429"):
		return &wrappedErr{cause: err, mark: ai.ErrRateLimited}
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "status code: 5"):
		return &wrappedErr{cause: err, mark: ai.ErrTransient}
	}
	return err
}

type wrappedErr struct {
	cause error
	mark  error
}

func (w *wrappedErr) Error() string { return w.cause.Error() }

func (w *wrappedErr) Unwrap() []error { return []error{w.cause, w.mark} }

// infoInt reads an int out of langchaingo's GenerationInfo map, which
// uses provider-dependent numeric types.
func infoInt(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
