package mock

import (
	"context"

	"github.com/poiesic/groundwork/ai"
	"github.com/poiesic/groundwork/core"
)

// MockChatModel is a test double for ai.ChatModel. It replies with queued
// responses in order, repeating the last one once the queue is exhausted.
// Custom behavior can be injected via CompleteFunc.
type MockChatModel struct {
	// CompleteFunc is called by Complete if set.
	CompleteFunc func(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error)

	// Usage is attached to every queued response.
	Usage core.TokenUsage

	responses []string
	callCount int
	lastReq   ai.ChatRequest
}

// NewMockChatModel creates a mock that returns the given response bodies
// in order. With no responses it replies with an empty JSON object.
func NewMockChatModel(responses ...string) *MockChatModel {
	return &MockChatModel{
		responses: responses,
		Usage:     core.TokenUsage{PromptTokens: 10, CompletionTokens: 5},
	}
}

// Complete returns the next queued response.
func (m *MockChatModel) Complete(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	m.callCount++
	m.lastReq = req

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}

	content := "{}"
	if len(m.responses) > 0 {
		i := m.callCount - 1
		if i >= len(m.responses) {
			i = len(m.responses) - 1
		}
		content = m.responses[i]
	}

	model := req.Model
	if model == "" {
		model = "mock-chat"
	}
	return &ai.ChatResponse{Content: content, Model: model, Usage: m.Usage}, nil
}

// CallCount returns the number of Complete calls.
func (m *MockChatModel) CallCount() int {
	return m.callCount
}

// LastRequest returns the most recent request, for prompt assertions.
func (m *MockChatModel) LastRequest() ai.ChatRequest {
	return m.lastReq
}
