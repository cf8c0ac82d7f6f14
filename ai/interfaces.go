package ai

import (
	"context"

	"github.com/poiesic/groundwork/core"
)

// Embedder generates vector embeddings from text for semantic similarity
// search. Implementations must be thread-safe for concurrent use and must
// return one fixed-dimension vector per input text, in input order.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in
	// a batch. The returned slice contains embeddings in the same order as
	// the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatRequest is one system+user completion request. Seed is passed to
// the provider so identical inputs are reproducible where the provider
// honors seeding; zero means unseeded.
type ChatRequest struct {
	System string
	User   string
	Seed   int
	Model  string // optional per-call override of the configured model
}

// ChatResponse is the provider's completion plus its token accounting.
type ChatResponse struct {
	Content string
	Model   string
	Usage   core.TokenUsage
}

// ChatModel sends a system+user prompt pair to a completion provider and
// returns the raw content with token usage. Implementations must be
// thread-safe for concurrent use.
type ChatModel interface {
	Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// TokenBudget is an optional external collaborator that can refuse an
// LLM call up-front. A nil budget is treated as unlimited.
type TokenBudget interface {
	// CanSpend reports whether an estimated token spend is still allowed.
	CanSpend(estimate int) bool

	// OverSoft reports whether the soft ceiling has been crossed; callers
	// may downgrade to a cheaper model when it has.
	OverSoft() bool
}

// Redactor masks PII-like patterns in text. Implementations must be
// deterministic: the same input always yields the same output.
type Redactor interface {
	Redact(text string) string
}
