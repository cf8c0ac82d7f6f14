package search

import (
	"context"
	"log/slog"

	"github.com/poiesic/groundwork/ai"
	"github.com/poiesic/groundwork/core"
	"github.com/poiesic/groundwork/index"
	"github.com/poiesic/groundwork/redact"
)

// Defaults used when the caller passes non-positive values.
const (
	DefaultTopK     = 5
	DefaultMinScore = 0.3
)

// Retriever turns a free-form query into scored context items: it
// normalizes and redacts the query with the same policy the corpus was
// ingested under (so both sides are comparably sanitized), embeds it,
// searches the index and drops hits below the minimum score.
type Retriever struct {
	index    *index.Index
	embedder ai.Embedder
	redactor ai.Redactor
	logger   *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRetriever creates a retriever over the given index.
func NewRetriever(ix *index.Index, embedder ai.Embedder, redactor ai.Redactor, opts ...Option) (*Retriever, error) {
	if ix == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if redactor == nil {
		return nil, ErrRedactorRequired
	}

	r := &Retriever{
		index:    ix,
		embedder: embedder,
		redactor: redactor,
		logger:   slog.Default().With("component", "retriever"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Retrieve returns up to k context items scoring at least minScore,
// optionally restricted by scope. An empty index or a query with no hits
// above the threshold yields an empty slice, not an error; an embedder
// failure is a hard error since it indicates a broken collaborator.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int, minScore float64, scope *index.Filter) ([]core.ContextItem, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	sanitized := r.redactor.Redact(redact.Normalize(query))

	vec, err := r.embedder.EmbedText(ctx, sanitized)
	if err != nil {
		r.logger.Error("error generating embedding for query", "err", err)
		return nil, err
	}

	hits := r.index.Search(vec, k, scope)

	items := make([]core.ContextItem, 0, len(hits))
	for _, hit := range hits {
		if hit.Score < minScore {
			continue
		}
		items = append(items, core.ContextItem{
			Text:     hit.Text,
			Score:    hit.Score,
			DocID:    hit.Meta.DocID,
			ChunkIdx: hit.Meta.ChunkIdx,
		})
	}

	r.logger.Debug("retrieved contexts", "hits", len(hits), "kept", len(items), "k", k)
	return items, nil
}
