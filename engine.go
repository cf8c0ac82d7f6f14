// Copyright 2025 Poiesic LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package groundwork provides retrieval-grounded structured extraction:
// documents are redacted, chunked, embedded, and indexed; extraction
// answers are validated against schema, groundedness, and citation
// checks before they reach the caller.
package groundwork

import (
	"context"
	"log/slog"

	"github.com/poiesic/groundwork/ai"
	"github.com/poiesic/groundwork/ai/openai"
	"github.com/poiesic/groundwork/audit"
	"github.com/poiesic/groundwork/chunk"
	"github.com/poiesic/groundwork/core"
	"github.com/poiesic/groundwork/extract"
	"github.com/poiesic/groundwork/index"
	"github.com/poiesic/groundwork/ingest"
	"github.com/poiesic/groundwork/pack"
	"github.com/poiesic/groundwork/redact"
	"github.com/poiesic/groundwork/search"
)

// DefaultIndexDim matches the embedding width of the default local
// embedding model.
const DefaultIndexDim = 768

// Engine wires the full pipeline behind one facade: ingestion builds
// the index, retrieval serves scored context, and extraction produces
// cited answers or abstentions.
type Engine struct {
	ix        *index.Index
	redactor  *redact.Redactor
	chunker   *chunk.Chunker
	embedder  ai.Embedder
	chat      ai.ChatModel
	retriever *search.Retriever
	packer    *pack.Packer
	pipeline  *ingest.Pipeline
	extractor *extract.Extractor
	trail     *audit.Trail
	logger    *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig      *ai.Config
	zone          core.Zone
	salt          string
	indexDim      int
	embedder      ai.Embedder
	chat          ai.ChatModel
	budget        ai.TokenBudget
	trailPath     string
	inMemoryTrail bool
	threshold     float64
	topK          int
	minScore      float64
	chunkOpts     []chunk.Option
	packOpts      []pack.Option
}

// WithAIConfig sets the provider configuration used when no explicit
// embedder or chat model is supplied.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) { o.aiConfig = config }
}

// WithZone sets the redaction zone applied to every document and query.
func WithZone(zone core.Zone) EngineOption {
	return func(o *engineOptions) { o.zone = zone }
}

// WithSalt sets the salt for RED-zone redaction hashes.
func WithSalt(salt string) EngineOption {
	return func(o *engineOptions) { o.salt = salt }
}

// WithIndexDim sets the vector index dimensionality. It must match the
// embedder's output width.
func WithIndexDim(dim int) EngineOption {
	return func(o *engineOptions) { o.indexDim = dim }
}

// WithEmbedder injects an embedder, bypassing provider construction.
func WithEmbedder(embedder ai.Embedder) EngineOption {
	return func(o *engineOptions) { o.embedder = embedder }
}

// WithChatModel injects a chat model, bypassing provider construction.
func WithChatModel(chat ai.ChatModel) EngineOption {
	return func(o *engineOptions) { o.chat = chat }
}

// WithBudget installs a token budget consulted before each LLM call.
func WithBudget(budget ai.TokenBudget) EngineOption {
	return func(o *engineOptions) { o.budget = budget }
}

// WithAuditTrail persists audit events to a BadgerDB trail at path.
func WithAuditTrail(path string) EngineOption {
	return func(o *engineOptions) { o.trailPath = path }
}

// WithInMemoryAuditTrail keeps the audit trail in memory. Useful for
// tests and dry runs.
func WithInMemoryAuditTrail() EngineOption {
	return func(o *engineOptions) { o.inMemoryTrail = true }
}

// WithGroundednessThreshold overrides the extraction rejection threshold.
func WithGroundednessThreshold(threshold float64) EngineOption {
	return func(o *engineOptions) { o.threshold = threshold }
}

// WithTopK sets how many context chunks retrieval returns.
func WithTopK(k int) EngineOption {
	return func(o *engineOptions) { o.topK = k }
}

// WithMinScore sets the similarity floor for retrieval.
func WithMinScore(minScore float64) EngineOption {
	return func(o *engineOptions) { o.minScore = minScore }
}

// WithChunkOptions forwards options to the chunker.
func WithChunkOptions(opts ...chunk.Option) EngineOption {
	return func(o *engineOptions) { o.chunkOpts = append(o.chunkOpts, opts...) }
}

// WithPackOptions forwards options to the context packer.
func WithPackOptions(opts ...pack.Option) EngineOption {
	return func(o *engineOptions) { o.packOpts = append(o.packOpts, opts...) }
}

// NewEngine assembles the pipeline. Without explicit embedder and chat
// model options it connects to the configured OpenAI-compatible hosts,
// wrapping the chat model in a rate-limited retry guard.
func NewEngine(opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig:  ai.DefaultConfig(),
		zone:      core.ZoneGreen,
		indexDim:  DefaultIndexDim,
		threshold: extract.DefaultThreshold,
		topK:      search.DefaultTopK,
		minScore:  search.DefaultMinScore,
	}
	for _, opt := range opts {
		opt(options)
	}

	embedder := options.embedder
	if embedder == nil {
		e, err := openai.NewEmbedder(options.aiConfig)
		if err != nil {
			return nil, err
		}
		embedder = e
	}

	chat := options.chat
	if chat == nil {
		inner, err := openai.NewChatModel(options.aiConfig)
		if err != nil {
			return nil, err
		}
		guarded, err := ai.NewGuardedModel(inner)
		if err != nil {
			return nil, err
		}
		chat = guarded
	}

	ix := index.New(options.indexDim)
	redactor := redact.New(options.zone, options.salt)
	chunker := chunk.New(options.chunkOpts...)

	retriever, err := search.NewRetriever(ix, embedder, redactor)
	if err != nil {
		return nil, err
	}

	packOpts := append([]pack.Option{
		pack.WithSHA1Lookup(func(docID string, chunkIdx int) string {
			if _, meta, ok := ix.Find(docID, chunkIdx); ok {
				return meta.SHA1
			}
			return ""
		}),
	}, options.packOpts...)
	packer := pack.New(packOpts...)

	pipeline, err := ingest.NewPipeline(redactor, chunker, embedder, ix)
	if err != nil {
		return nil, err
	}

	var trail *audit.Trail
	var sinks []audit.Sink
	if options.trailPath != "" || options.inMemoryTrail {
		trail, err = audit.OpenTrail(options.trailPath, options.inMemoryTrail)
		if err != nil {
			pipeline.Release()
			return nil, err
		}
		sinks = append(sinks, trail)
	}

	extractOpts := []extract.Option{
		extract.WithRetrieval(retriever, packer, ix),
		extract.WithModel(options.aiConfig.ChatModel),
		extract.WithThreshold(options.threshold),
		extract.WithTopK(options.topK),
		extract.WithMinScore(options.minScore),
		extract.WithAuditor(audit.NewAuditor(sinks...)),
	}
	if options.aiConfig.SoftFallbackModel != "" {
		extractOpts = append(extractOpts, extract.WithFallbackModel(options.aiConfig.SoftFallbackModel))
	}
	if options.budget != nil {
		extractOpts = append(extractOpts, extract.WithBudget(options.budget))
	}

	extractor, err := extract.New(chat, extractOpts...)
	if err != nil {
		pipeline.Release()
		if trail != nil {
			trail.Close()
		}
		return nil, err
	}

	return &Engine{
		ix:        ix,
		redactor:  redactor,
		chunker:   chunker,
		embedder:  embedder,
		chat:      chat,
		retriever: retriever,
		packer:    packer,
		pipeline:  pipeline,
		extractor: extractor,
		trail:     trail,
		logger:    slog.Default().With("component", "engine"),
	}, nil
}

// Ingest indexes one document and returns the number of chunks added.
func (e *Engine) Ingest(ctx context.Context, docID, text string) (int, error) {
	return e.pipeline.IngestDocument(ctx, ingest.Document{ID: docID, Text: text})
}

// IngestBatch indexes documents concurrently and returns the total
// chunk count.
func (e *Engine) IngestBatch(ctx context.Context, docs []ingest.Document) (int, error) {
	return e.pipeline.IngestBatch(ctx, docs)
}

// Retrieve returns the top-k context items for a query, redacted and
// scored. Zero values select the engine defaults.
func (e *Engine) Retrieve(ctx context.Context, query string, k int, minScore float64) ([]core.ContextItem, error) {
	return e.retriever.Retrieve(ctx, query, k, minScore, nil)
}

// Extract runs extraction over the payload with retrieved context as
// soft evidence: context informs groundedness but citations are not
// required.
func (e *Engine) Extract(ctx context.Context, payload string) (*core.AnswerEnvelope, error) {
	env, err := e.extractor.Extract(ctx, payload)
	if err != nil {
		return nil, err
	}
	return extract.ComposeAnswer(env), nil
}

// ExtractGrounded runs extraction with mandatory grounding: no context
// means abstention and every answer must cite indexed chunks.
func (e *Engine) ExtractGrounded(ctx context.Context, payload string) (*core.AnswerEnvelope, error) {
	env, err := e.extractor.ExtractGrounded(ctx, payload)
	if err != nil {
		return nil, err
	}
	return extract.ComposeAnswer(env), nil
}

// AuditEvents returns up to limit events from the persistent trail, in
// append order. Returns nil when no trail is configured.
func (e *Engine) AuditEvents(limit int) ([]audit.Event, error) {
	if e.trail == nil {
		return nil, nil
	}
	return e.trail.List(limit)
}

// Index exposes the underlying vector index for direct inspection.
func (e *Engine) Index() *index.Index {
	return e.ix
}

// Close releases the worker pool and the audit trail. The engine must
// not be used after Close.
func (e *Engine) Close() error {
	e.pipeline.Release()
	if e.trail != nil {
		return e.trail.Close()
	}
	return nil
}
