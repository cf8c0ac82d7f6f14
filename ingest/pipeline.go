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

package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/groundwork/ai"
	"github.com/poiesic/groundwork/chunk"
	"github.com/poiesic/groundwork/core"
	"github.com/poiesic/groundwork/index"
	"github.com/poiesic/groundwork/redact"
)

// Document is one unit of ingestable text.
type Document struct {
	ID   string
	Text string
}

// Pipeline turns documents into indexed, searchable chunks. Each
// document is normalized, redacted according to the pipeline's zone
// policy, split into chunks, embedded, and appended to the index.
// Redaction happens before embedding, so raw PII never reaches the
// embedding provider or the index.
type Pipeline struct {
	redactor ai.Redactor
	chunker  *chunk.Chunker
	embedder ai.Embedder
	ix       *index.Index

	pool   *ants.Pool
	mu     sync.Mutex // serializes index appends from pool workers
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for batch ingestion.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(redactor ai.Redactor, chunker *chunk.Chunker, embedder ai.Embedder, ix *index.Index, opts ...Option) (*Pipeline, error) {
	if redactor == nil {
		return nil, ErrRedactorRequired
	}
	if chunker == nil {
		return nil, ErrChunkerRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if ix == nil {
		return nil, ErrIndexRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		redactor: redactor,
		chunker:  chunker,
		embedder: embedder,
		ix:       ix,
		pool:     pool,
		logger:   slog.Default().With("component", "ingest"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// IngestDocument processes a single document and returns the number of
// chunks added to the index. Empty or whitespace-only documents are a
// no-op.
func (p *Pipeline) IngestDocument(ctx context.Context, doc Document) (int, error) {
	if doc.ID == "" {
		return 0, ErrEmptyDocID
	}

	text := p.redactor.Redact(redact.Normalize(doc.Text))
	chunks := p.chunker.Split(text)
	if len(chunks) == 0 {
		p.logger.Debug("document produced no chunks", "doc_id", doc.ID)
		return 0, nil
	}

	texts := make([]string, len(chunks))
	ids := make([]string, len(chunks))
	metas := make([]core.ChunkMeta, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
		ids[i] = c.ID
		metas[i] = core.ChunkMeta{DocID: doc.ID, ChunkIdx: i, SHA1: c.SHA1}
	}

	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding document %s: %w", doc.ID, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ix.Add(ids, vectors, metas, texts); err != nil {
		return 0, fmt.Errorf("indexing document %s: %w", doc.ID, err)
	}

	p.logger.Info("document ingested", "doc_id", doc.ID, "chunks", len(chunks))
	return len(chunks), nil
}

// IngestBatch processes documents concurrently on the worker pool and
// returns the total number of chunks indexed. Per-document failures do
// not stop the batch; they are joined into the returned error.
func (p *Pipeline) IngestBatch(ctx context.Context, docs []Document) (int, error) {
	var (
		wg    sync.WaitGroup
		resMu sync.Mutex
		total int
		errs  []error
	)

	for _, doc := range docs {
		doc := doc
		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			n, err := p.IngestDocument(ctx, doc)
			resMu.Lock()
			defer resMu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			total += n
		})
		if submitErr != nil {
			wg.Done()
			resMu.Lock()
			errs = append(errs, fmt.Errorf("submitting document %s: %w", doc.ID, submitErr))
			resMu.Unlock()
		}
	}

	wg.Wait()
	return total, errors.Join(errs...)
}

// Release shuts down the worker pool. The pipeline must not be used
// after Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
