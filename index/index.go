package index

import (
	"fmt"
	"math"
	"sort"

	"github.com/poiesic/groundwork/core"
)

const normEps = 1e-8

// Filter restricts a search to rows whose metadata matches every set
// field (logical AND, exact equality). A nil filter matches everything.
type Filter struct {
	DocID    string
	SHA1     string
	ChunkIdx *int
}

// Matches reports whether meta satisfies the filter.
func (f *Filter) Matches(meta core.ChunkMeta) bool {
	if f == nil {
		return true
	}
	if f.DocID != "" && meta.DocID != f.DocID {
		return false
	}
	if f.SHA1 != "" && meta.SHA1 != f.SHA1 {
		return false
	}
	if f.ChunkIdx != nil && meta.ChunkIdx != *f.ChunkIdx {
		return false
	}
	return true
}

// Index is an in-memory, append-only vector index: parallel slices of
// ids, unit-normalized vectors, chunk texts and metadata. Rows are never
// removed or mutated after insert; the index is rebuilt from source text
// on process start.
//
// Index is NOT safe for concurrent Add during a Search. Callers must
// either serialize writers behind a lock or search an immutable Snapshot.
type Index struct {
	dim     int
	ids     []string
	vectors [][]float32
	texts   []string
	metas   []core.ChunkMeta
}

// New creates an empty index for vectors of the given dimension.
func New(dim int) *Index {
	return &Index{dim: dim}
}

// Dim returns the vector dimension.
func (ix *Index) Dim() int { return ix.dim }

// Len returns the number of stored rows.
func (ix *Index) Len() int { return len(ix.ids) }

// Add appends rows to the index in lock-step. Every incoming vector is
// L2-normalized; rows with near-zero norm are stored as-is (the norm is
// clamped to 1 to avoid division by zero, so they simply never rank).
func (ix *Index) Add(ids []string, vectors [][]float32, metas []core.ChunkMeta, texts []string) error {
	if len(ids) != len(vectors) || len(ids) != len(metas) || len(ids) != len(texts) {
		return fmt.Errorf("%w: ids=%d vectors=%d metas=%d texts=%d",
			ErrLengthMismatch, len(ids), len(vectors), len(metas), len(texts))
	}

	rows := make([][]float32, len(vectors))
	for i, vec := range vectors {
		if len(vec) != ix.dim {
			return fmt.Errorf("%w: row %d has %d, index expects %d",
				ErrDimensionMismatch, i, len(vec), ix.dim)
		}
		rows[i] = normalized(vec)
	}

	ix.ids = append(ix.ids, ids...)
	ix.vectors = append(ix.vectors, rows...)
	ix.metas = append(ix.metas, metas...)
	ix.texts = append(ix.texts, texts...)
	return nil
}

// Search returns the top k rows by cosine similarity against the query,
// ties broken by insertion order. A zero-norm query, an empty index or an
// empty filtered candidate set returns an empty result, never an error.
// k is clamped to the candidate set size.
func (ix *Index) Search(query []float32, k int, filter *Filter) []core.Hit {
	if len(ix.ids) == 0 || k <= 0 || len(query) != ix.dim {
		return nil
	}

	qnorm := vectorNorm(query)
	if qnorm < normEps {
		return nil
	}
	q := make([]float32, len(query))
	for i, v := range query {
		q[i] = float32(float64(v) / qnorm)
	}

	candidates := make([]int, 0, len(ix.ids))
	for i, meta := range ix.metas {
		if filter.Matches(meta) {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	hits := make([]core.Hit, 0, len(candidates))
	for _, i := range candidates {
		hits = append(hits, core.Hit{
			ID:    ix.ids[i],
			Score: dot(ix.vectors[i], q),
			Text:  ix.texts[i],
			Meta:  ix.metas[i],
		})
	}

	// Stable sort keeps insertion order on equal scores.
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Score > hits[b].Score
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k]
}

// LookupID returns the metadata for a chunk id.
func (ix *Index) LookupID(chunkID string) (core.ChunkMeta, bool) {
	for i, id := range ix.ids {
		if id == chunkID {
			return ix.metas[i], true
		}
	}
	return core.ChunkMeta{}, false
}

// Find returns the chunk id and metadata stored for a (doc, position)
// pair.
func (ix *Index) Find(docID string, chunkIdx int) (string, core.ChunkMeta, bool) {
	for i, meta := range ix.metas {
		if meta.DocID == docID && meta.ChunkIdx == chunkIdx {
			return ix.ids[i], meta, true
		}
	}
	return "", core.ChunkMeta{}, false
}

// Snapshot returns an immutable copy sharing the (never-mutated) vector
// rows. Searching a snapshot is safe while another goroutine appends to
// the original.
func (ix *Index) Snapshot() *Index {
	cp := &Index{
		dim:     ix.dim,
		ids:     make([]string, len(ix.ids)),
		vectors: make([][]float32, len(ix.vectors)),
		texts:   make([]string, len(ix.texts)),
		metas:   make([]core.ChunkMeta, len(ix.metas)),
	}
	copy(cp.ids, ix.ids)
	copy(cp.vectors, ix.vectors)
	copy(cp.texts, ix.texts)
	copy(cp.metas, ix.metas)
	return cp
}

func normalized(vec []float32) []float32 {
	norm := vectorNorm(vec)
	if norm < normEps {
		norm = 1.0
	}
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

func vectorNorm(vec []float32) float64 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
