package pack

import (
	"fmt"
	"sort"
	"strings"

	"github.com/poiesic/groundwork/core"
)

const (
	// DefaultMaxChars is the overall character budget of a context block.
	DefaultMaxChars = 1200
	// DefaultPerEntryCap is the character cap applied to each snippet.
	DefaultPerEntryCap = 400

	// blockHeader opens every packed block.
	blockHeader = "### CONTEXT"

	// minFirstSnippet is the floor for the forced trim of the first
	// entry, so a tiny budget still yields a usable snippet.
	minFirstSnippet = 100
)

// SHA1Lookup resolves the content hash for a (doc, position) pair.
type SHA1Lookup func(docID string, chunkIdx int) string

// Packer deterministically orders and trims retrieved contexts into a
// char-budgeted prompt block plus a structured citation manifest.
//
// Contexts are sorted by (-score, doc_id, chunk_idx), so the same SET of
// contexts always packs into byte-identical output regardless of input
// order. The first entry is trimmed to fit; subsequent entries are
// dropped (not trimmed) once the budget is exhausted. The block can
// overshoot the budget by at most one entry's formatting overhead, which
// is the price of guaranteeing that at least one context survives.
type Packer struct {
	maxChars    int
	perEntryCap int
	sha1For     SHA1Lookup
}

// Option configures a Packer.
type Option func(*Packer)

// WithMaxChars sets the overall block budget.
func WithMaxChars(n int) Option {
	return func(p *Packer) {
		if n > 0 {
			p.maxChars = n
		}
	}
}

// WithPerEntryCap sets the per-snippet character cap.
func WithPerEntryCap(n int) Option {
	return func(p *Packer) {
		if n > 0 {
			p.perEntryCap = n
		}
	}
}

// WithSHA1Lookup resolves real chunk hashes into the manifest. Without
// it, the "doc:idx" handle stands in for the hash.
func WithSHA1Lookup(fn SHA1Lookup) Option {
	return func(p *Packer) {
		p.sha1For = fn
	}
}

// New creates a Packer with the default budgets.
func New(opts ...Option) *Packer {
	p := &Packer{
		maxChars:    DefaultMaxChars,
		perEntryCap: DefaultPerEntryCap,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Pack formats contexts into a tagged block and its manifest. Empty
// input yields an empty block and a nil manifest.
func (p *Packer) Pack(contexts []core.ContextItem) (string, []core.PackedContext) {
	if len(contexts) == 0 {
		return "", nil
	}

	ordered := make([]core.ContextItem, len(contexts))
	copy(ordered, contexts)
	sort.SliceStable(ordered, func(a, b int) bool {
		if ordered[a].Score != ordered[b].Score {
			return ordered[a].Score > ordered[b].Score
		}
		if ordered[a].DocID != ordered[b].DocID {
			return ordered[a].DocID < ordered[b].DocID
		}
		return ordered[a].ChunkIdx < ordered[b].ChunkIdx
	})

	lines := []string{blockHeader}
	remaining := p.maxChars - len(blockHeader) - 1
	var packed []core.PackedContext

	for _, c := range ordered {
		tag := fmt.Sprintf("C%d", len(packed)+1)
		sha := p.sha1(c.DocID, c.ChunkIdx)

		snippet := strings.TrimSpace(c.Text)
		if len(packed) == 0 {
			// the first entry always goes in, trimmed to fit
			overhead := len(entryLine(tag, c, sha, ""))
			limit := min(p.perEntryCap, remaining-overhead)
			if limit < minFirstSnippet {
				limit = minFirstSnippet
			}
			snippet = trimToWords(snippet, limit)
		} else {
			snippet = trimToWords(snippet, p.perEntryCap)
			if len(entryLine(tag, c, sha, snippet))+1 > remaining {
				break
			}
		}

		entry := entryLine(tag, c, sha, snippet)
		lines = append(lines, entry)
		remaining -= len(entry) + 1
		packed = append(packed, core.PackedContext{
			Tag:      tag,
			DocID:    c.DocID,
			ChunkIdx: c.ChunkIdx,
			SHA1:     sha,
			Text:     snippet,
			Score:    c.Score,
		})
	}

	return strings.Join(lines, "\n"), packed
}

func (p *Packer) sha1(docID string, chunkIdx int) string {
	if p.sha1For != nil {
		if sha := p.sha1For(docID, chunkIdx); sha != "" {
			return sha
		}
	}
	return fmt.Sprintf("%s:%d", docID, chunkIdx)
}

func entryLine(tag string, c core.ContextItem, sha, snippet string) string {
	return fmt.Sprintf("[%s] (doc=%s chunk=%d sha1=%s)\n%s", tag, c.DocID, c.ChunkIdx, sha, snippet)
}

// trimToWords cuts text at the last word boundary within limit and
// appends an ellipsis when anything was removed.
func trimToWords(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	cut := text[:limit]
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + " ..."
}
