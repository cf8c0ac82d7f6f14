package chunk

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/poiesic/groundwork/core"
)

const (
	// DefaultTargetWords is the word budget of a primary chunk.
	DefaultTargetWords = 400
	// DefaultOverlapWords is the number of words copied forward from the
	// next chunk.
	DefaultOverlapWords = 60
)

var paragraphSplit = regexp.MustCompile(`\n\s*\n`)

// Chunker splits normalized, redacted text into overlapping,
// content-addressed chunks. Chunk boundaries follow paragraph
// boundaries: a paragraph is never split unless it alone exceeds the
// target size, in which case it becomes its own chunk.
type Chunker struct {
	targetWords  int
	overlapWords int
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithTargetWords sets the word budget per primary chunk.
func WithTargetWords(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.targetWords = n
		}
	}
}

// WithOverlapWords sets the forward-overlap size in words. Zero disables
// overlap.
func WithOverlapWords(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.overlapWords = n
		}
	}
}

// New creates a Chunker with the default word budget and overlap.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		targetWords:  DefaultTargetWords,
		overlapWords: DefaultOverlapWords,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Split chunks text. Empty or blank input yields zero chunks.
//
// Every primary chunk except the last receives the first overlap words
// of its successor, so adjacent chunks share context without the
// retriever stitching windows itself. The SHA1 (and therefore the chunk
// ID) is computed over the final post-overlap text, which makes the ID
// sequence deterministic across processes for fixed parameters.
func (c *Chunker) Split(text string) []core.Chunk {
	primaries := c.reflow(splitParagraphs(text))
	if len(primaries) == 0 {
		return nil
	}

	chunks := make([]core.Chunk, 0, len(primaries))
	for i, base := range primaries {
		final := base
		if i < len(primaries)-1 && c.overlapWords > 0 {
			next := strings.Fields(primaries[i+1])
			if len(next) > c.overlapWords {
				next = next[:c.overlapWords]
			}
			final = base + " " + strings.Join(next, " ")
		}
		sum := sha1.Sum([]byte(final))
		sha := hex.EncodeToString(sum[:])
		chunks = append(chunks, core.Chunk{
			ID:   fmt.Sprintf("chunk_%d_%s", i, sha[:8]),
			Text: final,
			SHA1: sha,
		})
	}
	return chunks
}

// reflow greedily accumulates paragraphs into primary chunks by word
// count. Intra-paragraph whitespace is collapsed so the output depends
// only on the word sequence.
func (c *Chunker) reflow(paragraphs []string) []string {
	var primaries []string
	var cur []string
	curWords := 0

	for _, para := range paragraphs {
		words := strings.Fields(para)
		if curWords > 0 && curWords+len(words) > c.targetWords {
			primaries = append(primaries, strings.Join(cur, "\n\n"))
			cur = cur[:0:0]
			curWords = 0
		}
		cur = append(cur, strings.Join(words, " "))
		curWords += len(words)
	}
	if curWords > 0 {
		primaries = append(primaries, strings.Join(cur, "\n\n"))
	}
	return primaries
}

// splitParagraphs splits on blank-line boundaries and drops empty
// paragraphs.
func splitParagraphs(text string) []string {
	parts := paragraphSplit.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
