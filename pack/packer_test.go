package pack

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/groundwork/core"
)

func item(doc string, idx int, score float64, text string) core.ContextItem {
	return core.ContextItem{Text: text, Score: score, DocID: doc, ChunkIdx: idx}
}

func TestPackEmptyInput(t *testing.T) {
	block, packed := New().Pack(nil)
	assert.Empty(t, block)
	assert.Nil(t, packed)
}

func TestPackTagsAndOrdering(t *testing.T) {
	p := New()
	contexts := []core.ContextItem{
		item("docB", 0, 0.5, "second by score"),
		item("docA", 0, 0.9, "first by score"),
		item("docA", 1, 0.5, "ties break by doc then position"),
	}

	block, packed := p.Pack(contexts)
	require.Len(t, packed, 3)

	assert.Equal(t, "C1", packed[0].Tag)
	assert.Equal(t, "docA", packed[0].DocID)
	assert.Equal(t, 0, packed[0].ChunkIdx)

	// score tie: docA sorts before docB
	assert.Equal(t, "docA", packed[1].DocID)
	assert.Equal(t, 1, packed[1].ChunkIdx)
	assert.Equal(t, "docB", packed[2].DocID)

	assert.True(t, strings.HasPrefix(block, "### CONTEXT\n"))
	assert.Contains(t, block, "[C1] (doc=docA chunk=0")
}

func TestPackOrderInvariance(t *testing.T) {
	contexts := []core.ContextItem{
		item("docA", 0, 0.9, strings.Repeat("alpha ", 30)),
		item("docB", 2, 0.7, strings.Repeat("beta ", 40)),
		item("docB", 1, 0.7, strings.Repeat("gamma ", 20)),
		item("docC", 0, 0.2, strings.Repeat("delta ", 50)),
	}
	p := New(WithMaxChars(500), WithPerEntryCap(120))

	want, _ := p.Pack(contexts)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]core.ContextItem, len(contexts))
		copy(shuffled, contexts)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		got, _ := p.Pack(shuffled)
		assert.Equal(t, want, got, "packing must be byte-identical for any input order")
	}
}

func TestPackBudgetInvariant(t *testing.T) {
	long := strings.Repeat("word ", 200)
	contexts := []core.ContextItem{
		item("docA", 0, 0.9, long),
		item("docB", 0, 0.8, long),
		item("docC", 0, 0.7, long),
	}

	for _, maxChars := range []int{80, 200, 400, 1200} {
		p := New(WithMaxChars(maxChars))
		block, packed := p.Pack(contexts)

		require.NotEmpty(t, packed, "at least one context must survive at budget %d", maxChars)
		// one entry's formatting overhead plus the forced first snippet
		// is the documented worst-case overshoot
		assert.LessOrEqual(t, len(block), maxChars+minFirstSnippet+80,
			"budget %d exceeded beyond the documented overshoot", maxChars)
	}
}

func TestPackFirstEntryTrimmedWithEllipsis(t *testing.T) {
	long := strings.Repeat("alpha beta ", 100)
	p := New(WithMaxChars(300), WithPerEntryCap(120))

	_, packed := p.Pack([]core.ContextItem{item("docA", 0, 0.9, long)})
	require.Len(t, packed, 1)
	assert.True(t, strings.HasSuffix(packed[0].Text, " ..."))
	assert.Less(t, len(packed[0].Text), 130)
}

func TestPackStopsInsteadOfTrimmingLaterEntries(t *testing.T) {
	p := New(WithMaxChars(220), WithPerEntryCap(100))
	contexts := []core.ContextItem{
		item("docA", 0, 0.9, strings.Repeat("a", 90)),
		item("docB", 0, 0.8, strings.Repeat("b", 90)),
		item("docC", 0, 0.7, strings.Repeat("c", 90)),
	}

	block, packed := p.Pack(contexts)
	assert.Less(t, len(packed), 3, "budget must cut the tail")
	assert.NotContains(t, block, "doc=docC")
}

func TestPackShortEntriesKeepFullText(t *testing.T) {
	p := New()
	_, packed := p.Pack([]core.ContextItem{item("docA", 0, 0.9, "short text")})
	require.Len(t, packed, 1)
	assert.Equal(t, "short text", packed[0].Text)
}

func TestPackManifestMatchesBlock(t *testing.T) {
	p := New()
	block, packed := p.Pack([]core.ContextItem{
		item("docA", 0, 0.9, "alpha"),
		item("docB", 3, 0.5, "beta"),
	})

	for _, pc := range packed {
		assert.Contains(t, block, "["+pc.Tag+"]")
		assert.Contains(t, block, pc.Text)
	}
	assert.Equal(t, "docB", packed[1].DocID)
	assert.Equal(t, 3, packed[1].ChunkIdx)
}

func TestPackSHA1Lookup(t *testing.T) {
	p := New(WithSHA1Lookup(func(docID string, chunkIdx int) string {
		if docID == "docA" {
			return "cafe1234"
		}
		return ""
	}))

	_, packed := p.Pack([]core.ContextItem{
		item("docA", 0, 0.9, "alpha"),
		item("docB", 1, 0.5, "beta"),
	})
	require.Len(t, packed, 2)
	assert.Equal(t, "cafe1234", packed[0].SHA1)
	// lookup miss falls back to the stable handle
	assert.Equal(t, "docB:1", packed[1].SHA1)
}
