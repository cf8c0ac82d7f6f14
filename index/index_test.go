package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/groundwork/core"
)

func addRows(t *testing.T, ix *Index, rows ...struct {
	id   string
	vec  []float32
	meta core.ChunkMeta
	text string
}) {
	t.Helper()
	for _, r := range rows {
		require.NoError(t, ix.Add(
			[]string{r.id},
			[][]float32{r.vec},
			[]core.ChunkMeta{r.meta},
			[]string{r.text},
		))
	}
}

func row(id string, vec []float32, doc string, idx int) struct {
	id   string
	vec  []float32
	meta core.ChunkMeta
	text string
} {
	return struct {
		id   string
		vec  []float32
		meta core.ChunkMeta
		text string
	}{id, vec, core.ChunkMeta{DocID: doc, ChunkIdx: idx, SHA1: "sha-" + id}, "text " + id}
}

func TestAddLengthMismatch(t *testing.T) {
	ix := New(2)
	err := ix.Add([]string{"a", "b"}, [][]float32{{1, 0}}, []core.ChunkMeta{{}}, []string{"t"})
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestAddDimensionMismatch(t *testing.T) {
	ix := New(3)
	err := ix.Add([]string{"a"}, [][]float32{{1, 0}}, []core.ChunkMeta{{}}, []string{"t"})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestSearchEmptyIndex(t *testing.T) {
	ix := New(2)
	assert.Empty(t, ix.Search([]float32{1, 0}, 5, nil))
}

func TestSearchZeroNormQuery(t *testing.T) {
	ix := New(2)
	addRows(t, ix, row("a", []float32{1, 0}, "docA", 0))
	assert.Empty(t, ix.Search([]float32{0, 0}, 5, nil))
}

func TestSearchSelfRetrieval(t *testing.T) {
	ix := New(2)
	addRows(t, ix,
		row("a", []float32{1, 0}, "docA", 0),
		row("b", []float32{0, 1}, "docA", 1),
	)

	hits := ix.Search([]float32{1, 0}, 1, nil)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].ID)
	assert.Greater(t, hits[0].Score, 0.99)
}

func TestSearchNormalizesStoredVectors(t *testing.T) {
	ix := New(2)
	// stored at 10x magnitude, cosine must still be 1
	addRows(t, ix, row("a", []float32{10, 0}, "docA", 0))

	hits := ix.Search([]float32{3, 0}, 1, nil)
	require.Len(t, hits, 1)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
}

func TestSearchZeroNormRowNeverRanksFirst(t *testing.T) {
	ix := New(2)
	addRows(t, ix,
		row("zero", []float32{0, 0}, "docA", 0),
		row("real", []float32{1, 0}, "docA", 1),
	)

	hits := ix.Search([]float32{1, 0}, 2, nil)
	require.Len(t, hits, 2)
	assert.Equal(t, "real", hits[0].ID)
}

func TestSearchTopKOrderingAndClamp(t *testing.T) {
	ix := New(2)
	addRows(t, ix,
		row("far", []float32{0, 1}, "docA", 0),
		row("near", []float32{1, 0}, "docA", 1),
		row("mid", []float32{1, 1}, "docA", 2),
	)

	hits := ix.Search([]float32{1, 0}, 10, nil)
	require.Len(t, hits, 3) // k clamped to candidate count
	assert.Equal(t, []string{"near", "mid", "far"}, []string{hits[0].ID, hits[1].ID, hits[2].ID})
}

func TestSearchTiesKeepInsertionOrder(t *testing.T) {
	ix := New(2)
	addRows(t, ix,
		row("first", []float32{1, 0}, "docA", 0),
		row("second", []float32{2, 0}, "docA", 1), // same direction, same cosine
	)

	hits := ix.Search([]float32{1, 0}, 2, nil)
	require.Len(t, hits, 2)
	assert.Equal(t, "first", hits[0].ID)
	assert.Equal(t, "second", hits[1].ID)
}

func TestSearchFilter(t *testing.T) {
	ix := New(2)
	addRows(t, ix,
		row("a0", []float32{1, 0}, "A", 0),
		row("b0", []float32{1, 0}, "B", 0),
		row("b1", []float32{0, 1}, "B", 1),
	)

	t.Run("doc filter", func(t *testing.T) {
		hits := ix.Search([]float32{1, 0}, 5, &Filter{DocID: "B"})
		require.Len(t, hits, 2)
		for _, h := range hits {
			assert.Equal(t, "B", h.Meta.DocID)
		}
	})

	t.Run("all fields must match", func(t *testing.T) {
		one := 1
		hits := ix.Search([]float32{1, 0}, 5, &Filter{DocID: "B", ChunkIdx: &one})
		require.Len(t, hits, 1)
		assert.Equal(t, "b1", hits[0].ID)
	})

	t.Run("empty candidate set", func(t *testing.T) {
		assert.Empty(t, ix.Search([]float32{1, 0}, 5, &Filter{DocID: "C"}))
	})
}

func TestLookupAndFind(t *testing.T) {
	ix := New(2)
	addRows(t, ix, row("a0", []float32{1, 0}, "A", 0))

	meta, ok := ix.LookupID("a0")
	require.True(t, ok)
	assert.Equal(t, "A", meta.DocID)

	id, meta, ok := ix.Find("A", 0)
	require.True(t, ok)
	assert.Equal(t, "a0", id)
	assert.Equal(t, "sha-a0", meta.SHA1)

	_, _, ok = ix.Find("A", 99)
	assert.False(t, ok)
}

func TestSnapshotIsolation(t *testing.T) {
	ix := New(2)
	addRows(t, ix, row("a0", []float32{1, 0}, "A", 0))

	snap := ix.Snapshot()
	addRows(t, ix, row("a1", []float32{0, 1}, "A", 1))

	assert.Equal(t, 1, snap.Len())
	assert.Equal(t, 2, ix.Len())
}
