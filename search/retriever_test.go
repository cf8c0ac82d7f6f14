package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/groundwork/ai/mock"
	"github.com/poiesic/groundwork/core"
	"github.com/poiesic/groundwork/index"
	"github.com/poiesic/groundwork/redact"
)

func seededIndex(t *testing.T, embedder *mock.MockEmbedder, docs map[string][]string) *index.Index {
	t.Helper()
	ix := index.New(mock.DefaultDim)
	for docID, texts := range docs {
		vecs, err := embedder.EmbedTexts(context.Background(), texts)
		require.NoError(t, err)
		ids := make([]string, len(texts))
		metas := make([]core.ChunkMeta, len(texts))
		for i := range texts {
			ids[i] = docID + "-chunk"
			metas[i] = core.ChunkMeta{DocID: docID, ChunkIdx: i, SHA1: "sha"}
		}
		require.NoError(t, ix.Add(ids, vecs, metas, texts))
	}
	return ix
}

func TestNewRetrieverValidation(t *testing.T) {
	ix := index.New(2)
	embedder := mock.NewMockEmbedder()
	redactor := redact.New(core.ZoneAmber, "")

	_, err := NewRetriever(nil, embedder, redactor)
	assert.Equal(t, ErrIndexRequired, err)

	_, err = NewRetriever(ix, nil, redactor)
	assert.Equal(t, ErrEmbedderRequired, err)

	_, err = NewRetriever(ix, embedder, nil)
	assert.Equal(t, ErrRedactorRequired, err)

	r, err := NewRetriever(ix, embedder, redactor)
	require.NoError(t, err)
	assert.NotNil(t, r)
}

func TestRetrieveEmptyIndex(t *testing.T) {
	r, err := NewRetriever(index.New(mock.DefaultDim), mock.NewMockEmbedder(), redact.New(core.ZoneGreen, ""))
	require.NoError(t, err)

	items, err := r.Retrieve(context.Background(), "anything", 5, 0.0, nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRetrieveSelfRetrieval(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	ix := seededIndex(t, embedder, map[string][]string{
		"docA": {"alpha launches widgets"},
		"docB": {"completely different topic about cooking"},
	})
	r, err := NewRetriever(ix, embedder, redact.New(core.ZoneGreen, ""))
	require.NoError(t, err)

	items, err := r.Retrieve(context.Background(), "alpha launches widgets", 1, 0.0, nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "docA", items[0].DocID)
	assert.Greater(t, items[0].Score, 0.99)
}

func TestRetrieveMinScoreFilters(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	ix := seededIndex(t, embedder, map[string][]string{
		"docA": {"alpha beta gamma"},
	})
	r, err := NewRetriever(ix, embedder, redact.New(core.ZoneGreen, ""))
	require.NoError(t, err)

	items, err := r.Retrieve(context.Background(), "alpha beta gamma", 5, 1.1, nil)
	require.NoError(t, err)
	assert.Empty(t, items, "min score above cosine range keeps nothing")
}

func TestRetrieveScope(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	ix := seededIndex(t, embedder, map[string][]string{
		"A": {"shared words here"},
		"B": {"shared words here"},
	})
	r, err := NewRetriever(ix, embedder, redact.New(core.ZoneGreen, ""))
	require.NoError(t, err)

	items, err := r.Retrieve(context.Background(), "shared words here", 5, 0.0, &index.Filter{DocID: "B"})
	require.NoError(t, err)
	require.NotEmpty(t, items)
	for _, item := range items {
		assert.Equal(t, "B", item.DocID)
	}
}

func TestRetrieveEmbedderFailureIsHardError(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	boom := errors.New("embedder down")
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, boom
	}

	r, err := NewRetriever(index.New(mock.DefaultDim), embedder, redact.New(core.ZoneGreen, ""))
	require.NoError(t, err)

	_, err = r.Retrieve(context.Background(), "q", 5, 0.0, nil)
	assert.Equal(t, boom, err)
}

func TestRetrieveRedactsQueryBeforeEmbedding(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	var embedded string
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		embedded = text
		return make([]float32, mock.DefaultDim), nil
	}

	r, err := NewRetriever(index.New(mock.DefaultDim), embedder, redact.New(core.ZoneGreen, ""))
	require.NoError(t, err)

	_, err = r.Retrieve(context.Background(), "  mail jane@example.com  ", 5, 0.0, nil)
	require.NoError(t, err)
	assert.Equal(t, "mail <email>", embedded)
}
