package groundwork

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/groundwork/ai/mock"
	"github.com/poiesic/groundwork/core"
	"github.com/poiesic/groundwork/ingest"
)

func newTestEngine(t *testing.T, chat *mock.MockChatModel, opts ...EngineOption) *Engine {
	t.Helper()

	opts = append([]EngineOption{
		WithEmbedder(mock.NewMockEmbedder()),
		WithChatModel(chat),
		WithIndexDim(mock.DefaultDim),
		WithInMemoryAuditTrail(),
	}, opts...)

	engine, err := NewEngine(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })
	return engine
}

func TestEngineIngestAndRetrieve(t *testing.T) {
	engine := newTestEngine(t, mock.NewMockChatModel())

	docText := "Acme Inc launches widgets in Berlin this week."
	n, err := engine.Ingest(context.Background(), "docA", docText)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, engine.Index().Len())

	// Identical query text embeds to the identical vector, so the chunk
	// retrieves itself with a perfect score.
	items, err := engine.Retrieve(context.Background(), docText, 3, 0.3)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "docA", items[0].DocID)
	assert.InDelta(t, 1.0, items[0].Score, 1e-6)
}

func TestEngineIngestBatch(t *testing.T) {
	engine := newTestEngine(t, mock.NewMockChatModel())

	docs := []ingest.Document{
		{ID: "docA", Text: "Acme Inc launches widgets."},
		{ID: "docB", Text: "Globex acquires a logistics startup."},
	}
	total, err := engine.IngestBatch(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestEngineExtractGroundedEndToEnd(t *testing.T) {
	docText := "Acme Inc launches widgets in Berlin this week."
	chat := mock.NewMockChatModel(`{"company":"Acme Inc","topics":["widgets","launch"],"citations":["docA:0"]}`)
	engine := newTestEngine(t, chat)

	_, err := engine.Ingest(context.Background(), "docA", docText)
	require.NoError(t, err)

	answer, err := engine.ExtractGrounded(context.Background(), docText)
	require.NoError(t, err)

	require.True(t, answer.OK)
	assert.False(t, answer.Abstained)
	assert.Equal(t, "Acme Inc", answer.Answer.Company)
	assert.Equal(t, []string{"widgets", "launch"}, answer.Answer.Topics)

	require.Len(t, answer.Citations, 1)
	assert.Equal(t, "docA", answer.Citations[0].DocID)
	assert.Equal(t, 0, answer.Citations[0].ChunkIdx)
	assert.Equal(t, "docA:0", answer.Citations[0].Label)
	assert.NotEmpty(t, answer.Citations[0].SHA1)

	assert.Equal(t, 1, answer.Meta.ContextCount)
	assert.NotEmpty(t, answer.Meta.Model)

	// The prompt must carry the packed context block with a C1 tag.
	assert.Contains(t, chat.LastRequest().User, "[C1] (doc=docA chunk=0 sha1=")
}

func TestEngineExtractGroundedAbstainsWithoutIndex(t *testing.T) {
	chat := mock.NewMockChatModel(`{"company":"Acme Inc"}`)
	engine := newTestEngine(t, chat)

	answer, err := engine.ExtractGrounded(context.Background(), "Acme Inc launches widgets.")
	require.NoError(t, err)

	assert.False(t, answer.OK)
	assert.True(t, answer.Abstained)
	assert.Equal(t, []string{core.ReasonNoContext}, answer.Reasons)
	assert.Zero(t, chat.CallCount())
}

func TestEngineExtractUngrounded(t *testing.T) {
	payload := "Acme Inc launches widgets in Berlin this week."
	chat := mock.NewMockChatModel(`{"company":"Acme Inc","topics":["widgets"]}`)
	engine := newTestEngine(t, chat)

	answer, err := engine.Extract(context.Background(), payload)
	require.NoError(t, err)
	assert.True(t, answer.OK)
	assert.Empty(t, answer.Citations)
}

func TestEngineAuditTrail(t *testing.T) {
	payload := "Acme Inc launches widgets in Berlin this week."
	chat := mock.NewMockChatModel(
		`{"company":"Acme Inc","topics":["widgets"]}`,
		`broken json`,
	)
	engine := newTestEngine(t, chat)

	_, err := engine.Extract(context.Background(), payload)
	require.NoError(t, err)
	_, err = engine.Extract(context.Background(), payload)
	require.NoError(t, err)

	events, err := engine.AuditEvents(0)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.True(t, events[0].OK)
	assert.True(t, events[1].Abstained)
	assert.Equal(t, []string{core.ReasonInvalidJSON}, events[1].Reasons)
	for _, event := range events {
		assert.NotEmpty(t, event.SrcHash)
		assert.NotContains(t, event.SrcHash, "Acme")
	}
}

func TestEngineRedactionAppliesToIngestedText(t *testing.T) {
	chat := mock.NewMockChatModel()
	engine := newTestEngine(t, chat, WithZone(core.ZoneRed), WithSalt("s1"))

	docText := "Reach jane@acme.example or 555-123-4567 about Acme Inc."
	_, err := engine.Ingest(context.Background(), "docA", docText)
	require.NoError(t, err)

	items, err := engine.Retrieve(context.Background(), docText, 5, 0.0)
	require.NoError(t, err)
	require.NotEmpty(t, items)
	for _, item := range items {
		assert.NotContains(t, item.Text, "jane@acme.example")
		assert.NotContains(t, item.Text, "555")
	}
}
