package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.ChatHost)
	assert.NotEmpty(t, cfg.EmbeddingModel)
	assert.NotEmpty(t, cfg.ChatModel)
	assert.NoError(t, cfg.Validate())
}

func TestConfigOptions(t *testing.T) {
	cfg := NewConfig(
		WithHost("http://remote:9100"),
		WithEmbeddingModel("text-embedding-3-small"),
		WithChatModel("gpt-4o-mini"),
		WithSoftFallbackModel("gpt-4o-mini"),
	)

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://remote:9100/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://remote:9100/v1", cfg.ChatHost)
	assert.Equal(t, "gpt-4o-mini", cfg.ChatModel)
	assert.Equal(t, "gpt-4o-mini", cfg.SoftFallbackModel)
}

func TestConfigNormalizeAddsV1Suffix(t *testing.T) {
	cfg := NewConfig(WithEmbeddingHost("http://host:1234/"))
	cfg.Normalize()
	assert.Equal(t, "http://host:1234/v1", cfg.EmbeddingHost)
}

func TestConfigValidateMissingFields(t *testing.T) {
	cases := map[string]*Config{
		"missing embedding host":  {ChatHost: "h", EmbeddingModel: "m", ChatModel: "c"},
		"missing chat host":       {EmbeddingHost: "h", EmbeddingModel: "m", ChatModel: "c"},
		"missing embedding model": {EmbeddingHost: "h", ChatHost: "h", ChatModel: "c"},
		"missing chat model":      {EmbeddingHost: "h", ChatHost: "h", EmbeddingModel: "m"},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, cfg.Validate())
		})
	}
}
