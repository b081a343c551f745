package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.ChatHost)
	assert.NotEmpty(t, cfg.EmbeddingModel)
	assert.NotEmpty(t, cfg.ChatModel)
	assert.Equal(t, 0.5, cfg.Temperature)
	require.NoError(t, cfg.Validate())
}

func TestNewConfigOptions(t *testing.T) {
	cfg := NewConfig(
		WithHost("https://api.openai.com"),
		WithEmbeddingModel("text-embedding-3-small"),
		WithChatModel("gpt-4o-mini"),
		WithToken("sk-test"),
		WithTemperature(0.2),
	)

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "https://api.openai.com/v1", cfg.EmbeddingHost, "Normalize appends /v1")
	assert.Equal(t, "https://api.openai.com/v1", cfg.ChatHost)
	assert.Equal(t, "sk-test", cfg.Token)
	assert.Equal(t, 0.2, cfg.Temperature)
}

func TestConfigNormalizeTrailingSlash(t *testing.T) {
	cfg := NewConfig(WithHost("http://localhost:8080/"))
	cfg.Normalize()

	assert.Equal(t, "http://localhost:8080/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:8080/v1", cfg.ChatHost)
}

func TestConfigNormalizeIdempotent(t *testing.T) {
	cfg := NewConfig(WithHost("http://localhost:8080/v1"))
	cfg.Normalize()
	cfg.Normalize()

	assert.Equal(t, "http://localhost:8080/v1", cfg.EmbeddingHost)
}

func TestConfigValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing embedding host", func(c *Config) { c.EmbeddingHost = "" }},
		{"missing chat host", func(c *Config) { c.ChatHost = "" }},
		{"missing embedding model", func(c *Config) { c.EmbeddingModel = "" }},
		{"missing chat model", func(c *Config) { c.ChatModel = "" }},
		{"missing token", func(c *Config) { c.Token = "" }},
		{"temperature out of range", func(c *Config) { c.Temperature = 3.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
