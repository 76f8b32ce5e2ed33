package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini-2024-07-18", cfg.LLM.Model)
	assert.Equal(t, 120*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 10, cfg.Translator.MaxParts)
	assert.Equal(t, "memory", cfg.Cache.Type)
	assert.Equal(t, 86400, cfg.Cache.TTL)
	assert.False(t, cfg.Queue.Enable)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
llm:
  model: chatgpt-4o-latest
translator:
  max_parts: 5
cache:
  type: redis
  address: localhost:6380
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "chatgpt-4o-latest", cfg.LLM.Model)
	assert.Equal(t, 5, cfg.Translator.MaxParts)
	assert.Equal(t, "redis", cfg.Cache.Type)
	assert.Equal(t, "localhost:6380", cfg.Cache.Address)
}

func TestAPIKeyEnvExpansion(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "sk-test-key", cfg.LLM.APIKey)
}
