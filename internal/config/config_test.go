package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, 2*time.Minute, cfg.ChatTurnTimeout)
	assert.Equal(t, 50, cfg.MaxHistoryTurns)
	assert.Equal(t, 1000, cfg.SummaryMaxLength)
	assert.Equal(t, 5*time.Second, cfg.KnowledgeTimeout)
	assert.Equal(t, "KnowledgeSnippet", cfg.WeaviateClass)
	assert.Empty(t, cfg.NATSURL)
	assert.False(t, cfg.Development())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CHAT_TURN_TIMEOUT", "30s")
	t.Setenv("MAX_HISTORY_TURNS", "0")
	t.Setenv("CORS_ORIGINS", "https://coach.example.com,https://admin.example.com")
	t.Setenv("ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 30*time.Second, cfg.ChatTurnTimeout)
	assert.Equal(t, 0, cfg.MaxHistoryTurns)
	assert.Equal(t, []string{"https://coach.example.com", "https://admin.example.com"}, cfg.CORSOrigins)
	assert.True(t, cfg.Development())
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	t.Setenv("MAX_HISTORY_TURNS", "-1")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsUnparseableDuration(t *testing.T) {
	t.Setenv("CHAT_TURN_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_WriteTimeoutMustCoverTurn(t *testing.T) {
	t.Setenv("CHAT_TURN_TIMEOUT", "2m")
	t.Setenv("SERVER_WRITE_TIMEOUT", "30s")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SERVER_WRITE_TIMEOUT")

	t.Setenv("SERVER_WRITE_TIMEOUT", "3m")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Minute, cfg.ServerWriteTimeout)
}
