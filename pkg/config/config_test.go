package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "HISTORY_BACKEND", "HISTORY_PATH", "SERIALIZE_SELECTIONS"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "file", cfg.HistoryBackend)
	assert.Equal(t, "selection_history.json", cfg.HistoryPath)
	assert.False(t, cfg.SerializeSelections)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("HISTORY_BACKEND", "redis")
	t.Setenv("SERIALIZE_SELECTIONS", "true")
	t.Setenv("LLM_RATE", "1.5")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "redis", cfg.HistoryBackend)
	assert.True(t, cfg.SerializeSelections)
	assert.Equal(t, 1.5, cfg.LLMRate)
}

func TestFromEnv_BadEnum(t *testing.T) {
	t.Setenv("HISTORY_BACKEND", "floppy")
	_, err := FromEnv()
	assert.Error(t, err)
}

func TestLocation(t *testing.T) {
	loc, err := Config{Timezone: "Local"}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	loc, err = Config{Timezone: "America/New_York"}.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", loc.String())

	_, err = Config{Timezone: "Mars/Olympus"}.Location()
	assert.Error(t, err)
}
