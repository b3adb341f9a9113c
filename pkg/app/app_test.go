package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arnavshah/oncall-api-go/pkg/config"
	"github.com/arnavshah/oncall-api-go/pkg/history"
	"github.com/arnavshah/oncall-api-go/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixtures(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()

	zones := `[{"building":"Dodge Hall","code":"DG","zone":"North"}]`
	shifts := `[{"zone":"North","date":"2024-06-01","startTime":"9:00 AM","endTime":"5:00 PM","personName":"Alice"}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "zones.json"), []byte(zones), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shifts.json"), []byte(shifts), 0o644))

	return config.Config{
		ZonesPath:      filepath.Join(dir, "zones.json"),
		RosterPath:     filepath.Join(dir, "shifts.json"),
		HistoryBackend: "file",
		HistoryPath:    filepath.Join(dir, "selection_history.json"),
		DataPath:       filepath.Join(dir, "oncall.db"),
		Timezone:       "UTC",
		LLMProvider:    "none",
		AdminUsername:  "admin",
		AdminPassword:  "admin123",
		LogLevel:       "info",
	}
}

func TestNew_FileHistory(t *testing.T) {
	cfg := writeFixtures(t)
	ctx := context.Background()

	a, err := New(ctx, cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	a.Service.Now = func() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC) }
	assert.Nil(t, a.Service.Classifier)

	s, err := a.Service.Suggest(ctx, "dg")
	require.NoError(t, err)
	assert.Equal(t, "Alice", s.Suggested)

	h, err := history.NewFileStore(cfg.HistoryPath).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, h.Count("2024-06-01", "Alice"))
}

func TestNew_DBHistoryAndHandler(t *testing.T) {
	cfg := writeFixtures(t)
	cfg.HistoryBackend = "db"
	cfg.WatchRoster = true
	ctx := context.Background()

	a, err := New(ctx, cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	a.Service.Now = func() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC) }
	_, err = a.Service.Suggest(ctx, "Dodge Hall")
	require.NoError(t, err)

	counts, err := a.Service.SelectionCounts(ctx, "2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, []history.DayCount{{PersonName: "Alice", Count: 1}}, counts)

	h, err := a.Handler()
	require.NoError(t, err)
	assert.NotNil(t, h.DB)
	assert.Same(t, a.Service, h.Service)
}

func TestNew_Errors(t *testing.T) {
	cfg := writeFixtures(t)
	cfg.ZonesPath = filepath.Join(t.TempDir(), "missing.json")
	_, err := New(context.Background(), cfg, nil)
	assert.Error(t, err)

	cfg = writeFixtures(t)
	cfg.Timezone = "Mars/Olympus"
	_, err = New(context.Background(), cfg, nil)
	assert.Error(t, err)

	cfg = writeFixtures(t)
	_, err = New(context.Background(), cfg, nil)
	require.NoError(t, err)
	cfg.LLMProvider = "openai"
	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, a.Service.Classifier, "no key disables classification")

	_, err = a.Service.DetectBuilding(context.Background(), "x", "y")
	assert.ErrorIs(t, err, models.ErrClassifierUnavailable)
}
