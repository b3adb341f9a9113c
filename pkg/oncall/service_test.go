package oncall

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/arnavshah/oncall-api-go/pkg/classifier"
	"github.com/arnavshah/oncall-api-go/pkg/directory"
	"github.com/arnavshah/oncall-api-go/pkg/history"
	"github.com/arnavshah/oncall-api-go/pkg/metrics"
	"github.com/arnavshah/oncall-api-go/pkg/models"
	"github.com/arnavshah/oncall-api-go/pkg/roster"
	"github.com/arnavshah/oncall-api-go/pkg/selector"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenRoster struct{}

func (brokenRoster) Load(context.Context) ([]models.ShiftEntry, error) {
	return nil, errors.New("no such file")
}

func newTestService(llmAnswer string) (*Service, *history.MemoryStore) {
	store := history.NewMemoryStore(nil)
	dir := directory.New([]models.Building{
		{Building: "Dodge Hall", Code: "DG", Zone: "North"},
		{Building: "Snell Library", Code: "SL", Zone: "South"},
	})
	return &Service{
		Directory: dir,
		Roster: roster.Static{
			{Zone: "North", Date: "2024-06-01", StartTime: "2:00 PM", EndTime: "4:00 PM", PersonName: "Alice"},
			{Zone: "North", Date: "2024-06-01", StartTime: "2:00 PM", EndTime: "4:00 PM", PersonName: "Bob"},
		},
		Selector:   selector.New(store, selector.WithLocation(time.UTC), selector.WithRand(rand.New(rand.NewSource(1)))),
		History:    store,
		Classifier: classifier.New(classifier.StaticClient{Response: llmAnswer}, dir, nil),
		Metrics:    metrics.New(),
		Now:        func() time.Time { return time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC) },
	}, store
}

func TestSuggest(t *testing.T) {
	s, store := newTestService("")

	sug, err := s.Suggest(context.Background(), "dg")
	require.NoError(t, err)
	assert.Equal(t, "Dodge Hall", sug.Building.Building)
	assert.Equal(t, []string{"Alice", "Bob"}, sug.OnShift)
	assert.Contains(t, []string{"Alice", "Bob"}, sug.Suggested)
	assert.Equal(t, 1, store.Saves())
	assert.Equal(t, 1.0, testutil.ToFloat64(s.Metrics.Suggestions.WithLabelValues("North", "suggested")))

	resp := sug.Response()
	assert.Equal(t, "North", resp.Zone)
	assert.Equal(t, "DG", resp.Code)
}

func TestSuggest_NobodyOnShift(t *testing.T) {
	s, store := newTestService("")
	sug, err := s.Suggest(context.Background(), "Snell Library")
	require.NoError(t, err)
	assert.Equal(t, models.NoSuggestion, sug.Suggested)
	assert.Equal(t, []string{}, sug.Response().OnShift)
	assert.Equal(t, 0, store.Saves())
}

func TestSuggest_Errors(t *testing.T) {
	s, _ := newTestService("")

	_, err := s.Suggest(context.Background(), "  ")
	assert.ErrorIs(t, err, models.ErrInputMissing)

	_, err = s.Suggest(context.Background(), "Hogwarts")
	assert.ErrorIs(t, err, models.ErrBuildingNotFound)

	s.Roster = brokenRoster{}
	_, err = s.Suggest(context.Background(), "Dodge Hall")
	assert.ErrorIs(t, err, models.ErrStorageUnavailable)
}

func TestSuggestFromText(t *testing.T) {
	s, _ := newTestService("Dodge Hall")
	sug, err := s.SuggestFromText(context.Background(), "Projector", "Room DG-101 projector is dead")
	require.NoError(t, err)
	assert.Equal(t, "North", sug.Building.Zone)
	assert.NotEqual(t, models.NoSuggestion, sug.Suggested)

	s, _ = newTestService("building_not_found")
	_, err = s.SuggestFromText(context.Background(), "Projector", "somewhere")
	assert.ErrorIs(t, err, models.ErrBuildingNotFound)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.Metrics.Classifications.WithLabelValues("building", "not_found")))
}

func TestDetect_NoClassifier(t *testing.T) {
	s, _ := newTestService("")
	s.Classifier = nil
	_, err := s.DetectZone(context.Background(), "a", "b")
	assert.ErrorIs(t, err, models.ErrClassifierUnavailable)
}

func TestSelectionCounts(t *testing.T) {
	s, _ := newTestService("")
	for i := 0; i < 3; i++ {
		_, err := s.Suggest(context.Background(), "Dodge Hall")
		require.NoError(t, err)
	}

	counts, err := s.SelectionCounts(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, 3, counts[0].Count+counts[1].Count)

	_, err = s.SelectionCounts(context.Background(), "yesterday")
	assert.ErrorIs(t, err, models.ErrInputMissing)
}
