// Package oncall ties the zone directory, roster, selector and classifier
// together. HTTP handlers, the chat bot and the CLI all go through Service so
// they produce the same result for the same request.
package oncall

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/arnavshah/oncall-api-go/pkg/classifier"
	"github.com/arnavshah/oncall-api-go/pkg/directory"
	"github.com/arnavshah/oncall-api-go/pkg/history"
	"github.com/arnavshah/oncall-api-go/pkg/metrics"
	"github.com/arnavshah/oncall-api-go/pkg/models"
	"github.com/arnavshah/oncall-api-go/pkg/roster"
	"github.com/arnavshah/oncall-api-go/pkg/selector"
)

// Service answers "who should handle this building right now"
type Service struct {
	Directory  *directory.Directory
	Roster     roster.Source
	Selector   *selector.Selector
	History    history.Store
	Classifier *classifier.Classifier // nil disables the text endpoints
	Metrics    *metrics.Metrics       // optional
	Now        func() time.Time       // defaults to time.Now
	Log        *slog.Logger
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) log() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

// Suggest looks up the building's zone and picks the on-call person.
func (s *Service) Suggest(ctx context.Context, building string) (*models.Suggestion, error) {
	building = strings.TrimSpace(building)
	if building == "" {
		return nil, models.ErrInputMissing
	}

	b, ok := s.Directory.Lookup(building)
	if !ok {
		s.count("", "building_not_found")
		return nil, fmt.Errorf("%w: %q is not in the zones database", models.ErrBuildingNotFound, building)
	}

	now := s.now()
	s.log().Info("suggestion requested", "building", b.Building, "zone", b.Zone, "at", now.In(s.Selector.Location()).Format("Monday Jan 2, 3:04PM"))

	shifts, err := s.Roster.Load(ctx)
	if err != nil {
		s.count(b.Zone, "error")
		return nil, fmt.Errorf("%w: %w", models.ErrStorageUnavailable, err)
	}

	res, err := s.Selector.SelectPerson(ctx, b.Zone, shifts, now)
	if err != nil {
		s.count(b.Zone, "error")
		return nil, err
	}

	if res.Suggested == models.NoSuggestion {
		s.count(b.Zone, "nobody_on_shift")
	} else {
		s.count(b.Zone, "suggested")
	}

	return &models.Suggestion{Building: b, SuggestionResult: res}, nil
}

// SuggestFromText detects the building in an issue description, then suggests.
func (s *Service) SuggestFromText(ctx context.Context, short, description string) (*models.Suggestion, error) {
	b, err := s.DetectBuilding(ctx, short, description)
	if err != nil {
		return nil, err
	}
	return s.Suggest(ctx, b.Building)
}

// DetectBuilding runs the building classifier
func (s *Service) DetectBuilding(ctx context.Context, short, description string) (models.Building, error) {
	if s.Classifier == nil {
		return models.Building{}, fmt.Errorf("no classifier configured: %w", models.ErrClassifierUnavailable)
	}
	start := time.Now()
	b, err := s.Classifier.DetectBuilding(ctx, short, description)
	s.observeClassifier("building", start, err)
	return b, err
}

// DetectZone runs the zone classifier
func (s *Service) DetectZone(ctx context.Context, short, description string) (string, error) {
	if s.Classifier == nil {
		return "", fmt.Errorf("no classifier configured: %w", models.ErrClassifierUnavailable)
	}
	start := time.Now()
	zone, err := s.Classifier.DetectZone(ctx, short, description)
	s.observeClassifier("zone", start, err)
	return zone, err
}

// Today is the current roster date in the selector's timezone.
func (s *Service) Today() string {
	return s.Selector.Today(s.now())
}

// SelectionCounts lists the recorded selection counts for date (today if empty).
func (s *Service) SelectionCounts(ctx context.Context, date string) ([]history.DayCount, error) {
	if date == "" {
		date = s.Today()
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, models.ErrInputMissing)
	}

	h, err := s.History.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrStorageUnavailable, err)
	}
	return h.ForDate(date), nil
}

func (s *Service) count(zone, outcome string) {
	if s.Metrics == nil {
		return
	}
	s.Metrics.Suggestions.WithLabelValues(zone, outcome).Inc()
}

func (s *Service) observeClassifier(kind string, start time.Time, err error) {
	if s.Metrics == nil {
		return
	}
	outcome := "ok"
	switch {
	case errors.Is(err, models.ErrBuildingNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	}
	s.Metrics.Classifications.WithLabelValues(kind, outcome).Inc()
	s.Metrics.ClassifierLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
