// Package selector picks the on-call person for a zone from the people on
// shift right now, balancing picks across the day with a per-date selection
// counter.
//
// Shift times are compared in the selector's location (the deployment's
// local time unless configured otherwise), because roster authors write
// shifts in local wall-clock time. A shift whose end is earlier than its
// start (crossing midnight) never matches; such shifts must be split into two
// roster entries.
package selector

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/arnavshah/oncall-api-go/pkg/history"
	"github.com/arnavshah/oncall-api-go/pkg/models"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Rand is the source used to break ties between least-selected candidates.
type Rand interface {
	Intn(n int) int
}

// Selector handles picking one person per request
type Selector struct {
	history   history.Store
	rand      Rand
	location  *time.Location
	serialize bool
	mu        sync.Mutex
	log       *slog.Logger
}

// Option configures a Selector
type Option func(*Selector)

// WithRand sets the tie-break source. Tests pass a seeded *rand.Rand.
func WithRand(r Rand) Option {
	return func(s *Selector) { s.rand = r }
}

// WithLocation sets the timezone used to derive the current date and time.
func WithLocation(loc *time.Location) Option {
	return func(s *Selector) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithSerializedUpdates holds a lock from history load to history save, so
// concurrent selections inside one process cannot lose updates. Without it
// two racing calls both read the same counts and the last save wins.
func WithSerializedUpdates() Option {
	return func(s *Selector) { s.serialize = true }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Selector) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates a selector that persists counts in store
func New(store history.Store, opts ...Option) *Selector {
	s := &Selector{
		history:  store,
		location: time.Local,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rand == nil {
		s.rand = &lockedRand{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
	}
	return s
}

// Location returns the timezone shift times are evaluated in.
func (s *Selector) Location() *time.Location {
	return s.location
}

// Today returns the roster date for now.
func (s *Selector) Today(now time.Time) string {
	return now.In(s.location).Format(dateLayout)
}

// OnShift returns the roster entries for zone that cover now, in roster order.
func (s *Selector) OnShift(zone string, roster []models.ShiftEntry, now time.Time) []models.ShiftEntry {
	local := now.In(s.location)
	currentDate := local.Format(dateLayout)
	currentTime := local.Format(timeLayout)

	s.log.Debug("looking for shifts", "zone", zone, "date", currentDate, "time", currentTime)

	var onShift []models.ShiftEntry
	relevant := 0
	for _, entry := range roster {
		if entry.Zone != zone || entry.Date != currentDate {
			continue
		}
		relevant++

		start, err := ConvertTo24Hour(entry.StartTime)
		if err != nil {
			s.log.Warn("skipping shift with bad start time", "person", entry.PersonName, "start", entry.StartTime, "err", err)
			continue
		}
		end, err := ConvertTo24Hour(entry.EndTime)
		if err != nil {
			s.log.Warn("skipping shift with bad end time", "person", entry.PersonName, "end", entry.EndTime, "err", err)
			continue
		}

		if InShift(start, end, currentTime) {
			onShift = append(onShift, entry)
		}
	}

	s.log.Debug("shifts found", "zone", zone, "date", currentDate, "relevant", relevant, "on_shift", len(onShift))
	return onShift
}

// SelectPerson suggests one person for zone at now. When somebody is on
// shift the history is loaded, the least-selected candidate for today wins
// (random among ties), and the full history is saved with that person's
// count incremented. When nobody is on shift the history is not touched.
func (s *Selector) SelectPerson(ctx context.Context, zone string, roster []models.ShiftEntry, now time.Time) (models.SuggestionResult, error) {
	onShift := s.OnShift(zone, roster, now)
	if len(onShift) == 0 {
		return models.SuggestionResult{
			OnShift:   []string{},
			Suggested: models.NoSuggestion,
			Textual:   "No one is currently on shift.",
		}, nil
	}

	names := make([]string, len(onShift))
	for i, entry := range onShift {
		names[i] = entry.PersonName
	}

	if s.serialize {
		s.mu.Lock()
		defer s.mu.Unlock()
	}

	h, err := s.history.Load(ctx)
	if err != nil {
		return models.SuggestionResult{}, fmt.Errorf("load selection history: %w: %w", models.ErrStorageUnavailable, err)
	}

	today := s.Today(now)
	candidates := Candidates(h, today, names)
	picked := s.pick(candidates)

	newCount := h.Increment(today, picked.PersonName)
	if err := s.history.Save(ctx, h); err != nil {
		return models.SuggestionResult{}, fmt.Errorf("save selection history: %w: %w", models.ErrStorageUnavailable, err)
	}

	s.log.Info("priority selection",
		"zone", zone,
		"suggested", picked.PersonName,
		"previous_count", picked.SelectionCount,
		"count", newCount,
		"on_shift", len(names),
	)

	return models.SuggestionResult{
		OnShift:   names,
		Suggested: picked.PersonName,
		Textual: fmt.Sprintf("There are %d people on shift now %s and I suggest %s.",
			len(names), strings.Join(names, ", "), picked.PersonName),
	}, nil
}

// Candidates joins on-shift names with their selection counts for date.
func Candidates(h history.History, date string, names []string) []models.Candidate {
	candidates := make([]models.Candidate, len(names))
	for i, name := range names {
		candidates[i] = models.Candidate{
			PersonName:     name,
			SelectionCount: h.Count(date, name),
		}
	}
	return candidates
}

// LeastSelected returns the candidates sharing the lowest count, in input order.
func LeastSelected(candidates []models.Candidate) []models.Candidate {
	if len(candidates) == 0 {
		return nil
	}
	lowest := candidates[0].SelectionCount
	for _, c := range candidates[1:] {
		if c.SelectionCount < lowest {
			lowest = c.SelectionCount
		}
	}

	var ties []models.Candidate
	for _, c := range candidates {
		if c.SelectionCount == lowest {
			ties = append(ties, c)
		}
	}
	return ties
}

func (s *Selector) pick(candidates []models.Candidate) models.Candidate {
	ties := LeastSelected(candidates)
	if len(ties) == 1 {
		return ties[0]
	}
	return ties[s.rand.Intn(len(ties))]
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}
