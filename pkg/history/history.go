// Package history persists how many times each person has been suggested per
// day. Every store is read in full and written in full; there is no
// incremental update path.
package history

import (
	"context"
	"sort"
	"strings"
)

// History maps "{date}_{personName}" to a selection count.
type History map[string]int

// Store loads and saves the complete selection history.
type Store interface {
	Load(ctx context.Context) (History, error)
	Save(ctx context.Context, h History) error
}

// Key builds the composite history key for a person on a date.
func Key(date, personName string) string {
	return date + "_" + personName
}

// SplitKey reverses Key. Dates are YYYY-MM-DD so the first underscore is the
// separator even when a person's name contains underscores.
func SplitKey(key string) (date, personName string, ok bool) {
	i := strings.Index(key, "_")
	if i < 0 {
		return "", "", false
	}
	return key[:i], key[i+1:], true
}

// Count returns the number of selections for a person on a date, 0 if none.
func (h History) Count(date, personName string) int {
	return h[Key(date, personName)]
}

// Increment bumps a person's count for a date and returns the new value.
func (h History) Increment(date, personName string) int {
	k := Key(date, personName)
	h[k]++
	return h[k]
}

// Clone returns an independent copy.
func (h History) Clone() History {
	c := make(History, len(h))
	for k, v := range h {
		c[k] = v
	}
	return c
}

// DayCount is one person's count for a single date.
type DayCount struct {
	PersonName string `json:"person_name"`
	Count      int    `json:"count"`
}

// ForDate lists the counts recorded on a date, sorted by person name.
func (h History) ForDate(date string) []DayCount {
	counts := []DayCount{}
	for k, v := range h {
		d, person, ok := SplitKey(k)
		if !ok || d != date {
			continue
		}
		counts = append(counts, DayCount{PersonName: person, Count: v})
	}
	sort.Slice(counts, func(i, j int) bool {
		return counts[i].PersonName < counts[j].PersonName
	})
	return counts
}
