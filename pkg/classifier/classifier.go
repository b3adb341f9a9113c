// Package classifier extracts a building or zone from free-text issue
// descriptions with a language model. Model answers are untrusted and are
// always re-validated against the zone directory.
package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arnavshah/oncall-api-go/pkg/directory"
	"github.com/arnavshah/oncall-api-go/pkg/models"
)

// Classifier detects buildings and zones in issue text
type Classifier struct {
	llm Completer
	dir *directory.Directory
	log *slog.Logger
}

// New returns a classifier using llm and validating against dir
func New(llm Completer, dir *directory.Directory, log *slog.Logger) *Classifier {
	if log == nil {
		log = slog.Default()
	}
	return &Classifier{llm: llm, dir: dir, log: log}
}

// DetectBuilding returns the directory entry for the building mentioned in the issue.
func (c *Classifier) DetectBuilding(ctx context.Context, short, description string) (models.Building, error) {
	if strings.TrimSpace(short) == "" && strings.TrimSpace(description) == "" {
		return models.Building{}, models.ErrInputMissing
	}

	answer, err := c.llm.Complete(ctx, BuildBuildingPrompt(short, description, c.dir.Buildings()))
	if err != nil {
		return models.Building{}, fmt.Errorf("%w: %w", models.ErrClassifierUnavailable, err)
	}

	answer = cleanAnswer(answer)
	c.log.Debug("building classifier answered", "answer", answer)

	if strings.EqualFold(answer, BuildingNotFound) {
		return models.Building{}, fmt.Errorf("no building mentioned: %w", models.ErrBuildingNotFound)
	}

	b, ok := c.dir.Lookup(answer)
	if !ok {
		c.log.Warn("classifier returned unknown building", "answer", answer)
		return models.Building{}, fmt.Errorf("classifier answer %q: %w", answer, models.ErrBuildingNotFound)
	}
	return b, nil
}

// DetectZone returns the canonical zone name for the building mentioned in the issue.
func (c *Classifier) DetectZone(ctx context.Context, short, description string) (string, error) {
	if strings.TrimSpace(short) == "" && strings.TrimSpace(description) == "" {
		return "", models.ErrInputMissing
	}

	answer, err := c.llm.Complete(ctx, BuildZonePrompt(short, description, c.dir.Buildings()))
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrClassifierUnavailable, err)
	}

	answer = cleanAnswer(answer)
	c.log.Debug("zone classifier answered", "answer", answer)

	if strings.EqualFold(answer, ZoneNotFound) {
		return "", fmt.Errorf("no zone detected: %w", models.ErrBuildingNotFound)
	}

	zone, ok := c.dir.ZoneName(answer)
	if !ok {
		c.log.Warn("classifier returned unknown zone", "answer", answer)
		return "", fmt.Errorf("classifier answer %q: %w", answer, models.ErrBuildingNotFound)
	}
	return zone, nil
}

func cleanAnswer(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"'`")
	s = strings.TrimSuffix(s, ".")
	return strings.TrimSpace(s)
}
