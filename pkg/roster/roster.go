// Package roster loads the shift roster. The roster is read-only; nothing in
// this service writes it.
package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/arnavshah/oncall-api-go/pkg/models"
)

// Source provides the current roster
type Source interface {
	Load(ctx context.Context) ([]models.ShiftEntry, error)
}

// FileSource reads a JSON array of shift entries on every Load.
type FileSource struct {
	Path string
}

// NewFileSource returns a source reading path
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (f *FileSource) Load(_ context.Context) ([]models.ShiftEntry, error) {
	return ReadFile(f.Path)
}

// ReadFile parses a roster file
func ReadFile(path string) ([]models.ShiftEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading shifts JSON: %w", err)
	}

	var shifts []models.ShiftEntry
	if err := json.Unmarshal(data, &shifts); err != nil {
		return nil, fmt.Errorf("error parsing shifts JSON %s: %w", path, err)
	}
	return shifts, nil
}

// Static is a fixed in-memory roster
type Static []models.ShiftEntry

func (s Static) Load(_ context.Context) ([]models.ShiftEntry, error) {
	return s, nil
}
