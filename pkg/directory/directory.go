// Package directory is the static building to zone table.
package directory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arnavshah/oncall-api-go/pkg/models"
	"gopkg.in/yaml.v3"
)

// Directory answers building and zone lookups
type Directory struct {
	buildings []models.Building
}

// ZoneGroup is a zone with its buildings, in table order
type ZoneGroup struct {
	Zone      string            `json:"zone"`
	Buildings []models.Building `json:"buildings"`
}

// New wraps an in-memory table
func New(buildings []models.Building) *Directory {
	return &Directory{buildings: buildings}
}

// Load reads the table from a .json, .yaml or .yml file
func Load(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading zones file: %w", err)
	}

	var buildings []models.Building
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &buildings)
	default:
		err = json.Unmarshal(data, &buildings)
	}
	if err != nil {
		return nil, fmt.Errorf("error parsing zones file %s: %w", path, err)
	}

	return New(buildings), nil
}

// Lookup finds a building by name, then by code, ignoring case.
func (d *Directory) Lookup(name string) (models.Building, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Building{}, false
	}
	for _, b := range d.buildings {
		if strings.EqualFold(b.Building, name) {
			return b, true
		}
	}
	for _, b := range d.buildings {
		if b.Code != "" && strings.EqualFold(b.Code, name) {
			return b, true
		}
	}
	return models.Building{}, false
}

// Buildings returns the whole table
func (d *Directory) Buildings() []models.Building {
	return d.buildings
}

// Zones groups buildings by zone, zones in order of first appearance.
func (d *Directory) Zones() []ZoneGroup {
	var groups []ZoneGroup
	index := map[string]int{}
	for _, b := range d.buildings {
		i, ok := index[b.Zone]
		if !ok {
			i = len(groups)
			index[b.Zone] = i
			groups = append(groups, ZoneGroup{Zone: b.Zone})
		}
		groups[i].Buildings = append(groups[i].Buildings, b)
	}
	return groups
}

// ZoneName returns the canonical spelling of a zone, matched ignoring case.
func (d *Directory) ZoneName(zone string) (string, bool) {
	zone = strings.TrimSpace(zone)
	for _, b := range d.buildings {
		if strings.EqualFold(b.Zone, zone) {
			return b.Zone, true
		}
	}
	return "", false
}

// HasZone reports whether any building belongs to zone
func (d *Directory) HasZone(zone string) bool {
	_, ok := d.ZoneName(zone)
	return ok
}
