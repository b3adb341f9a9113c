package roster

import (
	"fmt"
	"time"

	"github.com/arnavshah/oncall-api-go/pkg/directory"
	"github.com/arnavshah/oncall-api-go/pkg/models"
	"github.com/arnavshah/oncall-api-go/pkg/selector"
)

// Report is the result of checking a roster before it is published
type Report struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Shifts   int      `json:"shift_count"`
	Zones    int      `json:"zone_count"`
	People   int      `json:"person_count"`
}

// Validate checks dates, times and zones. Unparseable entries are errors;
// entries the selector would silently never match are warnings. dir may be nil.
func Validate(shifts []models.ShiftEntry, dir *directory.Directory) Report {
	rep := Report{Shifts: len(shifts)}
	if len(shifts) == 0 {
		rep.Errors = append(rep.Errors, "At least one shift is required")
		return rep
	}

	zones := map[string]bool{}
	people := map[string]bool{}
	seen := map[models.ShiftEntry]int{}

	for i, s := range shifts {
		line := i + 1
		zones[s.Zone] = true
		people[s.PersonName] = true

		if s.PersonName == "" {
			rep.Errors = append(rep.Errors, fmt.Sprintf("shift %d: personName is required", line))
		}
		if s.Zone == "" {
			rep.Errors = append(rep.Errors, fmt.Sprintf("shift %d: zone is required", line))
		} else if dir != nil && !dir.HasZone(s.Zone) {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("shift %d: zone %q has no buildings", line, s.Zone))
		} else if dir != nil {
			if canonical, _ := dir.ZoneName(s.Zone); canonical != s.Zone {
				rep.Warnings = append(rep.Warnings, fmt.Sprintf("shift %d: zone %q should be spelled %q", line, s.Zone, canonical))
			}
		}

		if _, err := time.Parse("2006-01-02", s.Date); err != nil {
			rep.Errors = append(rep.Errors, fmt.Sprintf("shift %d: date %q is not YYYY-MM-DD", line, s.Date))
		}

		start, startErr := selector.ConvertTo24Hour(s.StartTime)
		if startErr != nil {
			rep.Errors = append(rep.Errors, fmt.Sprintf("shift %d: %v", line, startErr))
		}
		end, endErr := selector.ConvertTo24Hour(s.EndTime)
		if endErr != nil {
			rep.Errors = append(rep.Errors, fmt.Sprintf("shift %d: %v", line, endErr))
		}
		if startErr == nil && endErr == nil && end <= start {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("shift %d: ends at or before it starts (%s-%s) and will never match; split shifts that cross midnight", line, s.StartTime, s.EndTime))
		}

		if prev, ok := seen[s]; ok {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("shift %d duplicates shift %d", line, prev))
		} else {
			seen[s] = line
		}
	}

	rep.Zones = len(zones)
	rep.People = len(people)
	rep.Valid = len(rep.Errors) == 0
	return rep
}
