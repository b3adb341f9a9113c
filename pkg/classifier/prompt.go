package classifier

import (
	"encoding/json"
	"fmt"

	"github.com/arnavshah/oncall-api-go/pkg/models"
)

const (
	// BuildingNotFound is the model's answer when no known building is mentioned.
	BuildingNotFound = "building_not_found"
	// ZoneNotFound is the model's answer when no zone can be derived.
	ZoneNotFound = "zone_not_found"
)

func issueText(short, description string) string {
	return fmt.Sprintf("Short Description: %s\nDescription: %s", short, description)
}

// BuildBuildingPrompt asks for the exact building name mentioned in an issue.
func BuildBuildingPrompt(short, description string, buildings []models.Building) string {
	type entry struct {
		Building string `json:"building"`
		Code     string `json:"code"`
	}
	list := make([]entry, len(buildings))
	for i, b := range buildings {
		list[i] = entry{Building: b.Building, Code: b.Code}
	}
	valid, _ := json.MarshalIndent(list, "", "  ")

	return fmt.Sprintf(`You are a building name extractor. Given the issue description, identify which building is mentioned.

Issue Text:
%s

Valid buildings (you must return the exact "building" value):
%s

Instructions:
- Look for building names or codes in the text (e.g., "Dodge Hall", "ISEC", "DG", "Snell Library")
- Room numbers like "ISEC-148" or "Lab-ISEC-148" indicate the building code before the room number
- IGNORE any zone names in the text (they may be incorrect)
- Return the EXACT building name from the list above (e.g., "Interdisciplinary Science & Eng" not "ISEC")
- If no building found or it doesn't match, respond exactly: %s

Response (building name or %s):`, issueText(short, description), valid, BuildingNotFound, BuildingNotFound)
}

// BuildZonePrompt asks for the zone of the building mentioned in an issue.
func BuildZonePrompt(short, description string, buildings []models.Building) string {
	table, _ := json.MarshalIndent(buildings, "", "  ")

	return fmt.Sprintf(`You are a classroom/building name extractor. Given the following issue description, extract the classroom or building name mentioned.

Issue Text:
%s

Here is the list of valid buildings and their zones:
%s

Instructions:
- Look for classroom or building names in the text (e.g., "Dodge Hall", "ISEC", "Snell Library")
- IGNORE any zone names mentioned in the text (they may be incorrect)
- Match the extracted building to the zones data provided
- If you find a match, respond with ONLY the zone name (e.g., "Center Zone")
- If no building/classroom is found or it doesn't match any in the list, respond with exactly: %s

Response (zone name or %s):`, issueText(short, description), table, ZoneNotFound, ZoneNotFound)
}
