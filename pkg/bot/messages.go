package bot

import (
	"fmt"
	"strings"

	"github.com/arnavshah/oncall-api-go/pkg/directory"
	"github.com/arnavshah/oncall-api-go/pkg/models"
)

const startText = "Welcome to the Building Shift Assistant!\n\n" +
	"Send me a building name or code, and I'll tell you who's on shift.\n\n" +
	"Commands:\n" +
	"/help - Show help message\n" +
	"/buildings - List all buildings\n" +
	"/zones - List buildings by zone"

const helpText = "How to use this bot:\n\n" +
	"1. Send a building name (e.g., 'Dodge Hall')\n" +
	"2. Or send a building code (e.g., 'DG')\n\n" +
	"I'll find who's currently on shift and suggest someone.\n\n" +
	"Commands:\n" +
	"/buildings - List all buildings with codes\n" +
	"/zones - List buildings grouped by zone"

const (
	unreachableText = "Could not connect to the API server.\n" +
		"Make sure the server is running (oncall server)."
	failureText = "Sorry, an error occurred while processing your request.\n" +
		"Please try again later."
)

func notFoundText(building string) string {
	return fmt.Sprintf("Building \"%s\" not found.\n\nUse /buildings to see the list of valid buildings.", building)
}

// FormatResponse renders a suggestion as a chat message. buildingName is what
// the user typed, not the canonical name.
func FormatResponse(result models.SuggestionResult, buildingName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏢 Building: %s\n\n", buildingName)

	if len(result.OnShift) == 0 {
		b.WriteString("No one is currently on shift.")
		return b.String()
	}

	fmt.Fprintf(&b, "👥 People on shift: %s\n\n", strings.Join(result.OnShift, ", "))
	fmt.Fprintf(&b, "✅ Suggested: %s", result.Suggested)
	return b.String()
}

// BuildingsText lists every building as "CODE - Name".
func BuildingsText(dir *directory.Directory) string {
	buildings := dir.Buildings()
	lines := make([]string, 0, len(buildings))
	for _, b := range buildings {
		lines = append(lines, b.Code+" - "+b.Building)
	}
	return fmt.Sprintf("Available Buildings (%d):\n\n%s", len(buildings), strings.Join(lines, "\n"))
}

// ZonesText lists buildings grouped under their zone.
func ZonesText(dir *directory.Directory) string {
	var b strings.Builder
	b.WriteString("Buildings by Zone:\n\n")
	for _, z := range dir.Zones() {
		fmt.Fprintf(&b, "📍 %s\n", z.Zone)
		for _, bl := range z.Buildings {
			fmt.Fprintf(&b, "  %s - %s\n", bl.Code, bl.Building)
		}
		b.WriteString("\n")
	}
	return b.String()
}
