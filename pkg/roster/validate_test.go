package roster

import (
	"testing"

	"github.com/arnavshah/oncall-api-go/pkg/directory"
	"github.com/arnavshah/oncall-api-go/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	dir := directory.New([]models.Building{{Building: "Dodge Hall", Code: "DG", Zone: "North"}})
	good := models.ShiftEntry{Zone: "North", Date: "2024-06-01", StartTime: "2:00 PM", EndTime: "4:00 PM", PersonName: "Alice"}

	rep := Validate([]models.ShiftEntry{good}, dir)
	assert.True(t, rep.Valid)
	assert.Empty(t, rep.Warnings)
	assert.Equal(t, 1, rep.Shifts)
	assert.Equal(t, 1, rep.People)

	rep = Validate([]models.ShiftEntry{
		good,
		good,
		{Zone: "north", Date: "2024-06-01", StartTime: "10:00 PM", EndTime: "2:00 AM", PersonName: "Night"},
		{Zone: "West", Date: "06/01/2024", StartTime: "noon", EndTime: "4:00 PM", PersonName: ""},
	}, dir)
	assert.False(t, rep.Valid)
	assert.Len(t, rep.Errors, 3)
	assert.Contains(t, rep.Warnings, "shift 2 duplicates shift 1")
	assert.Contains(t, rep.Warnings, `shift 3: zone "north" should be spelled "North"`)
	assert.Contains(t, rep.Warnings, `shift 4: zone "West" has no buildings`)
	assert.Len(t, rep.Warnings, 4)

	rep = Validate([]models.ShiftEntry{
		{Zone: "North", Date: "2024-06-01", StartTime: "13:00 PM", EndTime: "4:00 PM", PersonName: "Alice"},
		{Zone: "North", Date: "2024-06-01", StartTime: "9:00 AM", EndTime: "100:00", PersonName: "Bob"},
	}, dir)
	assert.False(t, rep.Valid, "hours outside the clock are rejected")
	assert.Len(t, rep.Errors, 2)

	rep = Validate(nil, nil)
	assert.False(t, rep.Valid)
}
