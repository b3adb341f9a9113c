package selector

import (
	"fmt"
	"strconv"
	"strings"
)

// ConvertTo24Hour turns "2:00 PM" into "14:00". 12 AM becomes 00, 12 PM
// stays 12, other PM hours gain 12. A time without AM/PM is taken as already
// being 24-hour. The result is zero padded so it compares lexically.
func ConvertTo24Hour(t string) (string, error) {
	clock, modifier, err := splitModifier(t)
	if err != nil {
		return "", err
	}

	hm := strings.SplitN(clock, ":", 2)
	if len(hm) != 2 {
		return "", fmt.Errorf("invalid time %q", t)
	}
	hours, err := strconv.Atoi(hm[0])
	if err != nil || hours < 0 {
		return "", fmt.Errorf("invalid hour in %q", t)
	}
	if modifier != "" && (hours < 1 || hours > 12) {
		return "", fmt.Errorf("hour out of range 1-12 in %q", t)
	}
	if modifier == "" && hours > 23 {
		return "", fmt.Errorf("hour out of range 0-23 in %q", t)
	}
	minutes, err := strconv.Atoi(hm[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return "", fmt.Errorf("invalid minutes in %q", t)
	}

	switch {
	case modifier == "PM" && hours != 12:
		hours += 12
	case modifier == "AM" && hours == 12:
		hours = 0
	}

	return fmt.Sprintf("%02d:%02d", hours, minutes), nil
}

func splitModifier(t string) (clock, modifier string, err error) {
	fields := strings.Fields(t)
	switch len(fields) {
	case 1:
		clock = fields[0]
		upper := strings.ToUpper(clock)
		if strings.HasSuffix(upper, "AM") || strings.HasSuffix(upper, "PM") {
			return clock[:len(clock)-2], upper[len(upper)-2:], nil
		}
		return clock, "", nil
	case 2:
		modifier = strings.ToUpper(fields[1])
		if modifier != "AM" && modifier != "PM" {
			return "", "", fmt.Errorf("invalid AM/PM marker in %q", t)
		}
		return fields[0], modifier, nil
	default:
		return "", "", fmt.Errorf("invalid time %q", t)
	}
}

// InShift reports whether current falls in [start, end). All values are
// "HH:MM" strings from ConvertTo24Hour.
func InShift(start, end, current string) bool {
	return current >= start && current < end
}
