package incident

import (
	"fmt"
	"strings"
	"time"
)

// humanizeDuration renders an outage duration as a list of calendar-ish
// components, largest first, zero components skipped. Singular values drop
// the plural s. Durations under a second come out as "0 seconds".
func humanizeDuration(d time.Duration) string {
	seconds := int64(d / time.Second)
	if seconds < 0 {
		seconds = 0
	}

	units := []struct {
		name    string
		seconds int64
	}{
		{"year", 365 * 24 * 3600},
		{"month", 30 * 24 * 3600},
		{"day", 24 * 3600},
		{"hour", 3600},
		{"minute", 60},
		{"second", 1},
	}

	var parts []string
	for _, u := range units {
		value := seconds / u.seconds
		seconds -= value * u.seconds
		if value == 0 {
			continue
		}
		name := u.name
		if value != 1 {
			name += "s"
		}
		parts = append(parts, fmt.Sprintf("%d %s", value, name))
	}
	if len(parts) == 0 {
		return "0 seconds"
	}
	return strings.Join(parts, ", ")
}
