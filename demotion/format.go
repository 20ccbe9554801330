package demotion

import (
	"fmt"
	"strings"
	"time"
)

// FormatRemaining renders a remaining duration rounded up to whole minutes, e.g. "1h 5m".
func FormatRemaining(d time.Duration) string {
	mins := int((d + time.Minute - 1) / time.Minute)
	if mins < 0 {
		mins = 0
	}
	hours, mins := mins/60, mins%60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}

// FormatDuration renders a demotion length the way it was requested, e.g. "1 day 2 hours 5 minutes".
func FormatDuration(hours, minutes int) string {
	var parts []string
	if days := hours / 24; days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if h := hours % 24; h > 0 {
		parts = append(parts, plural(h, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	return strings.Join(parts, " ")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// ReasonOrDefault substitutes a placeholder for an empty reason.
func ReasonOrDefault(reason string) string {
	if strings.TrimSpace(reason) == "" {
		return "No reason provided"
	}
	return reason
}
