package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseDuration parses a config duration such as "10s", "1d" or "1d12h".
// A leading day count is accepted in front of any time.ParseDuration suffix.
// Negative durations are rejected.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	var days time.Duration
	if idx := strings.IndexByte(s, 'd'); idx >= 0 {
		n, err := strconv.Atoi(s[:idx])
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid day count in duration %q", s)
		}
		days = time.Duration(n) * 24 * time.Hour
		s = s[idx+1:]
		if s == "" {
			return days, nil
		}
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return days + d, nil
}
