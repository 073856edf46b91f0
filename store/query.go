package store

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// durationPattern matches duration strings like "7d", "2w", "3m", "1y"
var durationPattern = regexp.MustCompile(`^(\d+)([dwmy])$`)

// ParseDuration parses a duration string like "7d", "2w", "3m", "1y".
// Returns the duration or an error if the format is invalid.
//
// Supported units:
//   - d: days
//   - w: weeks (7 days)
//   - m: months (30 days, approximation)
//   - y: years (365 days, approximation)
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("duration string is empty")
	}

	matches := durationPattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("invalid duration format: %s (expected format: <number><unit>, e.g., 7d, 2w, 3m, 1y)", s)
	}

	num, err := strconv.Atoi(matches[1])
	if err != nil || num < 0 {
		return 0, fmt.Errorf("invalid number in duration: %s", matches[1])
	}

	day := 24 * time.Hour
	switch matches[2] {
	case "d":
		return time.Duration(num) * day, nil
	case "w":
		return time.Duration(num) * 7 * day, nil
	case "m":
		return time.Duration(num) * 30 * day, nil
	case "y":
		return time.Duration(num) * 365 * day, nil
	default:
		return 0, fmt.Errorf("invalid duration unit: %s (expected d, w, m, or y)", matches[2])
	}
}

// Cutoff converts an age like "30d" to the instant that long before now.
func Cutoff(olderThan string, now time.Time) (time.Time, error) {
	d, err := ParseDuration(olderThan)
	if err != nil {
		return time.Time{}, err
	}
	return now.Add(-d), nil
}
