package stats

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseClock parses HH:MM:SS into seconds. Hours may exceed 23.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("expected HH:MM:SS, got %q", s)
	}

	var secs int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 || (i > 0 && v > 59) {
			return 0, fmt.Errorf("expected HH:MM:SS, got %q", s)
		}
		secs = secs*60 + v
	}
	return secs, nil
}
