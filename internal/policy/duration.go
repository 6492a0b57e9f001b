package policy

import (
	"strconv"
	"strings"
)

// ParseTimeoutMillis parses a lock_timeout/statement_timeout argument
// following PostgreSQL's duration grammar, per spec §4.4: a bare integer
// means milliseconds; strings follow PostgreSQL duration syntax (2s,
// 500ms, 5min, 1h, "2 seconds"); "0" means unlimited (returned as 0).
// Returns false if the value can't be parsed as a duration at all.
func ParseTimeoutMillis(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, `"'`)
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}

	lower := strings.ToLower(s)
	fields := strings.Fields(lower)
	if len(fields) == 2 {
		if n, err := strconv.Atoi(fields[0]); err == nil {
			if ms, ok := unitMillis(fields[1]); ok {
				return n * ms, true
			}
		}
	}

	return parseSuffixed(lower)
}

func parseSuffixed(s string) (int, bool) {
	for _, unit := range []string{"ms", "min", "s", "h", "d"} {
		if strings.HasSuffix(s, unit) {
			numPart := strings.TrimSuffix(s, unit)
			if n, err := strconv.Atoi(strings.TrimSpace(numPart)); err == nil {
				ms, _ := unitMillis(unit)
				return n * ms, true
			}
		}
	}
	return 0, false
}

func unitMillis(unit string) (int, bool) {
	switch unit {
	case "ms", "millisecond", "milliseconds":
		return 1, true
	case "s", "sec", "second", "seconds":
		return 1000, true
	case "min", "minute", "minutes":
		return 60_000, true
	case "h", "hour", "hours":
		return 3_600_000, true
	case "d", "day", "days":
		return 86_400_000, true
	default:
		return 0, false
	}
}
