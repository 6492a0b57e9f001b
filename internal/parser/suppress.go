package parser

import (
	"regexp"
	"strings"
)

// bareIgnore matches "-- pgfence-ignore" with nothing else meaningful
// after it (no colon, no rule list).
var bareIgnore = regexp.MustCompile(`(?i)--\s*pgfence-ignore\s*$`)

// listIgnore matches "-- pgfence-ignore: r1, r2" and captures the list.
var listIgnore = regexp.MustCompile(`(?i)--\s*pgfence-ignore\s*:\s*(.+)$`)

// legacyIgnore matches the legacy "-- pgfence: ignore r1, r2" form.
var legacyIgnore = regexp.MustCompile(`(?i)--\s*pgfence\s*:\s*ignore\s+(.+)$`)

// scanSuppressions looks for inline suppression directives in the gap
// between the previous statement and this one, and in the statement's own
// text, per spec §4.1. A directive attaches to the single statement
// immediately following it; the gap is bounded by the previous statement
// so a directive cannot bleed past the statement it precedes.
func scanSuppressions(gap, stmtSQL string) []string {
	var ids []string
	for _, line := range splitLines(gap) {
		ids = append(ids, directiveRuleIDs(line)...)
	}
	for _, line := range splitLines(stmtSQL) {
		ids = append(ids, directiveRuleIDs(line)...)
	}
	return dedupe(ids)
}

func splitLines(s string) []string {
	return strings.Split(s, "\n")
}

// directiveRuleIDs parses one line for a suppression directive. Returns
// ["*"] for a bare "pgfence-ignore" directive (suppress everything), the
// parsed rule-ID list for a scoped directive, or nil if the line carries
// no directive.
func directiveRuleIDs(line string) []string {
	line = strings.TrimSpace(line)

	if m := listIgnore.FindStringSubmatch(line); m != nil {
		return splitRuleList(m[1])
	}
	if bareIgnore.MatchString(line) {
		return []string{"*"}
	}
	if m := legacyIgnore.FindStringSubmatch(line); m != nil {
		return splitRuleList(m[1])
	}
	return nil
}

func splitRuleList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func dedupe(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
