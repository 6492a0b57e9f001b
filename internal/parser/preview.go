package parser

import (
	"regexp"
	"strings"
)

var (
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineComment  = regexp.MustCompile(`--[^\n]*`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// Preview formats sql for use in human-readable messages: strips block and
// line comments, collapses whitespace runs to single spaces, trims, and
// truncates at maxWidth with a trailing "...", per spec §4.1.
func Preview(sql string, maxWidth int) string {
	s := blockComment.ReplaceAllString(sql, " ")
	s = lineComment.ReplaceAllString(s, " ")
	s = whitespace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	if maxWidth > 0 && len(s) > maxWidth {
		s = strings.TrimSpace(s[:maxWidth]) + "..."
	}
	return s
}
