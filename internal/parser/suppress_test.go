package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScanSuppressionsBareIgnore(t *testing.T) {
	gap := "\n-- pgfence-ignore\n"
	ids := scanSuppressions(gap, "DROP TABLE old_data")
	require.Equal(t, []string{"*"}, ids)
}

func TestScanSuppressionsRuleList(t *testing.T) {
	gap := "-- pgfence-ignore: drop-table, truncate\n"
	ids := scanSuppressions(gap, "DROP TABLE old_data")
	require.ElementsMatch(t, []string{"drop-table", "truncate"}, ids)
}

func TestScanSuppressionsLegacyForm(t *testing.T) {
	gap := "-- pgfence: ignore drop-table\n"
	ids := scanSuppressions(gap, "DROP TABLE old_data")
	require.Equal(t, []string{"drop-table"}, ids)
}

func TestScanSuppressionsNoDirective(t *testing.T) {
	gap := "\n-- just a regular comment\n"
	ids := scanSuppressions(gap, "DROP TABLE old_data")
	require.Nil(t, ids)
}

func TestScanSuppressionsDoesNotBleedPastPreviousStatement(t *testing.T) {
	// Only the text strictly between two statements is passed as the gap,
	// so a directive inside statement A's own text never reaches statement
	// B. Here the gap before B holds no directive, so B gets none.
	gapBeforeB := "\n"
	ids := scanSuppressions(gapBeforeB, "CREATE INDEX idx ON users(email)")
	require.Nil(t, ids)
}

func TestSuppressesWildcard(t *testing.T) {
	s := Statement{Suppress: []string{"*"}}
	require.True(t, s.Suppresses("anything"))
}

func TestSuppressesSpecificRule(t *testing.T) {
	s := Statement{Suppress: []string{"drop-table"}}
	require.True(t, s.Suppresses("drop-table"))
	require.False(t, s.Suppresses("truncate"))
}

func TestPreviewStripsCommentsAndCollapsesWhitespace(t *testing.T) {
	sql := "ALTER   TABLE /* comment */ users\n-- trailing note\nADD COLUMN x int"
	got := Preview(sql, 100)
	require.Equal(t, "ALTER TABLE users ADD COLUMN x int", got)
}

func TestPreviewTruncates(t *testing.T) {
	sql := "SELECT 1, 2, 3, 4, 5, 6, 7, 8, 9, 10"
	got := Preview(sql, 10)
	require.True(t, len(got) <= 13)
	require.Contains(t, got, "...")
}
