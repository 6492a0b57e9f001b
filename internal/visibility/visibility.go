// Package visibility implements the visibility filter from spec §4.5: a
// CheckResult against a table created earlier in the same batch is noise
// for a migration review, since nothing outside the batch could have
// depended on that table yet. A rule opts out of this filtering by
// setting AppliesToNewTables.
package visibility

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/pgfence/pgfence/internal/parser"
	"github.com/pgfence/pgfence/internal/rules"
)

func relationName(rel *pg_query.RangeVar) string {
	if rel == nil {
		return ""
	}
	name := strings.ToLower(rel.GetRelname())
	if schema := rel.GetSchemaname(); schema != "" {
		return strings.ToLower(schema) + "." + name
	}
	return name
}

// NewTablesIn returns the set of tables that stmts creates, by scanning
// every CREATE TABLE (and CREATE TABLE AS) statement in the batch.
func NewTablesIn(stmts []parser.Statement) map[string]bool {
	set := make(map[string]bool)
	for _, s := range stmts {
		if cs := s.Node.GetCreateStmt(); cs != nil {
			if name := relationName(cs.GetRelation()); name != "" {
				set[name] = true
			}
		}
		if ctas := s.Node.GetCreateTableAsStmt(); ctas != nil {
			if into := ctas.GetInto(); into != nil {
				if name := relationName(into.GetRel()); name != "" {
					set[name] = true
				}
			}
		}
	}
	return set
}

// Union returns a new set containing every table in both a and b, leaving
// both inputs untouched. A nil a is treated as empty, so callers can seed
// the very first fold with nil.
func Union(a, b map[string]bool) map[string]bool {
	out := make(map[string]bool, len(a)+len(b))
	for t := range a {
		out[t] = true
	}
	for t := range b {
		out[t] = true
	}
	return out
}

// Filter drops every result whose table is in newTables, unless the rule
// that produced it set AppliesToNewTables.
func Filter(results []rules.CheckResult, newTables map[string]bool) []rules.CheckResult {
	out := make([]rules.CheckResult, 0, len(results))
	for _, r := range results {
		if r.Table != nil && newTables[*r.Table] && !r.AppliesToNewTables {
			continue
		}
		out = append(out, r)
	}
	return out
}
