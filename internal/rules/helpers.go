package rules

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// relationName renders a RangeVar as a (possibly schema-qualified) table
// name, lowercased the way PostgreSQL folds unquoted identifiers.
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

// typeNameString renders a TypeName's dotted name parts, e.g.
// "pg_catalog.varchar", stripping the pg_catalog qualifier since that's
// how callers identify base types.
func typeNameString(tn *pg_query.TypeName) string {
	if tn == nil {
		return ""
	}
	var parts []string
	for _, n := range tn.GetNames() {
		if s := n.GetString_(); s != nil {
			parts = append(parts, s.GetSval())
		}
	}
	// drop leading pg_catalog qualifier
	if len(parts) > 1 && parts[0] == "pg_catalog" {
		parts = parts[1:]
	}
	return strings.ToLower(strings.Join(parts, "."))
}

func hasTypmods(tn *pg_query.TypeName) bool {
	return tn != nil && len(tn.GetTypmods()) > 0
}

var serialTypeNames = map[string]bool{
	"serial": true, "serial4": true,
	"bigserial": true, "serial8": true,
	"smallserial": true, "serial2": true,
}

var intTypeNames = map[string]bool{
	"int4": true, "int": true, "integer": true,
	"int2": true, "smallint": true,
}

func defElemHasName(opts []*pg_query.Node, name string) bool {
	for _, o := range opts {
		if d := o.GetDefElem(); d != nil && strings.EqualFold(d.GetDefname(), name) {
			return true
		}
	}
	return false
}
