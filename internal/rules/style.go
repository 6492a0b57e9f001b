package rules

import (
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/pgfence/pgfence/internal/locks"
	"github.com/pgfence/pgfence/internal/parser"
	"github.com/pgfence/pgfence/internal/risk"
)

// StyleRules covers catalogue rows 37, 38, 39, 40: advisory, non-locking
// preferences that apply to newly-created tables as well as existing ones.
func StyleRules() []Rule {
	return []Rule{
		{ID: "prefer-bigint-over-int", Func: rulePreferBigint},
		{ID: "prefer-text-field", Func: rulePreferText},
		{ID: "prefer-timestamptz", Func: rulePreferTimestamptz},
		{ID: "prefer-robust-ddl", Func: rulePreferRobustDDL},
	}
}

type namedColumn struct {
	table string
	col   *pg_query.ColumnDef
}

// columnDefs collects every column definition this statement introduces,
// whether via CREATE TABLE or ALTER TABLE ADD COLUMN.
func columnDefs(stmt parser.Statement) []namedColumn {
	var out []namedColumn
	if cs := stmt.Node.GetCreateStmt(); cs != nil {
		table := relationName(cs.GetRelation())
		for _, elt := range cs.GetTableElts() {
			if cd := elt.GetColumnDef(); cd != nil {
				out = append(out, namedColumn{table: table, col: cd})
			}
		}
	}
	table := alterTableName(stmt)
	for _, cmd := range alterTableCmds(stmt, pg_query.AlterTableType_AT_AddColumn) {
		if cd := cmd.GetDef().GetColumnDef(); cd != nil {
			out = append(out, namedColumn{table: table, col: cd})
		}
	}
	return out
}

func isNewTableStmt(stmt parser.Statement) bool {
	return stmt.Node.GetCreateStmt() != nil
}

func rulePreferBigint(stmt parser.Statement, cfg Config) []CheckResult {
	var results []CheckResult
	newTable := isNewTableStmt(stmt)
	for _, nc := range columnDefs(stmt) {
		if intTypeNames[typeNameString(nc.col.GetTypeName())] {
			r := newResult(stmt, "prefer-bigint-over-int", nc.table, locks.AccessShare, risk.Low,
				fmt.Sprintf("column %s.%s uses int; bigint avoids a painful migration if the table outgrows int32", nc.table, nc.col.GetColname()), cfg)
			r.AppliesToNewTables = true
			_ = newTable
			results = append(results, r)
		}
	}
	return results
}

func rulePreferText(stmt parser.Statement, cfg Config) []CheckResult {
	var results []CheckResult
	for _, nc := range columnDefs(stmt) {
		tn := nc.col.GetTypeName()
		if typeNameString(tn) == "varchar" && hasTypmods(tn) {
			r := newResult(stmt, "prefer-text-field", nc.table, locks.AccessShare, risk.Low,
				fmt.Sprintf("column %s.%s uses varchar(N); text with a CHECK constraint is cheaper to widen later", nc.table, nc.col.GetColname()), cfg)
			r.AppliesToNewTables = true
			results = append(results, r)
		}
	}
	return results
}

func rulePreferTimestamptz(stmt parser.Statement, cfg Config) []CheckResult {
	var results []CheckResult
	for _, nc := range columnDefs(stmt) {
		if typeNameString(nc.col.GetTypeName()) == "timestamp" {
			r := newResult(stmt, "prefer-timestamptz", nc.table, locks.AccessShare, risk.Low,
				fmt.Sprintf("column %s.%s uses timestamp without time zone; timestamptz avoids ambiguity across sessions", nc.table, nc.col.GetColname()), cfg)
			r.AppliesToNewTables = true
			results = append(results, r)
		}
	}
	return results
}

func rulePreferRobustDDL(stmt parser.Statement, cfg Config) []CheckResult {
	var results []CheckResult

	if cs := stmt.Node.GetCreateStmt(); cs != nil && !cs.GetIfNotExists() {
		table := relationName(cs.GetRelation())
		r := newResult(stmt, "prefer-robust-ddl", table, locks.AccessShare, risk.Low,
			fmt.Sprintf("CREATE TABLE %s without IF NOT EXISTS fails noisily on a partial re-run", table), cfg)
		r.AppliesToNewTables = true
		results = append(results, r)
	}

	if idx := stmt.Node.GetIndexStmt(); idx != nil && !idx.GetIfNotExists() {
		table := relationName(idx.GetRelation())
		r := newResult(stmt, "prefer-robust-ddl", table, locks.AccessShare, risk.Low,
			fmt.Sprintf("CREATE INDEX %s without IF NOT EXISTS fails noisily on a partial re-run", idx.GetIdxname()), cfg)
		r.AppliesToNewTables = true
		results = append(results, r)
	}

	if drop := stmt.Node.GetDropStmt(); drop != nil && !drop.GetMissingOk() {
		switch drop.GetRemoveType() {
		case pg_query.ObjectType_OBJECT_TABLE, pg_query.ObjectType_OBJECT_INDEX:
			table := dropObjectName(drop)
			results = append(results, newResult(stmt, "prefer-robust-ddl", table, locks.AccessShare, risk.Low,
				fmt.Sprintf("DROP on %s without IF EXISTS fails noisily on a partial re-run", table), cfg))
		}
	}

	return results
}
