package rules

import (
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/pgfence/pgfence/internal/locks"
	"github.com/pgfence/pgfence/internal/parser"
	"github.com/pgfence/pgfence/internal/risk"
)

// ObjectRules covers catalogue rows 8, 9, 22, 23, 24, 26, 28, 29, 30, 31,
// 32: patterns keyed off their own top-level statement kind rather than an
// ALTER TABLE subcommand.
func ObjectRules() []Rule {
	return []Rule{
		{ID: "create-index-not-concurrent", Func: ruleCreateIndexNotConcurrent},
		{ID: "drop-index-not-concurrent", Func: ruleDropIndexNotConcurrent},
		{ID: "rename-column", Func: ruleRenameColumn},
		{ID: "rename-table", Func: ruleRenameTable},
		{ID: "drop-table", Func: ruleDropTable},
		{ID: "truncate", Func: ruleTruncate},
		{ID: "truncate-cascade", Func: ruleTruncateCascade},
		{ID: "vacuum-full", Func: ruleVacuumFull},
		{ID: "alter-enum-add-value", Func: ruleAlterEnumAddValue},
		{ID: "reindex-non-concurrent", Func: ruleReindexNonConcurrent},
		{ID: "refresh-matview-concurrent", Func: ruleRefreshMatViewConcurrent},
		{ID: "refresh-matview-blocking", Func: ruleRefreshMatViewBlocking},
		{ID: "create-trigger", Func: ruleCreateTrigger},
		{ID: "drop-trigger", Func: ruleDropTrigger},
	}
}

func ruleCreateIndexNotConcurrent(stmt parser.Statement, cfg Config) []CheckResult {
	idx := stmt.Node.GetIndexStmt()
	if idx == nil || idx.GetConcurrent() {
		return nil
	}
	table := relationName(idx.GetRelation())
	r := newResult(stmt, "create-index-not-concurrent", table, locks.Share, risk.Medium,
		fmt.Sprintf("CREATE INDEX without CONCURRENTLY takes SHARE on %s, blocking writes for the build's duration", table), cfg)
	r.SafeRewrite = &SafeRewrite{
		Description: "Build the index CONCURRENTLY outside any wrapping transaction",
		Steps: []string{
			fmt.Sprintf("CREATE INDEX CONCURRENTLY %s ON %s (...);", idx.GetIdxname(), table),
		},
	}
	return []CheckResult{r}
}

func ruleDropIndexNotConcurrent(stmt parser.Statement, cfg Config) []CheckResult {
	drop := stmt.Node.GetDropStmt()
	if drop == nil || drop.GetRemoveType() != pg_query.ObjectType_OBJECT_INDEX || drop.GetConcurrent() {
		return nil
	}
	table := dropObjectName(drop)
	r := newResult(stmt, "drop-index-not-concurrent", table, locks.AccessExclusive, risk.Medium,
		"DROP INDEX without CONCURRENTLY takes ACCESS EXCLUSIVE on the table", cfg)
	r.SafeRewrite = &SafeRewrite{
		Description: "Drop the index CONCURRENTLY instead",
		Steps:       []string{fmt.Sprintf("DROP INDEX CONCURRENTLY %s;", table)},
	}
	return []CheckResult{r}
}

func dropObjectName(drop *pg_query.DropStmt) string {
	objs := drop.GetObjects()
	if len(objs) == 0 {
		return ""
	}
	list := objs[0].GetList()
	if list == nil {
		if s := objs[0].GetString_(); s != nil {
			return s.GetSval()
		}
		return ""
	}
	var parts []string
	for _, it := range list.GetItems() {
		if s := it.GetString_(); s != nil {
			parts = append(parts, s.GetSval())
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

func ruleRenameColumn(stmt parser.Statement, cfg Config) []CheckResult {
	ren := stmt.Node.GetRenameStmt()
	if ren == nil || ren.GetRenameType() != pg_query.ObjectType_OBJECT_COLUMN {
		return nil
	}
	table := relationName(ren.GetRelation())
	return []CheckResult{newResult(stmt, "rename-column", table, locks.AccessExclusive, risk.Low,
		fmt.Sprintf("RENAME COLUMN %s breaks any code still referencing the old name", ren.GetSubname()), cfg)}
}

func ruleRenameTable(stmt parser.Statement, cfg Config) []CheckResult {
	ren := stmt.Node.GetRenameStmt()
	if ren == nil || ren.GetRenameType() != pg_query.ObjectType_OBJECT_TABLE {
		return nil
	}
	table := relationName(ren.GetRelation())
	r := newResult(stmt, "rename-table", table, locks.AccessExclusive, risk.High,
		fmt.Sprintf("RENAME TABLE %s to %s breaks every caller that hasn't deployed the new name", table, ren.GetNewname()), cfg)
	r.SafeRewrite = &SafeRewrite{
		Description: "Create a view under the old name after renaming, or use expand/contract across two releases",
		Steps: []string{
			fmt.Sprintf("ALTER TABLE %s RENAME TO %s;", table, ren.GetNewname()),
			fmt.Sprintf("CREATE VIEW %s AS SELECT * FROM %s;", table, ren.GetNewname()),
		},
	}
	return []CheckResult{r}
}

func ruleDropTable(stmt parser.Statement, cfg Config) []CheckResult {
	drop := stmt.Node.GetDropStmt()
	if drop == nil || drop.GetRemoveType() != pg_query.ObjectType_OBJECT_TABLE {
		return nil
	}
	table := dropObjectName(drop)
	r := newResult(stmt, "drop-table", table, locks.AccessExclusive, risk.Critical,
		fmt.Sprintf("DROP TABLE %s is irreversible data loss", table), cfg)
	r.SafeRewrite = &SafeRewrite{
		Description: "Rename the table instead and drop it in a later migration once nothing reads it",
		Steps: []string{
			fmt.Sprintf("ALTER TABLE %s RENAME TO %s_deprecated;", table, table),
			fmt.Sprintf("-- DROP TABLE %s_deprecated; -- in a follow-up migration once verified unused", table),
		},
	}
	return []CheckResult{r}
}

func ruleTruncate(stmt parser.Statement, cfg Config) []CheckResult {
	tr := stmt.Node.GetTruncateStmt()
	if tr == nil {
		return nil
	}
	var results []CheckResult
	for _, rel := range tr.GetRelations() {
		table := relationName(rel.GetRangeVar())
		r := newResult(stmt, "truncate", table, locks.AccessExclusive, risk.Critical,
			fmt.Sprintf("TRUNCATE %s deletes all rows and cannot be scoped with WHERE", table), cfg)
		r.SafeRewrite = &SafeRewrite{
			Description: "Use a scoped DELETE in batches if only some rows need removing; otherwise confirm this is intentional.",
			Steps:       []string{fmt.Sprintf("-- DELETE FROM %s WHERE ...; -- in batches, if TRUNCATE's full wipe isn't intended", table)},
		}
		results = append(results, r)
	}
	return results
}

func ruleTruncateCascade(stmt parser.Statement, cfg Config) []CheckResult {
	tr := stmt.Node.GetTruncateStmt()
	if tr == nil || tr.GetBehavior() != pg_query.DropBehavior_DROP_CASCADE {
		return nil
	}
	var results []CheckResult
	for _, rel := range tr.GetRelations() {
		table := relationName(rel.GetRangeVar())
		r := newResult(stmt, "truncate-cascade", table, locks.AccessExclusive, risk.Critical,
			fmt.Sprintf("TRUNCATE ... CASCADE on %s also empties every table with a foreign key into it", table), cfg)
		r.SafeRewrite = &SafeRewrite{
			Description: "Enumerate and confirm every dependent table before running; CASCADE silently empties them too.",
			Steps:       []string{fmt.Sprintf("-- list tables with FKs referencing %s before running TRUNCATE CASCADE", table)},
		}
		results = append(results, r)
	}
	return results
}

func ruleVacuumFull(stmt parser.Statement, cfg Config) []CheckResult {
	vac := stmt.Node.GetVacuumStmt()
	if vac == nil {
		return nil
	}
	if !defElemHasName(vac.GetOptions(), "full") {
		return nil
	}
	var results []CheckResult
	for _, rel := range vac.GetRels() {
		table := relationName(rel.GetRelation().GetRangeVar())
		r := newResult(stmt, "vacuum-full", table, locks.AccessExclusive, risk.High,
			fmt.Sprintf("VACUUM FULL on %s holds ACCESS EXCLUSIVE for the entire rewrite", table), cfg)
		r.SafeRewrite = &SafeRewrite{
			Description: "Use pg_repack or a plain VACUUM/autovacuum tuning instead of VACUUM FULL on a live table.",
			Steps:       []string{fmt.Sprintf("-- pg_repack --table=%s instead of VACUUM FULL", table)},
		}
		results = append(results, r)
	}
	if len(results) == 0 {
		// VACUUM FULL with no explicit relation list targets the whole
		// database.
		r := newResult(stmt, "vacuum-full", "", locks.AccessExclusive, risk.High,
			"VACUUM FULL with no table list rewrites every table in the database", cfg)
		r.SafeRewrite = &SafeRewrite{
			Description: "Use pg_repack or a plain VACUUM/autovacuum tuning instead of a database-wide VACUUM FULL.",
			Steps:       []string{"-- pg_repack each bloated table individually instead of VACUUM FULL with no table list"},
		}
		results = append(results, r)
	}
	return results
}

func ruleAlterEnumAddValue(stmt parser.Statement, cfg Config) []CheckResult {
	ae := stmt.Node.GetAlterEnumStmt()
	if ae == nil || ae.GetNewVal() == "" {
		return nil
	}
	level := risk.Medium
	lock := locks.AccessExclusive
	if cfg.MinPGVersion >= 12 {
		level = risk.Low
		lock = locks.ShareUpdateExclusive
	}
	return []CheckResult{newResult(stmt, "alter-enum-add-value", "", lock, level,
		fmt.Sprintf("ALTER TYPE ... ADD VALUE %q", ae.GetNewVal()), cfg)}
}

func ruleReindexNonConcurrent(stmt parser.Statement, cfg Config) []CheckResult {
	re := stmt.Node.GetReindexStmt()
	if re == nil || defElemHasName(re.GetParams(), "concurrently") {
		return nil
	}
	level := risk.High
	switch re.GetKind() {
	case pg_query.ReindexObjectType_REINDEX_OBJECT_SCHEMA,
		pg_query.ReindexObjectType_REINDEX_OBJECT_DATABASE,
		pg_query.ReindexObjectType_REINDEX_OBJECT_SYSTEM:
		level = risk.Critical
	}
	table := relationName(re.GetRelation())
	r := newResult(stmt, "reindex-non-concurrent", table, locks.AccessExclusive, level,
		"REINDEX without CONCURRENTLY locks every index's table for the rebuild", cfg)
	r.SafeRewrite = &SafeRewrite{
		Description: "Use REINDEX ... CONCURRENTLY (PostgreSQL 12+)",
		Steps:       []string{"REINDEX (CONCURRENTLY) " + reindexTargetClause(re) + ";"},
	}
	return []CheckResult{r}
}

func reindexTargetClause(re *pg_query.ReindexStmt) string {
	switch re.GetKind() {
	case pg_query.ReindexObjectType_REINDEX_OBJECT_INDEX:
		return "INDEX " + relationName(re.GetRelation())
	case pg_query.ReindexObjectType_REINDEX_OBJECT_TABLE:
		return "TABLE " + relationName(re.GetRelation())
	case pg_query.ReindexObjectType_REINDEX_OBJECT_SCHEMA:
		return "SCHEMA " + re.GetName()
	case pg_query.ReindexObjectType_REINDEX_OBJECT_DATABASE:
		return "DATABASE " + re.GetName()
	default:
		return "SYSTEM " + re.GetName()
	}
}

func ruleRefreshMatViewConcurrent(stmt parser.Statement, cfg Config) []CheckResult {
	rm := stmt.Node.GetRefreshMatViewStmt()
	if rm == nil || !rm.GetConcurrent() {
		return nil
	}
	table := relationName(rm.GetRelation())
	level := risk.Low
	if !rm.GetSkipData() {
		// still concurrent; SkipData doesn't apply to the concurrent
		// branch distinction in the catalogue, but keep the note.
		level = risk.Low
	}
	return []CheckResult{newResult(stmt, "refresh-matview-concurrent", table, locks.ShareUpdateExclusive, level,
		fmt.Sprintf("REFRESH MATERIALIZED VIEW CONCURRENTLY on %s avoids blocking reads", table), cfg)}
}

func ruleRefreshMatViewBlocking(stmt parser.Statement, cfg Config) []CheckResult {
	rm := stmt.Node.GetRefreshMatViewStmt()
	if rm == nil || rm.GetConcurrent() {
		return nil
	}
	table := relationName(rm.GetRelation())
	level := risk.High
	if rm.GetSkipData() {
		level = risk.Medium
	}
	r := newResult(stmt, "refresh-matview-blocking", table, locks.AccessExclusive, level,
		fmt.Sprintf("REFRESH MATERIALIZED VIEW on %s blocks all reads of the view for the refresh's duration", table), cfg)
	r.SafeRewrite = &SafeRewrite{
		Description: "Create a unique index on the materialized view and use REFRESH ... CONCURRENTLY",
		Steps: []string{
			fmt.Sprintf("CREATE UNIQUE INDEX ON %s (...);", table),
			fmt.Sprintf("REFRESH MATERIALIZED VIEW CONCURRENTLY %s;", table),
		},
	}
	return []CheckResult{r}
}

func ruleCreateTrigger(stmt parser.Statement, cfg Config) []CheckResult {
	ct := stmt.Node.GetCreateTrigStmt()
	if ct == nil {
		return nil
	}
	table := relationName(ct.GetRelation())
	return []CheckResult{newResult(stmt, "create-trigger", table, locks.ShareRowExclusive, risk.Medium,
		fmt.Sprintf("CREATE TRIGGER %s takes SHARE ROW EXCLUSIVE, blocking writes to %s", ct.GetTrigname(), table), cfg)}
}

func ruleDropTrigger(stmt parser.Statement, cfg Config) []CheckResult {
	drop := stmt.Node.GetDropStmt()
	if drop == nil || drop.GetRemoveType() != pg_query.ObjectType_OBJECT_TRIGGER {
		return nil
	}
	table := dropObjectName(drop)
	return []CheckResult{newResult(stmt, "drop-trigger", table, locks.AccessExclusive, risk.Medium,
		"DROP TRIGGER takes ACCESS EXCLUSIVE on its table", cfg)}
}
