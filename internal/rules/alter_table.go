package rules

import (
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/pgfence/pgfence/internal/locks"
	"github.com/pgfence/pgfence/internal/parser"
	"github.com/pgfence/pgfence/internal/risk"
)

// AlterTableRules covers catalogue rows 1, 2, 3, 4, 5, 6, 7, 10, 11, 12,
// 13, 14, 15, 16, 17, 18, 19, 20, 21, 25, 33, 34, 35, 36: every pattern
// keyed off an ALTER TABLE subcommand, grounded on the teacher's
// analyzeAlterTableCmd switch (internal/analyzer/node_analyzers.go).
func AlterTableRules() []Rule {
	return []Rule{
		{ID: "add-column-not-null-no-default", Func: ruleAddColumnNotNullNoDefault},
		{ID: "add-column-constant-default", Func: ruleAddColumnConstantDefault},
		{ID: "add-column-non-constant-default", Func: ruleAddColumnNonConstantDefault},
		{ID: "add-column-default-pre-pg11", Func: ruleAddColumnDefaultPrePG11},
		{ID: "add-column-json", Func: ruleAddColumnJSON},
		{ID: "add-column-serial", Func: ruleAddColumnSerial},
		{ID: "add-column-stored-generated", Func: ruleAddColumnStoredGenerated},
		{ID: "alter-column-type", Func: ruleAlterColumnType},
		{ID: "alter-column-set-not-null", Func: ruleAlterColumnSetNotNull},
		{ID: "add-constraint-fk-no-not-valid", Func: ruleAddConstraintFKNoNotValid},
		{ID: "add-constraint-check-no-not-valid", Func: ruleAddConstraintCheckNoNotValid},
		{ID: "add-constraint-unique-using-index", Func: ruleAddConstraintUniqueUsingIndex},
		{ID: "add-constraint-unique", Func: ruleAddConstraintUnique},
		{ID: "add-pk-using-index", Func: ruleAddPKUsingIndex},
		{ID: "add-pk-without-using-index", Func: ruleAddPKWithoutUsingIndex},
		{ID: "add-constraint-exclude", Func: ruleAddConstraintExclude},
		{ID: "validate-constraint", Func: ruleValidateConstraint},
		{ID: "drop-column", Func: ruleDropColumn},
		{ID: "enable-disable-trigger", Func: ruleEnableDisableTrigger},
		{ID: "attach-partition", Func: ruleAttachPartition},
		{ID: "detach-partition", Func: ruleDetachPartition},
		{ID: "detach-partition-concurrent", Func: ruleDetachPartitionConcurrent},
	}
}

func alterTableCmds(stmt parser.Statement, subtype pg_query.AlterTableType) []*pg_query.AlterTableCmd {
	at := stmt.Node.GetAlterTableStmt()
	if at == nil {
		return nil
	}
	var out []*pg_query.AlterTableCmd
	for _, c := range at.GetCmds() {
		cmd := c.GetAlterTableCmd()
		if cmd != nil && cmd.GetSubtype() == subtype {
			out = append(out, cmd)
		}
	}
	return out
}

func alterTableName(stmt parser.Statement) string {
	at := stmt.Node.GetAlterTableStmt()
	if at == nil {
		return ""
	}
	return relationName(at.GetRelation())
}

// --- ADD COLUMN family (rows 1-7) ---

func ruleAddColumnNotNullNoDefault(stmt parser.Statement, cfg Config) []CheckResult {
	var results []CheckResult
	table := alterTableName(stmt)
	for _, cmd := range alterTableCmds(stmt, pg_query.AlterTableType_AT_AddColumn) {
		colDef := cmd.GetDef().GetColumnDef()
		if colDef == nil {
			continue
		}
		if hasNotNull(colDef) && !hasDefault(colDef) {
			r := newResult(stmt, "add-column-not-null-no-default", table, locks.AccessExclusive, risk.High,
				fmt.Sprintf("ADD COLUMN %s NOT NULL with no DEFAULT rewrites the whole table under ACCESS EXCLUSIVE", colDef.GetColname()), cfg)
			r.SafeRewrite = &SafeRewrite{
				Description: "Add the column nullable with a default, backfill, then add NOT NULL via a validated check constraint",
				Steps: []string{
					fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s <type>;", table, colDef.GetColname()),
					fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT <default>;", table, colDef.GetColname()),
					fmt.Sprintf("UPDATE %s SET %s = <default> WHERE %s IS NULL;", table, colDef.GetColname(), colDef.GetColname()),
					fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s_not_null CHECK (%s IS NOT NULL) NOT VALID;", table, colDef.GetColname(), colDef.GetColname()),
					fmt.Sprintf("ALTER TABLE %s VALIDATE CONSTRAINT %s_not_null;", table, colDef.GetColname()),
					fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL;", table, colDef.GetColname()),
					fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s_not_null;", table, colDef.GetColname()),
				},
			}
			results = append(results, r)
		}
	}
	return results
}

func ruleAddColumnConstantDefault(stmt parser.Statement, cfg Config) []CheckResult {
	if cfg.MinPGVersion < 11 {
		return nil
	}
	var results []CheckResult
	table := alterTableName(stmt)
	for _, cmd := range alterTableCmds(stmt, pg_query.AlterTableType_AT_AddColumn) {
		colDef := cmd.GetDef().GetColumnDef()
		if colDef == nil {
			continue
		}
		expr := defaultExprOf(colDef)
		if expr != nil && isConstantDefault(expr) {
			r := newResult(stmt, "add-column-constant-default", table, locks.AccessExclusive, risk.Low,
				"ADD COLUMN with a constant DEFAULT is a metadata-only change on PostgreSQL 11+", cfg)
			r.SafeRewrite = &SafeRewrite{
				Description: "No rewrite needed; confirm the target is PostgreSQL 11 or newer before relying on the instant default.",
				Steps:       []string{fmt.Sprintf("-- verify server_version >= 11 before running on %s", table)},
			}
			results = append(results, r)
		}
	}
	return results
}

func ruleAddColumnNonConstantDefault(stmt parser.Statement, cfg Config) []CheckResult {
	var results []CheckResult
	table := alterTableName(stmt)
	for _, cmd := range alterTableCmds(stmt, pg_query.AlterTableType_AT_AddColumn) {
		colDef := cmd.GetDef().GetColumnDef()
		if colDef == nil {
			continue
		}
		expr := defaultExprOf(colDef)
		if expr != nil && !isConstantDefault(expr) {
			r := newResult(stmt, "add-column-non-constant-default", table, locks.AccessExclusive, risk.High,
				fmt.Sprintf("ADD COLUMN %s with a non-constant DEFAULT forces a full table rewrite under ACCESS EXCLUSIVE", colDef.GetColname()), cfg)
			r.SafeRewrite = &SafeRewrite{
				Description: "Add nullable, backfill in batches, then enforce NOT NULL separately",
				Steps: []string{
					fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s <type>;", table, colDef.GetColname()),
					fmt.Sprintf("UPDATE %s SET %s = <expr> WHERE %s IS NULL; -- batch this", table, colDef.GetColname(), colDef.GetColname()),
				},
			}
			results = append(results, r)
		}
	}
	return results
}

func ruleAddColumnDefaultPrePG11(stmt parser.Statement, cfg Config) []CheckResult {
	if cfg.MinPGVersion >= 11 {
		return nil
	}
	var results []CheckResult
	table := alterTableName(stmt)
	for _, cmd := range alterTableCmds(stmt, pg_query.AlterTableType_AT_AddColumn) {
		colDef := cmd.GetDef().GetColumnDef()
		if colDef == nil || !hasDefault(colDef) {
			continue
		}
		r := newResult(stmt, "add-column-default-pre-pg11", table, locks.AccessExclusive, risk.High,
			"ADD COLUMN with any DEFAULT rewrites the whole table on PostgreSQL < 11", cfg)
		r.SafeRewrite = &SafeRewrite{
			Description: "Add nullable without a default, backfill, then set the default for new rows only",
			Steps: []string{
				fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s <type>;", table, colDef.GetColname()),
				fmt.Sprintf("UPDATE %s SET %s = <default>;", table, colDef.GetColname()),
				fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT <default>;", table, colDef.GetColname()),
			},
		}
		results = append(results, r)
	}
	return results
}

func ruleAddColumnJSON(stmt parser.Statement, cfg Config) []CheckResult {
	var results []CheckResult
	table := alterTableName(stmt)
	for _, cmd := range alterTableCmds(stmt, pg_query.AlterTableType_AT_AddColumn) {
		colDef := cmd.GetDef().GetColumnDef()
		if colDef == nil {
			continue
		}
		if typeNameString(colDef.GetTypeName()) == "json" {
			r := newResult(stmt, "add-column-json", table, locks.AccessExclusive, risk.Low,
				fmt.Sprintf("column %s uses json; jsonb supports indexing and equality and is almost always preferable", colDef.GetColname()), cfg)
			r.AppliesToNewTables = true
			results = append(results, r)
		}
	}
	return results
}

func ruleAddColumnSerial(stmt parser.Statement, cfg Config) []CheckResult {
	var results []CheckResult
	table := alterTableName(stmt)
	for _, cmd := range alterTableCmds(stmt, pg_query.AlterTableType_AT_AddColumn) {
		colDef := cmd.GetDef().GetColumnDef()
		if colDef == nil {
			continue
		}
		if serialTypeNames[typeNameString(colDef.GetTypeName())] {
			r := newResult(stmt, "add-column-serial", table, locks.AccessExclusive, risk.Medium,
				fmt.Sprintf("column %s uses a serial type; prefer GENERATED ALWAYS AS IDENTITY", colDef.GetColname()), cfg)
			r.AppliesToNewTables = true
			results = append(results, r)
		}
	}
	return results
}

func ruleAddColumnStoredGenerated(stmt parser.Statement, cfg Config) []CheckResult {
	var results []CheckResult
	table := alterTableName(stmt)
	for _, cmd := range alterTableCmds(stmt, pg_query.AlterTableType_AT_AddColumn) {
		colDef := cmd.GetDef().GetColumnDef()
		if colDef == nil {
			continue
		}
		if hasGeneratedStored(colDef) {
			r := newResult(stmt, "add-column-stored-generated", table, locks.AccessExclusive, risk.High,
				fmt.Sprintf("ADD COLUMN %s GENERATED ... STORED computes every row under ACCESS EXCLUSIVE", colDef.GetColname()), cfg)
			r.SafeRewrite = &SafeRewrite{
				Description: "Add the column without GENERATED, backfill via trigger or batch job, validate, then switch reads over",
				Steps: []string{
					fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s <type>;", table, colDef.GetColname()),
					fmt.Sprintf("-- backfill %s in batches using the generation expression", colDef.GetColname()),
				},
			}
			results = append(results, r)
		}
	}
	return results
}

// --- ALTER COLUMN TYPE (rows 10-12) ---

func ruleAlterColumnType(stmt parser.Statement, cfg Config) []CheckResult {
	var results []CheckResult
	table := alterTableName(stmt)
	for _, cmd := range alterTableCmds(stmt, pg_query.AlterTableType_AT_AlterColumnType) {
		colDef := cmd.GetDef().GetColumnDef()
		if colDef == nil {
			continue
		}
		typeName := typeNameString(colDef.GetTypeName())
		col := cmd.GetName()
		var level risk.Level
		switch {
		case (typeName == "text" || typeName == "varchar") && !hasTypmods(colDef.GetTypeName()):
			level = risk.Low
		case typeName == "varchar" || typeName == "numeric":
			level = risk.Medium
		default:
			level = risk.High
		}
		r := newResult(stmt, "alter-column-type", table, locks.AccessExclusive, level,
			fmt.Sprintf("ALTER COLUMN %s TYPE %s rewrites the table under ACCESS EXCLUSIVE", col, typeName), cfg)
		if level == risk.High || level == risk.Critical {
			r.SafeRewrite = &SafeRewrite{
				Description: "Add a new column of the target type, backfill, swap via rename, drop the old column",
				Steps: []string{
					fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s_new %s;", table, col, typeName),
					fmt.Sprintf("UPDATE %s SET %s_new = %s::%s;", table, col, col, typeName),
					fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s_old;", table, col, col),
					fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s_new TO %s;", table, col, col),
					fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s_old;", table, col),
				},
			}
		} else {
			r.SafeRewrite = &SafeRewrite{
				Description: "Verify no dependent views/indexes assume the old length before running.",
				Steps:       []string{fmt.Sprintf("-- confirm no CHECK constraints on %s.%s assume the old type width", table, col)},
			}
		}
		results = append(results, r)
	}
	return results
}

func ruleAlterColumnSetNotNull(stmt parser.Statement, cfg Config) []CheckResult {
	var results []CheckResult
	table := alterTableName(stmt)
	for _, cmd := range alterTableCmds(stmt, pg_query.AlterTableType_AT_SetNotNull) {
		col := cmd.GetName()
		r := newResult(stmt, "alter-column-set-not-null", table, locks.AccessExclusive, risk.Medium,
			fmt.Sprintf("SET NOT NULL on %s scans the whole table under ACCESS EXCLUSIVE", col), cfg)
		r.SafeRewrite = &SafeRewrite{
			Description: "Add a validated CHECK constraint first so the scan runs under a lighter lock, then set NOT NULL",
			Steps: []string{
				fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s_not_null CHECK (%s IS NOT NULL) NOT VALID;", table, col, col),
				fmt.Sprintf("ALTER TABLE %s VALIDATE CONSTRAINT %s_not_null;", table, col),
				fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL;", table, col),
				fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s_not_null;", table, col),
			},
		}
		results = append(results, r)
	}
	return results
}

// --- ADD CONSTRAINT family (rows 14-20) ---

func addConstraintCmds(stmt parser.Statement) []*pg_query.Constraint {
	var out []*pg_query.Constraint
	for _, cmd := range alterTableCmds(stmt, pg_query.AlterTableType_AT_AddConstraint) {
		if c := cmd.GetDef().GetConstraint(); c != nil {
			out = append(out, c)
		}
	}
	return out
}

func ruleAddConstraintFKNoNotValid(stmt parser.Statement, cfg Config) []CheckResult {
	var results []CheckResult
	table := alterTableName(stmt)
	for _, c := range addConstraintCmds(stmt) {
		if c.GetContype() != pg_query.ConstrType_CONSTR_FOREIGN || c.GetSkipValidation() {
			continue
		}
		r := newResult(stmt, "add-constraint-fk-no-not-valid", table, locks.AccessExclusive, risk.High,
			"ADD FOREIGN KEY without NOT VALID scans both tables under ACCESS EXCLUSIVE", cfg)
		r.SafeRewrite = &SafeRewrite{
			Description: "Add NOT VALID, validate in a second transaction",
			Steps: []string{
				fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (...) REFERENCES %s (...) NOT VALID;", table, c.GetConname(), relationName(c.GetPktable())),
				fmt.Sprintf("ALTER TABLE %s VALIDATE CONSTRAINT %s;", table, c.GetConname()),
			},
		}
		results = append(results, r)
	}
	return results
}

func ruleAddConstraintCheckNoNotValid(stmt parser.Statement, cfg Config) []CheckResult {
	var results []CheckResult
	table := alterTableName(stmt)
	for _, c := range addConstraintCmds(stmt) {
		if c.GetContype() != pg_query.ConstrType_CONSTR_CHECK || c.GetSkipValidation() {
			continue
		}
		r := newResult(stmt, "add-constraint-check-no-not-valid", table, locks.AccessExclusive, risk.Medium,
			"ADD CHECK without NOT VALID scans the table under ACCESS EXCLUSIVE", cfg)
		r.SafeRewrite = &SafeRewrite{
			Description: "Add NOT VALID, validate separately",
			Steps: []string{
				fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s CHECK (...) NOT VALID;", table, c.GetConname()),
				fmt.Sprintf("ALTER TABLE %s VALIDATE CONSTRAINT %s;", table, c.GetConname()),
			},
		}
		results = append(results, r)
	}
	return results
}

func ruleAddConstraintUniqueUsingIndex(stmt parser.Statement, cfg Config) []CheckResult {
	var results []CheckResult
	table := alterTableName(stmt)
	for _, c := range addConstraintCmds(stmt) {
		if c.GetContype() == pg_query.ConstrType_CONSTR_UNIQUE && c.GetIndexname() != "" {
			results = append(results, newResult(stmt, "add-constraint-unique-using-index", table, locks.AccessExclusive, risk.Low,
				"ADD UNIQUE USING INDEX reuses a pre-built index; only metadata work under ACCESS EXCLUSIVE", cfg))
		}
	}
	return results
}

func ruleAddConstraintUnique(stmt parser.Statement, cfg Config) []CheckResult {
	var results []CheckResult
	table := alterTableName(stmt)
	for _, c := range addConstraintCmds(stmt) {
		if c.GetContype() == pg_query.ConstrType_CONSTR_UNIQUE && c.GetIndexname() == "" {
			r := newResult(stmt, "add-constraint-unique", table, locks.AccessExclusive, risk.High,
				"ADD UNIQUE without USING INDEX builds the index under ACCESS EXCLUSIVE", cfg)
			r.SafeRewrite = &SafeRewrite{
				Description: "Build the unique index CONCURRENTLY, then attach it as the constraint",
				Steps: []string{
					fmt.Sprintf("CREATE UNIQUE INDEX CONCURRENTLY %s_unique_idx ON %s (...);", table, table),
					fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE USING INDEX %s_unique_idx;", table, c.GetConname(), table),
				},
			}
			results = append(results, r)
		}
	}
	return results
}

func ruleAddPKUsingIndex(stmt parser.Statement, cfg Config) []CheckResult {
	var results []CheckResult
	table := alterTableName(stmt)
	for _, c := range addConstraintCmds(stmt) {
		if c.GetContype() == pg_query.ConstrType_CONSTR_PRIMARY && c.GetIndexname() != "" {
			results = append(results, newResult(stmt, "add-pk-using-index", table, locks.AccessExclusive, risk.Low,
				"ADD PRIMARY KEY USING INDEX reuses a pre-built index; only metadata work under ACCESS EXCLUSIVE", cfg))
		}
	}
	return results
}

func ruleAddPKWithoutUsingIndex(stmt parser.Statement, cfg Config) []CheckResult {
	var results []CheckResult
	table := alterTableName(stmt)
	for _, c := range addConstraintCmds(stmt) {
		if c.GetContype() == pg_query.ConstrType_CONSTR_PRIMARY && c.GetIndexname() == "" {
			r := newResult(stmt, "add-pk-without-using-index", table, locks.AccessExclusive, risk.High,
				"ADD PRIMARY KEY without USING INDEX builds a unique index under ACCESS EXCLUSIVE", cfg)
			r.SafeRewrite = &SafeRewrite{
				Description: "Build the unique index CONCURRENTLY, then attach it as the primary key",
				Steps: []string{
					fmt.Sprintf("CREATE UNIQUE INDEX CONCURRENTLY %s_pkey_idx ON %s (...);", table, table),
					fmt.Sprintf("ALTER TABLE %s ADD PRIMARY KEY USING INDEX %s_pkey_idx;", table, table),
				},
			}
			results = append(results, r)
		}
	}
	return results
}

func ruleAddConstraintExclude(stmt parser.Statement, cfg Config) []CheckResult {
	var results []CheckResult
	table := alterTableName(stmt)
	for _, c := range addConstraintCmds(stmt) {
		if c.GetContype() == pg_query.ConstrType_CONSTR_EXCLUSION {
			r := newResult(stmt, "add-constraint-exclude", table, locks.AccessExclusive, risk.High,
				"ADD EXCLUDE builds its supporting index under ACCESS EXCLUSIVE; there is no CONCURRENTLY form", cfg)
			r.SafeRewrite = &SafeRewrite{
				Description: "Schedule during a low-traffic window; there is no lock-free equivalent for exclusion constraints.",
				Steps:       []string{fmt.Sprintf("-- run ADD CONSTRAINT ... EXCLUDE on %s during a maintenance window", table)},
			}
			results = append(results, r)
		}
	}
	return results
}

func ruleValidateConstraint(stmt parser.Statement, cfg Config) []CheckResult {
	var results []CheckResult
	table := alterTableName(stmt)
	for _, cmd := range alterTableCmds(stmt, pg_query.AlterTableType_AT_ValidateConstraint) {
		results = append(results, newResult(stmt, "validate-constraint", table, locks.ShareUpdateExclusive, risk.Low,
			fmt.Sprintf("VALIDATE CONSTRAINT %s scans the table but only under SHARE UPDATE EXCLUSIVE", cmd.GetName()), cfg))
	}
	return results
}

func ruleDropColumn(stmt parser.Statement, cfg Config) []CheckResult {
	var results []CheckResult
	table := alterTableName(stmt)
	for _, cmd := range alterTableCmds(stmt, pg_query.AlterTableType_AT_DropColumn) {
		r := newResult(stmt, "drop-column", table, locks.AccessExclusive, risk.High,
			fmt.Sprintf("DROP COLUMN %s is irreversible and takes ACCESS EXCLUSIVE", cmd.GetName()), cfg)
		r.SafeRewrite = &SafeRewrite{
			Description: "Stop writing/reading the column in application code first, deploy, then drop in a later migration",
			Steps: []string{
				fmt.Sprintf("-- confirm no code path reads or writes %s.%s", table, cmd.GetName()),
				fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", table, cmd.GetName()),
			},
		}
		results = append(results, r)
	}
	return results
}

var enableTriggerSubtypes = []pg_query.AlterTableType{
	pg_query.AlterTableType_AT_EnableTrig,
	pg_query.AlterTableType_AT_EnableAlwaysTrig,
	pg_query.AlterTableType_AT_EnableReplicaTrig,
	pg_query.AlterTableType_AT_EnableTrigAll,
	pg_query.AlterTableType_AT_DisableTrig,
	pg_query.AlterTableType_AT_DisableTrigAll,
}

func ruleEnableDisableTrigger(stmt parser.Statement, cfg Config) []CheckResult {
	var results []CheckResult
	table := alterTableName(stmt)
	at := stmt.Node.GetAlterTableStmt()
	if at == nil {
		return nil
	}
	for _, c := range at.GetCmds() {
		cmd := c.GetAlterTableCmd()
		if cmd == nil {
			continue
		}
		for _, st := range enableTriggerSubtypes {
			if cmd.GetSubtype() == st {
				results = append(results, newResult(stmt, "enable-disable-trigger", table, locks.ShareRowExclusive, risk.Low,
					"ENABLE/DISABLE TRIGGER takes SHARE ROW EXCLUSIVE, blocking writes but not reads", cfg))
			}
		}
	}
	return results
}

func ruleAttachPartition(stmt parser.Statement, cfg Config) []CheckResult {
	var results []CheckResult
	table := alterTableName(stmt)
	for range alterTableCmds(stmt, pg_query.AlterTableType_AT_AttachPartition) {
		r := newResult(stmt, "attach-partition", table, locks.AccessExclusive, risk.High,
			"ATTACH PARTITION validates the new partition's constraints under ACCESS EXCLUSIVE", cfg)
		r.SafeRewrite = &SafeRewrite{
			Description: "Add a CHECK constraint matching the partition bound, validate it, then attach (PG 11+ skips re-validation)",
			Steps: []string{
				fmt.Sprintf("ALTER TABLE <partition> ADD CONSTRAINT partition_check CHECK (...) NOT VALID;"),
				"ALTER TABLE <partition> VALIDATE CONSTRAINT partition_check;",
				fmt.Sprintf("ALTER TABLE %s ATTACH PARTITION <partition> FOR VALUES ...;", table),
			},
		}
		results = append(results, r)
	}
	return results
}

func detachPartitionCmds(stmt parser.Statement) []*pg_query.AlterTableCmd {
	return alterTableCmds(stmt, pg_query.AlterTableType_AT_DetachPartition)
}

func isConcurrentDetach(cmd *pg_query.AlterTableCmd) bool {
	pc := cmd.GetDef().GetPartitionCmd()
	return pc != nil && pc.GetConcurrent()
}

func ruleDetachPartition(stmt parser.Statement, cfg Config) []CheckResult {
	var results []CheckResult
	table := alterTableName(stmt)
	for _, cmd := range detachPartitionCmds(stmt) {
		if isConcurrentDetach(cmd) {
			continue
		}
		r := newResult(stmt, "detach-partition", table, locks.AccessExclusive, risk.High,
			"DETACH PARTITION without CONCURRENTLY takes ACCESS EXCLUSIVE on the parent", cfg)
		r.SafeRewrite = &SafeRewrite{
			Description: "Use DETACH PARTITION CONCURRENTLY (PG 14+) to take SHARE UPDATE EXCLUSIVE instead",
			Steps: []string{
				fmt.Sprintf("ALTER TABLE %s DETACH PARTITION <partition> CONCURRENTLY;", table),
			},
		}
		results = append(results, r)
	}
	return results
}

func ruleDetachPartitionConcurrent(stmt parser.Statement, cfg Config) []CheckResult {
	var results []CheckResult
	table := alterTableName(stmt)
	for _, cmd := range detachPartitionCmds(stmt) {
		if isConcurrentDetach(cmd) {
			results = append(results, newResult(stmt, "detach-partition-concurrent", table, locks.ShareUpdateExclusive, risk.Low,
				"DETACH PARTITION CONCURRENTLY avoids the ACCESS EXCLUSIVE lock on the parent", cfg))
		}
	}
	return results
}
