package policy

import (
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/pgfence/pgfence/internal/parser"
)

// Config is the immutable policy-engine configuration, sourced from the
// --no-lock-timeout/--no-statement-timeout/--max-lock-timeout/
// --max-statement-timeout CLI flags.
type Config struct {
	RequireLockTimeout      bool
	RequireStatementTimeout bool
	MaxLockTimeoutMillis    int
	MaxStatementTimeoutMillis int
}

// DefaultConfig returns the policy defaults from spec §4.4/§6.
func DefaultConfig() Config {
	return Config{
		RequireLockTimeout:        true,
		RequireStatementTimeout:   true,
		MaxLockTimeoutMillis:      5000,
		MaxStatementTimeoutMillis: 600_000,
	}
}

type notValidConstraint struct {
	table string
	name  string
}

// Run walks stmts once, linearly, and returns every PolicyViolation, per
// spec §4.4. autoCommit comes from the extractor (true for TypeORM
// migrations whose transaction property is explicitly false): when set,
// each statement already runs in its own implicit transaction, so holding
// an earlier ACCESS EXCLUSIVE lock across statements cannot happen. When
// autoCommit is false — the default for every format, since a host
// migration framework (or migration runner) wraps the whole file in one
// transaction unless it says otherwise — the entire statement stream is
// that one transaction for compounding-lock purposes, whether or not it
// contains a literal BEGIN/COMMIT: an explicit COMMIT/ROLLBACK still ends
// it early (TransactionState resets its ACCESS-EXCLUSIVE set there), but
// the absence of one does not mean there is no transaction to compound
// locks in.
func Run(stmts []parser.Statement, cfg Config, autoCommit bool) []Violation {
	var violations []Violation

	ts := NewTransactionState()

	lockTimeoutIdx := -1
	statementTimeoutIdx := -1
	sawApplicationName := false
	sawIdleInTxnTimeout := false
	firstDangerousIdx := -1
	firstDangerousPreview := ""
	var notValidSet []notValidConstraint

	for i, stmt := range stmts {
		ts.IncrementStatementCount()

		if vs := stmt.Node.GetVariableSetStmt(); vs != nil {
			v := handleVariableSet(vs, i, cfg, &lockTimeoutIdx, &statementTimeoutIdx,
				&sawApplicationName, &sawIdleInTxnTimeout)
			violations = append(violations, v...)
		}

		if txn := stmt.Node.GetTransactionStmt(); txn != nil {
			handleTransactionStmt(txn, ts, &notValidSet)
			continue
		}

		// NOT VALID / VALIDATE same-transaction tracking (point 6).
		if at := stmt.Node.GetAlterTableStmt(); at != nil && ts.Active() {
			table := relationName(at.GetRelation())
			for _, c := range at.GetCmds() {
				cmd := c.GetAlterTableCmd()
				if cmd == nil {
					continue
				}
				if cmd.GetSubtype() == pg_query.AlterTableType_AT_AddConstraint {
					constr := cmd.GetDef().GetConstraint()
					if constr != nil && constr.GetSkipValidation() {
						notValidSet = append(notValidSet, notValidConstraint{table: table, name: constr.GetConname()})
					}
				}
				if cmd.GetSubtype() == pg_query.AlterTableType_AT_ValidateConstraint {
					name := cmd.GetName()
					for j, nv := range notValidSet {
						if nv.table == table && nv.name == name {
							violations = append(violations, Violation{
								RuleID:   "not-valid-validate-same-tx",
								Severity: SeverityError,
								Message:  fmt.Sprintf("constraint %s was added NOT VALID and validated in the same transaction on %s; the validating scan still holds the transaction's locks", name, table),
							})
							notValidSet = append(notValidSet[:j], notValidSet[j+1:]...)
							break
						}
					}
				}
			}
		}

		// CREATE INDEX CONCURRENTLY inside a transaction (point 7).
		if idx := stmt.Node.GetIndexStmt(); idx != nil && idx.GetConcurrent() && ts.Active() {
			violations = append(violations, Violation{
				RuleID:   "concurrent-in-transaction",
				Severity: SeverityError,
				Message:  "CREATE INDEX CONCURRENTLY cannot run inside a transaction block",
			})
		}

		// UPDATE without WHERE (point 8).
		if upd := stmt.Node.GetUpdateStmt(); upd != nil && upd.GetWhereClause() == nil {
			violations = append(violations, Violation{
				RuleID:   "update-in-migration",
				Severity: SeverityWarning,
				Message:  "UPDATE without a WHERE clause in a migration touches every row",
			})
		}

		table, mode, ok := statementLock(stmt)
		if ok && table != "" {
			lr := ts.RecordLock(table, mode)

			if isAccessExclusiveForPolicy(stmt) {
				if firstDangerousIdx == -1 {
					firstDangerousIdx = i
					firstDangerousPreview = parser.Preview(stmt.SQL, 80)
				}

				if lr.HadPriorAccessExclusive && !autoCommit {
					violations = append(violations, Violation{
						RuleID:   "statement-after-access-exclusive",
						Severity: SeverityWarning,
						Message:  fmt.Sprintf("%s acquires ACCESS EXCLUSIVE after an earlier statement in the same transaction already holds one", parser.Preview(stmt.SQL, 80)),
					})
				}

				if lr.WideLockWindow {
					violations = append(violations, Violation{
						RuleID:   "wide-lock-window",
						Severity: SeverityWarning,
						Message:  fmt.Sprintf("transaction now holds ACCESS EXCLUSIVE on both %s and %s simultaneously", lr.PreviousTable, table),
					})
				}
			}
		}
	}

	if cfg.RequireLockTimeout && lockTimeoutIdx == -1 {
		violations = append(violations, Violation{
			RuleID:       "missing-lock-timeout",
			Severity:     SeverityError,
			Message:      "no SET lock_timeout found before any dangerous statement",
			SuggestedFix: "SET lock_timeout = '5s';",
		})
	}
	if lockTimeoutIdx > 0 && firstDangerousIdx != -1 && firstDangerousIdx < lockTimeoutIdx {
		violations = append(violations, Violation{
			RuleID:   "lock-timeout-after-dangerous-statement",
			Severity: SeverityError,
			Message:  fmt.Sprintf("lock_timeout is set after the first dangerous statement (%s)", firstDangerousPreview),
		})
	}
	if cfg.RequireStatementTimeout && statementTimeoutIdx == -1 {
		violations = append(violations, Violation{
			RuleID:       "missing-statement-timeout",
			Severity:     SeverityWarning,
			Message:      "no SET statement_timeout found",
			SuggestedFix: "SET statement_timeout = '5min';",
		})
	}
	if !sawApplicationName {
		violations = append(violations, Violation{
			RuleID:   "missing-application-name",
			Severity: SeverityWarning,
			Message:  "no SET application_name found; harder to identify this migration's connection in pg_stat_activity",
		})
	}
	if !sawIdleInTxnTimeout {
		violations = append(violations, Violation{
			RuleID:   "missing-idle-in-transaction-session-timeout",
			Severity: SeverityWarning,
			Message:  "no SET idle_in_transaction_session_timeout found; an aborted client can hold locks indefinitely",
		})
	}

	return violations
}

func handleTransactionStmt(txn *pg_query.TransactionStmt, ts *TransactionState, notValidSet *[]notValidConstraint) {
	switch txn.GetKind() {
	case pg_query.TransactionStmtKind_TRANS_STMT_BEGIN, pg_query.TransactionStmtKind_TRANS_STMT_START:
		ts.Begin()
	case pg_query.TransactionStmtKind_TRANS_STMT_COMMIT:
		ts.Commit()
		*notValidSet = nil
	case pg_query.TransactionStmtKind_TRANS_STMT_ROLLBACK:
		ts.Rollback()
		*notValidSet = nil
	case pg_query.TransactionStmtKind_TRANS_STMT_SAVEPOINT:
		ts.Savepoint(txn.GetSavepointName())
	case pg_query.TransactionStmtKind_TRANS_STMT_RELEASE:
		ts.Release(txn.GetSavepointName())
	case pg_query.TransactionStmtKind_TRANS_STMT_ROLLBACK_TO:
		ts.RollbackTo(txn.GetSavepointName())
	}
}

func handleVariableSet(vs *pg_query.VariableSetStmt, i int, cfg Config,
	lockTimeoutIdx, statementTimeoutIdx *int, sawApplicationName, sawIdleInTxnTimeout *bool) []Violation {

	if vs.GetKind() != pg_query.VariableSetKind_VAR_SET_VALUE {
		return nil
	}

	name := strings.ToLower(vs.GetName())
	var violations []Violation

	switch name {
	case "lock_timeout":
		if *lockTimeoutIdx == -1 {
			*lockTimeoutIdx = i
		}
		if ms, ok := variableSetMillis(vs); ok && ms > cfg.MaxLockTimeoutMillis {
			violations = append(violations, Violation{
				RuleID:   "lock-timeout-too-long",
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("lock_timeout of %dms exceeds the configured ceiling of %dms", ms, cfg.MaxLockTimeoutMillis),
			})
		}
	case "statement_timeout":
		if *statementTimeoutIdx == -1 {
			*statementTimeoutIdx = i
		}
		if ms, ok := variableSetMillis(vs); ok && ms > cfg.MaxStatementTimeoutMillis {
			violations = append(violations, Violation{
				RuleID:   "statement-timeout-too-long",
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("statement_timeout of %dms exceeds the configured ceiling of %dms", ms, cfg.MaxStatementTimeoutMillis),
			})
		}
	case "application_name":
		*sawApplicationName = true
	case "idle_in_transaction_session_timeout":
		*sawIdleInTxnTimeout = true
	}

	return violations
}

func variableSetMillis(vs *pg_query.VariableSetStmt) (int, bool) {
	args := vs.GetArgs()
	if len(args) == 0 {
		return 0, false
	}
	c := args[0].GetAConst()
	if c == nil {
		return 0, false
	}
	if iv := c.GetIval(); iv != nil {
		return int(iv.GetIval()), true
	}
	if sv := c.GetSval(); sv != nil {
		return ParseTimeoutMillis(sv.GetSval())
	}
	return 0, false
}
