package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgfence/pgfence/internal/parser"
	"github.com/pgfence/pgfence/internal/policy"
)

func parseOrFail(t *testing.T, sql string) []parserStatementAlias {
	t.Helper()
	res, err := parser.New().ParseSQL(sql)
	require.NoError(t, err)
	return res.Statements
}

type parserStatementAlias = parser.Statement

func findViolation(vs []policy.Violation, ruleID string) (policy.Violation, bool) {
	for _, v := range vs {
		if v.RuleID == ruleID {
			return v, true
		}
	}
	return policy.Violation{}, false
}

// TestSeedScenario3_NotValidValidateSameTransaction mirrors the seed
// scenario from spec §8: adding a NOT VALID constraint and validating it
// inside the same transaction defeats the whole point of NOT VALID.
func TestSeedScenario3_NotValidValidateSameTransaction(t *testing.T) {
	sql := `
BEGIN;
SET lock_timeout = '2s';
SET statement_timeout = '5min';
SET application_name = 'migrate';
SET idle_in_transaction_session_timeout = '10s';
ALTER TABLE orders ADD CONSTRAINT orders_status_check CHECK (status IS NOT NULL) NOT VALID;
ALTER TABLE orders VALIDATE CONSTRAINT orders_status_check;
COMMIT;
`
	stmts := parseOrFail(t, sql)
	violations := policy.Run(stmts, policy.DefaultConfig(), false)

	v, ok := findViolation(violations, "not-valid-validate-same-tx")
	require.True(t, ok, "expected not-valid-validate-same-tx violation, got %+v", violations)
	assert.Equal(t, policy.SeverityError, v.Severity)
}

func TestNotValidValidateDifferentTransactionsDoesNotFire(t *testing.T) {
	sql := `
BEGIN;
SET lock_timeout = '2s';
SET statement_timeout = '5min';
SET application_name = 'migrate';
SET idle_in_transaction_session_timeout = '10s';
ALTER TABLE orders ADD CONSTRAINT orders_status_check CHECK (status IS NOT NULL) NOT VALID;
COMMIT;
BEGIN;
SET lock_timeout = '2s';
ALTER TABLE orders VALIDATE CONSTRAINT orders_status_check;
COMMIT;
`
	stmts := parseOrFail(t, sql)
	violations := policy.Run(stmts, policy.DefaultConfig(), false)

	_, ok := findViolation(violations, "not-valid-validate-same-tx")
	assert.False(t, ok)
}

// TestSeedScenario4_WideLockWindow mirrors the seed scenario from spec §8:
// two ACCESS EXCLUSIVE statements against two different tables in the same
// transaction hold both locks simultaneously until commit.
func TestSeedScenario4_WideLockWindow(t *testing.T) {
	sql := `
BEGIN;
SET lock_timeout = '2s';
SET statement_timeout = '5min';
SET application_name = 'migrate';
SET idle_in_transaction_session_timeout = '10s';
ALTER TABLE orders DROP COLUMN legacy_flag;
ALTER TABLE customers DROP COLUMN legacy_flag;
COMMIT;
`
	stmts := parseOrFail(t, sql)
	violations := policy.Run(stmts, policy.DefaultConfig(), false)

	v, ok := findViolation(violations, "wide-lock-window")
	require.True(t, ok, "expected wide-lock-window violation, got %+v", violations)
	assert.Equal(t, policy.SeverityWarning, v.Severity)
}

func TestWideLockWindowDoesNotFireForSameTable(t *testing.T) {
	sql := `
BEGIN;
SET lock_timeout = '2s';
SET statement_timeout = '5min';
SET application_name = 'migrate';
SET idle_in_transaction_session_timeout = '10s';
ALTER TABLE orders DROP COLUMN legacy_flag;
ALTER TABLE orders DROP COLUMN another_flag;
COMMIT;
`
	stmts := parseOrFail(t, sql)
	violations := policy.Run(stmts, policy.DefaultConfig(), false)

	_, ok := findViolation(violations, "wide-lock-window")
	assert.False(t, ok)
}

func TestMissingLockTimeoutFlagged(t *testing.T) {
	sql := `ALTER TABLE orders DROP COLUMN legacy_flag;`
	stmts := parseOrFail(t, sql)
	violations := policy.Run(stmts, policy.DefaultConfig(), false)

	v, ok := findViolation(violations, "missing-lock-timeout")
	require.True(t, ok)
	assert.Equal(t, policy.SeverityError, v.Severity)
}

func TestMissingLockTimeoutNotFlaggedWhenDisabled(t *testing.T) {
	sql := `ALTER TABLE orders DROP COLUMN legacy_flag;`
	stmts := parseOrFail(t, sql)
	cfg := policy.DefaultConfig()
	cfg.RequireLockTimeout = false
	violations := policy.Run(stmts, cfg, false)

	_, ok := findViolation(violations, "missing-lock-timeout")
	assert.False(t, ok)
}

func TestLockTimeoutAfterDangerousStatement(t *testing.T) {
	sql := `
ALTER TABLE orders DROP COLUMN legacy_flag;
SET lock_timeout = '2s';
`
	stmts := parseOrFail(t, sql)
	violations := policy.Run(stmts, policy.DefaultConfig(), false)

	_, ok := findViolation(violations, "lock-timeout-after-dangerous-statement")
	assert.True(t, ok)
}

func TestConcurrentIndexInsideTransactionIsError(t *testing.T) {
	sql := `
BEGIN;
CREATE INDEX CONCURRENTLY idx_orders_status ON orders (status);
COMMIT;
`
	stmts := parseOrFail(t, sql)
	violations := policy.Run(stmts, policy.DefaultConfig(), false)

	v, ok := findViolation(violations, "concurrent-in-transaction")
	require.True(t, ok)
	assert.Equal(t, policy.SeverityError, v.Severity)
}

func TestConcurrentIndexOutsideTransactionDoesNotFireConcurrentInTransaction(t *testing.T) {
	sql := `CREATE INDEX CONCURRENTLY idx_orders_status ON orders (status);`
	stmts := parseOrFail(t, sql)
	violations := policy.Run(stmts, policy.DefaultConfig(), false)

	_, ok := findViolation(violations, "concurrent-in-transaction")
	assert.False(t, ok)
}

func TestUpdateWithoutWhereFlagged(t *testing.T) {
	sql := `UPDATE orders SET status = 'archived';`
	stmts := parseOrFail(t, sql)
	violations := policy.Run(stmts, policy.DefaultConfig(), false)

	v, ok := findViolation(violations, "update-in-migration")
	require.True(t, ok)
	assert.Equal(t, policy.SeverityWarning, v.Severity)
}

func TestUpdateWithWhereDoesNotFire(t *testing.T) {
	sql := `UPDATE orders SET status = 'archived' WHERE id = 1;`
	stmts := parseOrFail(t, sql)
	violations := policy.Run(stmts, policy.DefaultConfig(), false)

	_, ok := findViolation(violations, "update-in-migration")
	assert.False(t, ok)
}

func TestCompoundingAccessExclusiveWarnsOnSecondStatement(t *testing.T) {
	sql := `
BEGIN;
SET lock_timeout = '2s';
SET statement_timeout = '5min';
SET application_name = 'migrate';
SET idle_in_transaction_session_timeout = '10s';
ALTER TABLE orders DROP COLUMN legacy_flag;
ALTER TABLE orders DROP COLUMN another_flag;
COMMIT;
`
	stmts := parseOrFail(t, sql)
	violations := policy.Run(stmts, policy.DefaultConfig(), false)

	_, ok := findViolation(violations, "statement-after-access-exclusive")
	assert.True(t, ok)
}

func TestCompoundingAccessExclusiveWarnsWithoutLiteralBeginCommit(t *testing.T) {
	// No BEGIN/COMMIT in the extracted SQL at all — this is the shape a
	// default-mode TypeORM migration (or any framework that wraps its
	// migration in one implicit transaction without emitting literal
	// markers) produces. autoCommit=false still means "one transaction".
	sql := `
SET lock_timeout = '2s';
SET statement_timeout = '5min';
SET application_name = 'migrate';
SET idle_in_transaction_session_timeout = '10s';
ALTER TABLE orders DROP COLUMN legacy_flag;
ALTER TABLE orders DROP COLUMN another_flag;
`
	stmts := parseOrFail(t, sql)
	violations := policy.Run(stmts, policy.DefaultConfig(), false)

	_, ok := findViolation(violations, "statement-after-access-exclusive")
	assert.True(t, ok)
}

func TestCompoundingAccessExclusiveSuppressedWhenAutoCommit(t *testing.T) {
	sql := `
SET lock_timeout = '2s';
SET statement_timeout = '5min';
SET application_name = 'migrate';
SET idle_in_transaction_session_timeout = '10s';
ALTER TABLE orders DROP COLUMN legacy_flag;
ALTER TABLE orders DROP COLUMN another_flag;
`
	stmts := parseOrFail(t, sql)
	violations := policy.Run(stmts, policy.DefaultConfig(), true)

	_, ok := findViolation(violations, "statement-after-access-exclusive")
	assert.False(t, ok)
}
