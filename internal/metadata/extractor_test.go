package metadata

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pgfence/pgfence/internal/parser"
)

func firstNode(t *testing.T, sql string) *parser.Statement {
	t.Helper()
	p := parser.New()
	result, err := p.ParseSQL(sql)
	require.NoError(t, err)
	require.Len(t, result.Statements, 1)
	return &result.Statements[0]
}

func TestExtractAddColumnNotNullNoDefault(t *testing.T) {
	stmt := firstNode(t, "ALTER TABLE users ADD COLUMN age int NOT NULL;")
	data := NewExtractor().Extract(stmt.Node, "add-column-not-null-no-default")

	require.Equal(t, "users", data["TableName"])
	require.Equal(t, "age", data["ColumnName"])
	require.Contains(t, []string{"int", "int4"}, data["ColumnType"])
	require.Equal(t, "NULL", data["DefaultValue"])
}

func TestExtractAddColumnNonConstantDefault(t *testing.T) {
	stmt := firstNode(t, "ALTER TABLE users ADD COLUMN updated_at timestamptz DEFAULT now();")
	data := NewExtractor().Extract(stmt.Node, "add-column-non-constant-default")

	require.Equal(t, "users", data["TableName"])
	require.Equal(t, "updated_at", data["ColumnName"])
	require.Equal(t, "now()", data["DefaultValue"])
	require.Equal(t, "now()", data["DefaultExpr"])
}

func TestExtractAddColumnDefaultPrePG11(t *testing.T) {
	stmt := firstNode(t, "ALTER TABLE users ADD COLUMN status int DEFAULT 1;")
	data := NewExtractor().Extract(stmt.Node, "add-column-default-pre-pg11")

	require.Equal(t, "users", data["TableName"])
	require.Equal(t, "status", data["ColumnName"])
	require.Equal(t, "1", data["DefaultValue"])
}

func TestExtractAddColumnStoredGenerated(t *testing.T) {
	stmt := firstNode(t, "ALTER TABLE invoices ADD COLUMN total int GENERATED ALWAYS AS (qty * price) STORED;")
	data := NewExtractor().Extract(stmt.Node, "add-column-stored-generated")

	require.Equal(t, "invoices", data["TableName"])
	require.Equal(t, "total", data["ColumnName"])
	require.Equal(t, "<expression>", data["GenerationExpr"])
}

func TestExtractAlterColumnType(t *testing.T) {
	stmt := firstNode(t, "ALTER TABLE users ALTER COLUMN email TYPE text;")
	data := NewExtractor().Extract(stmt.Node, "alter-column-type")

	require.Equal(t, "users", data["TableName"])
	require.Equal(t, "email", data["ColumnName"])
	require.Equal(t, "text", data["NewType"])
}

func TestExtractAddConstraintFK(t *testing.T) {
	stmt := firstNode(t, "ALTER TABLE orders ADD CONSTRAINT fk_orders_user FOREIGN KEY (user_id) REFERENCES users(id);")
	data := NewExtractor().Extract(stmt.Node, "add-constraint-fk-no-not-valid")

	require.Equal(t, "orders", data["TableName"])
	require.Equal(t, "fk_orders_user", data["ConstraintName"])
	require.Equal(t, "users", data["RefTable"])
	require.Equal(t, "user_id", data["ColumnName"])
}

func TestExtractAddConstraintCheck(t *testing.T) {
	stmt := firstNode(t, "ALTER TABLE orders ADD CONSTRAINT chk_qty CHECK (qty > 0);")
	data := NewExtractor().Extract(stmt.Node, "add-constraint-check-no-not-valid")

	require.Equal(t, "orders", data["TableName"])
	require.Equal(t, "chk_qty", data["ConstraintName"])
	require.Equal(t, "<expression>", data["CheckExpr"])
}

func TestExtractAddConstraintUnique(t *testing.T) {
	stmt := firstNode(t, "ALTER TABLE users ADD CONSTRAINT uq_users_email UNIQUE (email, tenant_id);")
	data := NewExtractor().Extract(stmt.Node, "add-constraint-unique")

	require.Equal(t, "users", data["TableName"])
	require.Equal(t, "uq_users_email", data["ConstraintName"])
	require.Equal(t, "email, tenant_id", data["Columns"])
	require.Equal(t, "users_email_tenant_id_idx", data["IndexName"])
}

func TestExtractAddConstraintExclude(t *testing.T) {
	stmt := firstNode(t, "ALTER TABLE reservations ADD CONSTRAINT no_overlap EXCLUDE USING gist (room WITH =, during WITH &&);")
	data := NewExtractor().Extract(stmt.Node, "add-constraint-exclude")

	require.Equal(t, "reservations", data["TableName"])
	require.Equal(t, "no_overlap", data["ConstraintName"])
	require.Equal(t, "gist", data["ExclusionMethod"])
}

func TestExtractRenameTable(t *testing.T) {
	stmt := firstNode(t, "ALTER TABLE old_name RENAME TO new_name;")
	data := NewExtractor().Extract(stmt.Node, "rename-table")

	require.Equal(t, "old_name", data["TableName"])
	require.Equal(t, "new_name", data["NewName"])
}

func TestExtractDropColumn(t *testing.T) {
	stmt := firstNode(t, "ALTER TABLE users DROP COLUMN legacy_flag;")
	data := NewExtractor().Extract(stmt.Node, "drop-column")

	require.Equal(t, "users", data["TableName"])
	require.Equal(t, "legacy_flag", data["ColumnName"])
}

func TestExtractDropTable(t *testing.T) {
	stmt := firstNode(t, "DROP TABLE sessions;")
	data := NewExtractor().Extract(stmt.Node, "drop-table")

	require.Equal(t, "sessions", data["TableName"])
}

func TestExtractTruncate(t *testing.T) {
	stmt := firstNode(t, "TRUNCATE TABLE events;")
	data := NewExtractor().Extract(stmt.Node, "truncate")

	require.Equal(t, "events", data["TableName"])
	require.NotEmpty(t, data["BatchPredicate"])
}

func TestExtractCreateIndex(t *testing.T) {
	stmt := firstNode(t, "CREATE INDEX idx_users_email ON users (email);")
	data := NewExtractor().Extract(stmt.Node, "create-index-not-concurrent")

	require.Equal(t, "users", data["TableName"])
	require.Equal(t, "idx_users_email", data["IndexName"])
	require.Equal(t, "email", data["Columns"])
}

func TestExtractDropIndex(t *testing.T) {
	stmt := firstNode(t, "DROP INDEX idx_users_email;")
	data := NewExtractor().Extract(stmt.Node, "drop-index-not-concurrent")

	require.Equal(t, "idx_users_email", data["IndexName"])
}

func TestExtractUnknownRuleIDReturnsEmptyData(t *testing.T) {
	stmt := firstNode(t, "SELECT 1;")
	data := NewExtractor().Extract(stmt.Node, "select-without-limit")

	require.Empty(t, data)
}
