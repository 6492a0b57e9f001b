// Package metadata pulls the field values a safe-rewrite template needs
// (table name, column name, constraint name, ...) directly off the
// statement's AST node, keyed by the rule ID that matched it.
package metadata

import (
	"strconv"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// Extractor extracts a safe-rewrite template's field data from a
// statement's AST node for the rule that matched it.
type Extractor interface {
	Extract(node *pg_query.Node, ruleID string) map[string]interface{}
}

type extractor struct{}

// NewExtractor returns the default Extractor.
func NewExtractor() Extractor { return &extractor{} }

func (e *extractor) Extract(node *pg_query.Node, ruleID string) map[string]interface{} {
	data := make(map[string]interface{})

	switch ruleID {
	case "add-column-not-null-no-default", "add-column-non-constant-default", "add-column-default-pre-pg11", "add-column-stored-generated":
		extractAddColumn(node, data)
	case "alter-column-type":
		extractAlterColumnType(node, data)
	case "add-constraint-fk-no-not-valid":
		extractAddConstraintFK(node, data)
	case "add-constraint-check-no-not-valid":
		extractAddConstraintCheck(node, data)
	case "add-constraint-unique", "add-pk-without-using-index":
		extractAddConstraintUniqueLike(node, data)
	case "add-constraint-exclude":
		extractAddConstraintExclude(node, data)
	case "rename-table":
		extractRenameTable(node, data)
	case "drop-column":
		extractDropColumn(node, data)
	case "drop-table":
		extractDropTable(node, data)
	case "truncate":
		extractTruncate(node, data)
	case "create-index-not-concurrent":
		extractCreateIndex(node, data)
	case "drop-index-not-concurrent":
		extractDropIndex(node, data)
	}

	return data
}

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
	if len(parts) > 1 && parts[0] == "pg_catalog" {
		parts = parts[1:]
	}
	return strings.ToLower(strings.Join(parts, "."))
}

func firstAddColumnCmd(stmt *pg_query.AlterTableStmt) (*pg_query.AlterTableCmd, *pg_query.ColumnDef) {
	for _, c := range stmt.GetCmds() {
		cmd := c.GetAlterTableCmd()
		if cmd == nil || cmd.GetSubtype() != pg_query.AlterTableType_AT_AddColumn {
			continue
		}
		if colDef := cmd.GetDef().GetColumnDef(); colDef != nil {
			return cmd, colDef
		}
	}
	return nil, nil
}

func extractAddColumn(node *pg_query.Node, data map[string]interface{}) {
	stmt := node.GetAlterTableStmt()
	if stmt == nil {
		return
	}
	data["TableName"] = relationName(stmt.GetRelation())

	_, colDef := firstAddColumnCmd(stmt)
	if colDef == nil {
		return
	}
	data["ColumnName"] = colDef.GetColname()
	data["ColumnType"] = typeNameString(colDef.GetTypeName())

	for _, c := range colDef.GetConstraints() {
		constr := c.GetConstraint()
		if constr == nil {
			continue
		}
		switch constr.GetContype() {
		case pg_query.ConstrType_CONSTR_DEFAULT:
			data["DefaultValue"] = rawExprText(constr.GetRawExpr())
			data["DefaultExpr"] = data["DefaultValue"]
		case pg_query.ConstrType_CONSTR_GENERATED:
			data["GenerationExpr"] = rawExprText(constr.GetRawExpr())
		}
	}
	if _, ok := data["DefaultValue"]; !ok {
		data["DefaultValue"] = "NULL"
		data["DefaultExpr"] = "NULL"
	}
}

func extractAlterColumnType(node *pg_query.Node, data map[string]interface{}) {
	stmt := node.GetAlterTableStmt()
	if stmt == nil {
		return
	}
	data["TableName"] = relationName(stmt.GetRelation())
	for _, c := range stmt.GetCmds() {
		cmd := c.GetAlterTableCmd()
		if cmd == nil || cmd.GetSubtype() != pg_query.AlterTableType_AT_AlterColumnType {
			continue
		}
		data["ColumnName"] = cmd.GetName()
		if colDef := cmd.GetDef().GetColumnDef(); colDef != nil {
			data["NewType"] = typeNameString(colDef.GetTypeName())
		}
		break
	}
}

func constraintCmd(stmt *pg_query.AlterTableStmt) (*pg_query.AlterTableCmd, *pg_query.Constraint) {
	for _, c := range stmt.GetCmds() {
		cmd := c.GetAlterTableCmd()
		if cmd == nil || cmd.GetSubtype() != pg_query.AlterTableType_AT_AddConstraint {
			continue
		}
		if constr := cmd.GetDef().GetConstraint(); constr != nil {
			return cmd, constr
		}
	}
	return nil, nil
}

func extractAddConstraintFK(node *pg_query.Node, data map[string]interface{}) {
	stmt := node.GetAlterTableStmt()
	if stmt == nil {
		return
	}
	data["TableName"] = relationName(stmt.GetRelation())
	_, constr := constraintCmd(stmt)
	if constr == nil {
		return
	}
	data["ConstraintName"] = constr.GetConname()
	data["RefTable"] = relationName(constr.GetPktable())
	if cols := constr.GetFkAttrs(); len(cols) > 0 {
		data["ColumnName"] = stringListJoin(cols[:1])
	}
}

func extractAddConstraintCheck(node *pg_query.Node, data map[string]interface{}) {
	stmt := node.GetAlterTableStmt()
	if stmt == nil {
		return
	}
	data["TableName"] = relationName(stmt.GetRelation())
	_, constr := constraintCmd(stmt)
	if constr == nil {
		return
	}
	data["ConstraintName"] = constr.GetConname()
	data["CheckExpr"] = rawExprText(constr.GetRawExpr())
}

func extractAddConstraintUniqueLike(node *pg_query.Node, data map[string]interface{}) {
	stmt := node.GetAlterTableStmt()
	if stmt == nil {
		return
	}
	table := relationName(stmt.GetRelation())
	data["TableName"] = table
	_, constr := constraintCmd(stmt)
	if constr == nil {
		return
	}
	data["ConstraintName"] = constr.GetConname()
	cols := stringListJoinSep(constr.GetKeys(), ", ")
	data["Columns"] = cols
	data["IndexName"] = table + "_" + strings.ReplaceAll(cols, ", ", "_") + "_idx"
}

func extractAddConstraintExclude(node *pg_query.Node, data map[string]interface{}) {
	stmt := node.GetAlterTableStmt()
	if stmt == nil {
		return
	}
	data["TableName"] = relationName(stmt.GetRelation())
	_, constr := constraintCmd(stmt)
	if constr == nil {
		return
	}
	data["ConstraintName"] = constr.GetConname()
	data["ExclusionMethod"] = constr.GetAccessMethod()
	data["ExclusionSpec"] = "..."
}

func extractRenameTable(node *pg_query.Node, data map[string]interface{}) {
	stmt := node.GetRenameStmt()
	if stmt == nil {
		return
	}
	data["TableName"] = relationName(stmt.GetRelation())
	data["NewName"] = stmt.GetNewname()
}

func extractDropColumn(node *pg_query.Node, data map[string]interface{}) {
	stmt := node.GetAlterTableStmt()
	if stmt == nil {
		return
	}
	data["TableName"] = relationName(stmt.GetRelation())
	for _, c := range stmt.GetCmds() {
		cmd := c.GetAlterTableCmd()
		if cmd != nil && cmd.GetSubtype() == pg_query.AlterTableType_AT_DropColumn {
			data["ColumnName"] = cmd.GetName()
			break
		}
	}
}

func extractDropTable(node *pg_query.Node, data map[string]interface{}) {
	stmt := node.GetDropStmt()
	if stmt == nil || len(stmt.GetObjects()) == 0 {
		return
	}
	data["TableName"] = stringListJoin(stmt.GetObjects()[0].GetList().GetItems())
}

func extractTruncate(node *pg_query.Node, data map[string]interface{}) {
	stmt := node.GetTruncateStmt()
	if stmt == nil || len(stmt.GetRelations()) == 0 {
		return
	}
	data["TableName"] = relationName(stmt.GetRelations()[0].GetRangeVar())
	data["BatchPredicate"] = "id BETWEEN ? AND ?"
}

func extractCreateIndex(node *pg_query.Node, data map[string]interface{}) {
	stmt := node.GetIndexStmt()
	if stmt == nil {
		return
	}
	data["TableName"] = relationName(stmt.GetRelation())
	data["IndexName"] = stmt.GetIdxname()
	var cols []string
	for _, p := range stmt.GetIndexParams() {
		if elem := p.GetIndexElem(); elem != nil && elem.GetName() != "" {
			cols = append(cols, elem.GetName())
		}
	}
	data["Columns"] = strings.Join(cols, ", ")
}

func extractDropIndex(node *pg_query.Node, data map[string]interface{}) {
	stmt := node.GetDropStmt()
	if stmt == nil || len(stmt.GetObjects()) == 0 {
		return
	}
	data["IndexName"] = stringListJoin(stmt.GetObjects()[0].GetList().GetItems())
}

func stringListJoin(items []*pg_query.Node) string {
	return stringListJoinSep(items, ".")
}

func stringListJoinSep(items []*pg_query.Node, sep string) string {
	var parts []string
	for _, item := range items {
		if s := item.GetString_(); s != nil {
			parts = append(parts, s.GetSval())
		}
	}
	return strings.Join(parts, sep)
}

// rawExprText renders a constraint's raw expression node as best-effort
// SQL text. pg_query_go's deparser only round-trips whole statements, not
// arbitrary expression subtrees, so constants are rendered directly, a
// function call is rendered as its bare name followed by "()" (its
// arguments are dropped), and anything else falls back to a placeholder
// rather than a best-effort guess that could mislead a reader copying the
// suggested rewrite.
func rawExprText(n *pg_query.Node) string {
	if n == nil {
		return "NULL"
	}
	if c := n.GetAConst(); c != nil {
		switch {
		case c.GetIval() != nil:
			return intConstText(c)
		case c.GetSval() != nil:
			return "'" + c.GetSval().GetSval() + "'"
		case c.GetBoolval() != nil:
			if c.GetBoolval().GetBoolval() {
				return "true"
			}
			return "false"
		}
	}
	if fc := n.GetFuncCall(); fc != nil && len(fc.GetFuncname()) > 0 {
		if s := fc.GetFuncname()[len(fc.GetFuncname())-1].GetString_(); s != nil {
			return s.GetSval() + "()"
		}
	}
	return "<expression>"
}

func intConstText(c *pg_query.A_Const) string {
	return strconv.Itoa(int(c.GetIval().GetIval()))
}
