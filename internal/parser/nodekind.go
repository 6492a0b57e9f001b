package parser

import pg_query "github.com/pganalyze/pg_query_go/v6"

// NodeKind returns the AST node kind tag for node — a string naming the
// underlying PostgreSQL grammar node type, e.g. "AlterTableStmt". Returns
// "" for a nil node and "Unknown" for a node kind this module has no name
// for (rules simply never match it).
func NodeKind(node *pg_query.Node) string {
	if node == nil {
		return ""
	}
	switch {
	case node.GetAlterTableStmt() != nil:
		return "AlterTableStmt"
	case node.GetIndexStmt() != nil:
		return "IndexStmt"
	case node.GetDropStmt() != nil:
		return "DropStmt"
	case node.GetRenameStmt() != nil:
		return "RenameStmt"
	case node.GetTruncateStmt() != nil:
		return "TruncateStmt"
	case node.GetDeleteStmt() != nil:
		return "DeleteStmt"
	case node.GetUpdateStmt() != nil:
		return "UpdateStmt"
	case node.GetInsertStmt() != nil:
		return "InsertStmt"
	case node.GetSelectStmt() != nil:
		return "SelectStmt"
	case node.GetMergeStmt() != nil:
		return "MergeStmt"
	case node.GetVacuumStmt() != nil:
		return "VacuumStmt"
	case node.GetAlterEnumStmt() != nil:
		return "AlterEnumStmt"
	case node.GetReindexStmt() != nil:
		return "ReindexStmt"
	case node.GetRefreshMatViewStmt() != nil:
		return "RefreshMatViewStmt"
	case node.GetCreateTrigStmt() != nil:
		return "CreateTrigStmt"
	case node.GetVariableSetStmt() != nil:
		return "VariableSetStmt"
	case node.GetTransactionStmt() != nil:
		return "TransactionStmt"
	case node.GetCreateStmt() != nil:
		return "CreateStmt"
	case node.GetCreateTableAsStmt() != nil:
		return "CreateTableAsStmt"
	case node.GetViewStmt() != nil:
		return "ViewStmt"
	case node.GetCreateSeqStmt() != nil:
		return "CreateSeqStmt"
	case node.GetCopyStmt() != nil:
		return "CopyStmt"
	case node.GetLockStmt() != nil:
		return "LockStmt"
	case node.GetCommentStmt() != nil:
		return "CommentStmt"
	case node.GetGrantStmt() != nil:
		return "GrantStmt"
	default:
		return "Unknown"
	}
}
