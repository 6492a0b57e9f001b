package policy

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/pgfence/pgfence/internal/locks"
	"github.com/pgfence/pgfence/internal/parser"
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

// accessExclusiveAlterSubtypes are the AlterTableCmd subtypes that hold
// ACCESS EXCLUSIVE for the policy engine's purposes, per spec §4.4 point 3.
var accessExclusiveAlterSubtypes = map[pg_query.AlterTableType]bool{
	pg_query.AlterTableType_AT_DropColumn:      true,
	pg_query.AlterTableType_AT_AlterColumnType: true,
	pg_query.AlterTableType_AT_SetNotNull:      true,
	pg_query.AlterTableType_AT_DropConstraint:  true,
}

// statementLock computes the target table and the lock mode acquired by
// stmt, for policy-engine lock-tracking purposes. ok is false when the
// statement has no single clearly-identified table lock (e.g. a SET
// statement) or doesn't participate in the lock map at all.
func statementLock(stmt parser.Statement) (table string, mode locks.Mode, ok bool) {
	node := stmt.Node

	if at := node.GetAlterTableStmt(); at != nil {
		table = relationName(at.GetRelation())
		strongest := locks.AccessShare
		for _, c := range at.GetCmds() {
			cmd := c.GetAlterTableCmd()
			if cmd == nil {
				continue
			}
			m, _ := alterCmdLock(cmd)
			strongest = locks.Stronger(strongest, m)
		}
		// Every subtype contributes the mode the rule catalogue reports
		// for it, including AddColumn and other not-policy-counted
		// subtypes that still acquire ACCESS EXCLUSIVE physically, so
		// wide-lock-window logic sees them; isAccessExclusiveForPolicy
		// below gates whether the statement counts for compounding-lock
		// purposes.
		return table, strongest, true
	}

	if idx := node.GetIndexStmt(); idx != nil {
		table = relationName(idx.GetRelation())
		if idx.GetConcurrent() {
			return table, locks.ShareUpdateExclusive, true
		}
		return table, locks.Share, true
	}

	if drop := node.GetDropStmt(); drop != nil {
		return dropStmtTable(drop), locks.AccessExclusive, true
	}

	if tr := node.GetTruncateStmt(); tr != nil {
		if len(tr.GetRelations()) > 0 {
			return relationName(tr.GetRelations()[0].GetRangeVar()), locks.AccessExclusive, true
		}
		return "", locks.AccessExclusive, true
	}

	if ren := node.GetRenameStmt(); ren != nil {
		return relationName(ren.GetRelation()), locks.AccessExclusive, true
	}

	if ct := node.GetCreateTrigStmt(); ct != nil {
		return relationName(ct.GetRelation()), locks.ShareRowExclusive, true
	}

	if re := node.GetReindexStmt(); re != nil {
		return relationName(re.GetRelation()), locks.AccessExclusive, true
	}

	if rm := node.GetRefreshMatViewStmt(); rm != nil {
		if rm.GetConcurrent() {
			return relationName(rm.GetRelation()), locks.ShareUpdateExclusive, true
		}
		return relationName(rm.GetRelation()), locks.AccessExclusive, true
	}

	if upd := node.GetUpdateStmt(); upd != nil {
		return relationName(upd.GetRelation()), locks.RowExclusive, true
	}

	if del := node.GetDeleteStmt(); del != nil {
		return relationName(del.GetRelation()), locks.RowExclusive, true
	}

	return "", locks.AccessShare, false
}

func alterCmdLock(cmd *pg_query.AlterTableCmd) (locks.Mode, bool) {
	switch cmd.GetSubtype() {
	case pg_query.AlterTableType_AT_DropColumn,
		pg_query.AlterTableType_AT_AlterColumnType,
		pg_query.AlterTableType_AT_SetNotNull,
		pg_query.AlterTableType_AT_DropConstraint:
		return locks.AccessExclusive, true
	case pg_query.AlterTableType_AT_AddConstraint:
		if c := cmd.GetDef().GetConstraint(); c != nil && !c.GetSkipValidation() {
			return locks.AccessExclusive, true
		}
		return locks.AccessExclusive, false
	case pg_query.AlterTableType_AT_AttachPartition:
		return locks.AccessExclusive, true
	case pg_query.AlterTableType_AT_DetachPartition:
		pc := cmd.GetDef().GetPartitionCmd()
		if pc != nil && pc.GetConcurrent() {
			return locks.ShareUpdateExclusive, false
		}
		return locks.AccessExclusive, true
	case pg_query.AlterTableType_AT_ValidateConstraint:
		return locks.ShareUpdateExclusive, false
	case pg_query.AlterTableType_AT_EnableTrig,
		pg_query.AlterTableType_AT_EnableAlwaysTrig,
		pg_query.AlterTableType_AT_EnableReplicaTrig,
		pg_query.AlterTableType_AT_EnableTrigAll,
		pg_query.AlterTableType_AT_DisableTrig,
		pg_query.AlterTableType_AT_DisableTrigAll:
		return locks.ShareRowExclusive, false
	default:
		return locks.AccessExclusive, false
	}
}

func dropStmtTable(drop *pg_query.DropStmt) string {
	objs := drop.GetObjects()
	if len(objs) == 0 {
		return ""
	}
	list := objs[0].GetList()
	if list == nil {
		if s := objs[0].GetString_(); s != nil {
			return strings.ToLower(s.GetSval())
		}
		return ""
	}
	var parts []string
	for _, it := range list.GetItems() {
		if s := it.GetString_(); s != nil {
			parts = append(parts, strings.ToLower(s.GetSval()))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

// isAccessExclusiveForPolicy implements spec §4.4 point 3's precise
// definition of which statements "count" as holding ACCESS EXCLUSIVE for
// compounding-lock / wide-lock-window purposes. This is narrower than
// "acquires locks.AccessExclusive in the lock map" — e.g. ADD COLUMN
// physically takes ACCESS EXCLUSIVE but does not count here.
func isAccessExclusiveForPolicy(stmt parser.Statement) bool {
	node := stmt.Node

	if at := node.GetAlterTableStmt(); at != nil {
		for _, c := range at.GetCmds() {
			cmd := c.GetAlterTableCmd()
			if cmd == nil {
				continue
			}
			if _, counts := alterCmdLock(cmd); counts {
				return true
			}
		}
		return false
	}

	if drop := node.GetDropStmt(); drop != nil {
		switch drop.GetRemoveType() {
		case pg_query.ObjectType_OBJECT_TABLE, pg_query.ObjectType_OBJECT_INDEX, pg_query.ObjectType_OBJECT_TRIGGER:
			return true
		}
		return false
	}

	if node.GetTruncateStmt() != nil {
		return true
	}
	if node.GetRenameStmt() != nil {
		return true
	}
	if node.GetCreateTrigStmt() != nil {
		return true
	}
	if re := node.GetReindexStmt(); re != nil {
		return !defElemHasName(re.GetParams(), "concurrently")
	}
	if rm := node.GetRefreshMatViewStmt(); rm != nil {
		return !rm.GetConcurrent()
	}

	return false
}

func defElemHasName(opts []*pg_query.Node, name string) bool {
	for _, o := range opts {
		if d := o.GetDefElem(); d != nil && strings.EqualFold(d.GetDefname(), name) {
			return true
		}
	}
	return false
}
