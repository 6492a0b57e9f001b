package rules

import (
	"fmt"

	"github.com/pgfence/pgfence/internal/locks"
	"github.com/pgfence/pgfence/internal/parser"
	"github.com/pgfence/pgfence/internal/risk"
)

// DMLRules covers catalogue row 27: DELETE without WHERE.
func DMLRules() []Rule {
	return []Rule{
		{ID: "delete-without-where", Func: ruleDeleteWithoutWhere},
	}
}

func ruleDeleteWithoutWhere(stmt parser.Statement, cfg Config) []CheckResult {
	del := stmt.Node.GetDeleteStmt()
	if del == nil || del.GetWhereClause() != nil {
		return nil
	}
	table := relationName(del.GetRelation())
	r := newResult(stmt, "delete-without-where", table, locks.RowExclusive, risk.High,
		fmt.Sprintf("DELETE FROM %s with no WHERE clause removes every row", table), cfg)
	r.SafeRewrite = &SafeRewrite{
		Description: "Scope the delete, or use TRUNCATE if clearing the whole table is intended",
		Steps:       []string{fmt.Sprintf("DELETE FROM %s WHERE <condition>;", table)},
	}
	return []CheckResult{r}
}
