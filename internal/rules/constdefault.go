package rules

import pg_query "github.com/pganalyze/pg_query_go/v6"

// isConstantDefault implements the strictly syntactic constant-default
// test from spec §4.3: only a bare literal (A_Const) or a TypeCast
// wrapping an A_Const counts as constant. Any function call, SQL value
// function, or other expression is non-constant.
//
// Open question (spec §9): this deliberately does not recurse into
// further cast layers or array literals — a TypeCast wrapping another
// TypeCast wrapping an A_Const is treated as non-constant. Do not broaden
// this without revisiting that decision.
func isConstantDefault(expr *pg_query.Node) bool {
	if expr == nil {
		return false
	}
	if expr.GetAConst() != nil {
		return true
	}
	if tc := expr.GetTypeCast(); tc != nil {
		return tc.GetArg().GetAConst() != nil
	}
	return false
}

// volatileDefaultFuncs are the function names treated as producing a
// non-constant (volatile) default, grounded on the same hardcoded list the
// teacher used for its analogous check.
var volatileDefaultFuncs = []string{
	"random", "now", "current_timestamp", "current_date", "current_time",
	"timeofday", "clock_timestamp", "statement_timestamp",
	"transaction_timestamp", "uuid_generate_v4", "gen_random_uuid",
}

func defaultExprOf(colDef *pg_query.ColumnDef) *pg_query.Node {
	for _, c := range colDef.GetConstraints() {
		constr := c.GetConstraint()
		if constr == nil {
			continue
		}
		if constr.GetContype() == pg_query.ConstrType_CONSTR_DEFAULT {
			return constr.GetRawExpr()
		}
	}
	return nil
}

func hasDefault(colDef *pg_query.ColumnDef) bool {
	return defaultExprOf(colDef) != nil
}

func hasNotNull(colDef *pg_query.ColumnDef) bool {
	for _, c := range colDef.GetConstraints() {
		constr := c.GetConstraint()
		if constr != nil && constr.GetContype() == pg_query.ConstrType_CONSTR_NOTNULL {
			return true
		}
	}
	return false
}

func hasGeneratedStored(colDef *pg_query.ColumnDef) bool {
	for _, c := range colDef.GetConstraints() {
		constr := c.GetConstraint()
		if constr != nil && constr.GetContype() == pg_query.ConstrType_CONSTR_GENERATED {
			return true
		}
	}
	return false
}
