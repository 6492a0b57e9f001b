package rules

import "github.com/pgfence/pgfence/internal/parser"

// BuiltIn returns the full built-in rule catalogue from spec §4.3.
func BuiltIn() []Rule {
	var all []Rule
	all = append(all, AlterTableRules()...)
	all = append(all, ObjectRules()...)
	all = append(all, DMLRules()...)
	all = append(all, StyleRules()...)
	return all
}

// RunAll runs every rule in ruleset against stmt and returns the
// concatenated findings. Per spec §4.3, every rule runs on every
// statement; rule enable/disable and suppression are selection concerns
// applied afterwards, not here.
func RunAll(ruleset []Rule, stmt parser.Statement, cfg Config) []CheckResult {
	var results []CheckResult
	for _, rule := range ruleset {
		for _, r := range rule.Func(stmt, cfg) {
			if r.RuleID == "" {
				r.RuleID = rule.ID
			}
			results = append(results, r)
		}
	}
	return results
}
