// Package analysis implements the aggregator from spec §4.7: it drives a
// migration file through extraction, parsing, the rule engine, the policy
// engine, the visibility filter, and the risk adjuster, and assembles the
// single AnalysisResult a reporter renders.
package analysis

import (
	"github.com/google/uuid"

	"github.com/pgfence/pgfence/internal/extract"
	"github.com/pgfence/pgfence/internal/parser"
	"github.com/pgfence/pgfence/internal/plugin"
	"github.com/pgfence/pgfence/internal/policy"
	"github.com/pgfence/pgfence/internal/risk"
	"github.com/pgfence/pgfence/internal/rules"
	"github.com/pgfence/pgfence/internal/visibility"
)

// Config bundles every tunable the aggregator threads down to its stages.
type Config struct {
	Rules   rules.Config
	Policy  policy.Config
	Ruleset []rules.Rule
	Stats   *risk.StatsIndex
	Plugins []plugin.Plugin
}

// DefaultConfig wires the built-in rule catalogue with default rule and
// policy configuration and no stats snapshot.
func DefaultConfig() Config {
	return Config{
		Rules:   rules.DefaultConfig(),
		Policy:  policy.DefaultConfig(),
		Ruleset: rules.BuiltIn(),
	}
}

// Result is the AnalysisResult from spec §3: one file's complete output.
type Result struct {
	RunID              string
	File               string
	Findings           []rules.CheckResult
	Violations         []policy.Violation
	ExtractionWarnings []extract.Warning
	AutoCommit         bool
	MaxRisk            risk.Level
}

// File analyzes one migration file end to end: extraction (for non-SQL
// authoring formats), parsing, every rule against every statement,
// visibility filtering, row-count risk adjustment, and the policy engine's
// transaction-scoped walk. Its visibility filter only considers tables
// created earlier in its own body; call Batch instead when a file should
// also see tables created by earlier files.
func File(path string, cfg Config) (Result, error) {
	result, _, err := fileVisible(path, cfg, nil)
	return result, err
}

// Batch analyzes multiple migration files in caller-supplied order,
// folding the visibility filter's "tables created so far" set forward
// from each file into the next, per spec §4.5: a file sees tables created
// in all earlier files of the batch plus those created earlier in its own
// body.
func Batch(paths []string, cfg Config) ([]Result, error) {
	visible := map[string]bool{}
	results := make([]Result, 0, len(paths))
	for _, path := range paths {
		result, newVisible, err := fileVisible(path, cfg, visible)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
		visible = newVisible
	}
	return results, nil
}

func fileVisible(path string, cfg Config, priorTables map[string]bool) (Result, map[string]bool, error) {
	ext, err := extract.ExtractFile(path)
	if err != nil {
		return Result{}, nil, err
	}

	result, visible, err := analyzeSQLVisible(ext.SQL, cfg, ext.AutoCommit, priorTables)
	if err != nil {
		return Result{}, nil, err
	}
	result.File = path
	result.ExtractionWarnings = ext.Warnings
	result.AutoCommit = ext.AutoCommit
	return result, visible, nil
}

// SQL analyzes a raw SQL string (already extracted, or hand-authored)
// end to end.
func SQL(sql string, cfg Config) (Result, error) {
	result, _, err := analyzeSQLVisible(sql, cfg, false, nil)
	return result, err
}

func analyzeSQLVisible(sql string, cfg Config, autoCommit bool, priorTables map[string]bool) (Result, map[string]bool, error) {
	p := parser.New()
	parsed, err := p.ParseSQL(sql)
	if err != nil {
		return Result{}, nil, err
	}
	result, visible := analyzeStatements(parsed.Statements, cfg, autoCommit, priorTables)
	return result, visible, nil
}

func analyzeStatements(stmts []parser.Statement, cfg Config, autoCommit bool, priorTables map[string]bool) (Result, map[string]bool) {
	ruleset := cfg.Ruleset
	if ruleset == nil {
		ruleset = rules.BuiltIn()
	}

	visibleTables := visibility.Union(priorTables, nil)
	var findings []rules.CheckResult
	for _, stmt := range stmts {
		var stmtFindings []rules.CheckResult
		for _, r := range rules.RunAll(ruleset, stmt, cfg.Rules) {
			if stmt.Suppresses(r.RuleID) {
				continue
			}
			enrichSafeRewrite(&r, stmt)
			stmtFindings = append(stmtFindings, r)
		}
		findings = append(findings, visibility.Filter(stmtFindings, visibleTables)...)
		visibleTables = visibility.Union(visibleTables, visibility.NewTablesIn([]parser.Statement{stmt}))
	}

	for i := range findings {
		if findings[i].Table == nil {
			continue
		}
		if adjusted, ok := risk.AdjustForTable(cfg.Stats, *findings[i].Table, findings[i].BaseRisk); ok {
			findings[i].AdjustedRisk = &adjusted
		}
	}

	violations := policy.Run(stmts, cfg.Policy, autoCommit)
	for _, stmt := range stmts {
		violations = append(violations, plugin.RunPolicies(cfg.Plugins, stmt)...)
	}

	maxRisk := risk.Safe
	for _, f := range findings {
		maxRisk = risk.Max(maxRisk, f.EffectiveRisk())
	}

	return Result{
		RunID:      uuid.NewString(),
		Findings:   findings,
		Violations: violations,
		MaxRisk:    maxRisk,
	}, visibleTables
}
