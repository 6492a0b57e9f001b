// Package rules implements the built-in rule catalogue: pure functions
// over one parsed statement that each emit zero or more CheckResults. No
// rule mutates state or consults any other statement; all cross-statement
// reasoning lives in internal/policy.
package rules

import (
	"github.com/pgfence/pgfence/internal/locks"
	"github.com/pgfence/pgfence/internal/parser"
	"github.com/pgfence/pgfence/internal/risk"
)

// Config is the immutable configuration rules may consult. It never
// changes while a rule runs.
type Config struct {
	// MinPGVersion is the minimum PostgreSQL server version migrations
	// must run against, affecting rules 2/4/29. Default 11.
	MinPGVersion int

	// PreviewWidth truncates CheckResult.Preview, defaulting to 80.
	PreviewWidth int
}

// DefaultConfig returns the Config a bare CLI invocation uses.
func DefaultConfig() Config {
	return Config{MinPGVersion: 11, PreviewWidth: 80}
}

// SafeRewrite is the concrete, actionable recipe attached to HIGH/CRITICAL
// findings (and advisory notes on some LOW findings), per spec §4.3.
type SafeRewrite struct {
	Description string
	Steps       []string
}

// CheckResult is the output unit of a rule.
type CheckResult struct {
	// Statement is the original (trimmed) SQL text the rule matched.
	Statement string

	// Preview is a comment-stripped, whitespace-collapsed, truncated
	// rendering of Statement suitable for human-facing messages.
	Preview string

	// Table is the target table name, or nil if the statement has none
	// (e.g. a SET statement).
	Table *string

	// Lock is the lock mode the statement acquires on Table.
	Lock locks.Mode

	// Blocked is derived from Lock.
	Blocked locks.Blocked

	// BaseRisk is the risk level from the rule catalogue, before any
	// row-count adjustment.
	BaseRisk risk.Level

	// AdjustedRisk is set by internal/risk's adjuster once a stats
	// snapshot is available; nil until then.
	AdjustedRisk *risk.Level

	// Message is a human-readable explanation.
	Message string

	// RuleID uniquely identifies the rule that produced this result.
	// Plugin-contributed rule IDs carry a "plugin:" prefix.
	RuleID string

	// SafeRewrite is present for every HIGH/CRITICAL finding, and for
	// some LOW findings as an advisory note.
	SafeRewrite *SafeRewrite

	// AppliesToNewTables opts this finding out of visibility-filter
	// suppression for tables created earlier in the same batch.
	AppliesToNewTables bool
}

// EffectiveRisk returns AdjustedRisk if present, else BaseRisk.
func (c CheckResult) EffectiveRisk() risk.Level {
	if c.AdjustedRisk != nil {
		return *c.AdjustedRisk
	}
	return c.BaseRisk
}

// Rule is a pure function over one parsed statement plus the immutable
// config, producing zero or more findings. Rules never consult other
// statements.
type Rule struct {
	ID   string
	Func func(stmt parser.Statement, cfg Config) []CheckResult
}

func tablePtr(name string) *string {
	if name == "" {
		return nil
	}
	return &name
}

func newResult(stmt parser.Statement, ruleID string, table string, lock locks.Mode, baseRisk risk.Level, message string, cfg Config) CheckResult {
	return CheckResult{
		Statement: stmt.SQL,
		Preview:   parser.Preview(stmt.SQL, previewWidth(cfg)),
		Table:     tablePtr(table),
		Lock:      lock,
		Blocked:   locks.BlockedFor(lock),
		BaseRisk:  baseRisk,
		Message:   message,
		RuleID:    ruleID,
	}
}

func previewWidth(cfg Config) int {
	if cfg.PreviewWidth <= 0 {
		return 80
	}
	return cfg.PreviewWidth
}
