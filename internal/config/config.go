// Package config assembles the immutable RunConfig the analyzer core
// consumes from CLI flags: stats/snapshot file loading (validated against
// an embedded JSON Schema via santhosh-tekuri/jsonschema), passing
// through plugins the caller has already loaded, and rule enable/disable
// filtering. The cobra/viper flag binding itself
// lives in cmd/pgfence/flags, grounded on the same thin-wrapper pattern.
package config

import (
	"github.com/pgfence/pgfence/internal/analysis"
	"github.com/pgfence/pgfence/internal/plugin"
	"github.com/pgfence/pgfence/internal/policy"
	"github.com/pgfence/pgfence/internal/risk"
	"github.com/pgfence/pgfence/internal/rules"
)

// RunConfig is the fully-resolved configuration for one `analyze`
// invocation, after flags, stats/snapshot files, and plugins are loaded.
type RunConfig struct {
	MinPGVersion int
	MaxRisk      risk.Level
	CI           bool

	Stats    *risk.StatsIndex
	Snapshot *Snapshot
	Plugins  []plugin.Plugin

	Policy policy.Config

	EnableRules  []string
	DisableRules []string
}

// AnalysisConfig assembles the analysis.Config the core aggregator takes,
// wiring every built-in and plugin rule through the enable/disable filter.
func (rc RunConfig) AnalysisConfig() analysis.Config {
	all := rules.BuiltIn()
	for _, p := range rc.Plugins {
		all = append(all, p.Rules()...)
	}

	return analysis.Config{
		Rules:   rules.Config{MinPGVersion: rc.MinPGVersion, PreviewWidth: 80},
		Policy:  rc.Policy,
		Ruleset: FilterRules(all, rc.EnableRules, rc.DisableRules),
		Stats:   rc.Stats,
		Plugins: rc.Plugins,
	}
}
