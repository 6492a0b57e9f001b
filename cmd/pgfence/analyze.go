package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pgfence/pgfence/cmd/pgfence/flags"
	"github.com/pgfence/pgfence/internal/analysis"
	"github.com/pgfence/pgfence/internal/config"
	"github.com/pgfence/pgfence/internal/extract"
	"github.com/pgfence/pgfence/internal/parser"
	"github.com/pgfence/pgfence/internal/pgferr"
	"github.com/pgfence/pgfence/internal/plugin"
	"github.com/pgfence/pgfence/internal/policy"
	"github.com/pgfence/pgfence/internal/report"
	"github.com/pgfence/pgfence/internal/risk"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [files...]",
		Short: "Analyze one or more migration files for unsafe lock behavior",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAnalyze,
	}
	flags.AnalyzeFlags(cmd)
	return cmd
}

// ciFailure signals the --ci exit-1 condition: it is not a pgferr fatal
// error, so it must be distinguished from parse/IO/argument failures when
// main() maps the returned error to a process exit code.
type ciFailure struct{}

func (ciFailure) Error() string { return "ci threshold exceeded" }

func runAnalyze(cmd *cobra.Command, args []string) error {
	runCfg, err := buildRunConfig()
	if err != nil {
		return err
	}

	results, err := analysis.Batch(args, runCfg.AnalysisConfig())
	if err != nil {
		return err
	}

	coverages := map[string]report.Coverage{}
	for _, path := range args {
		coverages[path] = coverageFor(path)
	}

	format := report.Format(flags.Output())
	if err := report.Render(format, results, coverages, os.Stdout); err != nil {
		return pgferr.Argument("render report", err)
	}

	if runCfg.CI && ciThresholdExceeded(results, runCfg.MaxRisk) {
		return ciFailure{}
	}
	return nil
}

// coverageFor recomputes the statement/dynamic-statement counts for path
// independently of the analysis result, since extraction warnings are
// counted against the parser's statement total rather than the filtered
// finding list.
func coverageFor(path string) report.Coverage {
	ext, err := extract.ExtractFile(path)
	if err != nil {
		return report.Coverage{}
	}
	p := parser.New()
	parsed, err := p.ParseSQL(ext.SQL)
	if err != nil {
		return report.Coverage{}
	}
	return report.NewCoverage(len(parsed.Statements), len(ext.Warnings))
}

func ciThresholdExceeded(results []analysis.Result, maxRisk risk.Level) bool {
	for _, r := range results {
		if r.MaxRisk > maxRisk {
			return true
		}
		for _, v := range r.Violations {
			if v.Severity == policy.SeverityError {
				return true
			}
		}
	}
	return false
}

func buildRunConfig() (config.RunConfig, error) {
	maxRisk, ok := risk.ParseLevel(flags.MaxRisk())
	if !ok {
		return config.RunConfig{}, pgferr.Argument("--max-risk", fmt.Errorf("unknown risk level %q", flags.MaxRisk()))
	}

	rc := config.RunConfig{
		MinPGVersion: flags.MinPGVersion(),
		MaxRisk:      maxRisk,
		CI:           flags.CI(),
		EnableRules:  flags.EnableRules(),
		DisableRules: flags.DisableRules(),
		Policy: policy.Config{
			RequireLockTimeout:        !flags.NoLockTimeout(),
			RequireStatementTimeout:   !flags.NoStatementTimeout(),
			MaxLockTimeoutMillis:      flags.MaxLockTimeout(),
			MaxStatementTimeoutMillis: flags.MaxStatementTimeout(),
		},
	}

	if dbURL := flags.DBURL(); dbURL != "" {
		stats, err := risk.FetchDBStats(context.Background(), dbURL)
		if err != nil {
			return config.RunConfig{}, pgferr.IO("fetch db stats", err)
		}
		rc.Stats = risk.NewStatsIndex(stats)
	} else if statsFile := flags.StatsFile(); statsFile != "" {
		stats, err := config.LoadStats(statsFile)
		if err != nil {
			return config.RunConfig{}, err
		}
		rc.Stats = risk.NewStatsIndex(stats)
	}

	if snapshotPath := flags.Snapshot(); snapshotPath != "" {
		snap, err := config.LoadSnapshot(snapshotPath)
		if err != nil {
			return config.RunConfig{}, err
		}
		rc.Snapshot = snap
	}

	if pluginPaths := flags.Plugins(); len(pluginPaths) > 0 {
		plugins, err := plugin.Load(pluginPaths)
		if err != nil {
			return config.RunConfig{}, err
		}
		rc.Plugins = plugins
	}

	return rc, nil
}
