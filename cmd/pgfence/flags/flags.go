// Package flags binds the analyze subcommand's flags into viper, mirroring
// the thin-wrapper pattern of registering a flag then exposing a
// package-level getter function for it.
package flags

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func Format() string            { return viper.GetString("FORMAT") }
func Output() string            { return viper.GetString("OUTPUT") }
func DBURL() string             { return viper.GetString("DB_URL") }
func StatsFile() string         { return viper.GetString("STATS_FILE") }
func MinPGVersion() int         { return viper.GetInt("MIN_PG_VERSION") }
func MaxRisk() string           { return viper.GetString("MAX_RISK") }
func CI() bool                  { return viper.GetBool("CI") }
func NoLockTimeout() bool       { return viper.GetBool("NO_LOCK_TIMEOUT") }
func NoStatementTimeout() bool  { return viper.GetBool("NO_STATEMENT_TIMEOUT") }
func MaxLockTimeout() int       { return viper.GetInt("MAX_LOCK_TIMEOUT") }
func MaxStatementTimeout() int  { return viper.GetInt("MAX_STATEMENT_TIMEOUT") }
func DisableRules() []string    { return viper.GetStringSlice("DISABLE_RULES") }
func EnableRules() []string     { return viper.GetStringSlice("ENABLE_RULES") }
func Snapshot() string          { return viper.GetString("SNAPSHOT") }
func Plugins() []string         { return viper.GetStringSlice("PLUGIN") }
func NoColor() bool             { return viper.GetBool("NO_COLOR") }

// AnalyzeFlags registers every analyze-subcommand flag from spec §6 and
// binds each to its viper key.
func AnalyzeFlags(cmd *cobra.Command) {
	f := cmd.Flags()

	f.String("format", "auto", "accepted but not applied: the input format is always detected from each file's extension and content")
	f.String("output", "cli", "report format: cli, json, github, sarif")
	f.String("db-url", "", "Postgres URL to fetch live table statistics from pg_stat_user_tables")
	f.String("stats-file", "", "path to a JSON table-statistics file, ignored if --db-url is given")
	f.Int("min-pg-version", 11, "minimum PostgreSQL server version the migration must run against")
	f.String("max-risk", "high", "maximum tolerated risk level before --ci fails: safe, low, medium, high, critical")
	f.Bool("ci", false, "exit 1 if any file's effective maximum risk exceeds --max-risk, or an error-severity policy violation is present")
	f.Bool("no-lock-timeout", false, "disable the missing-lock_timeout policy requirement")
	f.Bool("no-statement-timeout", false, "disable the missing-statement_timeout policy requirement")
	f.Int("max-lock-timeout", 5000, "ceiling, in milliseconds, above which a SET lock_timeout is itself flagged")
	f.Int("max-statement-timeout", 600_000, "ceiling, in milliseconds, above which a SET statement_timeout is itself flagged")
	f.StringSlice("disable-rules", nil, "rule IDs to disable")
	f.StringSlice("enable-rules", nil, "rule IDs to exclusively enable")
	f.String("snapshot", "", "path to a schema-snapshot JSON file")
	f.StringSlice("plugin", nil, "paths to Go plugin (.so) files exporting rules and policies")
	f.Bool("no-color", false, "disable colored cli output")

	viper.BindPFlag("FORMAT", f.Lookup("format"))
	viper.BindPFlag("OUTPUT", f.Lookup("output"))
	viper.BindPFlag("DB_URL", f.Lookup("db-url"))
	viper.BindPFlag("STATS_FILE", f.Lookup("stats-file"))
	viper.BindPFlag("MIN_PG_VERSION", f.Lookup("min-pg-version"))
	viper.BindPFlag("MAX_RISK", f.Lookup("max-risk"))
	viper.BindPFlag("CI", f.Lookup("ci"))
	viper.BindPFlag("NO_LOCK_TIMEOUT", f.Lookup("no-lock-timeout"))
	viper.BindPFlag("NO_STATEMENT_TIMEOUT", f.Lookup("no-statement-timeout"))
	viper.BindPFlag("MAX_LOCK_TIMEOUT", f.Lookup("max-lock-timeout"))
	viper.BindPFlag("MAX_STATEMENT_TIMEOUT", f.Lookup("max-statement-timeout"))
	viper.BindPFlag("DISABLE_RULES", f.Lookup("disable-rules"))
	viper.BindPFlag("ENABLE_RULES", f.Lookup("enable-rules"))
	viper.BindPFlag("SNAPSHOT", f.Lookup("snapshot"))
	viper.BindPFlag("PLUGIN", f.Lookup("plugin"))
	viper.BindPFlag("NO_COLOR", f.Lookup("no-color"))
}
