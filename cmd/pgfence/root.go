package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set at build time via -ldflags.
var Version = "development"

func init() {
	viper.SetEnvPrefix("PGFENCE")
	viper.AutomaticEnv()
}

// newRootCommand builds a fresh root command tree. It is not a package
// variable because each CLI invocation (including repeated ones in tests)
// must start from a clean cobra/viper flag registration.
func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "pgfence",
		Short:        "Static safety analyzer for PostgreSQL schema migrations",
		Version:      Version,
		SilenceUsage: true,
	}
	root.AddCommand(analyzeCmd())
	return root
}
