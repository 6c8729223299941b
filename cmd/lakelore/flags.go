package main

import (
	"github.com/spf13/cobra"
	"github.com/zero-day-ai/lakelore/cmd/lakelore/internal"
)

// GlobalFlags holds global flags available to all commands
type GlobalFlags struct {
	Verbose      bool
	NoCache      bool
	OutputFormat string
	ConfigFile   string
}

// RegisterGlobalFlags registers persistent flags on the root command
func RegisterGlobalFlags(cmd *cobra.Command, flags *GlobalFlags) {
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable debug logging and detailed errors")
	cmd.PersistentFlags().BoolVar(&flags.NoCache, "no-cache", false, "Bypass the cache and query the database directly")
	cmd.PersistentFlags().StringVarP(&flags.OutputFormat, "output", "o", "text", "Output format (text|json|yaml)")
	cmd.PersistentFlags().StringVar(&flags.ConfigFile, "config", "", "Path to config file (default: $LAKELORE_CONFIG or ./lakelore.yaml)")
}

// Format returns the validated output format.
func (f *GlobalFlags) Format() (internal.OutputFormat, error) {
	return internal.ParseOutputFormat(f.OutputFormat)
}

// UseCache reports whether retrievals may be served from the cache.
func (f *GlobalFlags) UseCache() bool {
	return !f.NoCache
}
