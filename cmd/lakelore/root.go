package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zero-day-ai/lakelore/cmd/lakelore/internal"
	"github.com/zero-day-ai/lakelore/internal/config"
	"github.com/zero-day-ai/lakelore/internal/graph"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const defaultConfigFile = "lakelore.yaml"

// cli carries state shared by every command of one invocation.
type cli struct {
	flags GlobalFlags
	cfg   *config.Config

	// newGraphClient builds the database client; tests substitute a mock.
	newGraphClient func(graph.GraphClientConfig) (graph.GraphClient, error)
}

func newCLI() *cli {
	return &cli{
		newGraphClient: func(cfg graph.GraphClientConfig) (graph.GraphClient, error) {
			return graph.NewNeo4jClient(cfg)
		},
	}
}

// Execute runs the root command with signal handling
func Execute(ctx context.Context, rootCmd *cobra.Command) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

func newRootCmd(c *cli) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lakelore",
		Short: "lakelore - lake gazetteer and poetry knowledge graph explorer",
		Long: `lakelore reads a Neo4j knowledge graph linking lakes to the
gazetteers and poems that mention them. Results are cached in process;
use --no-cache to always query the database.`,
		PersistentPreRunE: c.loadConfig,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	RegisterGlobalFlags(rootCmd, &c.flags)

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newStatsCmd(c))
	rootCmd.AddCommand(newRankingsCmd(c))
	rootCmd.AddCommand(newLakesCmd(c))
	rootCmd.AddCommand(newLakeCmd(c))
	rootCmd.AddCommand(newGazetteersCmd(c))
	rootCmd.AddCommand(newPoemsCmd(c))
	rootCmd.AddCommand(newLocationsCmd(c))
	rootCmd.AddCommand(newCacheCmd(c))
	rootCmd.AddCommand(newDiagnoseCmd(c))
	rootCmd.AddCommand(newServeCmd(c))

	return rootCmd
}

// loadConfig is called before any command runs to validate flags and load
// configuration.
func (c *cli) loadConfig(cmd *cobra.Command, args []string) error {
	if _, err := c.flags.Format(); err != nil {
		return internal.WrapError(internal.ExitConfigError, "invalid --output", err)
	}

	switch cmd.Name() {
	case "version", "help", "completion":
		return nil
	}

	loader := config.NewConfigLoader(config.NewValidator())

	var (
		cfg *config.Config
		err error
	)
	if c.flags.ConfigFile != "" {
		cfg, err = loader.Load(c.flags.ConfigFile)
	} else {
		path := os.Getenv("LAKELORE_CONFIG")
		if path == "" {
			path = defaultConfigFile
		}
		cfg, err = loader.LoadWithDefaults(path)
	}
	if err != nil {
		return internal.WrapError(internal.ExitConfigError, "failed to load configuration", err)
	}

	if c.flags.Verbose {
		cfg.Logging.Level = "debug"
	}
	c.cfg = cfg
	return nil
}

// formatter returns the output formatter for cmd's standard output.
func (c *cli) formatter(w io.Writer) internal.Formatter {
	format, _ := c.flags.Format()
	return internal.NewFormatter(format, w)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("lakelore " + version)
		},
	}
}
