package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/zero-day-ai/lakelore/cmd/lakelore/internal"
	"github.com/zero-day-ai/lakelore/internal/api"
	"github.com/zero-day-ai/lakelore/internal/observability"
	"github.com/zero-day-ai/lakelore/internal/store"
)

// cacheReport is the cache command output.
type cacheReport struct {
	store.CacheInfo `yaml:",inline"`
	Refreshed       *bool `json:"refreshed,omitempty" yaml:"refreshed,omitempty"`
	Expired         *bool `json:"expired,omitempty" yaml:"expired,omitempty"`
}

func newCacheCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and refresh the data cache",
	}

	var maxAge time.Duration
	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Warm the cache and report what it holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), cmd.ErrOrStderr(), func(a *app) error {
				// The cache lives in process, so it is populated first.
				if _, err := a.store.EnsureInitialized(cmd.Context()); err != nil {
					return err
				}
				report := cacheReport{CacheInfo: a.store.GetCacheInfo()}
				if maxAge > 0 {
					expired := a.store.IsCacheExpired(maxAge)
					report.Expired = &expired
				}
				return printCacheReport(cmd, c, report)
			})
		},
	}
	infoCmd.Flags().DurationVar(&maxAge, "max-age", 0, "Also report whether the cache is older than this")

	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Reload every dataset from the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), cmd.ErrOrStderr(), func(a *app) error {
				ok, err := a.store.RefreshData(cmd.Context())
				if err != nil {
					return err
				}
				report := cacheReport{CacheInfo: a.store.GetCacheInfo(), Refreshed: &ok}
				return printCacheReport(cmd, c, report)
			})
		},
	}

	cmd.AddCommand(infoCmd, refreshCmd)
	return cmd
}

func printCacheReport(cmd *cobra.Command, c *cli, r cacheReport) error {
	lastUpdated := "never"
	if r.LastUpdated != nil {
		lastUpdated = r.LastUpdated.Format(time.RFC3339)
	}
	out := cmd.OutOrStdout()
	rows := [][]string{
		{"initialized", internal.Colorize(out, strconv.FormatBool(r.Initialized), r.Initialized)},
		{"last_updated", lastUpdated},
		{"overall_stats", strconv.FormatBool(r.DataTypes.OverallStats)},
		{"lake_stats", strconv.FormatBool(r.DataTypes.LakeStats)},
		{"all_lakes", strconv.FormatBool(r.DataTypes.AllLakes)},
		{"all_gazetteers", strconv.FormatBool(r.DataTypes.AllGazetteers)},
		{"all_poems", strconv.FormatBool(r.DataTypes.AllPoems)},
		{"location_distribution", strconv.FormatBool(r.DataTypes.LocationDistribution)},
		{"lake_details", strconv.Itoa(r.DataTypes.LakeDetailsCount)},
	}
	if r.Refreshed != nil {
		rows = append(rows, []string{"refreshed", internal.Colorize(out, strconv.FormatBool(*r.Refreshed), *r.Refreshed)})
	}
	if r.Expired != nil {
		rows = append(rows, []string{"expired", internal.Colorize(out, strconv.FormatBool(*r.Expired), !*r.Expired)})
	}
	return c.formatter(out).PrintResult(r, []string{"key", "value"}, rows)
}

func newDiagnoseCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "diagnose",
		Short: "Inspect the database labels, relationships and sample nodes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), cmd.ErrOrStderr(), func(a *app) error {
				diag, err := a.store.Diagnose(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				f := c.formatter(out)
				format, _ := c.flags.Format()
				if format != internal.FormatText {
					return f.PrintData(diag)
				}

				connected := diag.ConnectionState == store.StateConnected.String()
				fmt.Fprintf(out, "Connection:         %s\n", internal.Colorize(out, diag.ConnectionState, connected))
				fmt.Fprintf(out, "Total nodes:        %d\n", diag.TotalNodes)
				fmt.Fprintf(out, "Relationship types: %s\n\n", orDash(strings.Join(diag.RelationshipTypes, ", ")))

				rows := make([][]string, 0, len(diag.LabelCounts))
				for _, lc := range diag.LabelCounts {
					rows = append(rows, []string{lc.Label, strconv.Itoa(lc.Count)})
				}
				if err := f.PrintTable([]string{"label", "nodes"}, rows); err != nil {
					return err
				}

				if len(diag.Samples) == 0 {
					return nil
				}
				fmt.Fprintln(out)
				rows = make([][]string, 0, len(diag.Samples))
				for _, s := range diag.Samples {
					rows = append(rows, []string{strings.Join(s.Labels, ":"), strings.Join(s.Properties, ", ")})
				}
				return f.PrintTable([]string{"sample_labels", "properties"}, rows)
			})
		},
	}
}

func newServeCmd(c *cli) *cobra.Command {
	var (
		address string
		warm    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withApp(ctx, cmd.ErrOrStderr(), func(a *app) error {
				cfg := a.cfg.Server
				if address != "" {
					cfg.Address = address
				}

				monitor := observability.NewHealthMonitor(a.logger,
					a.metrics.MeterProvider().Meter(instrumentationName))
				monitor.Register("neo4j", a.store)

				opts := []api.Option{
					api.WithLogger(a.logger),
					api.WithHealthMonitor(monitor),
				}
				if a.metrics.Enabled() {
					opts = append(opts, api.WithMetricsHandler(a.metrics.Handler()))
				}

				if warm {
					go warmCache(ctx, a)
				}

				srv := api.NewServer(a.store, api.ServerConfig{
					Address:       cfg.Address,
					AllowedOrigin: cfg.AllowedOrigin,
					ReadTimeout:   cfg.ReadTimeout,
					WriteTimeout:  cfg.WriteTimeout,
				}, opts...)

				a.logger.Info("serving", "address", cfg.Address, "metrics", a.metrics.Enabled())
				return srv.ListenAndServe(ctx)
			})
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "Listen address (overrides server.address)")
	cmd.Flags().BoolVar(&warm, "warm", true, "Connect and preload the cache at startup")
	return cmd
}

// warmCache initializes the store in the background. Requests that arrive
// first join the same initialization.
func warmCache(ctx context.Context, a *app) {
	ok, err := a.store.EnsureInitialized(ctx)
	switch {
	case err != nil:
		a.logger.Warn("cache warm-up failed", "error", err)
	case !ok:
		a.logger.Warn("cache warm-up incomplete", "error", a.store.LastPreloadError())
	default:
		a.logger.Info("cache warmed", "lake_details", a.store.GetCacheInfo().DataTypes.LakeDetailsCount)
	}
}
