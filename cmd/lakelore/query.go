package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"github.com/zero-day-ai/lakelore/cmd/lakelore/internal"
	"github.com/zero-day-ai/lakelore/internal/store"
)

const excerptLen = 60

func newStatsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show lake, gazetteer, poem and location counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), cmd.ErrOrStderr(), func(a *app) error {
				stats, err := a.store.GetOverallStats(cmd.Context(), c.flags.UseCache())
				if err != nil {
					return err
				}
				rows := [][]string{
					{"lakes", strconv.Itoa(stats.LakeCount)},
					{"gazetteers", strconv.Itoa(stats.GazetteerCount)},
					{"poems", strconv.Itoa(stats.PoemCount)},
					{"locations", strconv.Itoa(stats.LocationCount)},
				}
				return c.formatter(cmd.OutOrStdout()).PrintResult(stats, []string{"entity", "count"}, rows)
			})
		},
	}
}

func newRankingsCmd(c *cli) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "rankings",
		Short: "Rank lakes by total mentions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return internal.NewCLIError(internal.ExitError, "--limit must not be negative")
			}
			return c.withApp(cmd.Context(), cmd.ErrOrStderr(), func(a *app) error {
				stats, err := a.store.GetLakeStats(cmd.Context(), c.flags.UseCache())
				if err != nil {
					return err
				}
				if limit > 0 && len(stats) > limit {
					stats = stats[:limit]
				}
				rows := make([][]string, 0, len(stats))
				for i, s := range stats {
					rows = append(rows, []string{
						strconv.Itoa(i + 1),
						s.LakeName,
						strconv.Itoa(s.GazetteerCount),
						strconv.Itoa(s.PoemCount),
						strconv.Itoa(s.TotalMentions),
					})
				}
				return c.formatter(cmd.OutOrStdout()).PrintResult(stats,
					[]string{"rank", "lake", "gazetteers", "poems", "total"}, rows)
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Show only the top N lakes (0 for all)")
	return cmd
}

func newLakesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "lakes",
		Short: "List every lake with its location and mention counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), cmd.ErrOrStderr(), func(a *app) error {
				lakes, err := a.store.GetAllLakes(cmd.Context(), c.flags.UseCache())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(lakes))
				for _, l := range lakes {
					rows = append(rows, []string{
						l.Name,
						orDash(l.Location),
						strconv.Itoa(l.GazetteerCount),
						strconv.Itoa(l.PoemCount),
						strconv.Itoa(l.TotalMentions),
					})
				}
				return c.formatter(cmd.OutOrStdout()).PrintResult(lakes,
					[]string{"name", "location", "gazetteers", "poems", "total"}, rows)
			})
		},
	}
}

func newLakeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "lake <name>",
		Short: "Show the gazetteers and poems mentioning one lake",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			return c.withApp(cmd.Context(), cmd.ErrOrStderr(), func(a *app) error {
				detail, err := a.store.GetLakeDetails(cmd.Context(), name, c.flags.UseCache())
				if err != nil {
					return err
				}
				if detail == nil {
					return internal.NewCLIError(internal.ExitNotFound, fmt.Sprintf("lake %q not found", name))
				}

				out := cmd.OutOrStdout()
				format, _ := c.flags.Format()
				if format != internal.FormatText {
					return c.formatter(out).PrintData(detail)
				}
				return printLakeDetail(out, c.formatter(out), detail)
			})
		},
	}
}

func printLakeDetail(w io.Writer, f internal.Formatter, d *store.LakeDetail) error {
	fmt.Fprintf(w, "Lake:     %s\n", d.LakeName)
	fmt.Fprintf(w, "Location: %s\n\n", orDash(d.Location))

	fmt.Fprintf(w, "Gazetteers (%d)\n", len(d.Gazetteers))
	if len(d.Gazetteers) > 0 {
		rows := make([][]string, 0, len(d.Gazetteers))
		for _, g := range d.Gazetteers {
			rows = append(rows, []string{g.Source, excerpt(g.Content, excerptLen)})
		}
		if err := f.PrintTable([]string{"source", "content"}, rows); err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "\nPoems (%d)\n", len(d.Poems))
	if len(d.Poems) > 0 {
		rows := make([][]string, 0, len(d.Poems))
		for _, p := range d.Poems {
			rows = append(rows, []string{p.Name, excerpt(p.FullText, excerptLen)})
		}
		return f.PrintTable([]string{"name", "text"}, rows)
	}
	return nil
}

func newGazetteersCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "gazetteers",
		Short: "List gazetteers with the lakes they mention",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), cmd.ErrOrStderr(), func(a *app) error {
				gazetteers, err := a.store.GetAllGazetteers(cmd.Context(), c.flags.UseCache())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(gazetteers))
				for _, g := range gazetteers {
					rows = append(rows, []string{
						g.Source,
						strconv.Itoa(g.LakeCount),
						strings.Join(g.Lakes, ", "),
						excerpt(g.Content, excerptLen),
					})
				}
				return c.formatter(cmd.OutOrStdout()).PrintResult(gazetteers,
					[]string{"source", "lake_count", "lakes", "content"}, rows)
			})
		},
	}
}

func newPoemsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "poems",
		Short: "List poems with the lakes they mention",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), cmd.ErrOrStderr(), func(a *app) error {
				poems, err := a.store.GetAllPoems(cmd.Context(), c.flags.UseCache())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(poems))
				for _, p := range poems {
					rows = append(rows, []string{
						p.Name,
						strconv.Itoa(p.LakeCount),
						strings.Join(p.Lakes, ", "),
					})
				}
				return c.formatter(cmd.OutOrStdout()).PrintResult(poems,
					[]string{"name", "lake_count", "lakes"}, rows)
			})
		},
	}
}

func newLocationsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "locations",
		Short: "Show how many lakes lie in each location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), cmd.ErrOrStderr(), func(a *app) error {
				locations, err := a.store.GetLocationDistribution(cmd.Context(), c.flags.UseCache())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(locations))
				for _, l := range locations {
					rows = append(rows, []string{l.Location, strconv.Itoa(l.LakeCount)})
				}
				return c.formatter(cmd.OutOrStdout()).PrintResult(locations,
					[]string{"location", "lakes"}, rows)
			})
		},
	}
}

// excerpt returns the first line of s, cut to at most n runes.
func excerpt(s string, n int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
