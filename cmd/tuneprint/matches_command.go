package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"tuneprint/internal/matchlog"
	"tuneprint/internal/media"
)

func newMatchesCommand(ctx *commandContext) *cobra.Command {
	matchesCmd := &cobra.Command{
		Use:   "matches",
		Short: "Inspect recorded lookup replies and candidate details",
	}
	matchesCmd.AddCommand(newMatchesShowCommand(ctx))
	matchesCmd.AddCommand(newMatchesListCommand(ctx))
	matchesCmd.AddCommand(newMatchesClearCommand(ctx))
	return matchesCmd
}

func openMatchLog(ctx *commandContext, readOnly bool) (*matchlog.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	if readOnly {
		return matchlog.OpenReadOnly(cfg.MatchLog.Path)
	}
	return matchlog.Open(cfg.MatchLog.Path)
}

func newMatchesShowCommand(ctx *commandContext) *cobra.Command {
	var tsv bool
	var raw bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <file>",
		Short: "Show the candidates recorded for a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openMatchLog(ctx, true)
			if err != nil {
				return err
			}
			defer store.Close()

			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve %q: %w", args[0], err)
			}
			reply, entries, err := store.Show(cmd.Context(), media.KeyFor(path))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case jsonOut:
				return writeJSON(cmd, map[string]any{
					"path":        reply.Path,
					"run_id":      reply.RunID,
					"recorded_at": reply.RecordedAt,
					"entries":     entries,
				})
			case raw:
				fmt.Fprintln(out, reply.RawJSON)
			case tsv:
				fmt.Fprintln(out, matchlog.TSVHeader)
				for _, entry := range entries {
					fmt.Fprintln(out, entry.FormatTSV())
				}
			default:
				fmt.Fprintf(out, "%s (recorded %s, run %s)\n", reply.Path, reply.RecordedAt.Local().Format(time.DateTime), reply.RunID)
				if len(entries) == 0 {
					fmt.Fprintln(out, "No candidates")
					return nil
				}
				for _, entry := range entries {
					fmt.Fprintln(out, entry.FormatLabelled())
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&tsv, "tsv", false, "Write entries as tab-separated values with a header row")
	cmd.Flags().BoolVar(&raw, "raw", false, "Write the raw AcoustID reply")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Write entries as JSON")
	return cmd
}

func newMatchesListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List files with recorded lookups",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openMatchLog(ctx, true)
			if err != nil {
				return err
			}
			defer store.Close()

			summaries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(summaries) == 0 {
				fmt.Fprintln(out, "No recorded lookups")
				return nil
			}
			rows := make([][]string, 0, len(summaries))
			for _, s := range summaries {
				rows = append(rows, []string{
					s.Path,
					s.RecordedAt.Local().Format(time.DateTime),
					strconv.Itoa(s.Entries),
					fmt.Sprintf("%.1f", s.BestScore),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"File", "Recorded", "Entries", "Best"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}
}

func newMatchesClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every recorded lookup",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openMatchLog(ctx, false)
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d recorded lookups\n", removed)
			return nil
		},
	}
}
