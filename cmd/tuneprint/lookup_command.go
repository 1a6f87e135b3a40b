package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tuneprint/internal/acoustid"
)

func newLookupCommand(ctx *commandContext) *cobra.Command {
	var recordingID string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "lookup --recording-id <mbid> <file>",
		Short: "Look up a known MusicBrainz recording id on AcoustID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recordingID = strings.TrimSpace(recordingID)
			if recordingID == "" {
				return errors.New("--recording-id is required")
			}
			p, err := ctx.newPipeline(cmd, pipelineOptions{lookup: true})
			if err != nil {
				return err
			}
			defer p.close()

			loaded, files := p.loadFiles(cmd.Context(), args)
			reports := newReportSet(loaded)
			if len(files) == 1 {
				done := make(chan struct{})
				p.analyzer.LookupRecording(cmd.Context(), files[0], recordingID, func(res acoustid.Result) {
					reports.setResult(res)
					close(done)
				})
				<-done
			}

			results := reports.snapshot()
			if jsonOut {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), renderReports(results, true, shouldColorize(cmd.OutOrStdout())))
			}
			return failedSummary(countFailed(results), len(results))
		},
	}

	cmd.Flags().StringVar(&recordingID, "recording-id", "", "MusicBrainz recording id")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Write results as JSON")
	return cmd
}
