package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tuneprint/internal/acoustid"
	"tuneprint/internal/fingerprint"
	"tuneprint/internal/logging"
	"tuneprint/internal/media"
)

func newFingerprintCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "fingerprint <file>...",
		Short: "Compute Chromaprint fingerprints without looking them up",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ctx.newPipeline(cmd, pipelineOptions{})
			if err != nil {
				return err
			}
			defer p.close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			loaded, files := p.loadFiles(runCtx, args)
			reports := newReportSet(loaded)
			bar := newProgress(cmd.ErrOrStderr(), "Fingerprinting: ", len(files), !jsonOut && len(files) > 1 && shouldColorize(cmd.ErrOrStderr()))

			b := newBatch(len(files))
			stopWatch := stopPending(runCtx, p.analyzer, files, func(file *media.File) {
				if b.done(file.Key()) {
					reports.setCancelled(file)
					bar.increment()
				}
			})
			for _, file := range files {
				p.analyzer.Fingerprint(runCtx, file, func(res fingerprint.Result) {
					if !b.done(file.Key()) {
						return
					}
					reports.update(file, func(r *fileReport) {
						if res.Kind == fingerprint.KindFingerprint {
							r.Outcome = outcomeFingerprinted
							r.Fingerprint = res.Data
							r.Duration = res.Duration
							return
						}
						r.Outcome = acoustid.OutcomeNoFingerprint.String()
					})
					bar.increment()
				})
			}
			b.wait()
			stopWatch()
			bar.finish()

			results := reports.snapshot()
			failed := countFailed(results)
			p.logger.Info("fingerprinting finished",
				logging.Int("files", len(results)),
				logging.Int("failed", failed))
			if jsonOut {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					detail := r.Error
					if r.Fingerprint != "" {
						detail = truncate(r.Fingerprint, 48)
					}
					duration := ""
					if r.Duration > 0 {
						duration = fmt.Sprintf("%d", r.Duration)
					}
					rows = append(rows, []string{r.Path, colorOutcome(r.Outcome, shouldColorize(cmd.OutOrStdout())), duration, detail})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"File", "Outcome", "Seconds", "Fingerprint"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
				))
			}
			if err := runCtx.Err(); err != nil {
				return err
			}
			return failedSummary(failed, len(results))
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Write fingerprints as JSON")
	return cmd
}
