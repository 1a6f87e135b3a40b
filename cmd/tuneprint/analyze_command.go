package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tuneprint/internal/acoustid"
	"tuneprint/internal/logging"
	"tuneprint/internal/media"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var forceFingerprint bool
	var all bool

	cmd := &cobra.Command{
		Use:   "analyze <file>...",
		Short: "Fingerprint files and look them up on AcoustID",
		Long: `Identify audio files.

Each file's fingerprint is taken from this run's cache or its ACOUSTID_FINGERPRINT
tag when present, otherwise computed with fpcalc (at most fingerprint.max_processes
at a time), then looked up on AcoustID. Interrupting the run cancels files that
have not started fingerprinting; running fpcalc processes are allowed to finish.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ctx.newPipeline(cmd, pipelineOptions{lookup: true})
			if err != nil {
				return err
			}
			defer p.close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			loaded, files := p.loadFiles(runCtx, args)
			reports := newReportSet(loaded)
			bar := newProgress(cmd.ErrOrStderr(), "Analyzing: ", len(files), !jsonOut && len(files) > 1 && shouldColorize(cmd.ErrOrStderr()))

			b := newBatch(len(files))
			stopWatch := stopPending(runCtx, p.analyzer, files, func(file *media.File) {
				if b.done(file.Key()) {
					reports.setCancelled(file)
					bar.increment()
				}
			})
			callback := func(res acoustid.Result) {
				if b.done(res.File.Key()) {
					reports.setResult(res)
					bar.increment()
				}
			}
			for _, file := range files {
				if forceFingerprint {
					p.analyzer.AnalyzeFresh(runCtx, file, callback)
				} else {
					p.analyzer.Analyze(runCtx, file, callback)
				}
			}
			b.wait()
			stopWatch()
			bar.finish()

			results := reports.snapshot()
			failed := countFailed(results)
			p.logger.Info("analysis finished",
				logging.Int("files", len(results)),
				logging.Int("failed", failed))

			if jsonOut {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), renderReports(results, all, shouldColorize(cmd.OutOrStdout())))
			}
			if err := runCtx.Err(); err != nil {
				return err
			}
			return failedSummary(failed, len(results))
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Write results as JSON")
	cmd.Flags().BoolVar(&forceFingerprint, "force-fingerprint", false, "Recompute fingerprints even when tags carry one")
	cmd.Flags().BoolVar(&all, "all", false, "List every candidate recording instead of the best one")
	return cmd
}
