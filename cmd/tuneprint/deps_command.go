package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"tuneprint/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check that fpcalc and ffprobe are installed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			missing := false
			for _, status := range deps.CheckBinaries(deps.Requirements(cfg.FpcalcBinary(), cfg.FFprobeBinary())) {
				switch {
				case status.Available:
					fmt.Fprintln(out, renderStatusLine(status.Name, statusOK, status.Command, colorize))
				case status.Optional:
					fmt.Fprintln(out, renderStatusLine(status.Name, statusWarn, status.Detail+"; "+status.Description+" disabled", colorize))
				default:
					missing = true
					fmt.Fprintln(out, renderStatusLine(status.Name, statusError, status.Detail+"; "+status.Description, colorize))
				}
			}
			if missing {
				return errors.New("required dependencies are missing")
			}
			return nil
		},
	}
}
