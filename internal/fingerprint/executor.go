package fingerprint

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"tuneprint/internal/services"
)

// Events receives the terminal signals of one process. Implementations may
// deliver Failed, Finished, or both; the pool acts on the first only.
type Events struct {
	Finished func(exitCode int, stdout []byte)
	Failed   func(err error)
}

// Executor starts fpcalc. Start returns an error only when the process could
// not be launched; every later outcome arrives through events.
type Executor interface {
	Start(ctx context.Context, binary string, args []string, events Events) error
}

const killGrace = 2 * time.Second

type commandExecutor struct{}

func (commandExecutor) Start(ctx context.Context, binary string, args []string, events Events) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = killGrace
	configureProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return services.Wrap(services.ErrExternalTool, "fingerprint", "start fpcalc", binary, err)
	}

	go func() {
		err := cmd.Wait()
		if ctxErr := ctx.Err(); ctxErr != nil {
			// The kill also surfaces as an abnormal exit, mirrored as a second signal.
			events.Failed(services.Wrap(services.ErrTimeout, "fingerprint", "wait fpcalc", "process killed", ctxErr))
			events.Finished(-1, stdout.Bytes())
			return
		}
		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			events.Failed(services.Wrap(services.ErrExternalTool, "fingerprint", "wait fpcalc", "", err))
			return
		}
		code := cmd.ProcessState.ExitCode()
		if code < 0 {
			events.Failed(services.Wrap(services.ErrExternalTool, "fingerprint", "wait fpcalc",
				fmt.Sprintf("crashed (%s): %s", cmd.ProcessState, strings.TrimSpace(stderr.String())), nil))
		}
		events.Finished(code, stdout.Bytes())
	}()
	return nil
}
