package fingerprint

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"tuneprint/internal/logging"
	"tuneprint/internal/media"
)

const (
	DefaultMaxProcesses   = 2
	DefaultMaxLength      = 120
	DefaultProcessTimeout = 300 * time.Second
)

// Option configures the pool.
type Option func(*Pool)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(p *Pool) {
		if exec != nil {
			p.exec = exec
		}
	}
}

// WithMaxProcesses bounds the number of concurrent fpcalc processes.
func WithMaxProcesses(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.maxProcesses = n
		}
	}
}

// WithMaxLength sets the number of seconds of audio fpcalc analyses.
func WithMaxLength(seconds int) Option {
	return func(p *Pool) {
		if seconds > 0 {
			p.maxLength = seconds
		}
	}
}

// WithProcessTimeout caps the wall-clock time of a single process. Zero disables the cap.
func WithProcessTimeout(timeout time.Duration) Option {
	return func(p *Pool) {
		if timeout >= 0 {
			p.timeout = timeout
		}
	}
}

// WithLogger sets the pool logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		p.logger = logger
	}
}

// Pool runs fpcalc for queued Tasks with bounded concurrency.
type Pool struct {
	binary       string
	maxProcesses int
	maxLength    int
	timeout      time.Duration
	exec         Executor
	logger       *slog.Logger

	mu      sync.Mutex
	pending []queued
	running int
}

type queued struct {
	ctx  context.Context
	task Task
}

// process tracks one started fpcalc instance.
type process struct {
	task    Task
	ctx     context.Context
	cancel  context.CancelFunc
	started time.Time
	done    atomic.Bool
}

// New constructs a pool that runs binary.
func New(binary string, opts ...Option) (*Pool, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("fpcalc binary required")
	}
	pool := &Pool{
		binary:       binary,
		maxProcesses: DefaultMaxProcesses,
		maxLength:    DefaultMaxLength,
		timeout:      DefaultProcessTimeout,
		exec:         commandExecutor{},
	}
	for _, opt := range opts {
		opt(pool)
	}
	pool.logger = logging.NewComponentLogger(pool.logger, "fingerprint")
	return pool, nil
}

// Enqueue appends task to the queue and starts it right away when a slot is free.
// ctx supplies log fields; cancelling it does not stop a started process.
func (p *Pool) Enqueue(ctx context.Context, task Task) {
	if ctx == nil {
		ctx = context.Background()
	}
	if task.Key == "" {
		task.Key = media.KeyFor(task.Path)
	}
	p.mu.Lock()
	p.pending = append(p.pending, queued{ctx: ctx, task: task})
	depth := len(p.pending)
	p.mu.Unlock()

	logging.WithContext(ctx, p.logger).Debug("fingerprint queued",
		logging.String(logging.FieldFile, task.Path),
		logging.Int("pending", depth))
	p.dispatchNext()
}

// Cancel removes every pending task for key and returns how many were removed.
// Running processes are left alone.
func (p *Pool) Cancel(key media.Key) int {
	p.mu.Lock()
	kept := p.pending[:0]
	removed := 0
	for _, item := range p.pending {
		if item.task.Key == key {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	for i := len(kept); i < len(p.pending); i++ {
		p.pending[i] = queued{}
	}
	p.pending = kept
	p.mu.Unlock()

	if removed > 0 {
		p.logger.Debug("pending fingerprints cancelled",
			logging.String("key", string(key)),
			logging.Int("removed", removed))
	}
	return removed
}

// Running reports the number of live processes.
func (p *Pool) Running() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Pending reports the number of queued tasks.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// MaxProcesses reports the concurrency bound.
func (p *Pool) MaxProcesses() int { return p.maxProcesses }

func (p *Pool) args(path string) []string {
	return []string{"-json", "-length", strconv.Itoa(p.maxLength), path}
}

func (p *Pool) dispatchNext() {
	p.mu.Lock()
	if p.running >= p.maxProcesses || len(p.pending) == 0 {
		p.mu.Unlock()
		return
	}
	next := p.pending[0]
	p.pending[0] = queued{}
	p.pending = p.pending[1:]
	p.running++
	p.mu.Unlock()

	runCtx := context.WithoutCancel(next.ctx)
	var cancel context.CancelFunc
	if p.timeout > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, p.timeout)
	} else {
		runCtx, cancel = context.WithCancel(runCtx)
	}
	proc := &process{task: next.task, ctx: next.ctx, cancel: cancel, started: time.Now()}

	args := p.args(next.task.Path)
	logging.WithContext(next.ctx, p.logger).Debug("starting fpcalc",
		logging.String(logging.FieldFile, next.task.Path),
		logging.String("command", p.binary+" "+strings.Join(args, " ")))

	err := p.exec.Start(runCtx, p.binary, args, Events{
		Finished: func(exitCode int, stdout []byte) { p.onFinished(proc, exitCode, stdout) },
		Failed:   func(err error) { p.onError(proc, err) },
	})
	if err != nil {
		p.onError(proc, err)
	}
}

// release frees the process slot and hands it to the next pending task.
func (p *Pool) release(proc *process) {
	proc.cancel()
	p.mu.Lock()
	p.running--
	p.mu.Unlock()
	p.dispatchNext()
}

func (p *Pool) onFinished(proc *process, exitCode int, stdout []byte) {
	if !proc.done.CompareAndSwap(false, true) {
		return
	}
	p.release(proc)

	logger := logging.WithContext(proc.ctx, p.logger).With(logging.String(logging.FieldFile, proc.task.Path))
	result := None()
	if exitCode != 0 {
		logging.WarnWithContext(logger, "fpcalc exited with failure", "fpcalc_exit",
			logging.Int("exit_code", exitCode),
			logging.String(logging.FieldErrorHint, "check that the file is readable audio"))
	} else if parsed, err := ParseOutput(stdout); err != nil {
		logging.WarnWithContext(logger, "fpcalc output unusable", "fpcalc_output",
			logging.Error(err))
	} else {
		result = parsed
		logger.Debug("fingerprint computed",
			logging.Int("duration", parsed.Duration),
			logging.Duration("elapsed", time.Since(proc.started)))
	}
	p.deliver(proc, result)
}

func (p *Pool) onError(proc *process, err error) {
	if !proc.done.CompareAndSwap(false, true) {
		return
	}
	p.release(proc)

	logging.ErrorWithContext(logging.WithContext(proc.ctx, p.logger), "fpcalc failed", "fpcalc_error",
		logging.String(logging.FieldFile, proc.task.Path),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "verify fingerprint.fpcalc_path points at Chromaprint's fpcalc"))
	p.deliver(proc, None())
}

func (p *Pool) deliver(proc *process, result Result) {
	if proc.task.Done != nil {
		proc.task.Done(result)
	}
}
