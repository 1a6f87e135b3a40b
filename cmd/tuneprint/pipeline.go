package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/spf13/cobra"

	"tuneprint/internal/acoustid"
	"tuneprint/internal/config"
	"tuneprint/internal/fingerprint"
	"tuneprint/internal/logging"
	"tuneprint/internal/matchlog"
	"tuneprint/internal/media"
)

type pipelineOptions struct {
	lookup bool
}

// pipeline is the wired set of components one command run uses.
type pipeline struct {
	cfg      *config.Config
	logger   *slog.Logger
	loader   media.Loader
	pool     *fingerprint.Pool
	analyzer *acoustid.Analyzer
	store    *matchlog.Store
}

func (c *commandContext) newPipeline(cmd *cobra.Command, opts pipelineOptions) (*pipeline, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	pool, err := fingerprint.New(cfg.FpcalcBinary(),
		fingerprint.WithMaxProcesses(cfg.Fingerprint.MaxProcesses),
		fingerprint.WithMaxLength(cfg.Fingerprint.MaxLengthSeconds),
		fingerprint.WithProcessTimeout(cfg.ProcessTimeout()),
		fingerprint.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	p := &pipeline{
		cfg:    cfg,
		logger: logger,
		loader: media.Loader{FFprobeBinary: cfg.FFprobeBinary(), Logger: logger},
		pool:   pool,
	}

	coordOpts := []acoustid.CoordinatorOption{
		acoustid.WithIgnoreExistingFingerprints(cfg.AcoustID.IgnoreExistingFingerprints),
		acoustid.WithCoordinatorLogger(logger),
	}
	var transport acoustid.Transport
	if opts.lookup {
		if err := cfg.RequireAPIKey(); err != nil {
			return nil, err
		}
		client, err := acoustid.New(cfg.AcoustID.APIKey, cfg.AcoustID.BaseURL, cfg.LookupTimeout())
		if err != nil {
			return nil, err
		}
		transport = client

		if cfg.MatchLog.Enabled {
			store, err := matchlog.Open(cfg.MatchLog.Path)
			if err != nil {
				logging.WarnWithContext(logger, "match log unavailable", "matchlog_open_failed",
					logging.Error(err),
					logging.String("path", cfg.MatchLog.Path),
					logging.String(logging.FieldErrorHint, "another tuneprint run may hold the log; set match_log.enabled = false to silence"),
					logging.String(logging.FieldImpact, "lookup replies from this run are not recorded"))
			} else {
				p.store = store
				coordOpts = append(coordOpts, acoustid.WithRecorder(store))
			}
		}
	}

	coordinator, err := acoustid.NewCoordinator(pool, transport, coordOpts...)
	if err != nil {
		_ = p.close()
		return nil, err
	}
	p.analyzer = acoustid.NewAnalyzer(coordinator)
	return p, nil
}

func (p *pipeline) close() error {
	if p == nil || p.store == nil {
		return nil
	}
	return p.store.Close()
}

type loadedFile struct {
	arg  string
	file *media.File
	err  error
}

// loadFiles resolves every argument in order. Arguments that resolve to an
// already loaded file are dropped; load failures are kept with their error.
func (p *pipeline) loadFiles(ctx context.Context, paths []string) ([]loadedFile, []*media.File) {
	loaded := make([]loadedFile, 0, len(paths))
	files := make([]*media.File, 0, len(paths))
	seen := make(map[media.Key]bool, len(paths))
	for _, path := range paths {
		file, err := p.loader.Load(ctx, path)
		if err != nil {
			loaded = append(loaded, loadedFile{arg: path, err: err})
			continue
		}
		if seen[file.Key()] {
			continue
		}
		seen[file.Key()] = true
		loaded = append(loaded, loadedFile{arg: path, file: file})
		files = append(files, file)
	}
	return loaded, files
}

// batch tracks outstanding callbacks so a run can wait for all of them and
// account for files whose pending work was cancelled.
type batch struct {
	wg       sync.WaitGroup
	mu       sync.Mutex
	finished map[media.Key]bool
}

func newBatch(n int) *batch {
	b := &batch{finished: make(map[media.Key]bool, n)}
	b.wg.Add(n)
	return b
}

// done marks key finished; it returns false for a key already finished.
func (b *batch) done(key media.Key) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finished[key] {
		return false
	}
	b.finished[key] = true
	b.wg.Done()
	return true
}

func (b *batch) wait() { b.wg.Wait() }

// stopPending cancels pending work for every file once ctx is done and
// reports the cancelled ones through onCancel.
func stopPending(ctx context.Context, analyzer *acoustid.Analyzer, files []*media.File, onCancel func(*media.File)) (stop func()) {
	finished := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			for _, file := range files {
				if analyzer.StopAnalyze(file) > 0 {
					onCancel(file)
				}
			}
		case <-finished:
		}
	}()
	return func() { close(finished) }
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

var errSomeFailed = errors.New("one or more files failed")

func failedSummary(failed, total int) error {
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d", errSomeFailed, failed, total)
}
