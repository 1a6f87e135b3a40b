package acoustid

import (
	"context"

	"github.com/google/uuid"

	"tuneprint/internal/fingerprint"
	"tuneprint/internal/media"
	"tuneprint/internal/services"
)

// Analyzer is the entry point used by the CLI.
type Analyzer struct {
	coordinator *Coordinator
}

// NewAnalyzer wraps coordinator.
func NewAnalyzer(coordinator *Coordinator) *Analyzer {
	return &Analyzer{coordinator: coordinator}
}

// Analyze identifies file, computing a fingerprint only when none is cached.
func (a *Analyzer) Analyze(ctx context.Context, file *media.File, callback Callback) {
	a.coordinator.Resolve(withCorrelation(ctx), file, callback)
}

// AnalyzeFresh recomputes the fingerprint before looking it up.
func (a *Analyzer) AnalyzeFresh(ctx context.Context, file *media.File, callback Callback) {
	ctx = withCorrelation(ctx)
	a.coordinator.Compute(ctx, file, func(result fingerprint.Result) {
		a.coordinator.Lookup(ctx, file, result, callback)
	})
}

// Fingerprint computes the fingerprint of file through the pool, bypassing any cache.
func (a *Analyzer) Fingerprint(ctx context.Context, file *media.File, done func(fingerprint.Result)) {
	a.coordinator.Compute(withCorrelation(ctx), file, done)
}

// LookupRecording looks up a known recording id.
func (a *Analyzer) LookupRecording(ctx context.Context, file *media.File, recordingID string, callback Callback) {
	a.coordinator.Lookup(withCorrelation(ctx), file, fingerprint.FromRecordingID(recordingID), callback)
}

// StopAnalyze drops file's pending fingerprint work and returns how many
// tasks were removed. Work already running is unaffected.
func (a *Analyzer) StopAnalyze(file *media.File) int {
	return a.coordinator.Cancel(file)
}

func withCorrelation(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := services.RequestIDFromContext(ctx); ok {
		return ctx
	}
	return services.WithRequestID(ctx, uuid.NewString())
}
