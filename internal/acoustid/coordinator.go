package acoustid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"tuneprint/internal/fingerprint"
	"tuneprint/internal/logging"
	"tuneprint/internal/media"
	"tuneprint/internal/services"
)

// Meta is the set of linked entities requested with every lookup.
const Meta = "recordings releasegroups releases tracks compress sources"

// Outcome classifies how a lookup ended.
type Outcome int

const (
	OutcomeMatched Outcome = iota
	OutcomeNoMatch
	OutcomeNoFingerprint
	OutcomeNetworkError
	OutcomeServiceError
	OutcomeParseError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMatched:
		return "matched"
	case OutcomeNoMatch:
		return "no_match"
	case OutcomeNoFingerprint:
		return "no_fingerprint"
	case OutcomeNetworkError:
		return "network_error"
	case OutcomeServiceError:
		return "service_error"
	case OutcomeParseError:
		return "parse_error"
	default:
		return "unknown"
	}
}

// Failed reports whether the outcome is an error rather than an answer.
func (o Outcome) Failed() bool {
	return o != OutcomeMatched && o != OutcomeNoMatch
}

// Result is what the caller receives for one analyzed file. Empty
// Recordings with a nil Err means the service knew no match.
type Result struct {
	File       *media.File
	Recordings []ScoredRecording
	Outcome    Outcome
	Err        error
	RawBody    []byte
}

// Callback receives exactly one Result per request.
type Callback func(Result)

// Transport sends a lookup request and returns the raw reply body.
type Transport interface {
	Lookup(ctx context.Context, params url.Values) ([]byte, error)
}

// Recorder persists lookup replies for later inspection.
type Recorder interface {
	Record(ctx context.Context, file *media.File, raw []byte, recordings []ScoredRecording) error
}

// Fingerprinter is the part of fingerprint.Pool the coordinator drives.
type Fingerprinter interface {
	Enqueue(ctx context.Context, task fingerprint.Task)
	Cancel(key media.Key) int
}

var _ Fingerprinter = (*fingerprint.Pool)(nil)

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithRecorder stores every decoded reply through rec.
func WithRecorder(rec Recorder) CoordinatorOption {
	return func(c *Coordinator) { c.recorder = rec }
}

// WithIgnoreExistingFingerprints forces fpcalc even when tags carry a fingerprint.
func WithIgnoreExistingFingerprints(ignore bool) CoordinatorOption {
	return func(c *Coordinator) { c.ignoreExisting = ignore }
}

// WithCoordinatorLogger sets the coordinator logger.
func WithCoordinatorLogger(logger *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) { c.logger = logger }
}

// Coordinator chains fingerprinting, lookup, and scoring for one file at a time.
type Coordinator struct {
	pool           Fingerprinter
	transport      Transport
	recorder       Recorder
	ignoreExisting bool
	logger         *slog.Logger
}

// NewCoordinator wires a coordinator. transport may be nil for fingerprint-only use.
func NewCoordinator(pool Fingerprinter, transport Transport, opts ...CoordinatorOption) (*Coordinator, error) {
	if pool == nil {
		return nil, errors.New("fingerprint pool required")
	}
	c := &Coordinator{pool: pool, transport: transport}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "acoustid")
	return c, nil
}

// Resolve looks file up, reusing a fingerprint computed earlier in this run
// or, unless ignored, one embedded in its tags. Without either it queues
// fpcalc first.
func (c *Coordinator) Resolve(ctx context.Context, file *media.File, callback Callback) {
	fp, computedDuration := file.Fingerprint()
	duration := file.LengthSeconds()
	if fp != "" && duration == 0 {
		duration = computedDuration
	}
	if fp == "" && !c.ignoreExisting {
		if cached := file.MetadataFingerprints(); len(cached) > 0 {
			fp = cached[0]
			logging.WithContext(ctx, c.logger).Debug("using fingerprint from tags",
				logging.String(logging.FieldFile, file.Path()))
		}
	}
	if fp != "" {
		c.Lookup(ctx, file, fingerprint.FromFingerprint(fp, duration), callback)
		return
	}
	c.Compute(ctx, file, func(result fingerprint.Result) {
		c.Lookup(ctx, file, result, callback)
	})
}

// Compute queues fpcalc for file regardless of any cached fingerprint and
// stores a successful result on the file.
func (c *Coordinator) Compute(ctx context.Context, file *media.File, done func(fingerprint.Result)) {
	c.pool.Enqueue(ctx, fingerprint.Task{
		Key:  file.Key(),
		Path: file.Path(),
		Done: func(result fingerprint.Result) {
			if result.Kind == fingerprint.KindFingerprint {
				file.SetFingerprint(result.Data, result.Duration)
			}
			if done != nil {
				done(result)
			}
		},
	})
}

// Cancel drops pending fingerprint work for file.
func (c *Coordinator) Cancel(file *media.File) int {
	return c.pool.Cancel(file.Key())
}

// Lookup queries the service with fp. A None fingerprint is reported
// straight back without a request.
func (c *Coordinator) Lookup(ctx context.Context, file *media.File, fp fingerprint.Result, callback Callback) {
	logger := logging.WithContext(ctx, c.logger).With(logging.String(logging.FieldFile, file.Path()))
	if fp.Kind == fingerprint.KindNone {
		logger.Debug("no fingerprint, skipping lookup")
		callback(Result{
			File:    file,
			Outcome: OutcomeNoFingerprint,
			Err:     services.Wrap(services.ErrNotFound, "lookup", "fingerprint", file.Path(), ErrNoFingerprint),
		})
		return
	}
	if c.transport == nil {
		callback(Result{
			File:    file,
			Outcome: OutcomeNetworkError,
			Err:     services.Wrap(services.ErrConfiguration, "lookup", "transport", "no lookup transport configured", nil),
		})
		return
	}

	params := lookupParams(fp)
	logger.Debug("looking up fingerprint", logging.String("kind", fp.Kind.String()))
	go func() {
		body, err := c.transport.Lookup(ctx, params)
		c.onLookupResponse(ctx, file, body, err, callback)
	}()
}

func lookupParams(fp fingerprint.Result) url.Values {
	params := url.Values{}
	params.Set("meta", Meta)
	switch fp.Kind {
	case fingerprint.KindRecordingID:
		params.Set("recordingid", fp.RecordingID)
	default:
		params.Set("fingerprint", fp.Data)
		params.Set("duration", strconv.Itoa(fp.Duration))
	}
	return params
}

func (c *Coordinator) onLookupResponse(ctx context.Context, file *media.File, body []byte, err error, callback Callback) {
	logger := logging.WithContext(ctx, c.logger).With(logging.String(logging.FieldFile, file.Path()))
	result := Result{File: file, RawBody: body}

	if err != nil {
		result.Outcome = OutcomeNetworkError
		result.Err = services.Wrap(services.ErrTransient, "lookup", "acoustid request", file.Path(), err)
		logging.ErrorWithContext(logger, "acoustid lookup network error", "lookup_network_error",
			logging.Error(err),
			logging.String("body", string(body)),
			logging.String(logging.FieldErrorHint, "check network access and acoustid.base_url"))
		callback(result)
		return
	}

	doc, err := Decode(body)
	switch {
	case err != nil:
		result.Outcome = OutcomeParseError
		result.Err = services.Wrap(services.ErrValidation, "lookup", "decode reply", file.Path(), err)
		logging.ErrorWithContext(logger, "acoustid reply unreadable", "lookup_parse_error", logging.Error(err))
	case doc.Status != StatusOK:
		result.Outcome = OutcomeServiceError
		result.Err = fmt.Errorf("%w: %s", ErrServiceStatus, doc.ServiceMessage())
		logging.ErrorWithContext(logger, "acoustid lookup failed", "lookup_service_error",
			logging.String("service_error", doc.ServiceMessage()),
			logging.String(logging.FieldErrorHint, "verify acoustid.api_key"))
	default:
		recordings, parseErr := Parse(doc)
		if parseErr != nil {
			result.Outcome = OutcomeParseError
			result.Err = services.Wrap(services.ErrValidation, "lookup", "score reply", file.Path(), parseErr)
			break
		}
		result.Recordings = recordings
		result.Outcome = OutcomeNoMatch
		if len(recordings) > 0 {
			result.Outcome = OutcomeMatched
		}
		for i, rec := range recordings {
			logger.Debug("acoustid match",
				logging.Int("rank", i+1),
				logging.String("acoustid", rec.AcoustID),
				logging.String("recording_id", rec.ID),
				logging.Int("sources", rec.Sources),
				logging.Float64("score", rec.Score))
		}
		logger.Info("acoustid lookup complete",
			logging.String("outcome", result.Outcome.String()),
			logging.Int("recordings", len(recordings)))
	}

	if c.recorder != nil {
		if recErr := c.recorder.Record(ctx, file, body, result.Recordings); recErr != nil {
			logging.WarnWithContext(logger, "match details not recorded", "matchlog_write_failed",
				logging.Error(recErr),
				logging.String(logging.FieldImpact, "matches show will not list this lookup"))
		}
	}
	callback(result)
}
