package main

import (
	"sort"
	"sync"

	"tuneprint/internal/acoustid"
	"tuneprint/internal/media"
	"tuneprint/internal/services"
)

const (
	outcomeLoadError = "load_error"
	outcomeCancelled = "cancelled"
	// outcomeFingerprinted is the success outcome of fingerprint-only runs.
	outcomeFingerprinted = "fingerprinted"
)

type fileReport struct {
	Path        string                     `json:"path"`
	Outcome     string                     `json:"outcome"`
	FailureKind string                     `json:"failure_kind,omitempty"`
	Error       string                     `json:"error,omitempty"`
	Fingerprint string                     `json:"fingerprint,omitempty"`
	Duration    int                        `json:"duration,omitempty"`
	Matches     []acoustid.ScoredRecording `json:"matches,omitempty"`
}

func (r fileReport) failed() bool {
	switch r.Outcome {
	case acoustid.OutcomeMatched.String(), acoustid.OutcomeNoMatch.String(), outcomeFingerprinted:
		return false
	default:
		return true
	}
}

// reportSet collects per-file reports from concurrent callbacks, keeping argument order.
type reportSet struct {
	mu      sync.Mutex
	reports []fileReport
	index   map[media.Key]int
}

func newReportSet(loaded []loadedFile) *reportSet {
	set := &reportSet{
		reports: make([]fileReport, len(loaded)),
		index:   make(map[media.Key]int, len(loaded)),
	}
	for i, item := range loaded {
		if item.err != nil {
			set.reports[i] = fileReport{
				Path:        item.arg,
				Outcome:     outcomeLoadError,
				FailureKind: services.FailureKind(item.err),
				Error:       item.err.Error(),
			}
			continue
		}
		set.reports[i] = fileReport{Path: item.file.Path()}
		set.index[item.file.Key()] = i
	}
	return set
}

func (s *reportSet) update(file *media.File, fn func(*fileReport)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index[file.Key()]; ok {
		fn(&s.reports[i])
	}
}

func (s *reportSet) setResult(res acoustid.Result) {
	s.update(res.File, func(r *fileReport) {
		r.Outcome = res.Outcome.String()
		r.Error = errorText(res.Err)
		r.FailureKind = services.FailureKind(res.Err)
		r.Matches = sortedByScore(res.Recordings)
	})
}

func (s *reportSet) setCancelled(file *media.File) {
	s.update(file, func(r *fileReport) {
		r.Outcome = outcomeCancelled
	})
}

func (s *reportSet) snapshot() []fileReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]fileReport(nil), s.reports...)
}

func countFailed(reports []fileReport) int {
	failed := 0
	for _, r := range reports {
		if r.failed() {
			failed++
		}
	}
	return failed
}

func sortedByScore(recs []acoustid.ScoredRecording) []acoustid.ScoredRecording {
	if len(recs) == 0 {
		return nil
	}
	out := append([]acoustid.ScoredRecording(nil), recs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
