package acoustid

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"tuneprint/internal/fingerprint"
	"tuneprint/internal/media"
	"tuneprint/internal/services"
)

type fakePool struct {
	mu       sync.Mutex
	tasks    []fingerprint.Task
	canceled []media.Key
}

func (p *fakePool) Enqueue(_ context.Context, task fingerprint.Task) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks = append(p.tasks, task)
}

func (p *fakePool) Cancel(key media.Key) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.canceled = append(p.canceled, key)
	removed := 0
	kept := p.tasks[:0]
	for _, task := range p.tasks {
		if task.Key == key {
			removed++
			continue
		}
		kept = append(kept, task)
	}
	p.tasks = kept
	return removed
}

func (p *fakePool) enqueued() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tasks)
}

func (p *fakePool) task(t *testing.T, i int) fingerprint.Task {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	if i >= len(p.tasks) {
		t.Fatalf("expected task %d, have %d", i, len(p.tasks))
	}
	return p.tasks[i]
}

type fakeTransport struct {
	mu     sync.Mutex
	body   string
	err    error
	params []url.Values
}

func (f *fakeTransport) Lookup(_ context.Context, params url.Values) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params = append(f.params, params)
	return []byte(f.body), f.err
}

func (f *fakeTransport) calls() []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]url.Values(nil), f.params...)
}

type fakeRecorder struct {
	mu   sync.Mutex
	raws []string
	recs [][]ScoredRecording
}

func (r *fakeRecorder) Record(_ context.Context, _ *media.File, raw []byte, recs []ScoredRecording) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.raws = append(r.raws, string(raw))
	r.recs = append(r.recs, recs)
	return nil
}

type results struct {
	ch chan Result
}

func newResults() *results { return &results{ch: make(chan Result, 4)} }

func (r *results) callback(res Result) { r.ch <- res }

func (r *results) wait(t *testing.T) Result {
	t.Helper()
	select {
	case res := <-r.ch:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback")
		return Result{}
	}
}

func (r *results) expectNoMore(t *testing.T) {
	t.Helper()
	select {
	case extra := <-r.ch:
		t.Fatalf("unexpected extra callback %+v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

const okBody = `{"status":"ok","results":[{"id":"acid-1","score":1.0,"recordings":[{"id":"r1","sources":1},{"id":"r2","sources":2},{"id":"r3","sources":4}]}]}`

func newTestCoordinator(t *testing.T, pool Fingerprinter, transport Transport, opts ...CoordinatorOption) *Coordinator {
	t.Helper()
	c, err := NewCoordinator(pool, transport, opts...)
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}
	return c
}

func TestResolveUsesTagFingerprintWithoutPool(t *testing.T) {
	pool := &fakePool{}
	transport := &fakeTransport{body: okBody}
	coord := newTestCoordinator(t, pool, transport)
	file := media.NewFile("/music/a.flac", 187900*time.Millisecond, "AQAAcached")

	res := newResults()
	coord.Resolve(context.Background(), file, res.callback)
	got := res.wait(t)
	res.expectNoMore(t)

	if pool.enqueued() != 0 {
		t.Fatalf("expected cache hit to bypass the pool, got %d tasks", pool.enqueued())
	}
	calls := transport.calls()
	if len(calls) != 1 {
		t.Fatalf("expected one lookup, got %d", len(calls))
	}
	params := calls[0]
	if params.Get("fingerprint") != "AQAAcached" || params.Get("duration") != "187" || params.Get("meta") != Meta {
		t.Fatalf("unexpected params %v", params)
	}
	if got.Outcome != OutcomeMatched || len(got.Recordings) != 3 || got.Err != nil {
		t.Fatalf("unexpected result %+v", got)
	}
	if got.Recordings[2].Score != 100 || got.Recordings[0].Score != 25 {
		t.Fatalf("unexpected scores %+v", got.Recordings)
	}
}

func TestResolveIgnoresTagFingerprintWhenConfigured(t *testing.T) {
	pool := &fakePool{}
	transport := &fakeTransport{body: okBody}
	coord := newTestCoordinator(t, pool, transport, WithIgnoreExistingFingerprints(true))
	file := media.NewFile("/music/a.flac", 0, "AQAAcached")

	res := newResults()
	coord.Resolve(context.Background(), file, res.callback)
	if pool.enqueued() != 1 {
		t.Fatalf("expected fpcalc to be queued, got %d tasks", pool.enqueued())
	}
	pool.task(t, 0).Done(fingerprint.FromFingerprint("AQAAfresh", 61))
	res.wait(t)

	if fp, duration := file.Fingerprint(); fp != "AQAAfresh" || duration != 61 {
		t.Fatalf("computed fingerprint not stored: %q %d", fp, duration)
	}
	params := transport.calls()[0]
	if params.Get("fingerprint") != "AQAAfresh" || params.Get("duration") != "61" {
		t.Fatalf("unexpected params %v", params)
	}
}

func TestResolveReusesComputedFingerprint(t *testing.T) {
	pool := &fakePool{}
	transport := &fakeTransport{body: okBody}
	coord := newTestCoordinator(t, pool, transport, WithIgnoreExistingFingerprints(true))
	file := media.NewFile("/music/a.flac", 200*time.Second)
	file.SetFingerprint("AQAAearlier", 199)

	res := newResults()
	coord.Resolve(context.Background(), file, res.callback)
	res.wait(t)
	if pool.enqueued() != 0 {
		t.Fatal("expected computed fingerprint to be reused")
	}
	if got := transport.calls()[0].Get("duration"); got != "200" {
		t.Fatalf("duration = %q, want the file length", got)
	}
}

func TestLookupWithoutFingerprintSkipsService(t *testing.T) {
	pool := &fakePool{}
	transport := &fakeTransport{body: okBody}
	coord := newTestCoordinator(t, pool, transport)
	file := media.NewFile("/music/broken.flac", 0)

	res := newResults()
	coord.Resolve(context.Background(), file, res.callback)
	pool.task(t, 0).Done(fingerprint.None())
	got := res.wait(t)
	res.expectNoMore(t)

	if got.Outcome != OutcomeNoFingerprint || len(got.Recordings) != 0 {
		t.Fatalf("unexpected result %+v", got)
	}
	if !errors.Is(got.Err, ErrNoFingerprint) || !errors.Is(got.Err, services.ErrNotFound) {
		t.Fatalf("unexpected error %v", got.Err)
	}
	if len(transport.calls()) != 0 {
		t.Fatal("expected no remote call")
	}
}

func TestLookupNetworkError(t *testing.T) {
	transport := &fakeTransport{body: "<html>bad gateway</html>", err: errors.New("connection refused")}
	recorder := &fakeRecorder{}
	coord := newTestCoordinator(t, &fakePool{}, transport, WithRecorder(recorder))
	file := media.NewFile("/music/a.flac", 0, "AQAA")

	res := newResults()
	coord.Resolve(context.Background(), file, res.callback)
	got := res.wait(t)
	res.expectNoMore(t)

	if got.Outcome != OutcomeNetworkError || len(got.Recordings) != 0 {
		t.Fatalf("unexpected result %+v", got)
	}
	if !strings.Contains(got.Err.Error(), "connection refused") || !strings.Contains(got.Err.Error(), "/music/a.flac") {
		t.Fatalf("error should name cause and file: %v", got.Err)
	}
	if string(got.RawBody) != "<html>bad gateway</html>" {
		t.Fatalf("raw body = %q", got.RawBody)
	}
	if len(recorder.raws) != 0 {
		t.Fatal("network failures should not be recorded")
	}
}

func TestLookupServiceError(t *testing.T) {
	transport := &fakeTransport{body: `{"status":"error","error":{"code":4,"message":"invalid API key"}}`}
	coord := newTestCoordinator(t, &fakePool{}, transport)
	file := media.NewFile("/music/a.flac", 0, "AQAA")

	res := newResults()
	coord.Resolve(context.Background(), file, res.callback)
	got := res.wait(t)

	if got.Outcome != OutcomeServiceError || !errors.Is(got.Err, ErrServiceStatus) {
		t.Fatalf("unexpected result %+v", got)
	}
	if !strings.Contains(got.Err.Error(), "invalid API key") {
		t.Fatalf("expected service message, got %v", got.Err)
	}
}

func TestLookupParseError(t *testing.T) {
	transport := &fakeTransport{body: `{"status":"ok","results":"nope"}`}
	recorder := &fakeRecorder{}
	coord := newTestCoordinator(t, &fakePool{}, transport, WithRecorder(recorder))
	file := media.NewFile("/music/a.flac", 0, "AQAA")

	res := newResults()
	coord.Resolve(context.Background(), file, res.callback)
	got := res.wait(t)

	if got.Outcome != OutcomeParseError || len(got.Recordings) != 0 || !errors.Is(got.Err, ErrMalformedDocument) {
		t.Fatalf("unexpected result %+v", got)
	}
	if len(recorder.raws) != 1 || recorder.raws[0] != transport.body {
		t.Fatalf("expected raw reply recorded, got %v", recorder.raws)
	}
}

func TestLookupNoMatchAndRecorder(t *testing.T) {
	transport := &fakeTransport{body: `{"status":"ok","results":[]}`}
	recorder := &fakeRecorder{}
	coord := newTestCoordinator(t, &fakePool{}, transport, WithRecorder(recorder))
	file := media.NewFile("/music/a.flac", 0, "AQAA")

	res := newResults()
	coord.Resolve(context.Background(), file, res.callback)
	got := res.wait(t)

	if got.Outcome != OutcomeNoMatch || got.Err != nil || len(got.Recordings) != 0 {
		t.Fatalf("unexpected result %+v", got)
	}
	if len(recorder.raws) != 1 {
		t.Fatalf("expected one recorded reply, got %d", len(recorder.raws))
	}
}

func TestLookupRecordingIDParams(t *testing.T) {
	params := lookupParams(fingerprint.FromRecordingID("rec-42"))
	if params.Get("recordingid") != "rec-42" || params.Get("meta") != Meta {
		t.Fatalf("unexpected params %v", params)
	}
	if params.Has("fingerprint") || params.Has("duration") {
		t.Fatalf("recording id lookup must not send a fingerprint: %v", params)
	}
}

func TestLookupWithoutTransport(t *testing.T) {
	coord := newTestCoordinator(t, &fakePool{}, nil)
	res := newResults()
	coord.Lookup(context.Background(), media.NewFile("/a.flac", 0), fingerprint.FromFingerprint("AQAA", 10), res.callback)
	got := res.wait(t)
	if !got.Outcome.Failed() || !errors.Is(got.Err, services.ErrConfiguration) {
		t.Fatalf("unexpected result %+v", got)
	}
}
