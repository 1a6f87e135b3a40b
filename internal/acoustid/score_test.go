package acoustid

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"testing"
)

func mustDecode(t *testing.T, body string) Document {
	t.Helper()
	doc, err := Decode([]byte(body))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return doc
}

func scores(recs []ScoredRecording) []float64 {
	out := make([]float64, 0, len(recs))
	for _, r := range recs {
		out = append(out, math.Round(r.Score*1000)/1000)
	}
	return out
}

func TestParseScalesSourcesWithinGroup(t *testing.T) {
	doc := mustDecode(t, `{"status":"ok","results":[{"id":"A","score":1.0,"recordings":[
		{"id":"r1","sources":1},{"id":"r2","sources":2},{"id":"r3","sources":4}]}]}`)
	recs, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got, want := scores(recs), []float64{25, 50, 100}; !reflect.DeepEqual(got, want) {
		t.Fatalf("scores = %v, want %v", got, want)
	}
	for _, r := range recs {
		if r.AcoustID != "A" {
			t.Fatalf("recording %s has acoustid %q", r.ID, r.AcoustID)
		}
	}
}

func TestParseAppliesResultScore(t *testing.T) {
	doc := mustDecode(t, `{"status":"ok","results":[
		{"id":"A","score":0.5,"recordings":[{"id":"r1","sources":3},{"id":"r2","sources":6}]},
		{"id":"B","score":"0.25","recordings":[{"id":"r3"}]},
		{"id":"C","score":"high","recordings":[{"id":"r4","sources":2}]},
		{"id":"D","recordings":[{"id":"r5"}]}]}`)
	recs, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got, want := scores(recs), []float64{25, 50, 25, 100, 100}; !reflect.DeepEqual(got, want) {
		t.Fatalf("scores = %v, want %v", got, want)
	}
	order := []string{recs[0].ID, recs[1].ID, recs[2].ID, recs[3].ID, recs[4].ID}
	if !reflect.DeepEqual(order, []string{"r1", "r2", "r3", "r4", "r5"}) {
		t.Fatalf("order = %v", order)
	}
}

func TestParseTreatsNullResultScoreAsFull(t *testing.T) {
	doc := mustDecode(t, `{"status":"ok","results":[{"id":"A","score":null,"recordings":[{"id":"r1","sources":1}]}]}`)
	recs, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := scores(recs); !reflect.DeepEqual(got, []float64{100}) {
		t.Fatalf("scores = %v, want [100]", got)
	}
}

func TestParseScoresIgnoreOrderWithinGroup(t *testing.T) {
	const other = `{"id":"B","score":1.0,"recordings":[{"id":"b1","sources":40},{"id":"b2","sources":10}]}`
	forward := mustDecode(t, `{"status":"ok","results":[{"id":"A","score":0.8,"recordings":[
		{"id":"r1","sources":1},{"id":"r2","sources":3},{"id":"r3","sources":6}]},`+other+`]}`)
	reversed := mustDecode(t, `{"status":"ok","results":[{"id":"A","score":0.8,"recordings":[
		{"id":"r3","sources":6},{"id":"r2","sources":3},{"id":"r1","sources":1}]},`+other+`]}`)

	byID := func(doc Document) map[string]float64 {
		recs, err := Parse(doc)
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		out := make(map[string]float64, len(recs))
		for _, r := range recs {
			out[r.ID] = math.Round(r.Score*1000) / 1000
		}
		return out
	}
	got, want := byID(reversed), byID(forward)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("scores changed with order: %v vs %v", got, want)
	}
	if want["r3"] != 80 || want["r1"] != 13.333 || want["b1"] != 100 || want["b2"] != 25 {
		t.Fatalf("scores not relative to their own group: %v", want)
	}
}

func TestDecodeAcceptsFractionalSources(t *testing.T) {
	doc := mustDecode(t, `{"status":"ok","results":[{"id":"A","recordings":[{"id":"r1","sources":2.0},{"id":"r2","sources":4.7}]}]}`)
	recs, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if recs[0].Sources != 2 || recs[1].Sources != 4 {
		t.Fatalf("sources = %d, %d", recs[0].Sources, recs[1].Sources)
	}
	if got := scores(recs); !reflect.DeepEqual(got, []float64{50, 100}) {
		t.Fatalf("scores = %v, want [50 100]", got)
	}
}

func TestParseSingleRecordingDefaultsToFullScore(t *testing.T) {
	doc := mustDecode(t, `{"status":"ok","results":[{"id":"A","recordings":[{"id":"r1","sources":1}]}]}`)
	recs, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(recs) != 1 || recs[0].Score != 100 {
		t.Fatalf("unexpected recordings %+v", recs)
	}
}

func TestParseSkipsRecordingsWithoutID(t *testing.T) {
	doc := mustDecode(t, `{"status":"ok","results":[{"id":"A","recordings":[{"sources":8},{"id":"r2","sources":2}]}]}`)
	recs, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != "r2" || recs[0].Score != 25 {
		t.Fatalf("expected r2 scored against the id-less maximum, got %+v", recs)
	}
}

func TestParseEmptyResults(t *testing.T) {
	for _, body := range []string{`{"status":"ok"}`, `{"status":"ok","results":[]}`, `{"status":"ok","results":[{"id":"A"}]}`} {
		recs, err := Parse(mustDecode(t, body))
		if err != nil {
			t.Fatalf("Parse(%s): %v", body, err)
		}
		if len(recs) != 0 {
			t.Fatalf("Parse(%s) = %+v, want none", body, recs)
		}
	}
}

func TestParseIsIdempotent(t *testing.T) {
	doc := mustDecode(t, `{"status":"ok","results":[{"id":"A","score":0.9,"recordings":[{"id":"r1","sources":3,"title":"x"}]}]}`)
	first, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	second, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Parse not idempotent: %+v vs %+v", first, second)
	}
}

func TestParseRejectsErrorStatus(t *testing.T) {
	doc := mustDecode(t, `{"status":"error","error":{"code":4,"message":"invalid API key"}}`)
	_, err := Parse(doc)
	if !errors.Is(err, ErrServiceStatus) {
		t.Fatalf("expected ErrServiceStatus, got %v", err)
	}
	if doc.ServiceMessage() != "invalid API key" {
		t.Fatalf("ServiceMessage = %q", doc.ServiceMessage())
	}
}

func TestDecodeRejectsMalformedDocuments(t *testing.T) {
	for _, body := range []string{``, `[]`, `{"results":[]}`, `{"status":"ok","results":{"id":"A"}}`, `{"status":"ok","results":[{"recordings":[{"sources":"many"}]}]}`} {
		if _, err := Decode([]byte(body)); !errors.Is(err, ErrMalformedDocument) {
			t.Fatalf("Decode(%q) error = %v, want ErrMalformedDocument", body, err)
		}
	}
}

func TestResultScoreJSON(t *testing.T) {
	var score ResultScore
	if err := json.Unmarshal([]byte(`null`), &score); err != nil || score.Value() != 1.0 {
		t.Fatalf("null score = %v, %v", score.Value(), err)
	}
	if err := json.Unmarshal([]byte(`"0.75"`), &score); err != nil || score.Value() != 0.75 {
		t.Fatalf("string score = %v, %v", score.Value(), err)
	}
	if err := json.Unmarshal([]byte(`{"x":1}`), &score); err != nil || score.Value() != 1.0 {
		t.Fatalf("object score = %v, %v", score.Value(), err)
	}
}
