package acoustid

import (
	"reflect"
	"testing"
)

const fullRecording = `{"status":"ok","results":[{"id":"acid-1","score":0.98,"recordings":[{
	"id":"rec-1","title":"Song","duration":215.6,"sources":12,
	"artists":[{"id":"art-1","name":"First"},{"id":"art-2","name":"Second"}],
	"releasegroups":[{"id":"rg-1","title":"Album","type":"Album","secondarytypes":["Live"],"releases":[
		{"id":"rel-1","country":"GB","date":{"year":2001,"month":5},"medium_count":2,"track_count":24,
		 "mediums":[{"format":"CD","position":2,"track_count":12,"tracks":[{"id":"trk-1","position":7,"title":"Song"}]}],
		 "releaseevents":[{"country":"GB","date":{"year":2001,"month":5,"day":14}},{"country":"US","date":{"year":2002}}]},
		{"id":"rel-2","title":"Album (Deluxe)","mediums":[{"format":"Digital Media"}]}
	]}]}]}]}`

func TestParseRecordingShapesReleases(t *testing.T) {
	recs, err := Parse(mustDecode(t, fullRecording))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected one recording, got %d", len(recs))
	}
	rec := recs[0]
	if rec.Title != "Song" || rec.Length != 215000 || rec.Sources != 12 {
		t.Fatalf("unexpected recording fields %+v", rec.Recording)
	}
	if rec.ArtistCreditString() != "First; Second" || rec.Artist() != "First" {
		t.Fatalf("artist credit = %q / %q", rec.ArtistCreditString(), rec.Artist())
	}
	if rec.ArtistCredits[0].JoinPhrase != "" || rec.ArtistCredits[1].SortName != "Second" {
		t.Fatalf("unexpected credits %+v", rec.ArtistCredits)
	}

	if len(rec.Releases) != 3 {
		t.Fatalf("expected one release per event plus the event-less release, got %d", len(rec.Releases))
	}
	first, second, third := rec.Releases[0], rec.Releases[1], rec.Releases[2]
	if first.ID != "rel-1" || first.Country != "GB" || first.Date != "2001-05-14" {
		t.Fatalf("first event release = %+v", first)
	}
	if second.ID != "rel-1" || second.Country != "US" || second.Date != "2002" {
		t.Fatalf("second event release = %+v", second)
	}
	if first.Title != "Album" {
		t.Fatalf("expected release-group title fallback, got %q", first.Title)
	}
	if first.ReleaseGroup.PrimaryType != "Album" || !reflect.DeepEqual(first.ReleaseGroup.SecondaryTypes, []string{"Live"}) {
		t.Fatalf("release group = %+v", first.ReleaseGroup)
	}
	if first.MediumCount != 2 || first.TrackCount != 24 || len(first.Media) != 1 {
		t.Fatalf("release counts = %+v", first)
	}
	medium := first.Media[0]
	if medium.Format != "CD" || medium.Position != 2 || medium.TrackCount != 12 || medium.Track == nil || medium.Track.ID != "trk-1" || medium.Track.Position != 7 {
		t.Fatalf("medium = %+v", medium)
	}
	if third.Title != "Album (Deluxe)" || third.Media[0].Track != nil {
		t.Fatalf("third release = %+v", third)
	}
}

func TestParseRecordingWithoutOptionalFields(t *testing.T) {
	rec, ok := ParseRecording(RawRecording{ID: "rec-9"})
	if !ok {
		t.Fatal("expected recording with id to parse")
	}
	if rec.Sources != 1 || rec.Length != 0 || rec.Releases != nil || rec.ArtistCredits != nil {
		t.Fatalf("unexpected defaults %+v", rec)
	}
	if _, ok := ParseRecording(RawRecording{Title: "orphan"}); ok {
		t.Fatal("expected id-less recording to be rejected")
	}
}
