package matchlog

import (
	"fmt"
	"strings"

	"tuneprint/internal/acoustid"
)

// EntryTypeLookup marks entries produced by a fingerprint or recording id lookup.
const EntryTypeLookup = "acoustid_lookup"

// Entry is the scoring detail of one candidate recording on one release.
type Entry struct {
	Seq               int     `json:"seq"`
	Type              string  `json:"type"`
	AcoustID          string  `json:"acoustid"`
	RecordingID       string  `json:"recording_id"`
	Title             string  `json:"title"`
	LengthMS          int     `json:"length_ms"`
	Sources           int     `json:"sources"`
	Artist            string  `json:"artist"`
	ReleaseGroupID    string  `json:"release_group_id"`
	ReleaseTitle      string  `json:"release_title"`
	PrimaryType       string  `json:"primary_type"`
	SecondaryTypes    string  `json:"secondary_types"`
	ReleaseID         string  `json:"release_id"`
	Country           string  `json:"country"`
	Date              string  `json:"date"`
	MediumFormat      string  `json:"medium_format"`
	MediumPosition    int     `json:"medium_position"`
	MediumCount       int     `json:"medium_count"`
	TrackID           string  `json:"track_id"`
	TrackPosition     int     `json:"track_position"`
	MediumTrackCount  int     `json:"medium_track_count"`
	ReleaseTrackCount int     `json:"release_track_count"`
	Score             float64 `json:"score"`
}

// EntriesFrom expands scored recordings into detail entries: one per release,
// or a single release-less entry for recordings without releases.
func EntriesFrom(recordings []acoustid.ScoredRecording) []Entry {
	var entries []Entry
	for _, rec := range recordings {
		base := Entry{
			Type:        EntryTypeLookup,
			AcoustID:    rec.AcoustID,
			RecordingID: rec.ID,
			Title:       rec.Title,
			LengthMS:    rec.Length,
			Sources:     rec.Sources,
			Artist:      rec.Artist(),
			Score:       rec.Score,
		}
		if len(rec.Releases) == 0 {
			base.Seq = len(entries) + 1
			entries = append(entries, base)
			continue
		}
		for _, release := range rec.Releases {
			entry := base
			entry.Seq = len(entries) + 1
			entry.ReleaseGroupID = release.ReleaseGroup.ID
			entry.ReleaseTitle = release.Title
			entry.PrimaryType = release.ReleaseGroup.PrimaryType
			entry.SecondaryTypes = strings.Join(release.ReleaseGroup.SecondaryTypes, ",")
			entry.ReleaseID = release.ID
			entry.Country = release.Country
			entry.Date = release.Date
			entry.MediumCount = release.MediumCount
			entry.ReleaseTrackCount = release.TrackCount
			if len(release.Media) > 0 {
				medium := release.Media[0]
				entry.MediumFormat = medium.Format
				entry.MediumPosition = medium.Position
				entry.MediumTrackCount = medium.TrackCount
				if medium.Track != nil {
					entry.TrackID = medium.Track.ID
					entry.TrackPosition = medium.Track.Position
				}
			}
			entries = append(entries, entry)
		}
	}
	return entries
}

// LengthString renders the recording length as mm:ss.
func (e Entry) LengthString() string {
	seconds := e.LengthMS / 1000
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func (e Entry) primaryType() string {
	if e.ReleaseID != "" && e.PrimaryType == "" {
		return "no pri-type"
	}
	return e.PrimaryType
}

func (e Entry) secondaryTypes() string {
	if e.ReleaseID != "" && e.SecondaryTypes == "" {
		return "no sec-type"
	}
	return e.SecondaryTypes
}

func (e Entry) country() string {
	if e.ReleaseID != "" && e.Country == "" {
		return "no-ctry"
	}
	return e.Country
}

// TSVHeader names the columns written by FormatTSV.
const TSVHeader = "nbr\tmsg\tresult_id\trecording_id\trec_title\trec_len\trec_src_cnt\trec_artist\t" +
	"relgrp_id\trelgrp_title\tprim-type\tsec-type\trel_id\tcountry\tdate\t" +
	"media_fmt\tmed_pos\tmed_tot_cnt\ttrack_id\ttrk_pos\tmedia_trk_cnt\trel_tot_trk_cnt\tscore"

// FormatTSV renders the entry as one tab-separated row.
func (e Entry) FormatTSV() string {
	return fmt.Sprintf("%d\t%s\t%s\t%s\t%s\t%s\t%3d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%2d\t%2d\t%s\t%2d\t%2d\t%2d\t%.3f",
		e.Seq, e.Type, e.AcoustID, e.RecordingID, tsvField(e.Title), e.LengthString(), e.Sources, tsvField(e.Artist),
		e.ReleaseGroupID, tsvField(e.ReleaseTitle), e.primaryType(), e.secondaryTypes(), e.ReleaseID, e.country(), e.Date,
		e.MediumFormat, e.MediumPosition, e.MediumCount, e.TrackID, e.TrackPosition, e.MediumTrackCount, e.ReleaseTrackCount,
		e.Score)
}

// FormatLabelled renders the entry as a single human-readable line.
func (e Entry) FormatLabelled() string {
	return fmt.Sprintf("%-16s result_id:%s, recording_id:%s, rec_title:%-40s, rec_len:%s, rec_src_cnt:%3d, rec_artist:%s, "+
		"release_group_id:%s, relgrp_title:%-40s, prim-type:%-10s, sec-type:%s, rel_id:%s, country:%-7s, dt:%-10s, "+
		"media_fmt:%-15s %2d / %2d, track id:%s, #: %2d / %2d / %2d, score:%7.3f",
		e.Type, e.AcoustID, e.RecordingID, e.Title, e.LengthString(), e.Sources, e.Artist,
		e.ReleaseGroupID, e.ReleaseTitle, e.primaryType(), e.secondaryTypes(), e.ReleaseID, e.country(), e.Date,
		e.MediumFormat, e.MediumPosition, e.MediumCount, e.TrackID, e.TrackPosition, e.MediumTrackCount, e.ReleaseTrackCount,
		e.Score)
}

func tsvField(s string) string {
	return strings.NewReplacer("\t", " ", "\n", " ", "\r", " ").Replace(s)
}
