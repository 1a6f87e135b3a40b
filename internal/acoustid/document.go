package acoustid

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrNoFingerprint reports a file that produced no usable fingerprint.
	ErrNoFingerprint = errors.New("no fingerprint")
	// ErrServiceStatus reports a lookup reply whose status is not "ok".
	ErrServiceStatus = errors.New("acoustid service error")
	// ErrMalformedDocument reports a lookup reply that does not have the expected shape.
	ErrMalformedDocument = errors.New("malformed acoustid document")
)

// StatusOK is the status value of a successful lookup reply.
const StatusOK = "ok"

// Document is a decoded lookup reply.
type Document struct {
	Status  string        `json:"status"`
	Results []ResultGroup `json:"results"`
	Error   *ServiceError `json:"error"`
}

// ServiceError is the error object the service attaches to non-ok replies.
type ServiceError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ResultGroup is one AcoustID track id with the recordings linked to it.
type ResultGroup struct {
	ID         string         `json:"id"`
	Score      ResultScore    `json:"score"`
	Recordings []RawRecording `json:"recordings"`
}

// ResultScore is the service's confidence for a result group. Absent,
// null, and non-numeric values all count as 1.0; numeric strings are accepted.
type ResultScore struct {
	value float64
	valid bool
}

// NewResultScore returns a present score.
func NewResultScore(v float64) ResultScore { return ResultScore{value: v, valid: true} }

// Value returns the score, defaulting to 1.0.
func (s ResultScore) Value() float64 {
	if !s.valid {
		return 1.0
	}
	return s.value
}

func (s *ResultScore) UnmarshalJSON(data []byte) error {
	*s = ResultScore{}
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var number float64
	if err := json.Unmarshal(data, &number); err == nil {
		*s = NewResultScore(number)
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
			*s = NewResultScore(parsed)
		}
	}
	return nil
}

func (s ResultScore) MarshalJSON() ([]byte, error) {
	if !s.valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.value)
}

// RawRecording is a recording node as the service returns it.
type RawRecording struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Artists       []RawArtist       `json:"artists"`
	ReleaseGroups []RawReleaseGroup `json:"releasegroups"`
	Duration      *float64          `json:"duration"`
	// Sources is decoded as a float so values like 2.0 do not reject the reply.
	Sources *float64 `json:"sources"`
}

// SourceCount returns the number of fingerprint submissions truncated to a
// whole number, defaulting to 1.
func (r RawRecording) SourceCount() int {
	if r.Sources == nil {
		return 1
	}
	return int(*r.Sources)
}

type RawArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type RawReleaseGroup struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	Type           string       `json:"type"`
	SecondaryTypes []string     `json:"secondarytypes"`
	Releases       []RawRelease `json:"releases"`
}

type RawRelease struct {
	ID            string            `json:"id"`
	Title         *string           `json:"title"`
	Country       string            `json:"country"`
	Date          *Date             `json:"date"`
	MediumCount   int               `json:"medium_count"`
	TrackCount    int               `json:"track_count"`
	Mediums       []RawMedium       `json:"mediums"`
	ReleaseEvents []RawReleaseEvent `json:"releaseevents"`
}

type RawReleaseEvent struct {
	Country string `json:"country"`
	Date    *Date  `json:"date"`
}

type RawMedium struct {
	Format     string     `json:"format"`
	Position   int        `json:"position"`
	TrackCount int        `json:"track_count"`
	Tracks     []RawTrack `json:"tracks"`
}

type RawTrack struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
	Title    string `json:"title"`
}

// Date is a partial calendar date. The service sends {"year","month","day"}
// objects with any suffix omitted; plain strings are kept verbatim.
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
	text  string
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*d = Date{text: text}
		return nil
	}
	type plain Date
	var parts plain
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	*d = Date(parts)
	return nil
}

// String renders the date as YYYY, YYYY-MM, or YYYY-MM-DD.
func (d *Date) String() string {
	if d == nil {
		return ""
	}
	if d.text != "" {
		return d.text
	}
	if d.Year == 0 {
		return ""
	}
	out := fmt.Sprintf("%04d", d.Year)
	if d.Month > 0 {
		out += fmt.Sprintf("-%02d", d.Month)
		if d.Day > 0 {
			out += fmt.Sprintf("-%02d", d.Day)
		}
	}
	return out
}

// Decode parses a raw lookup reply.
func Decode(body []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	if strings.TrimSpace(doc.Status) == "" {
		return Document{}, fmt.Errorf("%w: missing status", ErrMalformedDocument)
	}
	return doc, nil
}

// ServiceMessage returns the error text of a non-ok reply.
func (d Document) ServiceMessage() string {
	if d.Error != nil && strings.TrimSpace(d.Error.Message) != "" {
		return d.Error.Message
	}
	return "status " + d.Status
}
