package fingerprint

import "tuneprint/internal/media"

// Kind discriminates the Result variants.
type Kind int

const (
	// KindNone marks a failed or absent fingerprint.
	KindNone Kind = iota
	// KindFingerprint carries a computed or cached fingerprint and its duration.
	KindFingerprint
	// KindRecordingID carries a known recording identifier instead of a fingerprint.
	KindRecordingID
)

func (k Kind) String() string {
	switch k {
	case KindFingerprint:
		return "fingerprint"
	case KindRecordingID:
		return "recording_id"
	default:
		return "none"
	}
}

// Result is the outcome of fingerprinting one file.
type Result struct {
	Kind        Kind
	Data        string
	Duration    int
	RecordingID string
}

// None reports a missing fingerprint.
func None() Result { return Result{Kind: KindNone} }

// FromFingerprint wraps fingerprint data with its duration in whole seconds.
func FromFingerprint(data string, duration int) Result {
	return Result{Kind: KindFingerprint, Data: data, Duration: duration}
}

// FromRecordingID wraps a known recording identifier.
func FromRecordingID(id string) Result {
	return Result{Kind: KindRecordingID, RecordingID: id}
}

// Task is one unit of pending fingerprint work.
type Task struct {
	Key  media.Key
	Path string
	Done func(Result)
}
