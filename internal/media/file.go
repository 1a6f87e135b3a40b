package media

import (
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Key identifies a file across the pipeline. Two paths that differ only in
// Unicode normalization or redundant separators map to the same key.
type Key string

// KeyFor derives the identity key for path.
func KeyFor(path string) Key {
	if path == "" {
		return ""
	}
	return Key(norm.NFC.String(filepath.Clean(path)))
}

// File is an audio file under analysis. The computed fingerprint is the only
// mutable state and is safe for concurrent use.
type File struct {
	path                 string
	key                  Key
	length               time.Duration
	metadataFingerprints []string

	mu          sync.RWMutex
	fingerprint string
	fpDuration  int
}

// NewFile builds a File from already-known metadata.
func NewFile(path string, length time.Duration, metadataFingerprints ...string) *File {
	kept := make([]string, 0, len(metadataFingerprints))
	for _, fp := range metadataFingerprints {
		if fp != "" {
			kept = append(kept, fp)
		}
	}
	return &File{
		path:                 path,
		key:                  KeyFor(path),
		length:               length,
		metadataFingerprints: kept,
	}
}

func (f *File) Path() string { return f.path }

func (f *File) Key() Key { return f.key }

// Length returns the container duration, zero when unknown.
func (f *File) Length() time.Duration { return f.length }

// LengthSeconds returns the duration truncated to whole seconds.
func (f *File) LengthSeconds() int { return int(f.length / time.Second) }

// MetadataFingerprints returns fingerprints found in the file's tags, in tag order.
func (f *File) MetadataFingerprints() []string {
	return append([]string(nil), f.metadataFingerprints...)
}

// Fingerprint returns the fingerprint computed for this file during the
// current run along with its duration in seconds.
func (f *File) Fingerprint() (string, int) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.fingerprint, f.fpDuration
}

// SetFingerprint records a freshly computed fingerprint.
func (f *File) SetFingerprint(fingerprint string, durationSeconds int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fingerprint = fingerprint
	f.fpDuration = durationSeconds
}
