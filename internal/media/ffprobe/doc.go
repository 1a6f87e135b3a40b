// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Only container-level data is requested: the duration used for fingerprint
// lookups and the format tags, which carry embedded AcoustID fingerprints
// written by other taggers.
package ffprobe
