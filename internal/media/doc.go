// Package media models the audio files handed to the fingerprint pipeline.
//
// A File carries a stable identity key, the container duration, any
// fingerprints already embedded in its tags, and the fingerprint computed
// during this run. Load probes a path with ffprobe and the tag reader to fill
// those fields in.
package media
