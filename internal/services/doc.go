// Package services defines shared utilities consumed by the fingerprint
// pipeline and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp file paths, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so fpcalc, ffprobe, and
//     lookup failures can be classified with errors.Is.
//
// Use these helpers when wiring new pipeline code so failure reporting stays
// uniform across stages.
package services
