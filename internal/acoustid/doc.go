// Package acoustid resolves audio fingerprints against the AcoustID lookup
// service.
//
// Coordinator decides whether a file needs fpcalc at all, sends the lookup,
// and turns the reply into scored recordings. Parse holds the scoring rule:
// within one AcoustID result, a recording scores its source count relative to
// the best-sourced recording of that result, on a 0-100 scale, multiplied by
// the result's own score. Analyzer is the small facade the CLI drives.
package acoustid
