// Package config loads, normalizes, and validates tuneprint configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// ACOUSTID_API_KEY. The Config type centralizes every knob the CLI and the
// fingerprint pipeline need: fpcalc discovery, worker pool size, lookup
// service credentials, and the match-log location.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
