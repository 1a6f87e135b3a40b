// Package main hosts the tuneprint CLI.
//
// The Cobra command tree loads configuration and logging once, builds the
// fingerprint pool, lookup client, and match log on demand, and renders
// results as tables or JSON. Identification logic lives in internal/acoustid
// and internal/fingerprint; commands here only wire and present it.
package main
