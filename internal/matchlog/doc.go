// Package matchlog keeps the latest AcoustID reply for every analyzed file
// together with one detail entry per candidate recording and release, so a
// match can be inspected after the run that produced it.
//
// The store is a SQLite database guarded by a flock file: one writer at a
// time, any number of readers while no writer holds it.
package matchlog
