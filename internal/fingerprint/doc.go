// Package fingerprint schedules fpcalc subprocesses.
//
// Pool keeps a FIFO queue of pending Tasks and runs at most MaxProcesses
// fpcalc instances at once. Every Task receives exactly one Result through
// its callback, whether the process succeeds, exits non-zero, prints
// unparseable output, fails to start, or is killed by the wall-clock cap.
// Cancel only removes pending Tasks; processes already running always finish.
package fingerprint
