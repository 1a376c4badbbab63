// Package watch detects out-of-band modification of a case directory.
//
// # Overview
//
// Once evidence is stored, any write to a stored copy or to the two ledger
// files that does not come from this process is a tampering signal. The
// watcher subscribes to filesystem events for the case directory and its
// kind subdirectories, filters out noise (chmod-only events, hidden files,
// the .tmp files the atomic persist cycle creates), debounces bursts, and
// surfaces what remains as a warning log, a tamper-alert metric, and an
// optional callback.
//
// The process's own writes are excluded cooperatively: wrap ledger
// mutations in Pause/Resume. The watch command does this around each
// verification sweep.
//
// # Limitations
//
// Detection is advisory. Events can be lost if a watched directory is
// removed and recreated faster than the watch is re-established, and an
// attacker with root can bypass filesystem notification entirely. The
// periodic verification sweep is the backstop: it re-reads the bytes.
package watch
