// Package database archives validation runs in SQLite.
//
// RunDB persists one row per run plus one row per probed candidate,
// which is exactly what the compare command diffs. The archive is an
// output sink only: the engine never reads it while scanning, so
// deleting the database file costs history but never changes scan
// behavior.
//
// Design decision: modernc.org/sqlite keeps the archive a single file
// with zero CGO, so cross-compiled release binaries work unchanged. WAL
// mode lets a compare run read while a scan is still appending. A
// client-server database would add operational surface without giving
// this workload anything it needs.
package database
