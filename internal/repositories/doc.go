// Package repositories implements SQLite persistence for recommendation history and filtering runs.
//
// Key Implementations:
//   - [HistoryRepository] : Tracks recommended per day, used to avoid repeating recommendations
//   - [FilterRunRepository] : Every filtering session with its summary and full track lists
//
// Both implement [models.Repository]. Sequence numbers provide stable insertion ordering independent
// of UUIDs and creation timestamps. The [NextSequence] function atomically increments per-table
// sequence counters in dedicated sequence tables.
package repositories
