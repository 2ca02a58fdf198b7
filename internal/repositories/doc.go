// Package repositories implements SQLite persistence for the session journal.
//
// The journal lives in an in-memory database opened by [shared.NewSessionDatabase];
// nothing is written to disk and the history ends with the process.
//
// Key Implementations:
//   - [HistoryRepository] : Searches, recommendations and plays recorded during the session
//
// The [NextSequence] function atomically increments per-table sequence counters in dedicated
// sequence tables, giving a stable newest-first order.
package repositories
