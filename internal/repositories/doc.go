// Package repositories implements SQLite persistence for comparison history.
//
// Repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [AuditRunRepository] : unheard-beacon comparison runs with their missing rows
//
// Sequence numbers provide stable, human-readable ordering (run #7) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
