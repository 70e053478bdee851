// Package tasks runs the beacon audit operations with real-time progress reporting.
//
// # Core Operations
//
// The [Engine] interface defines two operations:
//
//  1. [Engine.Unheard] : declared − observed for a [Scope]
//     - Unions the beacons of every recording into the observed set
//     - Compares each level of the scope independently (no cross-level dedup)
//     - Returns rows ordered by level, then UUID, major and minor
//
//  2. [Engine.Profile] : basic recording summary
//     - Groups captured beacons by UUID and major with sorted minors
//     - Resolves the first GPS fix through the geocoder when asked
//
// [AuditEngine.BulkProfile] fans profiling out to a small worker pool.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
//
// # History
//
// The optional [RunRecorder] (repositories.AuditRunRepository) persists results through [AuditEngine.Record].
package tasks
