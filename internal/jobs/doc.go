// Package jobs holds the background loops of the API server.
//
// Jobs follow one shape: NewXxx(config), Start, Stop, RunOnce. Start is
// idempotent, Stop waits for the loop to exit, and RunOnce performs a
// single pass synchronously so tests and shutdown hooks can drive it.
//
// SnapshotWriter persists the in-memory ledger to a zstd snapshot on a
// fixed interval and once more on Stop.
package jobs
