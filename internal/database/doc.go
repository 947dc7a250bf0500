// Package database wraps the SurrealDB connection used by the persistent
// ledger backend.
//
// The Database interface exposes three query methods:
//   - Query: one result set per statement
//   - QueryOne: first record of the first statement
//   - Execute: no return value (for mutations)
//
// # Atomic batches
//
// Transactions are batch-based. AtomicBatch collects statements and sends
// them as a single BEGIN TRANSACTION / COMMIT TRANSACTION block, so either
// every statement applies or none does:
//
//	batch := database.NewAtomicBatch()
//	batch.Add("UPSERT type::thing($tb, $id) CONTENT $doc", vars1)
//	batch.Add("UPSERT type::thing($tb, $id) CONTENT $doc", vars2)
//	err := batch.Execute(ctx, db)
//
// Variables are renamed per statement, so both statements above may use $tb.
package database
