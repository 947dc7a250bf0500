// Package repository stores the ledger: every team, player, game master,
// session and diploma, plus the id counters and owner indexes.
//
// Records are JSON documents in named tables behind the Backend interface.
// MemoryBackend keeps them in maps and can write zstd snapshots;
// SurrealBackend keeps them in SurrealDB.
//
// # Transactions
//
// Store serialises writers. Update stages every write and event in a Tx and
// commits them together; events reach the sinks only after the commit:
//
//	store := NewStore(StoreConfig{Backend: NewMemoryBackend(), Sinks: []EventSink{hub}})
//	err := store.Update(ctx, func(tx *Tx) error {
//	    id, err := tx.NextTeamID()
//	    if err != nil {
//	        return err
//	    }
//	    return tx.PutTeam(&model.Team{ID: id, Name: "Party"})
//	})
//
// Getters return copies, so callers may mutate what they read and put it back.
package repository
