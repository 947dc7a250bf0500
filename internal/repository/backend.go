package repository

import (
	"context"
	"errors"
)

// ErrNotFound is returned by backends for absent keys.
var ErrNotFound = errors.New("record not found")

// ErrReadOnly is returned when a View transaction attempts a write.
var ErrReadOnly = errors.New("read-only transaction")

// Table names a keyed collection in the ledger
type Table string

const (
	TableTeam        Table = "team"
	TablePlayer      Table = "player"
	TableGameMaster  Table = "game_master"
	TableSession     Table = "session"
	TableDiploma     Table = "diploma"
	TableOwnerTeams  Table = "owner_teams"    // owner address -> []team id
	TablePlayerCerts Table = "player_diploma" // player address -> []token id, mint order
	TableCounter     Table = "counter"
)

// Tables lists every table, in snapshot order.
var Tables = []Table{
	TableTeam, TablePlayer, TableGameMaster, TableSession,
	TableDiploma, TableOwnerTeams, TablePlayerCerts, TableCounter,
}

// Write is one staged record. Records are JSON documents.
type Write struct {
	Table Table
	Key   string
	Data  []byte
}

// Backend is the committed storage behind a Store. Commit must apply every
// write or none of them.
type Backend interface {
	Get(ctx context.Context, table Table, key string) ([]byte, error)
	List(ctx context.Context, table Table) ([][]byte, error)
	Commit(ctx context.Context, writes []Write) error
}
