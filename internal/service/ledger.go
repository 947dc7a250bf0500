package service

import (
	"context"
	"time"

	"github.com/xeonarno/Alyra-blockquest/internal/model"
)

// Tx is one all-or-nothing unit of work against the ledger. Getters return
// copies, or nil when the record is absent.
type Tx interface {
	Now() time.Time
	Emit(typ model.EventType, actor model.Address, topic string, data interface{}) error

	NextTeamID() (uint64, error)
	NextSessionID() (uint64, error)
	NextDiplomaID() (uint64, error)

	Team(id uint64) (*model.Team, error)
	PutTeam(t *model.Team) error
	Teams() ([]*model.Team, error)
	TeamsByOwner(owner model.Address) ([]*model.Team, error)

	Player(addr model.Address) (*model.Player, error)
	PutPlayer(p *model.Player) error

	GameMaster(addr model.Address) (*model.GameMaster, error)
	PutGameMaster(gm *model.GameMaster) error

	Session(id uint64) (*model.Session, error)
	PutSession(s *model.Session) error

	Diploma(tokenID uint64) (*model.Diploma, error)
	InsertDiploma(d *model.Diploma) error
	DiplomaIDsOf(player model.Address) ([]uint64, error)
}

// Ledger serialises operations. Update commits only when fn returns nil and
// publishes the emitted events after the commit.
type Ledger interface {
	Update(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
}

// TxStore is a store whose callbacks receive a concrete transaction type
type TxStore[T Tx] interface {
	Update(ctx context.Context, fn func(tx T) error) error
	View(ctx context.Context, fn func(tx T) error) error
}

type storeLedger[T Tx] struct {
	store TxStore[T]
}

// LedgerFrom adapts a store to the Ledger interface
func LedgerFrom[T Tx](store TxStore[T]) Ledger {
	return storeLedger[T]{store: store}
}

func (l storeLedger[T]) Update(ctx context.Context, fn func(tx Tx) error) error {
	return l.store.Update(ctx, func(tx T) error { return fn(tx) })
}

func (l storeLedger[T]) View(ctx context.Context, fn func(tx Tx) error) error {
	return l.store.View(ctx, func(tx T) error { return fn(tx) })
}
