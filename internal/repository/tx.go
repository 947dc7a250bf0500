package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/xeonarno/Alyra-blockquest/internal/model"
)

// Counter names a monotonically increasing id sequence
type Counter string

const (
	CounterTeam    Counter = "team"
	CounterSession Counter = "session"
	CounterDiploma Counter = "diploma"
	CounterEvent   Counter = "event"
)

// First id handed out by each counter. Team and session ids start at 1 so 0 can mean "none".
var counterStart = map[Counter]uint64{
	CounterTeam:    1,
	CounterSession: 1,
	CounterDiploma: 0,
	CounterEvent:   1,
}

type stagedKey struct {
	table Table
	key   string
}

type pendingEvent struct {
	typ   model.EventType
	actor model.Address
	topic string
	data  json.RawMessage
}

// Tx is a staged view of the ledger. Reads see the transaction's own writes.
// Getters return fresh copies, so callers may mutate them freely and must Put
// them back for the change to stick.
type Tx struct {
	ctx      context.Context
	backend  Backend
	now      time.Time
	readOnly bool

	staged map[stagedKey][]byte
	order  []stagedKey
	events []pendingEvent
}

func newTx(ctx context.Context, backend Backend, now time.Time, readOnly bool) *Tx {
	return &Tx{
		ctx:      ctx,
		backend:  backend,
		now:      now,
		readOnly: readOnly,
		staged:   make(map[stagedKey][]byte),
	}
}

// Now returns the transaction timestamp. Every write in one transaction shares it.
func (tx *Tx) Now() time.Time {
	return tx.now
}

func (tx *Tx) get(table Table, key string, v interface{}) (bool, error) {
	data, ok := tx.staged[stagedKey{table, key}]
	if !ok {
		var err error
		data, err = tx.backend.Get(tx.ctx, table, key)
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("get %s:%s: %w", table, key, err)
		}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s:%s: %w", table, key, err)
	}
	return true, nil
}

func (tx *Tx) put(table Table, key string, v interface{}) error {
	if tx.readOnly {
		return ErrReadOnly
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s:%s: %w", table, key, err)
	}
	k := stagedKey{table, key}
	if _, seen := tx.staged[k]; !seen {
		tx.order = append(tx.order, k)
	}
	tx.staged[k] = data
	return nil
}

func (tx *Tx) writes() []Write {
	out := make([]Write, 0, len(tx.order))
	for _, k := range tx.order {
		out = append(out, Write{Table: k.table, Key: k.key, Data: tx.staged[k]})
	}
	return out
}

func idKey(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// NextID allocates the next id of a counter. The allocation is rolled back
// with the rest of the transaction.
func (tx *Tx) NextID(c Counter) (uint64, error) {
	next := counterStart[c]
	if _, err := tx.get(TableCounter, string(c), &next); err != nil {
		return 0, err
	}
	if err := tx.put(TableCounter, string(c), next+1); err != nil {
		return 0, err
	}
	return next, nil
}

// Emit queues an event for publication after commit
func (tx *Tx) Emit(typ model.EventType, actor model.Address, topic string, data interface{}) error {
	if tx.readOnly {
		return ErrReadOnly
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", typ, err)
	}
	tx.events = append(tx.events, pendingEvent{typ: typ, actor: actor, topic: topic, data: raw})
	return nil
}

// seal numbers the queued events. The event counter is written with the
// transaction, so sequence numbers survive restarts.
func (tx *Tx) seal() ([]model.Event, error) {
	if len(tx.events) == 0 {
		return nil, nil
	}
	out := make([]model.Event, 0, len(tx.events))
	for _, pe := range tx.events {
		seq, err := tx.NextID(CounterEvent)
		if err != nil {
			return nil, err
		}
		out = append(out, model.Event{
			ID:         uuid.New().String(),
			Sequence:   seq,
			Type:       pe.typ,
			Actor:      pe.actor,
			Topic:      pe.topic,
			Data:       pe.data,
			OccurredAt: tx.now,
		})
	}
	return out, nil
}

// Team returns the team with the given id, or nil if it does not exist
func (tx *Tx) Team(id uint64) (*model.Team, error) {
	var t model.Team
	ok, err := tx.get(TableTeam, idKey(id), &t)
	if err != nil || !ok {
		return nil, err
	}
	return &t, nil
}

// PutTeam stages a team. A team seen for the first time is indexed under its owner.
func (tx *Tx) PutTeam(t *model.Team) error {
	existing, err := tx.Team(t.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		ids, err := tx.TeamIDsByOwner(t.Owner)
		if err != nil {
			return err
		}
		if err := tx.put(TableOwnerTeams, t.Owner.String(), append(ids, t.ID)); err != nil {
			return err
		}
	}
	return tx.put(TableTeam, idKey(t.ID), t)
}

// TeamIDsByOwner returns the ids of every team the owner ever created, in creation order
func (tx *Tx) TeamIDsByOwner(owner model.Address) ([]uint64, error) {
	var ids []uint64
	if _, err := tx.get(TableOwnerTeams, owner.String(), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// TeamsByOwner returns the owner's teams, deleted ones included
func (tx *Tx) TeamsByOwner(owner model.Address) ([]*model.Team, error) {
	ids, err := tx.TeamIDsByOwner(owner)
	if err != nil {
		return nil, err
	}
	teams := make([]*model.Team, 0, len(ids))
	for _, id := range ids {
		t, err := tx.Team(id)
		if err != nil {
			return nil, err
		}
		if t != nil {
			teams = append(teams, t)
		}
	}
	return teams, nil
}

// Player returns the player profile, or nil if the address never registered or joined
func (tx *Tx) Player(addr model.Address) (*model.Player, error) {
	var p model.Player
	ok, err := tx.get(TablePlayer, addr.String(), &p)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

// PutPlayer stages a player
func (tx *Tx) PutPlayer(p *model.Player) error {
	return tx.put(TablePlayer, p.Address.String(), p)
}

// GameMaster returns the game master profile, or nil
func (tx *Tx) GameMaster(addr model.Address) (*model.GameMaster, error) {
	var gm model.GameMaster
	ok, err := tx.get(TableGameMaster, addr.String(), &gm)
	if err != nil || !ok {
		return nil, err
	}
	return &gm, nil
}

// PutGameMaster stages a game master
func (tx *Tx) PutGameMaster(gm *model.GameMaster) error {
	return tx.put(TableGameMaster, gm.Address.String(), gm)
}

// Session returns the session, or nil
func (tx *Tx) Session(id uint64) (*model.Session, error) {
	var s model.Session
	ok, err := tx.get(TableSession, idKey(id), &s)
	if err != nil || !ok {
		return nil, err
	}
	return &s, nil
}

// PutSession stages a session
func (tx *Tx) PutSession(s *model.Session) error {
	return tx.put(TableSession, idKey(s.ID), s)
}

// Diploma returns the diploma with the given token id, or nil
func (tx *Tx) Diploma(tokenID uint64) (*model.Diploma, error) {
	var d model.Diploma
	ok, err := tx.get(TableDiploma, idKey(tokenID), &d)
	if err != nil || !ok {
		return nil, err
	}
	return &d, nil
}

// InsertDiploma stages a new diploma and appends it to the player's index.
// Diplomas are never rewritten.
func (tx *Tx) InsertDiploma(d *model.Diploma) error {
	existing, err := tx.Diploma(d.TokenID)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("diploma %d already minted", d.TokenID)
	}
	ids, err := tx.DiplomaIDsOf(d.Player)
	if err != nil {
		return err
	}
	if err := tx.put(TablePlayerCerts, d.Player.String(), append(ids, d.TokenID)); err != nil {
		return err
	}
	return tx.put(TableDiploma, idKey(d.TokenID), d)
}

// DiplomaIDsOf returns the player's token ids in mint order
func (tx *Tx) DiplomaIDsOf(player model.Address) ([]uint64, error) {
	var ids []uint64
	if _, err := tx.get(TablePlayerCerts, player.String(), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// Teams returns every team ordered by id
func (tx *Tx) Teams() ([]*model.Team, error) {
	raw, err := tx.backend.List(tx.ctx, TableTeam)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	byID := make(map[uint64]*model.Team, len(raw))
	for _, data := range raw {
		var t model.Team
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("decode team: %w", err)
		}
		byID[t.ID] = &t
	}
	// Staged writes win over committed copies.
	for _, k := range tx.order {
		if k.table != TableTeam {
			continue
		}
		var t model.Team
		if err := json.Unmarshal(tx.staged[k], &t); err != nil {
			return nil, fmt.Errorf("decode team: %w", err)
		}
		byID[t.ID] = &t
	}
	teams := make([]*model.Team, 0, len(byID))
	for _, t := range byID {
		teams = append(teams, t)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].ID < teams[j].ID })
	return teams, nil
}

// NextTeamID allocates a team id
func (tx *Tx) NextTeamID() (uint64, error) { return tx.NextID(CounterTeam) }

// NextSessionID allocates a session id
func (tx *Tx) NextSessionID() (uint64, error) { return tx.NextID(CounterSession) }

// NextDiplomaID allocates a diploma token id
func (tx *Tx) NextDiplomaID() (uint64, error) { return tx.NextID(CounterDiploma) }
