package service

import (
	"bytes"
	"context"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xeonarno/Alyra-blockquest/internal/model"
	"github.com/xeonarno/Alyra-blockquest/internal/repository"
	"github.com/xeonarno/Alyra-blockquest/internal/service/dice"
)

var (
	gmAddr     = model.MustParseAddress("0x5B38Da6a701c568545dCfcB03FcB875f56beddC4")
	aliceAddr  = model.MustParseAddress("0xAb8483F64d9C6d1EcF9b849Ae677dD3315835cb2")
	bobAddr    = model.MustParseAddress("0x4B20993Bc481177ec7E8f571ceCaE8A9e22C02db")
	carolAddr  = model.MustParseAddress("0x78731D3Ca6b7E34aC0F824c42a7cC18A495cabaB")
	ownerAddr  = model.MustParseAddress("0x617F2E2fD72FD9D5503197092aC168c91465E7f2")
	minterAddr = model.MustParseAddress("0x000000000000000000000000000000000000b10c")
)

// testAddr derives a distinct address for bulk fixtures
func testAddr(n int) model.Address {
	hex := strconv.FormatInt(int64(n)+0x1000, 16)
	return model.MustParseAddress("0x" + "0000000000000000000000000000000000000000"[:40-len(hex)] + hex)
}

type recordingSink struct {
	mu     sync.Mutex
	events []model.Event
}

func (r *recordingSink) Publish(_ context.Context, events []model.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
}

func (r *recordingSink) Types() []model.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func (r *recordingSink) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	ctx      context.Context
	backend  *repository.MemoryBackend
	sink     *recordingSink
	clock    *testClock
	dice     *dice.Scripted
	teams    *TeamService
	players  *PlayerService
	sessions *SessionService
	gms      *GameMasterService
	certs    *CertificationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		ctx:     context.Background(),
		backend: repository.NewMemoryBackend(),
		sink:    &recordingSink{},
		clock:   &testClock{now: time.Date(2024, 5, 1, 18, 30, 0, 0, time.UTC)},
		dice:    dice.NewScripted(4),
	}
	store := repository.NewStore(repository.StoreConfig{
		Backend: f.backend,
		Sinks:   []repository.EventSink{f.sink},
		Clock:   f.clock.Now,
	})
	ledger := LedgerFrom[*repository.Tx](store)

	renderer, err := NewCertificateRenderer()
	require.NoError(t, err)

	f.teams = NewTeamService(TeamServiceConfig{Ledger: ledger})
	f.players = NewPlayerService(PlayerServiceConfig{Ledger: ledger, TeamService: f.teams})
	f.sessions = NewSessionService(SessionServiceConfig{Ledger: ledger, Dice: f.dice})
	f.certs = NewCertificationService(CertificationServiceConfig{
		Ledger:   ledger,
		Renderer: renderer,
		Owner:    ownerAddr,
		Minters:  []model.Address{minterAddr},
	})
	f.gms = NewGameMasterService(GameMasterServiceConfig{
		Ledger:               ledger,
		TeamService:          f.teams,
		CertificationService: f.certs,
		MinterAddress:        minterAddr,
	})
	return f
}

// newTeam registers gm as a game master if needed and creates a team
func (f *fixture) newTeam(t *testing.T, gm model.Address, members ...model.Address) *model.Team {
	t.Helper()
	if _, err := f.gms.GetGM(f.ctx, gm); err != nil {
		_, err := f.gms.CreateGM(f.ctx, gm, &model.CreateGMRequest{FirstName: "Gary"})
		require.NoError(t, err)
	}
	team, err := f.gms.CreateTeam(f.ctx, gm, &model.CreateTeamRequest{Name: "The Fellowship"})
	require.NoError(t, err)
	for _, m := range members {
		_, err := f.players.JoinTeam(f.ctx, team.ID, m)
		require.NoError(t, err)
	}
	return team
}

// newSession creates a team with members and starts a game for it
func (f *fixture) newSession(t *testing.T, fee string, members ...model.Address) *model.Session {
	t.Helper()
	team := f.newTeam(t, gmAddr, members...)
	session, err := f.gms.StartGame(f.ctx, gmAddr, team.ID, &model.StartGameRequest{Fee: fee})
	require.NoError(t, err)
	return session
}

func (f *fixture) pay(t *testing.T, sessionID uint64, who model.Address, value string) {
	t.Helper()
	_, err := f.sessions.PayFee(f.ctx, sessionID, who, &model.PayFeeRequest{Value: value})
	require.NoError(t, err)
}

// snapshot captures the committed state for no-trace assertions
func (f *fixture) snapshot(t *testing.T) map[repository.Table][][]byte {
	t.Helper()
	out := make(map[repository.Table][][]byte)
	for _, table := range repository.Tables {
		rows, err := f.backend.List(f.ctx, table)
		require.NoError(t, err)
		sort.Slice(rows, func(i, j int) bool { return bytes.Compare(rows[i], rows[j]) < 0 })
		out[table] = rows
	}
	return out
}
