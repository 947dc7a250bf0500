package handler

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xeonarno/Alyra-blockquest/internal/middleware"
	"github.com/xeonarno/Alyra-blockquest/internal/model"
	"github.com/xeonarno/Alyra-blockquest/internal/repository"
	"github.com/xeonarno/Alyra-blockquest/internal/service"
	"github.com/xeonarno/Alyra-blockquest/internal/service/dice"
	"github.com/xeonarno/Alyra-blockquest/pkg/jwt"
)

var (
	gmAddr     = model.MustParseAddress("0x5B38Da6a701c568545dCfcB03FcB875f56beddC4")
	aliceAddr  = model.MustParseAddress("0xAb8483F64d9C6d1EcF9b849Ae677dD3315835cb2")
	bobAddr    = model.MustParseAddress("0x4B20993Bc481177ec7E8f571ceCaE8A9e22C02db")
	ownerAddr  = model.MustParseAddress("0x617F2E2fD72FD9D5503197092aC168c91465E7f2")
	minterAddr = model.MustParseAddress("0x000000000000000000000000000000000000b10c")
)

var (
	keyOnce sync.Once
	testKey *rsa.PrivateKey
)

func signingKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	keyOnce.Do(func() {
		var err error
		testKey, err = rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
	})
	return testKey
}

type apiHarness struct {
	t      *testing.T
	server *httptest.Server
	tokens *jwt.Service
	hub    *service.EventHub
}

func newAPI(t *testing.T) *apiHarness {
	t.Helper()
	return newLimitedAPI(t, middleware.RateLimitConfig{Rate: 1000})
}

func newLimitedAPI(t *testing.T, limits middleware.RateLimitConfig) *apiHarness {
	t.Helper()

	hub := service.NewEventHub()
	t.Cleanup(hub.Close)

	store := repository.NewStore(repository.StoreConfig{
		Backend: repository.NewMemoryBackend(),
		Sinks:   []repository.EventSink{hub},
	})
	ledger := service.LedgerFrom[*repository.Tx](store)

	renderer, err := service.NewCertificateRenderer()
	require.NoError(t, err)

	teams := service.NewTeamService(service.TeamServiceConfig{Ledger: ledger})
	players := service.NewPlayerService(service.PlayerServiceConfig{Ledger: ledger, TeamService: teams})
	sessions := service.NewSessionService(service.SessionServiceConfig{Ledger: ledger, Dice: dice.NewScripted(6)})
	certs := service.NewCertificationService(service.CertificationServiceConfig{
		Ledger:   ledger,
		Renderer: renderer,
		Owner:    ownerAddr,
		Minters:  []model.Address{minterAddr},
	})
	gms := service.NewGameMasterService(service.GameMasterServiceConfig{
		Ledger:               ledger,
		TeamService:          teams,
		CertificationService: certs,
		MinterAddress:        minterAddr,
	})

	tokens := jwt.NewTestService(signingKey(t), "blockquest-test", 15*time.Minute)
	limiter := middleware.NewRateLimiter(limits)
	t.Cleanup(limiter.Stop)
	replays := middleware.NewReplayStore(middleware.ReplayConfig{})
	t.Cleanup(replays.Stop)

	router := NewRouter(RouterConfig{
		Health:         NewHealthHandler(nil),
		Teams:          NewTeamHandler(teams, players),
		Players:        NewPlayerHandler(players),
		GameMasters:    NewGameMasterHandler(gms),
		Sessions:       NewSessionHandler(sessions),
		Certification:  NewCertificationHandler(certs),
		Events:         NewEventsHandler(EventsHandlerConfig{EventHub: hub, AllowedOrigins: []string{"*"}}),
		Auth:           tokens,
		RateLimiter:    limiter,
		ReplayStore:    replays,
		AllowedOrigins: []string{"*"},
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &apiHarness{t: t, server: srv, tokens: tokens, hub: hub}
}

func (a *apiHarness) token(who model.Address, role string) string {
	a.t.Helper()
	tok, err := a.tokens.Sign(who.String(), role)
	require.NoError(a.t, err)
	return tok
}

type apiResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

// Data decodes the "data" member of a success envelope
func (r *apiResponse) Data(t *testing.T, v interface{}) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(r.Body, &env), string(r.Body))
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func (r *apiResponse) Problem(t *testing.T) model.ProblemDetails {
	t.Helper()
	var p model.ProblemDetails
	require.NoError(t, json.Unmarshal(r.Body, &p), string(r.Body))
	return p
}

// do sends a request as caller; a zero caller sends no token
func (a *apiHarness) do(method, path string, caller model.Address, body interface{}) *apiResponse {
	return a.doAs(method, path, caller, "", body)
}

func (a *apiHarness) doAs(method, path string, caller model.Address, role string, body interface{}) *apiResponse {
	a.t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(a.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !caller.IsZero() {
		req.Header.Set("Authorization", "Bearer "+a.token(caller, role))
	}

	resp, err := a.server.Client().Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return &apiResponse{Status: resp.StatusCode, Header: resp.Header, Body: out}
}
