package handler

import (
	"net/http"

	"github.com/xeonarno/Alyra-blockquest/internal/middleware"
)

// RouterConfig holds the handlers and middleware the API is assembled from
type RouterConfig struct {
	Health        *HealthHandler
	Teams         *TeamHandler
	Players       *PlayerHandler
	GameMasters   *GameMasterHandler
	Sessions      *SessionHandler
	Certification *CertificationHandler
	Events        *EventsHandler

	Auth           middleware.AuthService
	RateLimiter    *middleware.RateLimiter
	ReplayStore    *middleware.ReplayStore
	AllowedOrigins []string
}

// NewRouter registers every route and wraps the mux in the global middleware
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	auth := middleware.Auth(cfg.Auth)
	// Writes are authenticated, then limited and de-duplicated per caller.
	write := func(h http.HandlerFunc) http.Handler {
		mws := []middleware.Middleware{auth}
		if cfg.RateLimiter != nil {
			mws = append(mws, middleware.RateLimit(cfg.RateLimiter))
		}
		if cfg.ReplayStore != nil {
			mws = append(mws, middleware.Idempotency(cfg.ReplayStore))
		}
		return middleware.Chain(h, mws...)
	}
	read := func(h http.HandlerFunc) http.Handler {
		return auth(h)
	}
	// Public reads take a token when one is sent so the limiter keys on the
	// caller instead of the remote address.
	public := func(h http.HandlerFunc) http.Handler {
		mws := []middleware.Middleware{middleware.OptionalAuth(cfg.Auth)}
		if cfg.RateLimiter != nil {
			mws = append(mws, middleware.RateLimit(cfg.RateLimiter))
		}
		return middleware.Chain(h, mws...)
	}

	mux.HandleFunc("GET /health", cfg.Health.Health)

	// Game master facade
	mux.Handle("POST /v1/gms", write(cfg.GameMasters.Create))
	mux.Handle("GET /v1/gms/{address}", public(cfg.GameMasters.Get))
	mux.Handle("GET /v1/gms/{address}/teams", public(cfg.Teams.ListByOwner))
	mux.Handle("POST /v1/gms/teams", write(cfg.GameMasters.CreateTeam))
	mux.Handle("POST /v1/gms/teams/{teamId}/games", write(cfg.GameMasters.StartGame))
	mux.Handle("POST /v1/gms/sessions/{sessionId}/complete", write(cfg.GameMasters.CompleteGame))

	// Team directory
	mux.Handle("GET /v1/teams", public(cfg.Teams.List))
	mux.Handle("POST /v1/teams", write(cfg.Teams.Create))
	mux.Handle("GET /v1/teams/{teamId}", public(cfg.Teams.Get))
	mux.Handle("DELETE /v1/teams/{teamId}", write(cfg.Teams.Delete))
	mux.Handle("GET /v1/teams/{teamId}/availability", read(cfg.Teams.Availability))

	// Player registry
	mux.Handle("POST /v1/players", write(cfg.Players.Register))
	mux.Handle("GET /v1/players/{address}", public(cfg.Players.Get))
	mux.Handle("POST /v1/players/team", write(cfg.Players.JoinTeam))
	mux.Handle("DELETE /v1/players/team", write(cfg.Players.LeaveTeam))

	// Session ledger
	mux.Handle("GET /v1/sessions/{sessionId}", public(cfg.Sessions.Get))
	mux.Handle("POST /v1/sessions/{sessionId}/fee", write(cfg.Sessions.PayFee))
	mux.Handle("POST /v1/sessions/{sessionId}/dice", write(cfg.Sessions.RollDice))
	mux.Handle("GET /v1/sessions/{sessionId}/monsters", public(cfg.Sessions.ListMonsters))
	mux.Handle("POST /v1/sessions/{sessionId}/monsters", write(cfg.Sessions.AddMonster))
	mux.Handle("POST /v1/sessions/{sessionId}/monsters/{monsterId}/kill", write(cfg.Sessions.KillMonster))
	mux.Handle("DELETE /v1/sessions/{sessionId}/monsters/{monsterId}", write(cfg.Sessions.RemoveMonster))
	mux.Handle("GET /v1/sessions/{sessionId}/messages", public(cfg.Sessions.ListMessages))
	mux.Handle("POST /v1/sessions/{sessionId}/messages", write(cfg.Sessions.SendMessage))
	mux.Handle("POST /v1/sessions/{sessionId}/end", write(cfg.Sessions.End))
	mux.Handle("GET /v1/sessions/{sessionId}/paid-players", public(cfg.Sessions.PaidPlayers))
	mux.Handle("GET /v1/sessions/{sessionId}/players/{address}/active", public(cfg.Sessions.IsActivePlayer))
	mux.Handle("GET /v1/sessions/{sessionId}/playtime", public(cfg.Sessions.PlayTime))

	// Certification registry
	mux.Handle("POST /v1/diplomas", write(cfg.Certification.Mint))
	mux.Handle("GET /v1/diplomas/{tokenId}", public(cfg.Certification.Get))
	mux.Handle("GET /v1/diplomas/{tokenId}/uri", public(cfg.Certification.TokenURI))
	mux.Handle("GET /v1/players/{address}/diplomas", public(cfg.Certification.PlayerDiplomas))
	mux.Handle("GET /v1/players/{address}/certificates", public(cfg.Certification.PlayerCertificates))
	mux.Handle("GET /v1/players/{address}/certificates/{index}", public(cfg.Certification.PlayerCertificate))

	// Observers
	mux.Handle("GET /v1/events", public(cfg.Events.List))
	mux.HandleFunc("GET /v1/events/stream", cfg.Events.Stream)
	mux.HandleFunc("GET /v1/events/ws", cfg.Events.WebSocket)

	return middleware.Chain(
		mux,
		middleware.Recovery,
		middleware.RequestID,
		middleware.Logger,
		middleware.CORS(cfg.AllowedOrigins),
		middleware.Compress,
	)
}
