package handler

import (
	"fmt"
	"net/http"

	"github.com/xeonarno/Alyra-blockquest/internal/model"
	"github.com/xeonarno/Alyra-blockquest/internal/service"
)

// PlayerHandler handles player registry requests
type PlayerHandler struct {
	players *service.PlayerService
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(players *service.PlayerService) *PlayerHandler {
	return &PlayerHandler{players: players}
}

func playerLinks(p *model.Player) Links {
	links := Links{
		"self":         "/v1/players/" + p.Address.String(),
		"diplomas":     "/v1/players/" + p.Address.String() + "/diplomas",
		"certificates": "/v1/players/" + p.Address.String() + "/certificates",
	}
	if p.TeamID != 0 {
		links["team"] = fmt.Sprintf("/v1/teams/%d", p.TeamID)
	}
	return links
}

// Register handles POST /v1/players - create or update the caller's profile
func (h *PlayerHandler) Register(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req model.RegisterPlayerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	player, err := h.players.RegisterPlayer(r.Context(), caller, &req)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, player, playerLinks(player))
}

// Get handles GET /v1/players/{address}
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r, "address")
	if !ok {
		return
	}

	player, err := h.players.GetPlayer(r.Context(), addr)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, player, playerLinks(player))
}

// JoinTeam handles POST /v1/players/team
func (h *PlayerHandler) JoinTeam(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req model.JoinTeamRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		WriteError(w, model.NewValidationError(errs))
		return
	}

	player, err := h.players.JoinTeam(r.Context(), req.TeamID, caller)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, player, playerLinks(player))
}

// LeaveTeam handles DELETE /v1/players/team
func (h *PlayerHandler) LeaveTeam(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	player, err := h.players.LeaveTeam(r.Context(), caller)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, player, playerLinks(player))
}
