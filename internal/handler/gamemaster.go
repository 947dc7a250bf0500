package handler

import (
	"fmt"
	"net/http"

	"github.com/xeonarno/Alyra-blockquest/internal/model"
	"github.com/xeonarno/Alyra-blockquest/internal/service"
)

// GameMasterHandler handles the game master facade
type GameMasterHandler struct {
	gms *service.GameMasterService
}

// NewGameMasterHandler creates a new game master handler
func NewGameMasterHandler(gms *service.GameMasterService) *GameMasterHandler {
	return &GameMasterHandler{gms: gms}
}

// Create handles POST /v1/gms - register the caller as a game master
func (h *GameMasterHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req model.CreateGMRequest
	if !decodeBody(w, r, &req) {
		return
	}

	gm, err := h.gms.CreateGM(r.Context(), caller, &req)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusCreated, gm, Links{
		"self":  "/v1/gms/" + gm.Address.String(),
		"teams": "/v1/gms/" + gm.Address.String() + "/teams",
	})
}

// Get handles GET /v1/gms/{address}
func (h *GameMasterHandler) Get(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r, "address")
	if !ok {
		return
	}

	gm, err := h.gms.GetGM(r.Context(), addr)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, gm, nil)
}

// CreateTeam handles POST /v1/gms/teams
func (h *GameMasterHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req model.CreateTeamRequest
	if !decodeBody(w, r, &req) {
		return
	}

	team, err := h.gms.CreateTeam(r.Context(), caller, &req)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusCreated, team, teamLinks(team))
}

// StartGame handles POST /v1/gms/teams/{teamId}/games
func (h *GameMasterHandler) StartGame(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	teamID, ok := pathID(w, r, "teamId")
	if !ok {
		return
	}

	var req model.StartGameRequest
	if !decodeBody(w, r, &req) {
		return
	}

	session, err := h.gms.StartGame(r.Context(), caller, teamID, &req)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusCreated, session, sessionLinks(session.ID))
}

// CompleteGame handles POST /v1/gms/sessions/{sessionId}/complete - end the
// session and mint a diploma for every paid player
func (h *GameMasterHandler) CompleteGame(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	sessionID, ok := pathID(w, r, "sessionId")
	if !ok {
		return
	}

	tokens, err := h.gms.CompleteGame(r.Context(), caller, sessionID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	links := sessionLinks(sessionID)
	for i, id := range tokens {
		links[fmt.Sprintf("diploma_%d", i)] = fmt.Sprintf("/v1/diplomas/%d", id)
	}
	WriteData(w, http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"token_ids":  tokens,
	}, links)
}
