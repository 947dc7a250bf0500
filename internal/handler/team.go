package handler

import (
	"fmt"
	"net/http"

	"github.com/xeonarno/Alyra-blockquest/internal/model"
	"github.com/xeonarno/Alyra-blockquest/internal/service"
)

// TeamHandler handles team directory requests
type TeamHandler struct {
	teams   *service.TeamService
	players *service.PlayerService
}

// NewTeamHandler creates a new team handler
func NewTeamHandler(teams *service.TeamService, players *service.PlayerService) *TeamHandler {
	return &TeamHandler{teams: teams, players: players}
}

func teamLinks(t *model.Team) Links {
	links := Links{
		"self":         fmt.Sprintf("/v1/teams/%d", t.ID),
		"availability": fmt.Sprintf("/v1/teams/%d/availability", t.ID),
	}
	if t.SessionID != 0 {
		links["session"] = fmt.Sprintf("/v1/sessions/%d", t.SessionID)
	}
	return links
}

// Create handles POST /v1/teams - create a team owned by the caller.
// Game masters normally go through POST /v1/gms/teams, which also checks
// the caller has a GM profile.
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req model.CreateTeamRequest
	if !decodeBody(w, r, &req) {
		return
	}

	team, err := h.teams.CreateTeam(r.Context(), caller, &req)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusCreated, team, teamLinks(team))
}

// Get handles GET /v1/teams/{teamId}
func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	teamID, ok := pathID(w, r, "teamId")
	if !ok {
		return
	}

	team, err := h.teams.GetTeam(r.Context(), teamID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, team, teamLinks(team))
}

// List handles GET /v1/teams
func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teams.ListTeams(r.Context())
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, teams, nil)
}

// ListByOwner handles GET /v1/gms/{address}/teams
func (h *TeamHandler) ListByOwner(w http.ResponseWriter, r *http.Request) {
	owner, ok := pathAddress(w, r, "address")
	if !ok {
		return
	}

	teams, err := h.teams.ListTeamsByOwner(r.Context(), owner)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	active, err := h.teams.CountActiveTeams(r.Context(), owner)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"data":         teams,
		"active_count": active,
		"limit":        model.MaxTeamsPerGM,
	})
}

// Delete handles DELETE /v1/teams/{teamId}
func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	teamID, ok := pathID(w, r, "teamId")
	if !ok {
		return
	}

	if err := h.teams.DeleteTeam(r.Context(), teamID, caller); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteNoContent(w)
}

// Availability handles GET /v1/teams/{teamId}/availability - whether the
// caller can still pay into the team's current session
func (h *TeamHandler) Availability(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	teamID, ok := pathID(w, r, "teamId")
	if !ok {
		return
	}

	avail, err := h.players.CheckSessionAvailability(r.Context(), teamID, caller)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, avail, nil)
}
