package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/xeonarno/Alyra-blockquest/internal/model"
	"github.com/xeonarno/Alyra-blockquest/internal/service"
)

// SessionHandler handles session ledger requests
type SessionHandler struct {
	sessions *service.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func sessionLinks(id uint64) Links {
	base := fmt.Sprintf("/v1/sessions/%d", id)
	return Links{
		"self":         base,
		"monsters":     base + "/monsters",
		"messages":     base + "/messages",
		"paid_players": base + "/paid-players",
	}
}

// PlayTimeResponse reports the length of an ended session
type PlayTimeResponse struct {
	SessionID uint64 `json:"session_id"`
	Seconds   int64  `json:"seconds"`
	Duration  string `json:"duration"`
}

// Get handles GET /v1/sessions/{sessionId}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "sessionId")
	if !ok {
		return
	}

	summary, err := h.sessions.GetSession(r.Context(), id)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, summary, sessionLinks(id))
}

// PayFee handles POST /v1/sessions/{sessionId}/fee
func (h *SessionHandler) PayFee(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "sessionId")
	if !ok {
		return
	}

	var req model.PayFeeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	session, err := h.sessions.PayFee(r.Context(), id, caller, &req)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, session, sessionLinks(id))
}

// RollDice handles POST /v1/sessions/{sessionId}/dice
func (h *SessionHandler) RollDice(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "sessionId")
	if !ok {
		return
	}

	var req model.RollDiceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	roll, err := h.sessions.RollDice(r.Context(), id, caller, &req)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, roll, nil)
}

// ListMonsters handles GET /v1/sessions/{sessionId}/monsters
func (h *SessionHandler) ListMonsters(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "sessionId")
	if !ok {
		return
	}

	monsters, err := h.sessions.GetMonsters(r.Context(), id)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, monsters, nil)
}

// AddMonster handles POST /v1/sessions/{sessionId}/monsters
func (h *SessionHandler) AddMonster(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "sessionId")
	if !ok {
		return
	}

	var req model.AddMonsterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	monster, err := h.sessions.AddMonster(r.Context(), id, caller, &req)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusCreated, monster, Links{
		"kill": fmt.Sprintf("/v1/sessions/%d/monsters/%d/kill", id, monster.ID),
	})
}

// KillMonster handles POST /v1/sessions/{sessionId}/monsters/{monsterId}/kill
func (h *SessionHandler) KillMonster(w http.ResponseWriter, r *http.Request) {
	h.vacate(w, r, h.sessions.KillMonster)
}

// RemoveMonster handles DELETE /v1/sessions/{sessionId}/monsters/{monsterId}
func (h *SessionHandler) RemoveMonster(w http.ResponseWriter, r *http.Request) {
	h.vacate(w, r, h.sessions.RemoveMonster)
}

type vacateFunc func(ctx context.Context, sessionID uint64, caller model.Address, monsterID uint64) (*model.Session, error)

func (h *SessionHandler) vacate(w http.ResponseWriter, r *http.Request, fn vacateFunc) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "sessionId")
	if !ok {
		return
	}
	monsterID, ok := pathID(w, r, "monsterId")
	if !ok {
		return
	}

	session, err := fn(r.Context(), id, caller, monsterID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, session, sessionLinks(id))
}

// ListMessages handles GET /v1/sessions/{sessionId}/messages
func (h *SessionHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "sessionId")
	if !ok {
		return
	}

	messages, err := h.sessions.GetMessages(r.Context(), id)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, messages, nil)
}

// SendMessage handles POST /v1/sessions/{sessionId}/messages
func (h *SessionHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "sessionId")
	if !ok {
		return
	}

	var req model.SendMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	msg, err := h.sessions.SendMessage(r.Context(), id, caller, &req)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusCreated, msg, nil)
}

// End handles POST /v1/sessions/{sessionId}/end
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "sessionId")
	if !ok {
		return
	}

	session, err := h.sessions.EndSession(r.Context(), id, caller)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, session, sessionLinks(id))
}

// PaidPlayers handles GET /v1/sessions/{sessionId}/paid-players
func (h *SessionHandler) PaidPlayers(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "sessionId")
	if !ok {
		return
	}

	paid, err := h.sessions.GetPaidPlayers(r.Context(), id)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, paid, nil)
}

// IsActivePlayer handles GET /v1/sessions/{sessionId}/players/{address}/active
func (h *SessionHandler) IsActivePlayer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "sessionId")
	if !ok {
		return
	}
	addr, ok := pathAddress(w, r, "address")
	if !ok {
		return
	}

	active, err := h.sessions.IsActivePlayer(r.Context(), id, addr)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, map[string]interface{}{
		"session_id": id,
		"player":     addr,
		"active":     active,
	}, nil)
}

// PlayTime handles GET /v1/sessions/{sessionId}/playtime
func (h *SessionHandler) PlayTime(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "sessionId")
	if !ok {
		return
	}

	d, err := h.sessions.GetTotalPlayTime(r.Context(), id)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, PlayTimeResponse{
		SessionID: id,
		Seconds:   int64(d.Seconds()),
		Duration:  d.String(),
	}, nil)
}
