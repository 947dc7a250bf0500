package handler

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeonarno/Alyra-blockquest/internal/model"
	"github.com/xeonarno/Alyra-blockquest/pkg/jwt"
)

// startedGame registers the GM, builds a team of members and starts a game
func startedGame(t *testing.T, api *apiHarness, fee string, members ...model.Address) (teamID, sessionID uint64) {
	t.Helper()

	resp := api.do(http.MethodPost, "/v1/gms", gmAddr, map[string]string{"first_name": "Gary"})
	require.Equal(t, http.StatusCreated, resp.Status, string(resp.Body))

	resp = api.do(http.MethodPost, "/v1/gms/teams", gmAddr, map[string]string{"name": "The Fellowship"})
	require.Equal(t, http.StatusCreated, resp.Status, string(resp.Body))
	var team model.Team
	resp.Data(t, &team)

	for _, m := range members {
		resp = api.do(http.MethodPost, "/v1/players/team", m, map[string]uint64{"team_id": team.ID})
		require.Equal(t, http.StatusOK, resp.Status, string(resp.Body))
	}

	resp = api.do(http.MethodPost, fmt.Sprintf("/v1/gms/teams/%d/games", team.ID), gmAddr, map[string]string{"fee": fee})
	require.Equal(t, http.StatusCreated, resp.Status, string(resp.Body))
	var session model.Session
	resp.Data(t, &session)
	return team.ID, session.ID
}

func TestHealth(t *testing.T) {
	t.Parallel()
	api := newAPI(t)

	resp := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Contains(t, string(resp.Body), `"status":"ok"`)
}

func TestWriteRoutes_RequireToken(t *testing.T) {
	t.Parallel()
	api := newAPI(t)

	resp := api.do(http.MethodPost, "/v1/players", "", map[string]string{"first_name": "Frodo"})
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
	assert.Equal(t, "missing authorization header", resp.Problem(t).Detail)
}

func TestPlayer_RegisterAndGet(t *testing.T) {
	t.Parallel()
	api := newAPI(t)

	resp := api.do(http.MethodPost, "/v1/players", aliceAddr, map[string]string{"first_name": "Frodo", "last_name": "Baggins"})
	require.Equal(t, http.StatusOK, resp.Status, string(resp.Body))

	// lower-case path addresses resolve to the same checksummed identity
	resp = api.do(http.MethodGet, "/v1/players/"+strings.ToLower(aliceAddr.String()), "", nil)
	require.Equal(t, http.StatusOK, resp.Status)
	var p model.Player
	resp.Data(t, &p)
	assert.Equal(t, aliceAddr, p.Address)
	assert.Equal(t, "Frodo", p.FirstName)
	assert.True(t, p.Character.IsAlive)

	resp = api.do(http.MethodGet, "/v1/players/"+bobAddr.String(), "", nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, "Player does not exist", resp.Problem(t).Detail)

	resp = api.do(http.MethodGet, "/v1/players/not-an-address", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Status)
}

func TestPlayer_RegisterValidation(t *testing.T) {
	t.Parallel()
	api := newAPI(t)

	resp := api.do(http.MethodPost, "/v1/players", aliceAddr, map[string]string{"last_name": "Baggins"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Status)
	p := resp.Problem(t)
	require.Len(t, p.Errors, 1)
	assert.Equal(t, "first_name", p.Errors[0].Field)

	resp = api.do(http.MethodPost, "/v1/players", aliceAddr, map[string]string{"first_name": "Frodo", "ring": "one"})
	assert.Equal(t, http.StatusBadRequest, resp.Status, "unknown fields are rejected")
}

func TestTeam_ErrorMapping(t *testing.T) {
	t.Parallel()
	api := newAPI(t)
	teamID, _ := startedGame(t, api, "1", aliceAddr)

	resp := api.do(http.MethodPost, "/v1/players/team", aliceAddr, map[string]uint64{"team_id": teamID})
	assert.Equal(t, http.StatusConflict, resp.Status)
	assert.Equal(t, "Player already in this team", resp.Problem(t).Detail)

	resp = api.do(http.MethodGet, "/v1/teams/999", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, "Team does not exist", resp.Problem(t).Detail)

	resp = api.do(http.MethodDelete, fmt.Sprintf("/v1/teams/%d", teamID), aliceAddr, nil)
	assert.Equal(t, http.StatusForbidden, resp.Status)
	assert.Equal(t, "Only GM can delete the team", resp.Problem(t).Detail)

	resp = api.do(http.MethodGet, "/v1/teams/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Status)

	resp = api.do(http.MethodPost, "/v1/players/team", bobAddr, map[string]uint64{"team_id": 0})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Status)
}

func TestTeam_FullIsLimitExceeded(t *testing.T) {
	t.Parallel()
	api := newAPI(t)

	resp := api.do(http.MethodPost, "/v1/gms", gmAddr, map[string]string{"first_name": "Gary"})
	require.Equal(t, http.StatusCreated, resp.Status)
	resp = api.do(http.MethodPost, "/v1/gms/teams", gmAddr, map[string]string{"name": "Crowded"})
	require.Equal(t, http.StatusCreated, resp.Status)
	var team model.Team
	resp.Data(t, &team)

	for i := 0; i < model.MaxMembersPerTeam; i++ {
		member := model.MustParseAddress(fmt.Sprintf("0x%040x", 0x2000+i))
		resp = api.do(http.MethodPost, "/v1/players/team", member, map[string]uint64{"team_id": team.ID})
		require.Equal(t, http.StatusOK, resp.Status, string(resp.Body))
	}

	resp = api.do(http.MethodPost, "/v1/players/team", aliceAddr, map[string]uint64{"team_id": team.ID})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Status)
	p := resp.Problem(t)
	assert.Equal(t, "Team is full", p.Detail)
	assert.Equal(t, model.ErrCodeLimitExceeded, p.Code)
	require.NotNil(t, p.Limit)
	assert.Equal(t, model.MaxMembersPerTeam, *p.Limit)
}

func TestGM_CreateTeamRequiresProfile(t *testing.T) {
	t.Parallel()
	api := newAPI(t)

	resp := api.do(http.MethodPost, "/v1/gms/teams", aliceAddr, map[string]string{"name": "Rogue"})
	assert.Equal(t, http.StatusForbidden, resp.Status)

	resp = api.do(http.MethodPost, "/v1/gms", gmAddr, map[string]string{"first_name": "Gary"})
	require.Equal(t, http.StatusCreated, resp.Status)
	resp = api.do(http.MethodPost, "/v1/gms", gmAddr, map[string]string{"first_name": "Gary"})
	assert.Equal(t, http.StatusConflict, resp.Status)
	assert.Equal(t, "GM already exists", resp.Problem(t).Detail)
}

func TestSession_GameFlow(t *testing.T) {
	t.Parallel()
	api := newAPI(t)
	teamID, sid := startedGame(t, api, "100", aliceAddr, bobAddr)
	base := fmt.Sprintf("/v1/sessions/%d", sid)

	// availability before anyone paid
	resp := api.do(http.MethodGet, fmt.Sprintf("/v1/teams/%d/availability", teamID), aliceAddr, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	var avail model.TeamAvailability
	resp.Data(t, &avail)
	assert.True(t, avail.Available)

	resp = api.do(http.MethodPost, base+"/fee", bobAddr, map[string]string{"value": "50"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Status)
	problem := resp.Problem(t)
	require.Len(t, problem.Errors, 1)
	assert.Equal(t, model.FieldError{Field: "value", Message: "Insufficient fee"}, problem.Errors[0])

	resp = api.do(http.MethodPost, base+"/fee", aliceAddr, map[string]string{"value": "100"})
	require.Equal(t, http.StatusOK, resp.Status, string(resp.Body))

	resp = api.do(http.MethodPost, base+"/fee", aliceAddr, map[string]string{"value": "100"})
	assert.Equal(t, http.StatusConflict, resp.Status)
	assert.Equal(t, "Player has already paid", resp.Problem(t).Detail)

	resp = api.do(http.MethodPost, base+"/dice", aliceAddr, map[string]uint32{"sides": 20})
	require.Equal(t, http.StatusOK, resp.Status)
	var roll model.DiceRoll
	resp.Data(t, &roll)
	assert.Equal(t, uint32(6), roll.Value)

	resp = api.do(http.MethodPost, base+"/dice", bobAddr, map[string]uint32{"sides": 20})
	assert.Equal(t, http.StatusForbidden, resp.Status)
	assert.Equal(t, "Only active players or Game Master can perform this action", resp.Problem(t).Detail)

	resp = api.do(http.MethodPost, base+"/monsters", gmAddr, map[string]interface{}{"name": "Balrog", "gold_reward": 50})
	require.Equal(t, http.StatusCreated, resp.Status, string(resp.Body))
	var monster model.Monster
	resp.Data(t, &monster)

	resp = api.do(http.MethodPost, fmt.Sprintf("%s/monsters/%d/kill", base, monster.ID), aliceAddr, nil)
	assert.Equal(t, http.StatusForbidden, resp.Status)
	resp = api.do(http.MethodPost, fmt.Sprintf("%s/monsters/%d/kill", base, monster.ID), gmAddr, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	resp = api.do(http.MethodDelete, fmt.Sprintf("%s/monsters/%d", base, monster.ID), gmAddr, nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, "Monster does not exist", resp.Problem(t).Detail)

	resp = api.do(http.MethodPost, base+"/messages", aliceAddr, map[string]string{"text": "You shall not pass"})
	require.Equal(t, http.StatusCreated, resp.Status)
	resp = api.do(http.MethodGet, base+"/messages", "", nil)
	var messages []model.Message
	resp.Data(t, &messages)
	require.Len(t, messages, 1)
	assert.Equal(t, aliceAddr, messages[0].Sender)

	resp = api.do(http.MethodGet, base+"/playtime", "", nil)
	assert.Equal(t, http.StatusConflict, resp.Status)

	resp = api.do(http.MethodGet, base, "", nil)
	require.Equal(t, http.StatusOK, resp.Status)
	var summary struct {
		model.Session
		MonsterCount int `json:"monster_count"`
	}
	resp.Data(t, &summary)
	assert.Equal(t, uint64(1), summary.MonstersKilled)
	assert.Equal(t, uint64(50), summary.TotalGold)
	assert.Equal(t, "100", summary.Escrow.String())
	assert.Zero(t, summary.MonsterCount)

	resp = api.do(http.MethodGet, base+"/players/"+aliceAddr.String()+"/active", "", nil)
	assert.Contains(t, string(resp.Body), `"active":true`)
	resp = api.do(http.MethodGet, base+"/players/"+bobAddr.String()+"/active", "", nil)
	assert.Contains(t, string(resp.Body), `"active":false`)

	resp = api.do(http.MethodGet, base+"/paid-players", "", nil)
	var paid []model.Address
	resp.Data(t, &paid)
	assert.Equal(t, []model.Address{aliceAddr}, paid)
}

func TestGM_CompleteGameMintsDiplomas(t *testing.T) {
	t.Parallel()
	api := newAPI(t)
	teamID, sid := startedGame(t, api, "10", aliceAddr, bobAddr)

	resp := api.do(http.MethodPost, fmt.Sprintf("/v1/sessions/%d/fee", sid), aliceAddr, map[string]string{"value": "10"})
	require.Equal(t, http.StatusOK, resp.Status)

	resp = api.do(http.MethodPost, fmt.Sprintf("/v1/gms/sessions/%d/complete", sid), aliceAddr, nil)
	assert.Equal(t, http.StatusForbidden, resp.Status)

	resp = api.do(http.MethodPost, fmt.Sprintf("/v1/gms/sessions/%d/complete", sid), gmAddr, nil)
	require.Equal(t, http.StatusOK, resp.Status, string(resp.Body))
	var done struct {
		TokenIDs []uint64 `json:"token_ids"`
	}
	resp.Data(t, &done)
	assert.Equal(t, []uint64{0}, done.TokenIDs)

	resp = api.do(http.MethodPost, fmt.Sprintf("/v1/sessions/%d/end", sid), gmAddr, nil)
	assert.Equal(t, http.StatusConflict, resp.Status)
	assert.Equal(t, "Session has been ended", resp.Problem(t).Detail)

	resp = api.do(http.MethodGet, fmt.Sprintf("/v1/sessions/%d/playtime", sid), "", nil)
	assert.Equal(t, http.StatusOK, resp.Status)

	resp = api.do(http.MethodGet, "/v1/diplomas/0", "", nil)
	require.Equal(t, http.StatusOK, resp.Status)
	var diploma model.Diploma
	resp.Data(t, &diploma)
	assert.Equal(t, aliceAddr, diploma.Player)
	assert.Equal(t, teamID, diploma.TeamID)

	resp = api.do(http.MethodGet, "/v1/players/"+aliceAddr.String()+"/diplomas", "", nil)
	var ids []uint64
	resp.Data(t, &ids)
	assert.Equal(t, []uint64{0}, ids)

	resp = api.do(http.MethodGet, "/v1/players/"+bobAddr.String()+"/diplomas", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, "Player does not have any certificates", resp.Problem(t).Detail)

	resp = api.do(http.MethodGet, "/v1/players/"+aliceAddr.String()+"/certificates/0", "", nil)
	require.Equal(t, http.StatusOK, resp.Status)
	var cert struct {
		URI string `json:"uri"`
	}
	resp.Data(t, &cert)
	require.True(t, strings.HasPrefix(cert.URI, model.CertificateURIPrefix))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(cert.URI, model.CertificateURIPrefix))
	require.NoError(t, err)
	var meta model.CertificateMetadata
	require.NoError(t, json.Unmarshal(raw, &meta))
	assert.Equal(t, "BlockQuest Diploma #0", meta.Name)

	resp = api.do(http.MethodGet, "/v1/players/"+aliceAddr.String()+"/certificates/1", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)
}

func TestDiplomas_MintAuthorisation(t *testing.T) {
	t.Parallel()
	api := newAPI(t)
	req := map[string]interface{}{"player": aliceAddr, "team_id": 1, "date": "2024-05-01"}

	resp := api.do(http.MethodPost, "/v1/diplomas", aliceAddr, req)
	assert.Equal(t, http.StatusForbidden, resp.Status)

	// an admin token acts as the registry owner whatever its subject
	resp = api.doAs(http.MethodPost, "/v1/diplomas", bobAddr, jwt.RoleAdmin, req)
	require.Equal(t, http.StatusCreated, resp.Status, string(resp.Body))

	resp = api.do(http.MethodPost, "/v1/diplomas", minterAddr, req)
	require.Equal(t, http.StatusCreated, resp.Status)
	var d model.Diploma
	resp.Data(t, &d)
	assert.Equal(t, uint64(1), d.TokenID)

	resp = api.do(http.MethodGet, "/v1/diplomas/1/uri", "", nil)
	assert.Equal(t, http.StatusOK, resp.Status)
	resp = api.do(http.MethodGet, "/v1/diplomas/7", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)
}

func TestIdempotentFeePayment(t *testing.T) {
	t.Parallel()
	api := newAPI(t)
	_, sid := startedGame(t, api, "10", aliceAddr)

	send := func() *http.Response {
		req, err := http.NewRequest(http.MethodPost,
			fmt.Sprintf("%s/v1/sessions/%d/fee", api.server.URL, sid),
			strings.NewReader(`{"value":"10"}`))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+api.token(aliceAddr, ""))
		req.Header.Set("Idempotency-Key", "pay-once")
		resp, err := api.server.Client().Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		return resp
	}

	first := send()
	second := send()
	assert.Equal(t, http.StatusOK, first.StatusCode)
	assert.Equal(t, http.StatusOK, second.StatusCode, "the retry replays instead of failing as already paid")
	assert.Equal(t, "true", second.Header.Get("X-Idempotency-Replayed"))
}
