package model

import "time"

// Session is one paid game occurrence for a team. Active goes true to false once.
type Session struct {
	ID             uint64     `json:"id"`
	TeamID         uint64     `json:"team_id"`
	GameMaster     Address    `json:"game_master"`
	AllowList      []Address  `json:"allow_list"`
	Paid           []Address  `json:"paid"` // payment order
	Fee            Wei        `json:"fee"`
	Escrow         Wei        `json:"escrow"`
	Active         bool       `json:"active"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	Monsters       []*Monster `json:"monsters"` // index is the monster id; nil marks a vacated slot
	MonstersKilled uint64     `json:"monsters_killed"`
	TotalGold      uint64     `json:"total_gold"`
	Messages       []Message  `json:"messages"`
}

// Monster is an opponent registered by the game master
type Monster struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	Attack     uint64 `json:"attack"`
	Defense    uint64 `json:"defense"`
	HitPoints  uint64 `json:"hit_points"`
	XPReward   uint64 `json:"xp_reward"`
	GoldReward uint64 `json:"gold_reward"`
}

// Message is one entry of the session chat log
type Message struct {
	Sender Address   `json:"sender"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// SessionRole is what a caller is allowed to do inside a session
type SessionRole string

const (
	SessionRoleGameMaster    SessionRole = "game_master"
	SessionRolePaidPlayer    SessionRole = "paid_player"
	SessionRoleAllowedPlayer SessionRole = "allowed_player" // on the roster snapshot, not paid yet
	SessionRoleNone          SessionRole = "none"
)

// CanParticipate returns true for roles allowed to roll dice and send messages
func (r SessionRole) CanParticipate() bool {
	return r == SessionRoleGameMaster || r == SessionRolePaidPlayer
}

// RoleOf resolves the caller's role
func (s *Session) RoleOf(caller Address) SessionRole {
	switch {
	case caller == s.GameMaster:
		return SessionRoleGameMaster
	case ContainsAddress(s.Paid, caller):
		return SessionRolePaidPlayer
	case ContainsAddress(s.AllowList, caller):
		return SessionRoleAllowedPlayer
	default:
		return SessionRoleNone
	}
}

// HasPaid reports whether the caller is in the paid list
func (s *Session) HasPaid(caller Address) bool {
	return ContainsAddress(s.Paid, caller)
}

// IsAllowed reports whether the caller was on the roster when the session started
func (s *Session) IsAllowed(caller Address) bool {
	return ContainsAddress(s.AllowList, caller)
}

// MonsterCount returns the number of monsters still in play
func (s *Session) MonsterCount() int {
	n := 0
	for _, m := range s.Monsters {
		if m != nil {
			n++
		}
	}
	return n
}

// Monster returns the monster in slot id, or nil when the slot is vacant or out of range
func (s *Session) Monster(id uint64) *Monster {
	if id >= uint64(len(s.Monsters)) {
		return nil
	}
	return s.Monsters[id]
}

// LiveMonsters returns the monsters still in play in slot order
func (s *Session) LiveMonsters() []Monster {
	out := make([]Monster, 0, len(s.Monsters))
	for _, m := range s.Monsters {
		if m != nil {
			out = append(out, *m)
		}
	}
	return out
}

// PlayTime returns end minus start; ok is false while the session is active
func (s *Session) PlayTime() (time.Duration, bool) {
	if s.EndTime == nil {
		return 0, false
	}
	return s.EndTime.Sub(s.StartTime), true
}

// SessionSummary is the read model returned for a session
type SessionSummary struct {
	*Session
	MonsterCount int `json:"monster_count"`
}

// PayFeeRequest represents a fee payment
type PayFeeRequest struct {
	Value string `json:"value" validate:"required,numeric"`
}

// Validate validates the pay fee request
func (r *PayFeeRequest) Validate() []FieldError {
	return ValidateStruct(r)
}

// RollDiceRequest represents a dice roll
type RollDiceRequest struct {
	Sides uint32 `json:"sides" validate:"required,gte=1"`
}

// Validate validates the roll dice request
func (r *RollDiceRequest) Validate() []FieldError {
	return ValidateStruct(r)
}

// DiceRoll is the outcome of a roll
type DiceRoll struct {
	SessionID uint64  `json:"session_id"`
	Roller    Address `json:"roller"`
	Sides     uint32  `json:"sides"`
	Value     uint32  `json:"value"`
}

// AddMonsterRequest represents a request to register a monster
type AddMonsterRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	Attack     uint64 `json:"attack"`
	Defense    uint64 `json:"defense"`
	HitPoints  uint64 `json:"hit_points"`
	XPReward   uint64 `json:"xp_reward"`
	GoldReward uint64 `json:"gold_reward"`
}

// Validate validates the add monster request
func (r *AddMonsterRequest) Validate() []FieldError {
	return ValidateStruct(r)
}

// ToMonster converts the request into an unslotted monster
func (r *AddMonsterRequest) ToMonster() Monster {
	return Monster{
		Name:       r.Name,
		Attack:     r.Attack,
		Defense:    r.Defense,
		HitPoints:  r.HitPoints,
		XPReward:   r.XPReward,
		GoldReward: r.GoldReward,
	}
}

// SendMessageRequest represents a chat message
type SendMessageRequest struct {
	Text string `json:"text" validate:"required,max=1000"`
}

// Validate validates the send message request
func (r *SendMessageRequest) Validate() []FieldError {
	return ValidateStruct(r)
}
