package model

import "time"

// Team is a roster owned by a game master. Teams are flagged deleted, never removed.
type Team struct {
	ID          uint64    `json:"id"`
	Owner       Address   `json:"owner"`
	Name        string    `json:"name"`
	Image       string    `json:"image,omitempty"`
	Description string    `json:"description,omitempty"`
	Members     []Address `json:"members"`
	Deleted     bool      `json:"deleted"`
	SessionID   uint64    `json:"session_id,omitempty"` // 0 until a game is started
	CreatedOn   time.Time `json:"created_on"`
	UpdatedOn   time.Time `json:"updated_on"`
}

// Business constraints
const (
	MaxMembersPerTeam = 7
	MaxTeamsPerGM     = 10

	MaxTeamNameLength = 100
	MaxTeamDescLength = 500
)

// HasMember reports whether the address is on the roster
func (t *Team) HasMember(a Address) bool {
	return ContainsAddress(t.Members, a)
}

// IsFull returns true once the roster holds MaxMembersPerTeam members
func (t *Team) IsFull() bool {
	return len(t.Members) >= MaxMembersPerTeam
}

// RemoveMember drops the address keeping the remaining join order.
// It reports whether the address was present.
func (t *Team) RemoveMember(a Address) bool {
	for i, m := range t.Members {
		if m == a {
			t.Members = append(t.Members[:i:i], t.Members[i+1:]...)
			return true
		}
	}
	return false
}

// CreateTeamRequest represents a request to create a team
type CreateTeamRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Image       string `json:"image,omitempty" validate:"max=2048"`
	Description string `json:"description,omitempty" validate:"max=500"`
}

// Validate validates the create team request
func (r *CreateTeamRequest) Validate() []FieldError {
	return ValidateStruct(r)
}

// JoinTeamRequest represents a request to join a team
type JoinTeamRequest struct {
	TeamID uint64 `json:"team_id" validate:"required,gt=0"`
}

// Validate validates the join team request
func (r *JoinTeamRequest) Validate() []FieldError {
	return ValidateStruct(r)
}

// TeamAvailability answers whether a caller can still pay into the team's session
type TeamAvailability struct {
	TeamID    uint64 `json:"team_id"`
	SessionID uint64 `json:"session_id,omitempty"`
	Available bool   `json:"available"`
}
