package model

import "time"

// Character is the in-game state attached to a player
type Character struct {
	IsAlive bool   `json:"is_alive"`
	Level   uint32 `json:"level"`
}

// Player is a participant profile keyed by address
type Player struct {
	Address     Address   `json:"address"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name,omitempty"`
	Image       string    `json:"image,omitempty"`
	Description string    `json:"description,omitempty"`
	TeamID      uint64    `json:"team_id"` // 0 = no team
	Character   Character `json:"character"`
	Registered  bool      `json:"registered"`
	CreatedOn   time.Time `json:"created_on"`
	UpdatedOn   time.Time `json:"updated_on"`
}

// RegisterPlayerRequest represents a request to create or update a player profile
type RegisterPlayerRequest struct {
	FirstName   string `json:"first_name" validate:"required,max=100"`
	LastName    string `json:"last_name,omitempty" validate:"max=100"`
	Image       string `json:"image,omitempty" validate:"max=2048"`
	Description string `json:"description,omitempty" validate:"max=500"`
}

// Validate validates the register player request
func (r *RegisterPlayerRequest) Validate() []FieldError {
	return ValidateStruct(r)
}
