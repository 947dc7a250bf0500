package model

import "time"

// GameMaster is a game master profile. It lives in its own namespace, so an
// address may hold both a player and a game master profile.
type GameMaster struct {
	Address     Address   `json:"address"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name,omitempty"`
	Image       string    `json:"image,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedOn   time.Time `json:"created_on"`
}

// CreateGMRequest represents a request to create a game master profile
type CreateGMRequest struct {
	FirstName   string `json:"first_name" validate:"required,max=100"`
	LastName    string `json:"last_name,omitempty" validate:"max=100"`
	Image       string `json:"image,omitempty" validate:"max=2048"`
	Description string `json:"description,omitempty" validate:"max=500"`
}

// Validate validates the create GM request
func (r *CreateGMRequest) Validate() []FieldError {
	return ValidateStruct(r)
}

// StartGameRequest represents a request to open a paid session for a team
type StartGameRequest struct {
	Fee string `json:"fee" validate:"required,numeric"`
}

// Validate validates the start game request
func (r *StartGameRequest) Validate() []FieldError {
	return ValidateStruct(r)
}
