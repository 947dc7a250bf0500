package service

import (
	"errors"
	"fmt"

	"github.com/xeonarno/Alyra-blockquest/internal/model"
)

// Error kinds. Every error returned by a service operation wraps exactly one
// of these, so callers branch with errors.Is on the kind and show Error() verbatim.
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrAlreadyPaid      = errors.New("already paid")
	ErrAlreadyMember    = errors.New("already a member")
	ErrNotMember        = errors.New("not a member")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrInvalidState     = errors.New("invalid state")
	ErrValidation       = errors.New("validation failed")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// ===== Caller Errors =====
var (
	ErrNoCaller = newError(ErrUnauthorized, "caller identity required")
)

// ===== Team Errors =====
var (
	ErrTeamNotFound      = newError(ErrNotFound, "Team does not exist")
	ErrTooManyTeams      = newError(ErrCapacityExceeded, "GM has too many teams")
	ErrTeamFull          = newError(ErrCapacityExceeded, "Team is full")
	ErrAlreadyInTeam     = newError(ErrAlreadyMember, "Player already in this team")
	ErrNotInTeam         = newError(ErrNotMember, "Player not in this team")
	ErrNotTeamOwner      = newError(ErrUnauthorized, "Only GM can delete the team")
	ErrTeamDeleted       = newError(ErrInvalidState, "Team has been deleted")
	ErrTeamSessionActive = newError(ErrInvalidState, "Team already has an active session")
)

// ===== Player Errors =====
var (
	ErrPlayerNotFound    = newError(ErrNotFound, "Player does not exist")
	ErrPlayerInOtherTeam = newError(ErrAlreadyMember, "Player already in a team")
	ErrPlayerHasNoTeam   = newError(ErrNotMember, "Player is not in a team")
)

// ===== Session Errors =====
var (
	ErrSessionNotFound    = newError(ErrNotFound, "Session does not exist")
	ErrSessionEnded       = newError(ErrInvalidState, "Session has been ended")
	ErrSessionStillActive = newError(ErrInvalidState, "Session has not ended yet")
	ErrNotAllowedPlayer   = newError(ErrUnauthorized, "Only players can perform this action")
	ErrFeeAlreadyPaid     = newError(ErrAlreadyPaid, "Player has already paid")
	ErrInsufficientFee    = newError(ErrValidation, "Insufficient fee")
	ErrNotParticipant     = newError(ErrUnauthorized, "Only active players or Game Master can perform this action")
	ErrNotGameMaster      = newError(ErrUnauthorized, "Only the game master can perform this action")
	ErrMonsterNotFound    = newError(ErrNotFound, "Monster does not exist")
	ErrGoldOverflow       = newError(ErrInvalidState, "Total gold overflow")
	ErrKillCountOverflow  = newError(ErrInvalidState, "Monster kill count overflow")
)

// ===== Game Master Errors =====
var (
	ErrGMNotFound      = newError(ErrNotFound, "GM does not exist")
	ErrGMAlreadyExists = newError(ErrAlreadyExists, "GM already exists")
	ErrNotGM           = newError(ErrUnauthorized, "Only a registered GM can perform this action")
	ErrNotTeamGM       = newError(ErrUnauthorized, "Only the team's GM can start a game")
)

// ===== Certification Errors =====
var (
	ErrNoCertificates     = newError(ErrNotFound, "Player does not have any certificates")
	ErrDiplomaNotFound    = newError(ErrNotFound, "Diploma does not exist")
	ErrCertificateIndex   = newError(ErrNotFound, "Certificate index out of range")
	ErrNotMinter          = newError(ErrUnauthorized, "Only the owner or an authorized minter can mint")
	ErrInvalidCertificate = errors.New("rendered certificate failed metadata validation")
)

// ValidationError carries per-field failures
type ValidationError struct {
	Fields []model.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	if len(e.Fields) == 1 {
		return e.Fields[0].Message
	}
	return fmt.Sprintf("%s (and %d more errors)", e.Fields[0].Message, len(e.Fields)-1)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// validationFailed returns nil when there are no field errors
func validationFailed(fields []model.FieldError) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func fieldError(field, message string) error {
	return &ValidationError{Fields: []model.FieldError{{Field: field, Message: message}}}
}
