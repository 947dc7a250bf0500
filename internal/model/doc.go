// Package model defines the BlockQuest domain types and the request and
// error shapes of the HTTP API.
//
// # Domain Entities
//
//   - Team: up to MaxMembersPerTeam members, owned by one game master
//   - Player: profile, current team and character sheet
//   - GameMaster: profile of a registered game master
//   - Session: one paid game of a team, with escrow, monsters and chat log
//   - Diploma: completion credential, immutable once minted
//
// Addresses are EIP-55 checksummed 20-byte identities (Address) and amounts
// are arbitrary precision wei (Wei).
//
// # Validation
//
// Request types carry validator tags and a Validate method returning
// []FieldError:
//
//	if errs := req.Validate(); len(errs) > 0 {
//	    model.NewValidationError(errs).WriteJSON(w)
//	}
//
// # Error Types
//
// RFC 9457 Problem Details are defined in errors.go.
package model
