// Package handler provides the HTTP handlers for the BlockQuest API.
//
// Handlers are grouped by component: TeamHandler, PlayerHandler,
// GameMasterHandler, SessionHandler and CertificationHandler call the
// matching service, and EventsHandler serves the observer feeds (SSE,
// WebSocket and the journal listing). NewRouter wires them onto a
// http.ServeMux.
//
// # Identity
//
// Write routes run behind middleware.Auth, and handlers read the caller
// with middleware.GetCaller. Handlers never decide who may do what; they
// pass the caller through and the service answers.
//
// # Responses
//
// Success bodies are {"data": ..., "_links": {...}} via WriteData. Failures
// are RFC 9457 Problem Details produced by MapServiceError, which keys on
// the error kind a service error unwraps to:
//
//	ErrNoCaller         401
//	ErrUnauthorized     403
//	ErrNotFound         404
//	ErrAlreadyExists    409
//	ErrAlreadyPaid      409
//	ErrAlreadyMember    409
//	ErrNotMember        409
//	ErrInvalidState     409
//	ErrCapacityExceeded 422 (limit-exceeded)
//	ErrValidation       422
//
// The detail field carries the service message verbatim, e.g. "Team is full".
package handler
