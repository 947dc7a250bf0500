// Package middleware provides the HTTP middleware for the BlockQuest API.
//
// Every request runs through Chain in this order: Recovery, RequestID,
// Logger, CORS, Compress. Write routes additionally run Auth, RateLimit
// and Idempotency; public reads run OptionalAuth and RateLimit.
//
// # Caller identity
//
// Auth validates the bearer token and stores the caller address it names:
//
//	caller := middleware.GetCaller(r.Context())
//
// OptionalAuth does the same without rejecting anonymous requests. The
// services make every authorisation decision from that address; no route
// is guarded by role here.
//
// # Rate limiting and retries
//
// RateLimit keeps one token bucket per caller, or per remote host for
// anonymous requests. Idempotency replays the first successful response to
// a POST that repeats an Idempotency-Key with the same body.
package middleware
