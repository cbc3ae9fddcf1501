// Package ratelimit tracks failed login attempts per identity key and
// enforces temporary lockout windows before any network call is made.
//
// Counters use fixed rolling-window semantics: failures accumulate from the
// first failure in the window; once the window elapses the next failure
// starts a fresh one. Reaching the attempt threshold locks the identity for
// the configured lockout duration.
//
// The counter map is mirrored to durable storage after every mutation.
// Storage failures degrade to in-memory-only operation; rate limiting must
// never block a login flow on its own persistence.
package ratelimit
