// Package dashauth is the client-side authentication and session management
// subsystem of the operator dashboard shell: credential submission, local
// rate-limiting of login attempts, session token lifecycle (issue, persist,
// expire, refresh), and audit logging of security-relevant events.
//
// The backend implementing the actual authentication endpoints is an
// external collaborator reached only through the transport contract; this
// package never verifies credentials itself.
//
// # Architecture boundaries
//
// dashauth is the public surface. It exposes [Service] (flow orchestration),
// [Controller] (the observable authentication state machine), [Builder],
// [Config], and the error taxonomy. The leaf stores live in their own
// packages — storage, session, ratelimit, audit, transport — and never
// import this one.
//
// # What this package must NOT do
//
//   - Render anything or know about UI concerns beyond the Controller's
//     observable snapshots.
//   - Keep persistent state of its own: Service is a pure orchestrator over
//     the injected stores and the network boundary.
//   - Leak raw transport failures: every error returned to a caller is one
//     of the taxonomy sentinels, wrapped in [*AuthError].
package dashauth
