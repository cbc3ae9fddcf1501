// Package audit provides the append-only security event log: risk scoring
// at record time, age-based retention, a hard capacity bound, and optional
// fan-out to external sinks through an asynchronous dispatcher.
//
// Recording is fire-and-forget. Persistence failures are reported to the
// fallback logger and never surfaced to callers; auditing must not block or
// fail a user-facing flow.
package audit
