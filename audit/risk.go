package audit

import "time"

// Score computes the risk level for an event of the given type against the
// identity's recent history. Pure function: no storage, no clock reads.
//
// Rules:
//   - RATE_LIMIT_EXCEEDED is always HIGH.
//   - SESSION_TAMPERED is MEDIUM: corruption and tampering are
//     indistinguishable client-side.
//   - LOGIN_FAILURE escalates LOW to MEDIUM once the identity has two or
//     more prior failures inside the window.
//   - Everything else is LOW.
func Score(t EventType, identityKey string, history []Event, now time.Time, window time.Duration) RiskLevel {
	switch t {
	case TypeRateLimitExceeded:
		return RiskHigh
	case TypeSessionTampered:
		return RiskMedium
	case TypeLoginFailure:
		if priorFailures(identityKey, history, now, window) >= 2 {
			return RiskMedium
		}
	}
	return RiskLow
}

func priorFailures(identityKey string, history []Event, now time.Time, window time.Duration) int {
	n := 0
	for _, e := range history {
		if e.Type != TypeLoginFailure || e.IdentityKey != identityKey {
			continue
		}
		if now.Sub(e.Timestamp) > window {
			continue
		}
		n++
	}
	return n
}
