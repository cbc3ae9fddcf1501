package audit

import "time"

// EventType names a security-relevant action.
type EventType string

const (
	// TypeLoginSuccess records a completed login.
	TypeLoginSuccess EventType = "LOGIN_SUCCESS"
	// TypeLoginFailure records a rejected login attempt.
	TypeLoginFailure EventType = "LOGIN_FAILURE"
	// TypeRateLimitExceeded records a locally blocked attempt on a locked identity.
	TypeRateLimitExceeded EventType = "RATE_LIMIT_EXCEEDED"
	// TypeRegister records an account registration.
	TypeRegister EventType = "REGISTER"
	// TypeLogout records a logout, voluntary or forced.
	TypeLogout EventType = "LOGOUT"
	// TypeTokenRefresh records an access token renewal.
	TypeTokenRefresh EventType = "TOKEN_REFRESH"
	// TypeSessionExpired records a session invalidated by the backend.
	TypeSessionExpired EventType = "SESSION_EXPIRED"
	// TypePasswordResetRequest records a reset request and its true outcome.
	TypePasswordResetRequest EventType = "PASSWORD_RESET_REQUEST"
	// TypeSessionTampered records a malformed stored session being discarded.
	TypeSessionTampered EventType = "SESSION_TAMPERED"
)

// RiskLevel is the coarse severity attached to an event at record time.
type RiskLevel uint8

const (
	// RiskLow is the default severity.
	RiskLow RiskLevel = iota
	// RiskMedium marks suspicious but inconclusive activity.
	RiskMedium
	// RiskHigh marks activity that tripped an enforcement boundary.
	RiskHigh
)

// String implements fmt.Stringer.
func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "LOW"
	case RiskMedium:
		return "MEDIUM"
	case RiskHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// Event is a single audit record. ID, Timestamp, and RiskLevel are assigned
// by [Log.Record]; callers fill the rest.
type Event struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Type        EventType `json:"type"`
	IdentityKey string    `json:"identity_key,omitempty"`
	Success     bool      `json:"success"`
	RiskLevel   RiskLevel `json:"risk_level"`
	Detail      string    `json:"detail,omitempty"`
}

// Filter narrows a [Log.Query]. Zero fields match everything.
type Filter struct {
	IdentityKey string
	Type        EventType
	Since       time.Time
}

func (f Filter) matches(e Event) bool {
	if f.IdentityKey != "" && e.IdentityKey != f.IdentityKey {
		return false
	}
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	return true
}
