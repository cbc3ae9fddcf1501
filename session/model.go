package session

import "time"

// User is the authenticated operator as reported by the backend.
type User struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name,omitempty"`
	EmailVerified bool   `json:"email_verified"`
}

// Record is the persisted proof of authentication for the current user.
//
// Record instances are treated as immutable once saved; a refresh produces a
// replacement record rather than mutating the stored one.
type Record struct {
	SessionID    string    `json:"session_id"`
	User         User      `json:"user"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	IssuedAt     time.Time `json:"issued_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Valid reports whether the record carries every field the schema requires.
// Records failing this check are treated as tampered by [Store.Load].
func (r *Record) Valid() bool {
	if r == nil {
		return false
	}
	return r.SessionID != "" &&
		r.User.ID != "" &&
		r.User.Email != "" &&
		r.AccessToken != "" &&
		r.RefreshToken != "" &&
		!r.IssuedAt.IsZero() &&
		!r.ExpiresAt.IsZero()
}

// Expired reports whether the record's access token lifetime has elapsed.
func (r *Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
