package dashauth

import (
	"errors"
	"time"
)

// The closed error taxonomy. Every failure returned by [Service] or
// surfaced by [Controller] matches exactly one of these through errors.Is.
var (
	// ErrInvalidCredentials indicates the backend rejected the secret.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidEmailDomain indicates the identity is malformed or outside
	// the approved organizational domains. Checked before any network call.
	ErrInvalidEmailDomain = errors.New("identity outside approved domain")
	// ErrEmailNotVerified indicates the account exists but is unverified.
	ErrEmailNotVerified = errors.New("email not verified")
	// ErrAccountLocked indicates the backend has locked the account.
	ErrAccountLocked = errors.New("account locked")
	// ErrAccountExists indicates a registration collision.
	ErrAccountExists = errors.New("account already exists")
	// ErrSessionExpired indicates the session is gone and re-login is needed.
	ErrSessionExpired = errors.New("session expired")
	// ErrNetwork indicates a transport failure with no backend response.
	ErrNetwork = errors.New("auth backend unreachable")
	// ErrRateLimited indicates the local attempt budget is exhausted.
	ErrRateLimited = errors.New("too many login attempts")
	// ErrUnknown covers every backend failure outside the taxonomy.
	ErrUnknown = errors.New("authentication failed")
)

// AuthError is the tagged error value returned by Service operations. It
// wraps one taxonomy sentinel and optionally carries a retry-after duration
// and human-readable detail. Errors are values; none of the flows use them
// for control transfer.
type AuthError struct {
	kind       error
	RetryAfter time.Duration
	Detail     string
}

func newAuthError(kind error, detail string) *AuthError {
	return &AuthError{kind: kind, Detail: detail}
}

func rateLimited(retryAfter time.Duration) *AuthError {
	return &AuthError{kind: ErrRateLimited, RetryAfter: retryAfter}
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Detail == "" {
		return e.kind.Error()
	}
	return e.kind.Error() + ": " + e.Detail
}

// Unwrap exposes the taxonomy sentinel for errors.Is.
func (e *AuthError) Unwrap() error {
	return e.kind
}

// RetryAfterOf extracts the retry-after duration carried by err, if any.
func RetryAfterOf(err error) (time.Duration, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) && authErr.RetryAfter > 0 {
		return authErr.RetryAfter, true
	}
	return 0, false
}

// Retryable reports whether the UI should offer a retry action for err.
// Rate-limited and locked accounts must wait, a bad domain is terminal;
// transport failures and unclassified errors are worth retrying.
func Retryable(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrUnknown)
}
