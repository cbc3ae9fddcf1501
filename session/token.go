package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiryFromToken derives a session expiry from the access token's exp
// claim. The token is decoded without signature verification: the client
// never validates tokens, it only schedules their renewal; the backend is
// the sole authority on validity. When the token is not a JWT or carries no
// exp claim, now+fallback is returned.
func ExpiryFromToken(token string, now time.Time, fallback time.Duration) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return now.Add(fallback)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return now.Add(fallback)
	}
	return exp.Time
}
