package dashauth

import (
	"context"
	"errors"

	"github.com/MrEthical07/dashAuth/audit"
	"github.com/MrEthical07/dashAuth/transport"
)

// refreshGroupKey is a constant because at most one session exists; there is
// nothing finer-grained to deduplicate on.
const refreshGroupKey = "token-refresh"

// Refresh exchanges the stored refresh token for a new access token and
// atomically replaces the session. Concurrent calls collapse onto a single
// in-flight request; every caller observes that request's result. A backend
// rejection clears the session and returns [ErrSessionExpired]; a transport
// failure leaves the session in place.
func (s *Service) Refresh(ctx context.Context) (*Session, error) {
	v, err, _ := s.refreshGroup.Do(refreshGroupKey, func() (any, error) {
		return s.refreshOnce(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

func (s *Service) refreshOnce(ctx context.Context) (*Session, error) {
	rec, err := s.sessions.Load(ctx)
	if err != nil {
		return nil, newAuthError(ErrUnknown, "session load failed: "+err.Error())
	}
	if rec == nil {
		return nil, newAuthError(ErrSessionExpired, "no session to refresh")
	}
	key := NormalizeIdentity(rec.User.Email)

	resp, err := s.backend.Refresh(ctx, rec.RefreshToken)
	if err != nil {
		if errors.Is(err, transport.ErrUnavailable) {
			// Outage, not rejection: the session may still be good.
			return nil, mapBackendError(err)
		}
		_ = s.sessions.Clear(ctx)
		s.auditLog.Record(ctx, audit.Event{
			Type:        audit.TypeSessionExpired,
			IdentityKey: key,
			Detail:      "refresh token rejected",
		})
		mapped := mapBackendError(err)
		if !errors.Is(mapped, ErrSessionExpired) {
			mapped = newAuthError(ErrSessionExpired, "refresh rejected: "+err.Error())
		}
		return nil, mapped
	}

	refreshToken := rec.RefreshToken
	if resp.RefreshToken != "" {
		refreshToken = resp.RefreshToken
	}
	next, err := s.saveSession(ctx, rec.User, resp.Token, refreshToken, resp.ExpiresIn)
	if err != nil {
		return nil, err
	}
	s.auditLog.Record(ctx, audit.Event{
		Type:        audit.TypeTokenRefresh,
		IdentityKey: key,
		Success:     true,
	})
	return next, nil
}
