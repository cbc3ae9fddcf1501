package dashauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/dashAuth/audit"
	"github.com/MrEthical07/dashAuth/transport"
)

// Login authenticates the operator. Identity format and domain membership
// are validated locally first (no network call, no rate-limit consumption);
// then the rate limiter is consulted; only then is the backend asked.
func (s *Service) Login(ctx context.Context, identity, secret string) (*Session, error) {
	key := NormalizeIdentity(identity)
	if err := ValidateIdentity(key, s.config.Domain.ApprovedDomains); err != nil {
		s.auditLog.Record(ctx, audit.Event{
			Type:        audit.TypeLoginFailure,
			IdentityKey: key,
			Detail:      "identity outside approved domain",
		})
		return nil, err
	}

	if d := s.limiter.Check(ctx, key); !d.Allowed {
		s.auditLog.Record(ctx, audit.Event{
			Type:        audit.TypeRateLimitExceeded,
			IdentityKey: key,
			Detail:      fmt.Sprintf("locked for %s", d.RetryAfter.Round(time.Second)),
		})
		return nil, rateLimited(d.RetryAfter)
	}

	resp, err := s.backend.Login(ctx, key, secret)
	if err != nil {
		return nil, s.loginFailure(ctx, key, err)
	}

	rec, err := s.saveSession(ctx, resp.User, resp.Token, resp.RefreshToken, resp.ExpiresIn)
	if err != nil {
		return nil, err
	}
	s.limiter.RecordSuccess(ctx, key)
	s.auditLog.Record(ctx, audit.Event{
		Type:        audit.TypeLoginSuccess,
		IdentityKey: key,
		Success:     true,
	})
	return rec, nil
}

func (s *Service) loginFailure(ctx context.Context, key string, err error) error {
	// A transport outage must not lock out a legitimate user: no response
	// means no rate-limit consumption and no failure event.
	if errors.Is(err, transport.ErrUnavailable) {
		return mapBackendError(err)
	}

	count := s.limiter.RecordFailure(ctx, key)
	remaining := s.config.RateLimit.MaxAttempts - count
	if remaining < 0 {
		remaining = 0
	}
	s.auditLog.Record(ctx, audit.Event{
		Type:        audit.TypeLoginFailure,
		IdentityKey: key,
		Detail:      fmt.Sprintf("%d attempts remaining", remaining),
	})
	return mapBackendError(err)
}
