package dashauth

import (
	"context"

	"github.com/MrEthical07/dashAuth/audit"
)

// Register creates an account for a domain-approved identity. On success
// the backend auto-issues a token pair and the session is persisted, so the
// operator lands authenticated without a second round-trip.
func (s *Service) Register(ctx context.Context, identity, secret string) (*Session, error) {
	key := NormalizeIdentity(identity)
	if err := ValidateIdentity(key, s.config.Domain.ApprovedDomains); err != nil {
		return nil, err
	}

	resp, err := s.backend.Register(ctx, key, secret)
	if err != nil {
		s.auditLog.Record(ctx, audit.Event{
			Type:        audit.TypeRegister,
			IdentityKey: key,
			Detail:      err.Error(),
		})
		return nil, mapBackendError(err)
	}

	rec, err := s.saveSession(ctx, resp.User, resp.Token, resp.RefreshToken, resp.ExpiresIn)
	if err != nil {
		return nil, err
	}
	s.limiter.RecordSuccess(ctx, key)
	s.auditLog.Record(ctx, audit.Event{
		Type:        audit.TypeRegister,
		IdentityKey: key,
		Success:     true,
	})
	return rec, nil
}
