package dashauth

import (
	"context"
	"errors"

	"github.com/MrEthical07/dashAuth/audit"
	"github.com/MrEthical07/dashAuth/transport"
)

// RequestPasswordReset asks the backend to start a password reset. Backend
// rejections are reported as success to the caller so the response never
// reveals whether the account exists; the true outcome is recorded in the
// audit log. The two observable failures are both local to the client:
// a non-approved domain and an unreachable backend.
func (s *Service) RequestPasswordReset(ctx context.Context, identity string) error {
	key := NormalizeIdentity(identity)
	if err := ValidateIdentity(key, s.config.Domain.ApprovedDomains); err != nil {
		return err
	}

	err := s.backend.ResetPassword(ctx, key)
	switch {
	case err == nil:
		s.auditLog.Record(ctx, audit.Event{
			Type:        audit.TypePasswordResetRequest,
			IdentityKey: key,
			Success:     true,
		})
		return nil
	case errors.Is(err, transport.ErrUnavailable):
		s.auditLog.Record(ctx, audit.Event{
			Type:        audit.TypePasswordResetRequest,
			IdentityKey: key,
			Detail:      "backend unreachable",
		})
		return mapBackendError(err)
	default:
		s.auditLog.Record(ctx, audit.Event{
			Type:        audit.TypePasswordResetRequest,
			IdentityKey: key,
			Detail:      err.Error(),
		})
		return nil
	}
}
