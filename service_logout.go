package dashauth

import (
	"context"

	"go.uber.org/zap"

	"github.com/MrEthical07/dashAuth/audit"
)

// Logout ends the session. The backend notification is best-effort: its
// failure is logged and ignored. The local session is always cleared and the
// identity's rate-limit counter reset; audit history survives logout.
func (s *Service) Logout(ctx context.Context) error {
	rec, err := s.sessions.Load(ctx)
	if err != nil {
		s.logger.Warn("session load failed during logout", zap.Error(err))
	}

	if rec != nil {
		if err := s.backend.Logout(ctx, rec.AccessToken); err != nil {
			s.logger.Warn("backend logout notification failed", zap.Error(err))
		}
	}

	if err := s.sessions.Clear(ctx); err != nil {
		return newAuthError(ErrUnknown, "session clear failed: "+err.Error())
	}

	if rec != nil {
		key := NormalizeIdentity(rec.User.Email)
		s.limiter.RecordSuccess(ctx, key)
		s.auditLog.Record(ctx, audit.Event{
			Type:        audit.TypeLogout,
			IdentityKey: key,
			Success:     true,
		})
	}
	return nil
}
