package dashauth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/MrEthical07/dashAuth/audit"
	"github.com/MrEthical07/dashAuth/ratelimit"
	"github.com/MrEthical07/dashAuth/session"
	"github.com/MrEthical07/dashAuth/transport"
)

// Backend is the network boundary to the external authentication service.
// [transport.Client] is the production implementation; tests inject fakes.
type Backend interface {
	Login(ctx context.Context, identity, secret string) (*transport.LoginResponse, error)
	Register(ctx context.Context, identity, secret string) (*transport.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*transport.RefreshResponse, error)
	ResetPassword(ctx context.Context, identity string) error
	Logout(ctx context.Context, accessToken string) error
}

// Service orchestrates the authentication flows: it consults the rate
// limiter before network calls and writes outcomes to the session store and
// the audit log. It holds no persistent state of its own.
//
// Service methods are safe for concurrent use after [Builder.Build].
type Service struct {
	config     Config
	backend    Backend
	sessions   *session.Store
	limiter    *ratelimit.Limiter
	auditLog   *audit.Log
	dispatcher *audit.Dispatcher
	logger     *zap.Logger
	now        func() time.Time

	// refreshGroup collapses concurrent refresh calls onto a single
	// in-flight request whose result all callers observe.
	refreshGroup singleflight.Group
}

// Close releases background resources (the audit dispatcher). The Service
// must not be used afterwards.
func (s *Service) Close() {
	if s == nil {
		return
	}
	s.dispatcher.Close()
}

// CurrentSession returns the persisted session, or nil when none exists.
func (s *Service) CurrentSession(ctx context.Context) (*Session, error) {
	return s.sessions.Load(ctx)
}

// CurrentUser returns the user of a live (non-expired) session, or nil.
func (s *Service) CurrentUser(ctx context.Context) (*User, error) {
	rec, err := s.sessions.Load(ctx)
	if err != nil {
		return nil, err
	}
	if rec == nil || s.sessions.IsExpired(rec, s.now()) {
		return nil, nil
	}
	user := rec.User
	return &user, nil
}

// Audit exposes the audit log for host-application queries and cleanup.
func (s *Service) Audit() *audit.Log {
	return s.auditLog
}

// Limiter exposes the rate limiter for host-application inspection.
func (s *Service) Limiter() *ratelimit.Limiter {
	return s.limiter
}

// AuditDropped returns how many sink deliveries were shed under DropIfFull.
func (s *Service) AuditDropped() uint64 {
	return s.dispatcher.Dropped()
}

// saveSession builds and persists the replacement session record. Expiry
// comes from the backend-declared lifetime when present, else from the
// token's exp claim, else from the configured default.
func (s *Service) saveSession(ctx context.Context, user session.User, token, refreshToken string, expiresIn int64) (*session.Record, error) {
	now := s.now()
	var expires time.Time
	if expiresIn > 0 {
		expires = now.Add(time.Duration(expiresIn) * time.Second)
	} else {
		expires = session.ExpiryFromToken(token, now, s.config.Session.DefaultTokenLifetime)
	}

	rec := &session.Record{
		SessionID:    uuid.NewString(),
		User:         user,
		AccessToken:  token,
		RefreshToken: refreshToken,
		IssuedAt:     now,
		ExpiresAt:    expires,
	}
	if err := s.sessions.Save(ctx, rec); err != nil {
		return nil, newAuthError(ErrUnknown, "session persist failed: "+err.Error())
	}
	return rec, nil
}

// mapBackendError normalizes a transport failure into exactly one taxonomy
// member. Callers never see raw transport errors.
func mapBackendError(err error) error {
	if errors.Is(err, transport.ErrUnavailable) {
		return newAuthError(ErrNetwork, err.Error())
	}

	var apiErr *transport.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case transport.CodeInvalidCredentials:
			return newAuthError(ErrInvalidCredentials, apiErr.Message)
		case transport.CodeEmailNotVerified:
			return newAuthError(ErrEmailNotVerified, apiErr.Message)
		case transport.CodeAccountLocked:
			return newAuthError(ErrAccountLocked, apiErr.Message)
		case transport.CodeAccountExists:
			return newAuthError(ErrAccountExists, apiErr.Message)
		case transport.CodeInvalidRefresh:
			return newAuthError(ErrSessionExpired, apiErr.Message)
		}
		return newAuthError(ErrUnknown, apiErr.Error())
	}
	return newAuthError(ErrUnknown, err.Error())
}
