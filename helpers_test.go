package dashauth

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/dashAuth/storage"
	"github.com/MrEthical07/dashAuth/transport"
)

// fakeBackend is an in-memory Backend with per-call counters and
// overridable behavior.
type fakeBackend struct {
	mu sync.Mutex

	loginCalls    int
	registerCalls int
	refreshCalls  int
	resetCalls    int
	logoutCalls   int

	loginFn   func(identity, secret string) (*transport.LoginResponse, error)
	refreshFn func(refreshToken string) (*transport.RefreshResponse, error)
	resetErr  error
	logoutErr error
}

func okLoginResponse(identity string) *transport.LoginResponse {
	return &transport.LoginResponse{
		User: User{
			ID:            "u-1",
			Email:         identity,
			Name:          "Operator",
			EmailVerified: true,
		},
		Token:        "access-1",
		RefreshToken: "refresh-1",
		ExpiresIn:    900,
	}
}

func (b *fakeBackend) Login(_ context.Context, identity, secret string) (*transport.LoginResponse, error) {
	b.mu.Lock()
	b.loginCalls++
	fn := b.loginFn
	b.mu.Unlock()

	if fn != nil {
		return fn(identity, secret)
	}
	return okLoginResponse(identity), nil
}

func (b *fakeBackend) Register(_ context.Context, identity, secret string) (*transport.LoginResponse, error) {
	b.mu.Lock()
	b.registerCalls++
	fn := b.loginFn
	b.mu.Unlock()

	if fn != nil {
		return fn(identity, secret)
	}
	return okLoginResponse(identity), nil
}

func (b *fakeBackend) Refresh(_ context.Context, refreshToken string) (*transport.RefreshResponse, error) {
	b.mu.Lock()
	b.refreshCalls++
	fn := b.refreshFn
	b.mu.Unlock()

	if fn != nil {
		return fn(refreshToken)
	}
	return &transport.RefreshResponse{Token: "access-2", ExpiresIn: 900}, nil
}

func (b *fakeBackend) ResetPassword(_ context.Context, _ string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetCalls++
	return b.resetErr
}

func (b *fakeBackend) Logout(_ context.Context, _ string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logoutCalls++
	return b.logoutErr
}

func (b *fakeBackend) calls() (login, register, refresh, reset, logout int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loginCalls, b.registerCalls, b.refreshCalls, b.resetCalls, b.logoutCalls
}

func testConfig() Config {
	cfg := defaultConfig()
	cfg.Domain.ApprovedDomains = []string{"org.example"}
	return cfg
}

func newTestService(t *testing.T, backend Backend) (*Service, *storage.Memory) {
	t.Helper()

	kv := storage.NewMemory()
	svc, err := New().
		WithConfig(testConfig()).
		WithStorage(kv).
		WithBackend(backend).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc, kv
}

func apiError(status int, code string) *transport.APIError {
	return &transport.APIError{Status: status, Code: code}
}

func unreachable() error {
	return fmt.Errorf("%w: dial tcp: connection refused", transport.ErrUnavailable)
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition never held")
}
