package dashauth

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is a named state of the authentication state machine.
type State uint8

const (
	// StateIdle means no session exists; the operator must log in.
	StateIdle State = iota
	// StateLoggingIn means a login request is in flight.
	StateLoggingIn
	// StateAuthenticated means a live session exists.
	StateAuthenticated
	// StateRefreshing means a token refresh is in flight; the session is
	// still considered authenticated.
	StateRefreshing
	// StateLoggingOut means a logout is in flight.
	StateLoggingOut
	// StateExpired means the session died mid-use; re-login is required.
	StateExpired
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoggingIn:
		return "logging-in"
	case StateAuthenticated:
		return "authenticated"
	case StateRefreshing:
		return "refreshing"
	case StateLoggingOut:
		return "logging-out"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Snapshot is the observable authentication state consumed by the UI.
type Snapshot struct {
	State     State
	User      *User
	LastError error
}

// IsAuthenticated reports whether a live session backs the current state.
func (s Snapshot) IsAuthenticated() bool {
	return s.State == StateAuthenticated || s.State == StateRefreshing
}

// IsLoading reports whether an operation is in flight.
func (s Snapshot) IsLoading() bool {
	return s.State == StateLoggingIn || s.State == StateRefreshing || s.State == StateLoggingOut
}

// Controller is the authentication state machine exposed to the rest of the
// application. It drives automatic token refresh and session-expiry
// detection and publishes every transition to subscribers. Independent of
// any rendering mechanism.
type Controller struct {
	service  *Service
	interval time.Duration
	now      func() time.Time

	mu        sync.Mutex
	state     State
	user      *User
	lastErr   error
	subs      map[uint64]chan Snapshot
	nextSubID uint64
	started   bool

	// Generation counters implement most-recent-request-wins: a completing
	// operation whose generation is stale discards its result.
	loginGen   uint64
	refreshGen uint64

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewController creates a [Controller] over service. Call [Controller.Start]
// before use.
func NewController(service *Service) *Controller {
	return &Controller{
		service:  service,
		interval: service.config.Session.RefreshCheckInterval,
		now:      service.now,
		state:    StateIdle,
		subs:     make(map[uint64]chan Snapshot),
		done:     make(chan struct{}),
	}
}

// Start derives the initial state synchronously from the persisted session —
// Authenticated when a non-expired session exists, Idle otherwise — and
// launches the background refresh loop. Calling Start twice is a no-op.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true

	rec, err := c.service.CurrentSession(ctx)
	if err == nil && rec != nil && !rec.Expired(c.now()) {
		user := rec.User
		c.user = &user
		c.state = StateAuthenticated
	}
	c.mu.Unlock()

	c.wg.Add(1)
	go c.refreshLoop()
	return err
}

// Snapshot returns the current observable state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers an observer. Every transition is delivered on the
// returned channel; slow observers lose the oldest pending snapshot, never
// the newest. The cancel function unregisters and closes the channel.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSubID
	c.nextSubID++
	ch := make(chan Snapshot, 8)
	c.subs[id] = ch

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Login drives the Idle -> LoggingIn -> {Authenticated | Idle} transition.
// A login superseded by a newer one has its result discarded.
func (c *Controller) Login(ctx context.Context, identity, secret string) error {
	c.mu.Lock()
	c.loginGen++
	gen := c.loginGen
	c.setStateLocked(StateLoggingIn, nil)
	c.mu.Unlock()

	rec, err := c.service.Login(ctx, identity, secret)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.loginGen {
		// Superseded by a newer login; the newer request owns the state.
		return err
	}
	if err != nil {
		c.user = nil
		c.setStateLocked(StateIdle, err)
		return err
	}
	user := rec.User
	c.user = &user
	c.setStateLocked(StateAuthenticated, nil)
	return nil
}

// Logout drives Authenticated -> LoggingOut -> Idle.
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	c.setStateLocked(StateLoggingOut, nil)
	c.mu.Unlock()

	err := c.service.Logout(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = nil
	c.setStateLocked(StateIdle, err)
	return err
}

// ResetPassword forwards to [Service.RequestPasswordReset]; it involves no
// state transition.
func (c *Controller) ResetPassword(ctx context.Context, identity string) error {
	return c.service.RequestPasswordReset(ctx, identity)
}

// Close stops the background refresh loop and closes all subscriptions.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.wg.Wait()

		c.mu.Lock()
		defer c.mu.Unlock()
		for id, ch := range c.subs {
			delete(c.subs, id)
			close(ch)
		}
	})
}

func (c *Controller) refreshLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.tick(context.Background())
		}
	}
}

// tick re-evaluates the stored session while authenticated: expiry forces
// the Expired state, a session inside the refresh threshold triggers an
// automatic refresh.
func (c *Controller) tick(ctx context.Context) {
	c.mu.Lock()
	if c.state != StateAuthenticated {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	rec, err := c.service.CurrentSession(ctx)
	if err != nil {
		return
	}

	now := c.now()
	switch {
	case rec == nil || rec.Expired(now):
		c.mu.Lock()
		if c.state == StateAuthenticated {
			c.user = nil
			c.setStateLocked(StateExpired, newAuthError(ErrSessionExpired, "session expired mid-use"))
		}
		c.mu.Unlock()
	case c.service.sessions.NeedsRefresh(rec, now):
		c.refresh(ctx)
	}
}

func (c *Controller) refresh(ctx context.Context) {
	c.mu.Lock()
	if c.state != StateAuthenticated {
		c.mu.Unlock()
		return
	}
	c.refreshGen++
	gen := c.refreshGen
	c.setStateLocked(StateRefreshing, nil)
	c.mu.Unlock()

	rec, err := c.service.Refresh(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.refreshGen || c.state != StateRefreshing {
		// Superseded, or a logout/login raced the refresh.
		return
	}
	if err != nil {
		if errors.Is(err, ErrNetwork) {
			// Outage, not rejection: stay authenticated, retry next tick.
			c.setStateLocked(StateAuthenticated, nil)
			return
		}
		c.user = nil
		c.setStateLocked(StateExpired, err)
		return
	}
	user := rec.User
	c.user = &user
	c.setStateLocked(StateAuthenticated, nil)
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		State:     c.state,
		User:      c.user,
		LastError: c.lastErr,
	}
}

// setStateLocked transitions the machine and publishes the new snapshot.
// Callers hold c.mu.
func (c *Controller) setStateLocked(state State, lastErr error) {
	c.state = state
	c.lastErr = lastErr

	snap := c.snapshotLocked()
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
			// Full buffer: drop the oldest pending snapshot so the
			// newest always lands.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
