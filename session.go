package adminauth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// State is the session lifecycle position.
type State uint8

const (
	// StateUninitialized means Initialize has not run yet.
	StateUninitialized State = iota
	// StateLoading means a login, registration, or startup profile fetch is
	// in flight.
	StateLoading
	// StateAuthenticated means a user snapshot is held and tokens are stored.
	StateAuthenticated
	// StateAnonymous means no user is logged in and no tokens are stored.
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	}
	return "unknown"
}

// Snapshot is an immutable copy of the session state. User is nil unless
// State is StateAuthenticated. Generation increments on every login and
// logout; a completion carrying a stale generation is discarded instead of
// overwriting newer state.
type Snapshot struct {
	State      State
	User       *User
	Generation uint64
}

// IsAuthenticated reports whether a user is logged in.
func (s Snapshot) IsAuthenticated() bool {
	return s.State == StateAuthenticated
}

// IsLoading reports whether the session is still resolving.
func (s Snapshot) IsLoading() bool {
	return s.State == StateUninitialized || s.State == StateLoading
}

// Session owns the authenticated-user state. All mutation goes through
// Initialize, Login, Register, Logout, Refresh, and UpdateProfile; there is
// no partial mutation: the user snapshot is replaced wholesale or cleared.
//
// Construct through [Builder.Build]. Not a singleton: tests build as many
// isolated instances as they need.
type Session struct {
	client  *Client
	events  *eventDispatcher
	metrics *Metrics
	logger  *slog.Logger

	mu         sync.RWMutex
	state      State
	user       *User
	generation uint64
	closed     bool
	subs       map[uint64]func(Snapshot)
	nextSub    uint64
}

func newSession(client *Client, events *eventDispatcher, metrics *Metrics, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		client:  client,
		events:  events,
		metrics: metrics,
		logger:  logger,
		state:   StateUninitialized,
		subs:    make(map[uint64]func(Snapshot)),
	}
	client.onUnauthenticated = s.forceAnonymous
	return s
}

// Client exposes the API client sharing this session's token store, for the
// user/role administration surface.
func (s *Session) Client() *Client {
	return s.client
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		State:      s.state,
		User:       cloneUser(s.user),
		Generation: s.generation,
	}
}

// Subscribe registers fn for state changes and invokes it once immediately
// with the current snapshot. The returned cancel removes the subscription.
// fn runs on the mutating goroutine and must not block.
func (s *Session) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	snap := Snapshot{State: s.state, User: cloneUser(s.user), Generation: s.generation}
	s.mu.Unlock()

	fn(snap)

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Close tears down the event dispatcher. The session is unusable afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.events.Close()
}

// Initialize resolves the startup state: stored token → profile fetch →
// authenticated; dead or absent token → anonymous with tokens cleared.
// Calling it again after it has resolved is a no-op. A transport failure
// leaves the session uninitialized so the caller can retry.
func (s *Session) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.state != StateUninitialized {
		s.mu.Unlock()
		return nil
	}
	s.state = StateLoading
	gen := s.generation
	snap := Snapshot{State: s.state, Generation: s.generation}
	subs := s.subscribers()
	s.mu.Unlock()
	notify(subs, snap)

	pair, ok, err := s.client.Store().Get(ctx)
	if err != nil {
		// Storage unwell is not "logged out"; stay retryable.
		s.commit(gen, func() { s.state = StateUninitialized })
		return err
	}
	if !ok || pair.AccessToken == "" {
		s.commit(gen, func() { s.state = StateAnonymous })
		return nil
	}

	user, err := s.client.Profile(ctx)
	if err != nil {
		if isAuthFailure(err) {
			s.clearTokens(ctx)
			s.commit(gen, func() {
				s.state = StateAnonymous
				s.user = nil
			})
			return nil
		}
		// Backend unreachable: keep tokens, let the caller retry Initialize.
		s.commit(gen, func() { s.state = StateUninitialized })
		return err
	}

	s.commit(gen, func() {
		s.state = StateAuthenticated
		s.user = cloneUser(&user)
	})
	return nil
}

// Login authenticates and transitions to authenticated. On failure the error
// is surfaced and the previous state is restored.
func (s *Session) Login(ctx context.Context, creds Credentials) (User, error) {
	return s.authenticate(ctx, func(ctx context.Context) (AuthResult, error) {
		return s.client.Login(ctx, creds)
	})
}

// Register creates an account; same state contract as Login.
func (s *Session) Register(ctx context.Context, data RegisterData) (User, error) {
	return s.authenticate(ctx, func(ctx context.Context) (AuthResult, error) {
		return s.client.Register(ctx, data)
	})
}

func (s *Session) authenticate(ctx context.Context, call func(context.Context) (AuthResult, error)) (User, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return User{}, ErrSessionClosed
	}
	prev := s.state
	gen := s.generation
	s.state = StateLoading
	snap := Snapshot{State: s.state, User: cloneUser(s.user), Generation: s.generation}
	subs := s.subscribers()
	s.mu.Unlock()
	notify(subs, snap)

	result, err := call(ctx)
	if err != nil {
		s.metrics.Inc(MetricLoginFailure)
		s.events.Emit(ctx, Event{
			Timestamp: time.Now(),
			Type:      EventLoginFailure,
			Error:     err.Error(),
		})
		s.commit(gen, func() { s.state = prev })
		return User{}, err
	}

	committed := s.commit(gen, func() {
		s.generation++
		s.state = StateAuthenticated
		s.user = cloneUser(&result.User)
	})
	if !committed {
		// A logout won the race; the pair persisted by the call must not
		// outlive it.
		s.clearTokens(ctx)
		return User{}, ErrSuperseded
	}

	s.metrics.Inc(MetricLoginSuccess)
	s.events.Emit(ctx, Event{
		Timestamp: time.Now(),
		Type:      EventLoginSuccess,
		UserID:    result.User.ID,
	})
	return result.User, nil
}

// Logout revokes the backend session best-effort, then unconditionally clears
// tokens and state. It always leaves the session anonymous.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return ErrSessionClosed
	}

	if err := s.client.Logout(ctx); err != nil {
		s.logger.Warn("backend logout failed", "error", err)
	}

	s.clearTokens(ctx)
	s.mu.Lock()
	s.generation++
	s.state = StateAnonymous
	s.user = nil
	snap := Snapshot{State: s.state, Generation: s.generation}
	subs := s.subscribers()
	s.mu.Unlock()
	notify(subs, snap)

	s.metrics.Inc(MetricLogout)
	s.events.Emit(ctx, Event{
		Timestamp: time.Now(),
		Type:      EventLogout,
	})
	return nil
}

// LogoutAll revokes every backend session, then tears down local state the
// same way Logout does.
func (s *Session) LogoutAll(ctx context.Context) error {
	if err := s.client.LogoutAll(ctx); err != nil && !isAuthFailure(err) {
		return err
	}
	return s.Logout(ctx)
}

// Refresh re-fetches the profile with the current tokens. Authentication
// failure is a forced logout; transport failure leaves state untouched.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.RLock()
	state := s.state
	gen := s.generation
	s.mu.RUnlock()
	if state != StateAuthenticated {
		return ErrNotInitialized
	}

	user, err := s.client.Profile(ctx)
	if err != nil {
		if isAuthFailure(err) {
			s.clearTokens(ctx)
			s.forceAnonymous()
			return err
		}
		return err
	}

	s.commit(gen, func() { s.user = cloneUser(&user) })
	return nil
}

// UpdateProfile applies a partial update and replaces the local snapshot with
// the backend's response. On failure local state is untouched.
func (s *Session) UpdateProfile(ctx context.Context, patch ProfilePatch) (User, error) {
	s.mu.RLock()
	state := s.state
	gen := s.generation
	s.mu.RUnlock()
	if state != StateAuthenticated {
		return User{}, ErrNotInitialized
	}

	user, err := s.client.UpdateProfile(ctx, patch)
	if err != nil {
		return User{}, err
	}

	s.commit(gen, func() { s.user = cloneUser(&user) })
	s.events.Emit(ctx, Event{
		Timestamp: time.Now(),
		Type:      EventProfileUpdated,
		UserID:    user.ID,
	})
	return user, nil
}

// ChangePassword rotates the password for the authenticated user.
func (s *Session) ChangePassword(ctx context.Context, current, updated string) error {
	return s.client.ChangePassword(ctx, current, updated)
}

// ForgotPassword requests a reset email; valid for anonymous sessions.
func (s *Session) ForgotPassword(ctx context.Context, email string) error {
	return s.client.ForgotPassword(ctx, email)
}

// ResetPassword completes a reset started by ForgotPassword.
func (s *Session) ResetPassword(ctx context.Context, token, newPassword string) error {
	return s.client.ResetPassword(ctx, token, newPassword)
}

// VerifyEmail confirms an emailed verification token.
func (s *Session) VerifyEmail(ctx context.Context, token string) error {
	return s.client.VerifyEmail(ctx, token)
}

// EventsDropped reports how many events the dispatcher discarded under
// backpressure.
func (s *Session) EventsDropped() uint64 {
	return s.events.Dropped()
}

// MetricsSnapshot copies the client's counters.
func (s *Session) MetricsSnapshot() MetricsSnapshot {
	return s.metrics.Snapshot()
}

// commit applies fn only when the generation still matches gen, then
// notifies subscribers. Returns whether fn ran.
func (s *Session) commit(gen uint64, fn func()) bool {
	s.mu.Lock()
	if s.closed || s.generation != gen {
		s.mu.Unlock()
		return false
	}
	fn()
	snap := Snapshot{State: s.state, User: cloneUser(s.user), Generation: s.generation}
	subs := s.subscribers()
	s.mu.Unlock()
	notify(subs, snap)
	return true
}

// forceAnonymous is the transport's unauthenticated hook: refresh exhaustion
// already cleared the store, so only state remains to tear down.
func (s *Session) forceAnonymous() {
	s.mu.Lock()
	if s.closed || s.state == StateAnonymous {
		s.mu.Unlock()
		return
	}
	s.generation++
	s.state = StateAnonymous
	s.user = nil
	snap := Snapshot{State: s.state, Generation: s.generation}
	subs := s.subscribers()
	s.mu.Unlock()
	notify(subs, snap)
}

func (s *Session) clearTokens(ctx context.Context) {
	if err := s.client.Store().Clear(ctx); err != nil {
		s.logger.Warn("token store clear failed", "error", err)
	}
}

// subscribers must be called with s.mu held.
func (s *Session) subscribers() []func(Snapshot) {
	if len(s.subs) == 0 {
		return nil
	}
	out := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

func notify(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}

func cloneUser(u *User) *User {
	if u == nil {
		return nil
	}
	cu := *u
	if u.Role != nil {
		role := *u.Role
		cu.Role = &role
	}
	return &cu
}

// isAuthFailure reports whether err means "not logged in" rather than
// "backend unwell".
func isAuthFailure(err error) bool {
	if errors.Is(err, ErrUnauthenticated) || errors.Is(err, ErrRefreshInvalid) || errors.Is(err, ErrInvalidCredentials) {
		return true
	}
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
	}
	return false
}
