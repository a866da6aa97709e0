package console

import (
	"context"
	"sync"
	"time"
)

// SessionState is the coordinator's lifecycle state.
type SessionState string

const (
	StateSignedOut      SessionState = "signed_out"
	StateAuthenticating SessionState = "authenticating"
	StateSignedIn       SessionState = "signed_in"
	StateTearingDown    SessionState = "tearing_down"
)

// LogoutReason records what triggered a sign-out.
type LogoutReason string

const (
	ReasonUserRequested     LogoutReason = "user_requested"
	ReasonSessionSuperseded LogoutReason = "session_superseded"
	ReasonProfileMissing    LogoutReason = "profile_missing"
	ReasonAuthSignal        LogoutReason = "auth_signal"
)

// NotificationListener starts the per-user notification subscription at
// sign-in. The returned handle joins the listener registry so notification
// listening ends with the session.
type NotificationListener interface {
	Listen(userID string) Handle
}

// Coordinator is the single reactive entry point bound to the backend's
// auth-state signal. It owns the session transition state machine: teardown
// of prior listeners, profile load, session guard and notification startup,
// router activation, and the reverse of all of it on sign-out.
//
// Scheduling model: callers are expected to serialize events (the signal is
// event-loop shaped). The primary race is a second auth-state event arriving
// while a profile fetch or router activation is in flight; a generation
// counter re-validated after every suspension point guards against it.
type Coordinator struct {
	backend  Backend
	creds    *CredentialStore
	router   PageRouter
	registry *ListenerRegistry
	guard    *SessionGuard
	notices  NotificationListener
	notifier Notifier
	activity ActivitySink
	logger   Logger
	landing  string
	now      func() time.Time

	mu         sync.Mutex
	state      SessionState
	generation uint64
	current    *Profile
}

type CoordinatorOption func(*Coordinator)

func WithCoordinatorLogger(logger Logger) CoordinatorOption {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCoordinatorClock injects a custom clock (useful for tests).
func WithCoordinatorClock(clock func() time.Time) CoordinatorOption {
	return func(c *Coordinator) {
		if clock != nil {
			c.now = clock
		}
	}
}

// WithLandingPage overrides the default navigation target after sign-in.
func WithLandingPage(target string) CoordinatorOption {
	return func(c *Coordinator) {
		if target != "" {
			c.landing = target
		}
	}
}

func WithCoordinatorNotifier(n Notifier) CoordinatorOption {
	return func(c *Coordinator) {
		c.notifier = normalizeNotifier(n)
	}
}

func WithCoordinatorActivitySink(sink ActivitySink) CoordinatorOption {
	return func(c *Coordinator) {
		c.activity = normalizeActivitySink(sink)
	}
}

// WithNotificationListener wires the per-user notification subscription.
func WithNotificationListener(l NotificationListener) CoordinatorOption {
	return func(c *Coordinator) {
		c.notices = l
	}
}

func NewCoordinator(backend Backend, creds *CredentialStore, router PageRouter, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		backend:  backend,
		creds:    creds,
		router:   router,
		registry: NewListenerRegistry(),
		notifier: noopNotifier{},
		activity: noopActivitySink{},
		logger:   defLogger{},
		landing:  DefaultLandingPage,
		now:      time.Now,
		state:    StateSignedOut,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	c.guard = NewSessionGuard(backend, creds, c.SignOut,
		WithGuardLogger(c.logger),
		WithGuardNotifier(c.notifier),
		WithGuardActivitySink(c.activity),
	)

	return c
}

// Bind subscribes the coordinator to the backend's auth-state signal and
// returns the unbind handle.
func (c *Coordinator) Bind() Handle {
	return c.backend.OnAuthStateChanged(func(identity Identity) {
		c.HandleAuthState(context.Background(), identity)
	})
}

// HandleAuthState reacts to one auth-state-changed event. A nil identity
// runs the sign-out path; anything else starts a sign-in transition.
func (c *Coordinator) HandleAuthState(ctx context.Context, identity Identity) error {
	if identity == nil {
		return c.SignOut(ctx, ReasonAuthSignal)
	}
	return c.signIn(ctx, identity)
}

// State returns the coordinator's current lifecycle state.
func (c *Coordinator) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentProfile returns the signed-in profile, or nil.
func (c *Coordinator) CurrentProfile() *Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Registry exposes the listener registry (page initializers register
// additional handles through it).
func (c *Coordinator) Registry() *ListenerRegistry {
	return c.registry
}

// Guard exposes the session guard.
func (c *Coordinator) Guard() *SessionGuard {
	return c.guard
}

func (c *Coordinator) signIn(ctx context.Context, identity Identity) error {
	gen := c.begin(StateAuthenticating)

	profile, err := c.backend.GetProfile(ctx, identity)
	if err != nil {
		if IsProfileNotFound(err) {
			// Identity exists in the auth layer but not in the profile
			// store. Recoverable anomaly: force logout and settle signed out.
			c.logger.Warn("no profile record for identity %s, forcing logout", identity.ID())
			c.record(ctx, ActivityEvent{
				EventType: ActivityEventProfileMissing,
				UserID:    identity.ID(),
			})
			if c.isCurrent(gen) {
				c.SignOut(ctx, ReasonProfileMissing)
			}
			return err
		}

		// Transient fetch failure is not proof the account is unusable; stay
		// signed out locally without forcing remote writes.
		c.logger.Error("profile fetch failed for identity %s: %v", identity.ID(), err)
		c.record(ctx, ActivityEvent{
			EventType: ActivityEventSignInFailure,
			UserID:    identity.ID(),
			Metadata:  map[string]any{"error": err.Error()},
		})
		c.settle(gen, StateSignedOut)
		return err
	}

	c.mu.Lock()
	if c.generation != gen {
		// A newer auth event superseded this transition while the fetch was
		// in flight; its teardown already ran.
		c.mu.Unlock()
		return nil
	}
	c.state = StateSignedIn
	c.current = profile
	c.mu.Unlock()

	c.guard.Start(profile.ID.String())

	if c.notices != nil {
		if h := c.notices.Listen(profile.ID.String()); h != nil {
			c.registry.RegisterAll(h)
		}
	}

	handles, err := c.router.Activate(ctx, c.landing)
	if err != nil {
		c.logger.Error("router activation failed for %q: %v", c.landing, err)
		handles = nil
	}

	if !c.isCurrent(gen) {
		// A sign-out raced the activation. The handles were never
		// registered, so the registry could not have cleaned them up.
		for _, h := range handles {
			if h != nil {
				h()
			}
		}
		return nil
	}
	c.registry.RegisterAll(handles...)

	c.record(ctx, ActivityEvent{
		EventType: ActivityEventSignInSuccess,
		UserID:    profile.ID.String(),
		DeviceID:  c.creds.GetOrCreateDeviceID(),
	})

	return nil
}

// SignOut runs the full teardown path. Errors on the remote writes are
// logged and swallowed: the user must end up fully signed out locally even
// when the backend is unreachable.
func (c *Coordinator) SignOut(ctx context.Context, reason LogoutReason) error {
	c.mu.Lock()
	if c.state == StateTearingDown {
		// Re-entrant signal (the backend announces sign-out while we are
		// already tearing down). The outer pass finishes the job.
		c.mu.Unlock()
		return nil
	}
	c.generation++
	c.state = StateTearingDown
	current := c.current
	c.mu.Unlock()

	c.guard.Stop()
	c.registry.ClearAll()

	if logID := c.creds.ActiveLoginLog(); logID != "" {
		fields := map[string]any{"logout_timestamp": c.now()}
		if err := c.backend.UpdateLoginLog(ctx, logID, fields); err != nil {
			c.logger.Warn("logout timestamp write failed for log %s: %v", logID, err)
		}
	}

	if current != nil {
		if err := c.backend.WriteProfileField(ctx, current.ID.String(), ProfileFieldSessionID, ""); err != nil {
			if IsPermissionDenied(err) {
				c.logger.Debug("session clear raced teardown for user %s: %v", current.ID, err)
			} else {
				c.logger.Warn("session clear failed for user %s: %v", current.ID, err)
			}
		}
	}

	if err := c.backend.SignOut(ctx); err != nil {
		c.logger.Warn("backend sign-out failed: %v", err)
	}

	c.creds.SetActiveLoginLog("")
	c.creds.SetLocalSessionID("")

	c.mu.Lock()
	c.state = StateSignedOut
	c.current = nil
	c.mu.Unlock()

	// Handles from the login surface join the registry so the next
	// transition's teardown cancels them like any other subscription.
	handles, err := c.router.Activate(ctx, PageLogin)
	if err != nil {
		c.logger.Error("login surface activation failed: %v", err)
	}
	c.registry.RegisterAll(handles...)

	event := ActivityEvent{
		EventType: ActivityEventSignOut,
		Reason:    reason,
	}
	if current != nil {
		event.UserID = current.ID.String()
	}
	c.record(ctx, event)

	return nil
}

// begin advances the generation, records the transitional state and runs the
// synchronous teardown that must precede any asynchronous step: stop the
// guard, clear every listener. Defensive against stale handles from an
// interrupted prior session.
func (c *Coordinator) begin(next SessionState) uint64 {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.state = next
	c.mu.Unlock()

	c.guard.Stop()
	c.registry.ClearAll()

	return gen
}

func (c *Coordinator) isCurrent(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation == gen
}

// settle moves to next only if gen is still the live transition.
func (c *Coordinator) settle(gen uint64, next SessionState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation == gen {
		c.state = next
	}
}

func (c *Coordinator) record(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = c.now()
	}

	sink := normalizeActivitySink(c.activity)
	if err := sink.Record(ctx, event); err != nil {
		c.logger.Warn("activity sink record error: %v", err)
	}
}
