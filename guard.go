package console

import (
	"context"
	"sync"
)

// LogoutFunc runs the sign-out procedure. The session guard invokes it when
// it detects a competing session; the coordinator provides its own SignOut.
type LogoutFunc func(ctx context.Context, reason LogoutReason) error

// SessionGuard enforces at-most-one active session per account. It watches
// the signed-in profile document and compares the session token stored there
// against the one this device captured at login. A differing non-empty
// remote token means another device superseded us: the guard cancels its own
// subscription, surfaces a forced-logout notification and invokes the logout
// procedure exactly once.
type SessionGuard struct {
	profiles ProfileService
	creds    *CredentialStore
	logout   LogoutFunc
	notifier Notifier
	activity ActivitySink
	logger   Logger

	mu             sync.Mutex
	localSessionID string
	cancel         Handle
	fired          bool
}

type SessionGuardOption func(*SessionGuard)

func WithGuardLogger(logger Logger) SessionGuardOption {
	return func(g *SessionGuard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func WithGuardNotifier(n Notifier) SessionGuardOption {
	return func(g *SessionGuard) {
		g.notifier = normalizeNotifier(n)
	}
}

func WithGuardActivitySink(sink ActivitySink) SessionGuardOption {
	return func(g *SessionGuard) {
		g.activity = normalizeActivitySink(sink)
	}
}

func NewSessionGuard(profiles ProfileService, creds *CredentialStore, logout LogoutFunc, opts ...SessionGuardOption) *SessionGuard {
	g := &SessionGuard{
		profiles: profiles,
		creds:    creds,
		logout:   logout,
		notifier: noopNotifier{},
		activity: noopActivitySink{},
		logger:   defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g
}

// Start begins watching the profile document. The locally stored session id
// is captured once, here, and stays immutable for this guard run: a token
// written after Start belongs to a different session and must not influence
// this one.
func (g *SessionGuard) Start(profileID string) {
	g.Stop()

	g.mu.Lock()
	g.localSessionID = g.creds.LocalSessionID()
	g.fired = false
	g.mu.Unlock()

	cancel := g.profiles.SubscribeProfile(profileID, g.onProfileUpdate)

	g.mu.Lock()
	g.cancel = cancel
	g.mu.Unlock()

	g.logger.Debug("session guard watching profile %s", profileID)
}

// Stop cancels the underlying subscription if active. Idempotent.
func (g *SessionGuard) Stop() {
	g.mu.Lock()
	cancel := g.cancel
	g.cancel = nil
	g.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Watching reports whether the guard currently holds a live subscription.
func (g *SessionGuard) Watching() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cancel != nil
}

func (g *SessionGuard) onProfileUpdate(p *Profile) {
	if p == nil {
		return
	}

	g.mu.Lock()
	local := g.localSessionID
	fired := g.fired
	g.mu.Unlock()

	// A device with no captured token has nothing to defend: first login on
	// this device, or storage was cleared. Never a trigger condition.
	if local == "" || fired {
		return
	}

	remote := p.SessionID
	if remote == "" || remote == local {
		return
	}

	g.mu.Lock()
	if g.fired {
		g.mu.Unlock()
		return
	}
	g.fired = true
	g.mu.Unlock()

	// Cancel our own subscription first so the session-clearing writes the
	// logout performs cannot re-enter this handler.
	g.Stop()

	ctx := context.Background()
	userID := p.ID.String()

	g.logger.Warn("session superseded for user %s, forcing logout", userID)

	g.notifier.Notify(ctx, userID, Notification{
		Title:    "Signed out",
		Body:     "Your account signed in on another device. This session has ended.",
		Severity: SeverityHigh,
	})

	if err := g.activity.Record(ctx, ActivityEvent{
		EventType: ActivityEventForcedLogout,
		UserID:    userID,
	}); err != nil {
		g.logger.Warn("activity sink record error: %v", err)
	}

	if g.logout == nil {
		return
	}

	if err := g.logout(ctx, ReasonSessionSuperseded); err != nil {
		g.logger.Error("forced logout failed: %v", err)
	}
}
