package console

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Handle cancels one live subscription. Calling it more than once is safe.
type Handle func()

// Identity is what the hosted auth layer reports as the signed-in principal.
type Identity interface {
	ID() string
	Username() string
}

// AuthSignal is the backend's auth-state-changed surface. The callback
// receives nil when the principal signs out.
type AuthSignal interface {
	OnAuthStateChanged(fn func(Identity)) Handle
	SignOut(ctx context.Context) error
}

// ProfileService exposes the profile document surface the session core
// consumes: one read per session start plus a live subscription for the
// session guard.
type ProfileService interface {
	GetProfile(ctx context.Context, identity Identity) (*Profile, error)
	SubscribeProfile(profileID string, fn func(*Profile)) Handle
	WriteProfileField(ctx context.Context, profileID, field string, value any) error
}

// LoginLogService appends and closes login audit entries.
type LoginLogService interface {
	AppendLoginLog(ctx context.Context, entry *LoginLog) (string, error)
	UpdateLoginLog(ctx context.Context, logID string, fields map[string]any) error
}

// Backend is the full collaborator surface of the hosted service.
type Backend interface {
	AuthSignal
	ProfileService
	LoginLogService
}

// PageRouter activates a navigation target and returns the page-scoped
// subscription handles the coordinator must own. Implementations must not
// fail for unknown targets; they render a fallback surface and return an
// empty handle list. Repeated activation of the same target replaces the
// page content idempotently.
type PageRouter interface {
	Activate(ctx context.Context, target string) ([]Handle, error)
}

// Notifier delivers session-related events to the user. Fire and forget:
// implementations own their failures and never surface them to the caller.
type Notifier interface {
	Notify(ctx context.Context, userID string, n Notification)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, userID string, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, userID string, n Notification) {
	if f != nil {
		f(ctx, userID, n)
	}
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, string, Notification) {}

func normalizeNotifier(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

// Config holds session core options
type Config interface {
	GetSigningKey() string
	GetSessionTTL() int
	GetIssuer() string
	GetLandingPage() string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] CONSOLE "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] CONSOLE "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] CONSOLE "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] CONSOLE "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
