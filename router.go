package console

import (
	"context"
	"sync"
)

// Navigation targets the console knows about.
const (
	PageLogin     = "login"
	PageUsers     = "users"
	PageCommunity = "community"
	PageLocation  = "location"
	PageSettings  = "settings"
	PageDashboard = "dashboard"
)

// DefaultLandingPage is used when no navigation target is set at sign-in.
const DefaultLandingPage = PageUsers

// PageInitFunc loads one page and returns the page-scoped subscription
// handles the coordinator will own until the next navigation or sign-out.
type PageInitFunc func(ctx context.Context) ([]Handle, error)

// NavRouter maps navigation tokens to page initializers. Unknown targets
// never fail: the fallback surface is rendered and an empty handle list
// returned. Activating the same target repeatedly replaces content
// idempotently; page-scoped listeners from the previous activation are the
// registry's concern, not the router's.
type NavRouter struct {
	mu       sync.Mutex
	pages    map[string]PageInitFunc
	fallback PageInitFunc
	logger   Logger
	active   string
}

type NavRouterOption func(*NavRouter)

func WithRouterLogger(logger Logger) NavRouterOption {
	return func(r *NavRouter) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithFallbackPage overrides the surface rendered for unknown targets.
func WithFallbackPage(init PageInitFunc) NavRouterOption {
	return func(r *NavRouter) {
		if init != nil {
			r.fallback = init
		}
	}
}

func NewNavRouter(opts ...NavRouterOption) *NavRouter {
	r := &NavRouter{
		pages:  map[string]PageInitFunc{},
		logger: defLogger{},
		fallback: func(context.Context) ([]Handle, error) {
			return nil, nil
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

// Handle registers the initializer for a navigation target.
func (r *NavRouter) Handle(target string, init PageInitFunc) *NavRouter {
	if target == "" || init == nil {
		return r
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages[target] = init
	return r
}

// Active returns the most recently activated target.
func (r *NavRouter) Active() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Activate implements PageRouter.
func (r *NavRouter) Activate(ctx context.Context, target string) ([]Handle, error) {
	r.mu.Lock()
	init, known := r.pages[target]
	if !known {
		init = r.fallback
	}
	r.active = target
	r.mu.Unlock()

	if !known {
		r.logger.Debug("no initializer for target %q, rendering fallback", target)
	}

	handles, err := init(ctx)
	if err != nil {
		return nil, err
	}

	return handles, nil
}

var _ PageRouter = (*NavRouter)(nil)
