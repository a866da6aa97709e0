package console

import (
	"sync"
)

// ListenerRegistry is the central bookkeeping for cancelable subscriptions.
// The coordinator clears it at the start of every session transition so no
// subscription outlives the page or session that created it.
//
// Invariant: once ClearAll returns, no previously registered handle will be
// invoked again, and no handle is ever invoked twice.
type ListenerRegistry struct {
	mu      sync.Mutex
	handles []Handle
	logger  Logger
}

type ListenerRegistryOption func(*ListenerRegistry)

func WithRegistryLogger(logger Logger) ListenerRegistryOption {
	return func(r *ListenerRegistry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewListenerRegistry(opts ...ListenerRegistryOption) *ListenerRegistry {
	r := &ListenerRegistry{
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

// RegisterAll appends handles to the active set. Nil handles are skipped.
func (r *ListenerRegistry) RegisterAll(handles ...Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, h := range handles {
		if h != nil {
			r.handles = append(r.handles, h)
		}
	}
}

// ClearAll invokes every registered handle exactly once and empties the set.
// Idempotent: clearing an empty registry is a no-op. A panicking handle is
// contained so one failing teardown cannot block the rest.
func (r *ListenerRegistry) ClearAll() {
	r.mu.Lock()
	active := r.handles
	r.handles = nil
	r.mu.Unlock()

	for _, h := range active {
		r.invoke(h)
	}
}

// Len reports the number of currently registered handles.
func (r *ListenerRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

func (r *ListenerRegistry) invoke(h Handle) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("listener teardown panicked: %v", rec)
		}
	}()
	h()
}
