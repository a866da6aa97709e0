package console

import (
	"sync"
)

// WatchHub is the in-process fan-out behind document subscriptions. Topics
// are document paths ("profiles/<id>", "notifications/<userID>"); publishing
// a value delivers it to every live subscriber. Subscribe returns a Handle
// whose cancellation is idempotent, so handles can flow through the listener
// registry unchanged.
type WatchHub[T any] struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]func(T)
	logger Logger
}

type WatchHubOption[T any] func(*WatchHub[T])

func WithWatchHubLogger[T any](logger Logger) WatchHubOption[T] {
	return func(h *WatchHub[T]) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func NewWatchHub[T any](opts ...WatchHubOption[T]) *WatchHub[T] {
	h := &WatchHub[T]{
		subs:   map[string]map[int]func(T){},
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}

	return h
}

// Subscribe registers fn for topic and returns its cancellation handle.
func (h *WatchHub[T]) Subscribe(topic string, fn func(T)) Handle {
	if fn == nil {
		return func() {}
	}

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	if h.subs[topic] == nil {
		h.subs[topic] = map[int]func(T){}
	}
	h.subs[topic][id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if subs, ok := h.subs[topic]; ok {
				delete(subs, id)
				if len(subs) == 0 {
					delete(h.subs, topic)
				}
			}
		})
	}
}

// Publish delivers value to every subscriber currently registered for topic.
// Callbacks run outside the hub lock; a callback canceling its own
// subscription mid-delivery is legal.
func (h *WatchHub[T]) Publish(topic string, value T) {
	h.mu.Lock()
	fns := make([]func(T), 0, len(h.subs[topic]))
	for _, fn := range h.subs[topic] {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		h.deliver(fn, value)
	}
}

// Subscribers reports the live subscription count for a topic.
func (h *WatchHub[T]) Subscribers(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[topic])
}

func (h *WatchHub[T]) deliver(fn func(T), value T) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Warn("watch callback panicked: %v", rec)
		}
	}()
	fn(value)
}
