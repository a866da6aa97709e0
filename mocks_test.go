package console_test

import (
	"context"
	"sync"
	"time"

	console "github.com/guardpost/go-console"
	"github.com/stretchr/testify/mock"
)

// testConfig implements console.Config
type testConfig struct {
	signingKey string
	ttl        int
	issuer     string
	landing    string
}

func newTestConfig() testConfig {
	return testConfig{
		signingKey: "test-signing-key",
		ttl:        24,
		issuer:     "guardpost-console",
		landing:    console.PageUsers,
	}
}

func (c testConfig) GetSigningKey() string  { return c.signingKey }
func (c testConfig) GetSessionTTL() int     { return c.ttl }
func (c testConfig) GetIssuer() string      { return c.issuer }
func (c testConfig) GetLandingPage() string { return c.landing }

// testIdentity implements console.Identity
type testIdentity struct {
	id       string
	username string
}

func (i testIdentity) ID() string       { return i.id }
func (i testIdentity) Username() string { return i.username }

// MockKV implements console.KV
type MockKV struct {
	mock.Mock
}

func (m *MockKV) Get(key string) (string, bool) {
	args := m.Called(key)
	return args.String(0), args.Bool(1)
}

func (m *MockKV) Set(key, value string) error {
	args := m.Called(key, value)
	return args.Error(0)
}

func (m *MockKV) Delete(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

// capturingSink collects activity events
type capturingSink struct {
	mu     sync.Mutex
	events []console.ActivityEvent
}

func (c *capturingSink) Record(ctx context.Context, evt console.ActivityEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
	return nil
}

func (c *capturingSink) byType(t console.ActivityEventType) []console.ActivityEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []console.ActivityEvent
	for _, evt := range c.events {
		if evt.EventType == t {
			out = append(out, evt)
		}
	}
	return out
}

// capturedNotice is one delivered notification
type capturedNotice struct {
	UserID string
	Notice console.Notification
}

// capturingNotifier collects notifications
type capturingNotifier struct {
	mu      sync.Mutex
	notices []capturedNotice
}

func (c *capturingNotifier) Notify(ctx context.Context, userID string, n console.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, capturedNotice{UserID: userID, Notice: n})
}

func (c *capturingNotifier) all() []capturedNotice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]capturedNotice(nil), c.notices...)
}

// fieldWrite is one recorded WriteProfileField call
type fieldWrite struct {
	ProfileID string
	Field     string
	Value     any
}

// fakeBackend implements console.Backend with just enough behavior to drive
// the coordinator: an in-memory auth signal, a profile table and a watch hub
// for profile subscriptions.
type fakeBackend struct {
	mu       sync.Mutex
	authFns  map[int]func(console.Identity)
	nextID   int
	profiles map[string]*console.Profile
	hub      *console.WatchHub[*console.Profile]

	getProfileErr  error
	getProfileHook func()
	writeFieldErr  error
	logUpdateErr   error
	signOutErr     error
	signOutHook    func()

	signOutCalls int
	fieldWrites  []fieldWrite
	logUpdates   map[string]map[string]any
	appendedLogs []*console.LoginLog
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		authFns:    map[int]func(console.Identity){},
		profiles:   map[string]*console.Profile{},
		hub:        console.NewWatchHub[*console.Profile](),
		logUpdates: map[string]map[string]any{},
	}
}

func (b *fakeBackend) addProfile(p *console.Profile) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.profiles[p.ID.String()] = p
}

func (b *fakeBackend) OnAuthStateChanged(fn func(console.Identity)) console.Handle {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.authFns[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.authFns, id)
	}
}

func (b *fakeBackend) announce(identity console.Identity) {
	b.mu.Lock()
	fns := make([]func(console.Identity), 0, len(b.authFns))
	for _, fn := range b.authFns {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(identity)
	}
}

func (b *fakeBackend) SignOut(ctx context.Context) error {
	b.mu.Lock()
	b.signOutCalls++
	hook := b.signOutHook
	err := b.signOutErr
	b.mu.Unlock()

	if hook != nil {
		hook()
	}
	return err
}

func (b *fakeBackend) GetProfile(ctx context.Context, identity console.Identity) (*console.Profile, error) {
	b.mu.Lock()
	hook := b.getProfileHook
	err := b.getProfileErr
	p, ok := b.profiles[identity.ID()]
	b.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, console.ErrProfileNotFound
	}
	return p, nil
}

func (b *fakeBackend) SubscribeProfile(profileID string, fn func(*console.Profile)) console.Handle {
	return b.hub.Subscribe("profiles/"+profileID, fn)
}

func (b *fakeBackend) publishProfile(p *console.Profile) {
	b.hub.Publish("profiles/"+p.ID.String(), p)
}

func (b *fakeBackend) WriteProfileField(ctx context.Context, profileID, field string, value any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fieldWrites = append(b.fieldWrites, fieldWrite{ProfileID: profileID, Field: field, Value: value})
	return b.writeFieldErr
}

func (b *fakeBackend) AppendLoginLog(ctx context.Context, entry *console.LoginLog) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.appendedLogs = append(b.appendedLogs, entry)
	return entry.ID.String(), nil
}

func (b *fakeBackend) UpdateLoginLog(ctx context.Context, logID string, fields map[string]any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.logUpdateErr != nil {
		return b.logUpdateErr
	}
	b.logUpdates[logID] = fields
	return nil
}

var _ console.Backend = (*fakeBackend)(nil)

// recordingRouter implements console.PageRouter, logging every activation to
// a shared event trail.
type recordingRouter struct {
	mu      sync.Mutex
	trail   *eventTrail
	handles map[string][]console.Handle
	err     error
	targets []string
}

func newRecordingRouter(trail *eventTrail) *recordingRouter {
	return &recordingRouter{
		trail:   trail,
		handles: map[string][]console.Handle{},
	}
}

func (r *recordingRouter) returnHandles(target string, handles ...console.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[target] = handles
}

func (r *recordingRouter) Activate(ctx context.Context, target string) ([]console.Handle, error) {
	r.mu.Lock()
	r.targets = append(r.targets, target)
	handles := r.handles[target]
	err := r.err
	r.mu.Unlock()

	if r.trail != nil {
		r.trail.add("activate:" + target)
	}
	if err != nil {
		return nil, err
	}
	return handles, nil
}

func (r *recordingRouter) activated() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.targets...)
}

var _ console.PageRouter = (*recordingRouter)(nil)

// eventTrail is an ordered record of observable side effects, used to assert
// teardown-before-setup ordering.
type eventTrail struct {
	mu     sync.Mutex
	events []string
}

func (e *eventTrail) add(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, name)
}

func (e *eventTrail) all() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.events...)
}

func (e *eventTrail) indexOf(name string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, evt := range e.events {
		if evt == name {
			return i
		}
	}
	return -1
}

func testClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
