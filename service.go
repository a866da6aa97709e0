package console

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

const (
	authTopic          = "auth"
	profileTopicPrefix = "profiles/"
)

// identityRecord is the principal the Service announces to auth-state
// subscribers after a successful login.
type identityRecord struct {
	id       string
	username string
}

func (i identityRecord) ID() string       { return i.id }
func (i identityRecord) Username() string { return i.username }

// NewIdentity builds an Identity from raw values.
func NewIdentity(id, username string) Identity {
	return identityRecord{id: id, username: username}
}

// Service is the store-backed Backend implementation. It plays the part the
// hosted platform plays for the browser console: it owns the auth-state
// signal, serves profile reads and live profile subscriptions, and appends
// the login audit trail.
type Service struct {
	repo   RepositoryManager
	hub    *WatchHub[*Profile]
	auth   *WatchHub[Identity]
	logger Logger
	now    func() time.Time

	mu      sync.Mutex
	current Identity
}

type ServiceOption func(*Service)

func WithServiceLogger(logger Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithServiceClock(clock func() time.Time) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithProfileHub shares a watch hub with other components, e.g. a
// StoreDispatcher built over the same stores.
func WithProfileHub(hub *WatchHub[*Profile]) ServiceOption {
	return func(s *Service) {
		if hub != nil {
			s.hub = hub
		}
	}
}

func NewService(repo RepositoryManager, opts ...ServiceOption) *Service {
	s := &Service{
		repo:   repo,
		hub:    NewWatchHub[*Profile](),
		auth:   NewWatchHub[Identity](),
		logger: defLogger{},
		now:    time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// OnAuthStateChanged implements AuthSignal. A freshly bound subscriber does
// not get a replay of the current state; binding happens before any login.
func (s *Service) OnAuthStateChanged(fn func(Identity)) Handle {
	return s.auth.Subscribe(authTopic, fn)
}

// AnnounceSignIn records the principal and fans the event out to auth-state
// subscribers. The login manager calls this after its writes land.
func (s *Service) AnnounceSignIn(identity Identity) {
	if identity == nil {
		return
	}

	s.mu.Lock()
	s.current = identity
	s.mu.Unlock()

	s.auth.Publish(authTopic, identity)
}

// SignOut implements AuthSignal. Announcing nil while nobody is signed in is
// suppressed so repeated teardown stays quiet.
func (s *Service) SignOut(ctx context.Context) error {
	s.mu.Lock()
	wasSignedIn := s.current != nil
	s.current = nil
	s.mu.Unlock()

	if wasSignedIn {
		s.auth.Publish(authTopic, nil)
	}

	return nil
}

// CurrentIdentity returns the announced principal, or nil.
func (s *Service) CurrentIdentity() Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// GetProfile implements ProfileService.
func (s *Service) GetProfile(ctx context.Context, identity Identity) (*Profile, error) {
	if identity == nil {
		return nil, goerrors.New("profile lookup requires an identity", goerrors.CategoryBadInput)
	}

	record, err := s.repo.Profiles().GetByID(ctx, identity.ID())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrProfileNotFound.WithMetadata(map[string]any{
				"id": identity.ID(),
			})
		}
		return nil, err
	}

	return record, nil
}

// SubscribeProfile implements ProfileService. Updates flow through
// WriteProfileField; out-of-band store writes are not observed.
func (s *Service) SubscribeProfile(profileID string, fn func(*Profile)) Handle {
	return s.hub.Subscribe(profileTopicPrefix+profileID, fn)
}

// WriteProfileField implements ProfileService. The updated record is
// re-read and published so profile subscribers see the new value.
func (s *Service) WriteProfileField(ctx context.Context, profileID, field string, value any) error {
	id, err := uuid.Parse(profileID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid profile id").
			WithMetadata(map[string]any{"id": profileID})
	}

	if err := s.repo.Profiles().UpdateField(ctx, id, field, value); err != nil {
		return err
	}

	record, err := s.repo.Profiles().GetByID(ctx, profileID)
	if err != nil {
		s.logger.Warn("profile re-read after field write failed for %s: %v", profileID, err)
		return nil
	}

	s.hub.Publish(profileTopicPrefix+profileID, record)

	return nil
}

// AppendLoginLog implements LoginLogService.
func (s *Service) AppendLoginLog(ctx context.Context, entry *LoginLog) (string, error) {
	if entry.LoginAt == nil {
		at := s.now()
		entry.LoginAt = &at
	}

	created, err := s.repo.LoginLogs().Append(ctx, entry)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to append login log")
	}

	return created.ID.String(), nil
}

// UpdateLoginLog implements LoginLogService. Only the logout timestamp is
// writable after the fact; other fields are immutable audit data.
func (s *Service) UpdateLoginLog(ctx context.Context, logID string, fields map[string]any) error {
	id, err := uuid.Parse(logID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid login log id").
			WithMetadata(map[string]any{"id": logID})
	}

	raw, ok := fields["logout_timestamp"]
	if !ok {
		return goerrors.New("only the logout timestamp can be updated", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{"fields": fields})
	}

	at, ok := raw.(time.Time)
	if !ok {
		return goerrors.New("logout timestamp must be a time value", goerrors.CategoryBadInput)
	}

	handler := NewCloseLoginLogHandler(s.repo)
	return handler.Execute(ctx, CloseLoginLogMessage{LogID: id, At: at})
}

var (
	_ Backend         = (*Service)(nil)
	_ AuthSignal      = (*Service)(nil)
	_ ProfileService  = (*Service)(nil)
	_ LoginLogService = (*Service)(nil)
)
