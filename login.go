package console

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// LoginPayload is the payload used to generate a session after login
type LoginPayload interface {
	GetUsername() string
	GetPassword() string
	GetRememberMe() bool
}

// LoginManager runs the interactive login flow: verify credentials, mint a
// session token, claim the session for this device, append the audit entry,
// stash the local copies and finally announce the sign-in so the coordinator
// takes over.
type LoginManager struct {
	repo     RepositoryManager
	service  *Service
	tokens   *SessionTokenService
	creds    *CredentialStore
	activity ActivitySink
	logger   Logger
	now      func() time.Time
}

type LoginManagerOption func(*LoginManager)

func WithLoginLogger(logger Logger) LoginManagerOption {
	return func(m *LoginManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithLoginActivitySink(sink ActivitySink) LoginManagerOption {
	return func(m *LoginManager) {
		m.activity = normalizeActivitySink(sink)
	}
}

func WithLoginClock(clock func() time.Time) LoginManagerOption {
	return func(m *LoginManager) {
		if clock != nil {
			m.now = clock
		}
	}
}

func NewLoginManager(repo RepositoryManager, service *Service, tokens *SessionTokenService, creds *CredentialStore, opts ...LoginManagerOption) *LoginManager {
	m := &LoginManager{
		repo:     repo,
		service:  service,
		tokens:   tokens,
		creds:    creds,
		activity: noopActivitySink{},
		logger:   defLogger{},
		now:      time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m
}

// Login authenticates the payload and establishes the session. On success the
// profile record for the new session is returned and the auth-state signal
// fires with the identity; the coordinator finishes the transition from there.
func (m *LoginManager) Login(ctx context.Context, payload LoginPayload) (*Profile, error) {
	username := payload.GetUsername()
	deviceID := m.creds.GetOrCreateDeviceID()

	profile, err := m.verify(ctx, username, payload.GetPassword())
	if err != nil {
		m.record(ctx, ActivityEvent{
			EventType: ActivityEventSignInFailure,
			DeviceID:  deviceID,
			Metadata:  map[string]any{"username": username},
		})
		return nil, err
	}

	token, claims, err := m.tokens.Mint(NewIdentity(profile.ID.String(), profile.Username), deviceID)
	if err != nil {
		return nil, err
	}

	logID := uuid.New()
	handler := NewRecordLoginHandler(m.repo)
	err = handler.Execute(ctx, RecordLoginMessage{
		Profile:   profile,
		DeviceID:  deviceID,
		SessionID: token,
		LogID:     logID,
	})
	if err != nil {
		return nil, err
	}

	// Local copies first: the session guard reads LocalSessionID the moment
	// the coordinator starts it, and it must match what was just claimed.
	m.creds.SetLocalSessionID(token)
	m.creds.SetActiveLoginLog(logID.String())

	if payload.GetRememberMe() {
		m.creds.SetRememberedUsername(profile.Username)
	} else {
		m.creds.SetRememberedUsername("")
	}

	m.record(ctx, ActivityEvent{
		EventType: ActivityEventSignInSuccess,
		UserID:    profile.ID.String(),
		DeviceID:  deviceID,
		Metadata:  map[string]any{"session_jti": claims.ID},
	})

	m.service.AnnounceSignIn(NewIdentity(profile.ID.String(), profile.Username))

	return profile, nil
}

// verify resolves the profile and checks the password. Unknown usernames and
// bad passwords both surface as invalid credentials.
func (m *LoginManager) verify(ctx context.Context, username, password string) (*Profile, error) {
	profile, err := m.repo.Profiles().GetByUsername(ctx, username)
	if err != nil {
		if IsProfileNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve profile for login")
	}

	if err := ComparePasswordAndHash(password, profile.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	return profile, nil
}

func (m *LoginManager) record(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = m.now()
	}

	sink := normalizeActivitySink(m.activity)
	if err := sink.Record(ctx, event); err != nil {
		m.logger.Warn("activity sink record error: %v", err)
	}
}
