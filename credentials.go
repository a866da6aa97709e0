package console

import (
	"sync"

	"github.com/google/uuid"
)

// Local storage keys. They mirror what the device persists between runs.
const (
	keyDeviceID           = "deviceId"
	keyRememberedUsername = "rememberedUsername"
	keyActiveLoginLog     = "activeLoginLogId"
	keyLocalSessionID     = "localSessionId"
)

// KV is the minimal persistent key-value surface the credential store needs.
// Implementations may fail; the store degrades to in-memory values so
// credential operations never error out.
type KV interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// MemoryKV is a process-local KV. It backs tests and doubles as the fallback
// tier when the persistent store is unavailable.
type MemoryKV struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: map[string]string{}}
}

func (m *MemoryKV) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *MemoryKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// CredentialStore scopes the four device-local values the session core
// tracks: device id, remembered username, active login-log id and the last
// session token this device observed as its own.
type CredentialStore struct {
	kv       KV
	fallback *MemoryKV
	logger   Logger
}

type CredentialStoreOption func(*CredentialStore)

func WithCredentialStoreLogger(logger Logger) CredentialStoreOption {
	return func(s *CredentialStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewCredentialStore(kv KV, opts ...CredentialStoreOption) *CredentialStore {
	if kv == nil {
		kv = NewMemoryKV()
	}

	s := &CredentialStore{
		kv:       kv,
		fallback: NewMemoryKV(),
		logger:   defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// GetOrCreateDeviceID returns the persisted device id, generating and
// persisting a fresh one on first use. Stable across restarts as long as the
// underlying storage survives.
func (s *CredentialStore) GetOrCreateDeviceID() string {
	if id := s.get(keyDeviceID); id != "" {
		return id
	}

	id := uuid.NewString()
	s.set(keyDeviceID, id)
	return id
}

func (s *CredentialStore) RememberedUsername() string {
	return s.get(keyRememberedUsername)
}

// SetRememberedUsername stores the username for login-form prefill; an empty
// name clears it.
func (s *CredentialStore) SetRememberedUsername(name string) {
	s.set(keyRememberedUsername, name)
}

func (s *CredentialStore) ActiveLoginLog() string {
	return s.get(keyActiveLoginLog)
}

func (s *CredentialStore) SetActiveLoginLog(id string) {
	s.set(keyActiveLoginLog, id)
}

func (s *CredentialStore) LocalSessionID() string {
	return s.get(keyLocalSessionID)
}

func (s *CredentialStore) SetLocalSessionID(id string) {
	s.set(keyLocalSessionID, id)
}

func (s *CredentialStore) get(key string) string {
	// The fallback holds the newest value whenever a persistent write failed,
	// so it wins over whatever the KV still has.
	if v, ok := s.fallback.Get(key); ok {
		return v
	}
	v, _ := s.kv.Get(key)
	return v
}

func (s *CredentialStore) set(key, value string) {
	if value == "" {
		if err := s.kv.Delete(key); err != nil {
			s.logger.Debug("credential store delete failed for %s, using memory fallback: %v", key, err)
			s.fallback.Set(key, "")
			return
		}
		s.fallback.Delete(key)
		return
	}

	if err := s.kv.Set(key, value); err != nil {
		s.logger.Debug("credential store write failed for %s, using memory fallback: %v", key, err)
		s.fallback.Set(key, value)
		return
	}
	s.fallback.Delete(key)
}
