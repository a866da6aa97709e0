package console

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// SessionClaims is the payload carried by a session token. The token id
// doubles as the session id written to the profile record, which is what
// the session guard compares against the locally captured copy.
type SessionClaims struct {
	jwt.RegisteredClaims
	DeviceID string `json:"did,omitempty"`
}

// SessionTokenService mints and inspects the per-login session tokens.
type SessionTokenService struct {
	signingKey []byte
	ttl        time.Duration
	issuer     string
	logger     Logger
}

type SessionTokenOption func(*SessionTokenService)

func WithSessionTokenLogger(logger Logger) SessionTokenOption {
	return func(s *SessionTokenService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewSessionTokenService(cfg Config, opts ...SessionTokenOption) *SessionTokenService {
	s := &SessionTokenService{
		signingKey: []byte(cfg.GetSigningKey()),
		ttl:        time.Duration(cfg.GetSessionTTL()) * time.Hour,
		issuer:     cfg.GetIssuer(),
		logger:     defLogger{},
	}

	if s.ttl <= 0 {
		s.ttl = 24 * time.Hour
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Mint creates a signed session token for the identity on the given device.
func (s *SessionTokenService) Mint(identity Identity, deviceID string) (string, *SessionClaims, error) {
	now := time.Now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   identity.ID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		DeviceID: deviceID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", nil, errors.Wrap(err, errors.CategoryInternal, "failed to sign session token")
	}

	return signed, claims, nil
}

// Inspect parses and validates a minted token string.
func (s *SessionTokenService) Inspect(tokenString string) (*SessionClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 1)
	if s.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			s.logger.Error("SessionTokenService inspect encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	}, parserOptions...)

	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryAuth, "unable to validate session token").
			WithTextCode("INVALID_SESSION_TOKEN").
			WithCode(errors.CodeUnauthorized)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		s.logger.Error("SessionTokenService inspect could not decode claims")
		return nil, ErrUnableToParseToken
	}

	return claims, nil
}
