package console_test

import (
	"testing"
	"time"

	console "github.com/guardpost/go-console"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenMintAndInspect(t *testing.T) {
	t.Parallel()

	svc := console.NewSessionTokenService(newTestConfig())
	identity := testIdentity{id: "user-1", username: "guard.one"}

	token, claims, err := svc.Mint(identity, "device-7")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotNil(t, claims)

	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "device-7", claims.DeviceID)
	assert.NotEmpty(t, claims.ID, "token id doubles as the session id")

	parsed, err := svc.Inspect(token)
	require.NoError(t, err)
	assert.Equal(t, claims.ID, parsed.ID)
	assert.Equal(t, "user-1", parsed.Subject)
	assert.Equal(t, "device-7", parsed.DeviceID)
}

func TestSessionTokensAreUniquePerMint(t *testing.T) {
	t.Parallel()

	svc := console.NewSessionTokenService(newTestConfig())
	identity := testIdentity{id: "user-1", username: "guard.one"}

	_, first, err := svc.Mint(identity, "device-7")
	require.NoError(t, err)
	_, second, err := svc.Mint(identity, "device-7")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestSessionTokenRejectsWrongKey(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig()
	svc := console.NewSessionTokenService(cfg)

	other := cfg
	other.signingKey = "some-other-key"
	otherSvc := console.NewSessionTokenService(other)

	token, _, err := svc.Mint(testIdentity{id: "u", username: "u"}, "d")
	require.NoError(t, err)

	_, err = otherSvc.Inspect(token)
	assert.Error(t, err)
}

func TestSessionTokenRejectsGarbage(t *testing.T) {
	t.Parallel()

	svc := console.NewSessionTokenService(newTestConfig())

	_, err := svc.Inspect("not.a.token")
	assert.Error(t, err)
}

func TestSessionTokenExpiryFollowsConfig(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig()
	cfg.ttl = 2
	svc := console.NewSessionTokenService(cfg)

	before := time.Now()
	_, claims, err := svc.Mint(testIdentity{id: "u", username: "u"}, "d")
	require.NoError(t, err)

	expected := before.Add(2 * time.Hour)
	assert.WithinDuration(t, expected, claims.ExpiresAt.Time, 5*time.Second)
}
