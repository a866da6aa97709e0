package console_test

import (
	"testing"

	console "github.com/guardpost/go-console"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginRequestValidate(t *testing.T) {
	t.Parallel()

	valid := console.LoginRequest{Username: "guard.one", Password: "secret-pass"}
	assert.NoError(t, valid.Validate())

	missing := console.LoginRequest{}
	assert.Error(t, missing.Validate())

	short := console.LoginRequest{Username: "ab", Password: "secret-pass"}
	assert.Error(t, short.Validate())

	noPass := console.LoginRequest{Username: "guard.one"}
	assert.Error(t, noPass.Validate())
}

func TestValidatePhoneNumber(t *testing.T) {
	t.Parallel()

	assert.NoError(t, console.ValidatePhoneNumber("+14155552671"))
	assert.NoError(t, console.ValidatePhoneNumber("(415) 555-2671"))
	assert.NoError(t, console.ValidatePhoneNumber(""), "empty passes, pair with Required")

	assert.Error(t, console.ValidatePhoneNumber("12"))
	assert.Error(t, console.ValidatePhoneNumber("not a number"))
}

func TestValidateRole(t *testing.T) {
	t.Parallel()

	assert.NoError(t, console.ValidateRole("staff"))
	assert.NoError(t, console.ValidateRole(""))
	assert.Error(t, console.ValidateRole("intern"))
}

func TestValidateStringEquals(t *testing.T) {
	t.Parallel()

	rule := console.ValidateStringEquals("password-1")
	assert.NoError(t, rule("password-1"))
	assert.Error(t, rule("password-2"))
}

func TestFormatValidationErrorToMap(t *testing.T) {
	t.Parallel()

	payload := console.LoginRequest{Password: "pass-only"}
	err := payload.Validate()
	require.Error(t, err)

	out := console.FormatValidationErrorToMap(err)
	assert.Contains(t, out, "username")
	assert.NotContains(t, out, "password")

	assert.Empty(t, console.FormatValidationErrorToMap(nil))
}
