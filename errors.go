package console

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeProfileNotFound    = "PROFILE_NOT_FOUND"
	textCodeSessionSuperseded  = "SESSION_SUPERSEDED"
	textCodeInvalidCredentials = "INVALID_CREDENTIALS"
)

// ErrProfileNotFound is returned when an identity exists in the auth layer
// but has no matching profile record. The coordinator treats this as a
// recoverable anomaly and forces logout.
var ErrProfileNotFound = goerrors.New("no profile record for identity", goerrors.CategoryNotFound).
	WithTextCode(textCodeProfileNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrSessionSuperseded signals that another device took over the session.
var ErrSessionSuperseded = goerrors.New("session superseded by another device", goerrors.CategoryAuth).
	WithTextCode(textCodeSessionSuperseded).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidCredentials is returned by the login flow on a bad username or
// password.
var ErrInvalidCredentials = goerrors.New("invalid username or password", goerrors.CategoryAuth).
	WithTextCode(textCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrNoEmptyString rejects empty password input
var ErrNoEmptyString = errors.New("password can not be an empty string")

// ErrMismatchedHashAndPassword is the bcrypt mismatch mapped to our domain
var ErrMismatchedHashAndPassword = errors.New("password does not match stored hash")

// ErrUnableToParseToken is returned when a session token fails inspection
var ErrUnableToParseToken = errors.New("unable to parse session token")

// IsProfileNotFound reports whether err is the missing-profile anomaly.
// Matches by text code so metadata-enriched copies still classify.
func IsProfileNotFound(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrProfileNotFound) {
		return true
	}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.TextCode == textCodeProfileNotFound
	}

	return false
}

// IsPermissionDenied matches the permission errors a backend raises when a
// subscription outlives its session. Expected artifact of teardown ordering,
// never alerted loudly.
func IsPermissionDenied(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "permission denied") ||
		strings.Contains(msg, "permission-denied") ||
		strings.Contains(msg, "insufficient permissions")
}
