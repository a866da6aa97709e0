package console

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// DefaultSessionCookie is the cookie carrying the session token.
const DefaultSessionCookie = "guardpost_session"

type SessionControllerRoutes struct {
	Login  string
	Logout string
	Status string
}

// SessionController exposes the session lifecycle over HTTP: login, logout
// and a status probe. It is a thin JSON surface over the login manager and
// the coordinator; every behavior lives below it.
type SessionController struct {
	Debug          bool
	Logger         Logger
	Login          *LoginManager
	Coordinator    *Coordinator
	Creds          *CredentialStore
	Routes         *SessionControllerRoutes
	CookieName     string
	CookieDuration time.Duration
	ErrorHandler   router.ErrorHandler
}

type SessionControllerOption func(*SessionController) *SessionController

func WithControllerLogin(login *LoginManager) SessionControllerOption {
	return func(c *SessionController) *SessionController {
		c.Login = login
		return c
	}
}

func WithControllerCoordinator(coordinator *Coordinator) SessionControllerOption {
	return func(c *SessionController) *SessionController {
		c.Coordinator = coordinator
		return c
	}
}

func WithControllerCredentials(creds *CredentialStore) SessionControllerOption {
	return func(c *SessionController) *SessionController {
		c.Creds = creds
		return c
	}
}

func WithControllerLogger(logger Logger) SessionControllerOption {
	return func(c *SessionController) *SessionController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerDebug(debug bool) SessionControllerOption {
	return func(c *SessionController) *SessionController {
		c.Debug = debug
		return c
	}
}

func NewSessionController(opts ...SessionControllerOption) *SessionController {
	c := &SessionController{
		Logger:         defLogger{},
		ErrorHandler:   defaultErrHandler,
		CookieName:     DefaultSessionCookie,
		CookieDuration: 24 * time.Hour,
		Routes: &SessionControllerRoutes{
			Login:  "/session",
			Logout: "/session",
			Status: "/session",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Login == nil {
		panic("Missing LoginManager in session controller...")
	}

	if c.Coordinator == nil {
		panic("Missing Coordinator in session controller...")
	}

	if c.Creds == nil {
		panic("Missing CredentialStore in session controller...")
	}

	return c
}

func RegisterSessionRoutes[T any](app router.Router[T], opts ...SessionControllerOption) {
	controller := NewSessionController(opts...)

	app.
		Post(controller.Routes.Login, controller.LoginPost).
		SetName("session.login")

	app.
		Delete(controller.Routes.Logout, controller.LogoutDelete).
		SetName("session.logout")

	app.
		Get(controller.Routes.Status, controller.StatusGet).
		SetName("session.status")
}

// LoginRequest payload
type LoginRequest struct {
	Username   string `form:"username" json:"username"`
	Password   string `form:"password" json:"password"`
	RememberMe bool   `form:"remember_me" json:"remember_me"`
}

// GetUsername returns the username
func (r LoginRequest) GetUsername() string {
	return r.Username
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// GetRememberMe will return the remember-me flag
func (r LoginRequest) GetRememberMe() bool {
	return r.RememberMe
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Username,
			validation.Required,
			validation.Length(3, 100),
			is.PrintableASCII,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *SessionController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload error: %v", err)
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error": "failed to parse payload",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error":      "invalid payload",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if a.Debug {
		fmt.Println("======= SESSION LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("============================")
	}

	profile, err := a.Login.Login(ctx.Context(), payload)
	if err != nil {
		if goerrors.Is(err, ErrInvalidCredentials) {
			return ctx.JSON(router.StatusUnauthorized, map[string]any{
				"error": ErrInvalidCredentials.Message,
			})
		}
		return a.ErrorHandler(ctx, err)
	}

	a.setSessionCookie(ctx, a.Creds.LocalSessionID())

	return ctx.JSON(router.StatusOK, map[string]any{
		"id":         profile.ID.String(),
		"username":   profile.Username,
		"full_name":  profile.FullName,
		"role":       profile.Role,
		"role_label": profile.Role.Label(),
	})
}

func (a *SessionController) LogoutDelete(ctx router.Context) error {
	if err := a.Coordinator.SignOut(ctx.Context(), ReasonUserRequested); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	a.clearSessionCookie(ctx)

	return ctx.JSON(router.StatusOK, map[string]any{
		"signed_out": true,
	})
}

func (a *SessionController) setSessionCookie(c router.Context, val string) {
	c.Cookie(&router.Cookie{
		Name:     a.CookieName,
		Value:    val,
		Expires:  time.Now().Add(a.CookieDuration),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *SessionController) clearSessionCookie(c router.Context) {
	c.Cookie(&router.Cookie{
		Name:     a.CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *SessionController) StatusGet(ctx router.Context) error {
	state := a.Coordinator.State()

	resp := map[string]any{
		"state":               state,
		"remembered_username": a.Creds.RememberedUsername(),
	}

	if profile := a.Coordinator.CurrentProfile(); profile != nil {
		resp["user"] = map[string]any{
			"id":         profile.ID.String(),
			"username":   profile.Username,
			"full_name":  profile.FullName,
			"role":       profile.Role,
			"role_label": profile.Role.Label(),
		}
	}

	return ctx.JSON(router.StatusOK, resp)
}

func defaultErrHandler(c router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	code := richErr.Code
	if code == 0 {
		code = router.StatusInternalServerError
	}

	return c.JSON(code, map[string]any{
		"error":     richErr.Message,
		"text_code": richErr.TextCode,
	})
}
