package auth

import (
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
)

var (
	handleRx    = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	uppercaseRx = regexp.MustCompile(`[A-Z]`)
	digitRx     = regexp.MustCompile(`[0-9]`)
)

// DefaultRefreshCookieName is the cookie carrying the refresh token. It
// travels out-of-band from the access token: http-only, secure,
// same-site strict, and scoped to the refresh path.
const DefaultRefreshCookieName = "refresh_token"

type AuthControllerRoutes struct {
	Register     string
	ConfirmSetup string
	Login        string
	VerifyTOTP   string
	Refresh      string
	Logout       string
	Me           string
}

type AuthController struct {
	Flow       Flow
	Logger     Logger
	Routes     *AuthControllerRoutes
	CookieName string
	RefreshTTL time.Duration
	ContextKey string
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerFlow(flow Flow) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Flow = flow
		return c
	}
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

func WithControllerRefreshTTL(ttl time.Duration) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.RefreshTTL = ttl
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:     defLogger{},
		CookieName: DefaultRefreshCookieName,
		RefreshTTL: 7 * 24 * time.Hour,
		ContextKey: DefaultPrincipalContextKey,
		Routes: &AuthControllerRoutes{
			Register:     "/auth/register",
			ConfirmSetup: "/auth/setup-2fa/confirm",
			Login:        "/auth/login",
			VerifyTOTP:   "/auth/verify-totp",
			Refresh:      "/auth/refresh",
			Logout:       "/auth/logout",
			Me:           "/auth/me",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Flow == nil {
		panic("Missing Flow in auth controller...")
	}

	return c
}

func RegisterAuthRoutes(app fiber.Router, opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Register, controller.RegisterPost)
	app.Post(controller.Routes.ConfirmSetup, controller.ConfirmSetupPost)
	app.Post(controller.Routes.Login, controller.LoginPost)
	app.Post(controller.Routes.VerifyTOTP, controller.VerifyTOTPPost)
	app.Post(controller.Routes.Refresh, controller.RefreshPost)
	app.Post(controller.Routes.Logout, controller.LogoutPost)
	app.Get(controller.Routes.Me, RequireAccessToken(controller.Flow, controller.ContextKey), controller.MeGet)

	return controller
}

// RegisterPayload is the registration body
type RegisterPayload struct {
	Handle   string `form:"handle" json:"handle"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r RegisterPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Handle,
			validation.Required,
			validation.Length(3, 30),
			validation.Match(handleRx).Error("may only contain letters, numbers, _ and -"),
		),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(10, 100),
			validation.Match(uppercaseRx).Error("must contain at least one uppercase letter"),
			validation.Match(digitRx).Error("must contain at least one digit"),
		),
	)
}

// LoginPayload is the password step body
type LoginPayload struct {
	Handle   string `form:"handle" json:"handle"`
	Password string `form:"password" json:"password"`
}

func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Handle, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// CodePayload carries a handle plus a one-time code. The pre_token field
// is honored at the verify step when the client presents it.
type CodePayload struct {
	Handle   string `form:"handle" json:"handle"`
	Code     string `form:"code" json:"code"`
	PreToken string `form:"pre_token" json:"pre_token"`
}

func (r CodePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Handle, validation.Required),
		validation.Field(&r.Code, validation.Required, validation.Length(6, 8), is.Digit),
	)
}

func (a *AuthController) RegisterPost(c *fiber.Ctx) error {
	payload := new(RegisterPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("register parse payload", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "failed to parse request body",
		})
	}

	if err := payload.Validate(); err != nil {
		status := fiber.StatusBadRequest
		fields := FormatValidationErrorToMap(err)
		if _, weak := fields["password"]; weak {
			status = fiber.StatusUnprocessableEntity
		}
		return c.Status(status).JSON(fiber.Map{
			"detail":     "validation failed",
			"validation": fields,
		})
	}

	ticket, err := a.Flow.Register(c.Context(), payload.Handle, payload.Email, payload.Password)
	if err != nil {
		a.Logger.Error("register principal", "error", err)
		return RespondError(c, err)
	}

	// Dev convenience: the raw secret and QR ride back in the response so
	// enrollment can finish without an out-of-band channel. The transport
	// must be protected; none of this is ever logged.
	return c.Status(fiber.StatusCreated).JSON(ticket)
}

func (a *AuthController) ConfirmSetupPost(c *fiber.Ctx) error {
	payload := new(CodePayload)

	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "failed to parse request body",
		})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail":     "validation failed",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if err := a.Flow.ConfirmEnrollment(c.Context(), payload.Handle, payload.Code); err != nil {
		return RespondError(c, err)
	}

	return c.JSON(fiber.Map{"detail": "2FA enabled successfully"})
}

func (a *AuthController) LoginPost(c *fiber.Ctx) error {
	payload := new(LoginPayload)

	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "failed to parse request body",
		})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail":     "validation failed",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	preToken, err := a.Flow.Login(c.Context(), payload.Handle, payload.Password)
	if err != nil {
		return RespondError(c, err)
	}

	return c.JSON(fiber.Map{
		"pre_token": preToken,
		"detail":    "Enter your TOTP code to complete login",
	})
}

func (a *AuthController) VerifyTOTPPost(c *fiber.Ctx) error {
	payload := new(CodePayload)

	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "failed to parse request body",
		})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail":     "validation failed",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	pair, err := a.Flow.CompleteLogin(c.Context(), payload.PreToken, payload.Handle, payload.Code)
	if err != nil {
		return RespondError(c, err)
	}

	a.setRefreshCookie(c, pair.Refresh)

	return c.JSON(fiber.Map{
		"access_token": pair.Access,
		"token_type":   "bearer",
	})
}

func (a *AuthController) RefreshPost(c *fiber.Ctx) error {
	refresh := c.Cookies(a.CookieName)
	if refresh == "" {
		return RespondError(c, ErrMissingAuthHeader)
	}

	access, err := a.Flow.RefreshAccess(c.Context(), refresh)
	if err != nil {
		return RespondError(c, err)
	}

	return c.JSON(fiber.Map{
		"access_token": access,
		"token_type":   "bearer",
	})
}

func (a *AuthController) LogoutPost(c *fiber.Ctx) error {
	if err := a.Flow.Logout(c.Context(), c.Cookies(a.CookieName)); err != nil {
		a.Logger.Error("logout", "error", err)
	}

	a.clearRefreshCookie(c)

	return c.JSON(fiber.Map{"detail": "Logged out"})
}

func (a *AuthController) MeGet(c *fiber.Ctx) error {
	principal, err := PrincipalFromContext(c, a.ContextKey)
	if err != nil {
		return RespondError(c, err)
	}

	return c.JSON(fiber.Map{
		"handle":     principal.Handle,
		"email":      principal.Email,
		"created_at": principal.CreatedAt,
		"2fa_active": principal.Enrolled,
	})
}

func (a *AuthController) setRefreshCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     a.CookieName,
		Value:    token,
		Path:     a.Routes.Refresh,
		Expires:  time.Now().Add(a.RefreshTTL),
		MaxAge:   int(a.RefreshTTL.Seconds()),
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func (a *AuthController) clearRefreshCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     a.CookieName,
		Value:    "",
		Path:     a.Routes.Refresh,
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

// FormatValidationErrorToMap flattens ozzo validation errors to a
// field -> message map for JSON responses.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	if verr, ok := err.(validation.Errors); ok {
		for field, ferr := range verr {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["form"] = err.Error()
	return out
}
