package auth

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
)

// DefaultPrincipalContextKey is where the middleware stores the principal.
const DefaultPrincipalContextKey = "auth_principal"

// DefaultAuthScheme is the bearer scheme prefix on Authorization headers.
const DefaultAuthScheme = "Bearer"

// ErrMissingAuthHeader is returned when a protected route gets no credential.
var ErrMissingAuthHeader = errors.New("missing or malformed JWT", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// RequireAccessToken guards a route with the access-token contract: a
// valid token of kind access referencing an active, enrolled principal.
// The principal ends up in the request locals under contextKey.
func RequireAccessToken(flow Flow, contextKey string) fiber.Handler {
	if contextKey == "" {
		contextKey = DefaultPrincipalContextKey
	}

	return func(c *fiber.Ctx) error {
		raw, err := ExtractBearerToken(c)
		if err != nil {
			return RespondError(c, err)
		}

		principal, err := flow.AuthorizeRequest(c.Context(), raw)
		if err != nil {
			return RespondError(c, err)
		}

		c.Locals(contextKey, principal)
		c.SetUserContext(WithContext(c.UserContext(), principal))

		return c.Next()
	}
}

// ExtractBearerToken pulls the raw token out of the Authorization header
func ExtractBearerToken(c *fiber.Ctx) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", ErrMissingAuthHeader
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], DefaultAuthScheme) || parts[1] == "" {
		return "", ErrMissingAuthHeader
	}

	return parts[1], nil
}

// PrincipalFromContext retrieves the principal the middleware stored.
func PrincipalFromContext(c *fiber.Ctx, key ...string) (*Principal, error) {
	contextKey := DefaultPrincipalContextKey
	if len(key) > 0 && key[0] != "" {
		contextKey = key[0]
	}

	principal, ok := c.Locals(contextKey).(*Principal)
	if !ok || principal == nil {
		return nil, ErrMissingAuthHeader
	}

	return principal, nil
}

// RespondError maps a rich error to its HTTP status and a stable JSON body.
func RespondError(c *fiber.Ctx, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "unexpected error")
	}

	return c.Status(httpStatusFor(richErr)).JSON(fiber.Map{
		"detail":    richErr.Message,
		"text_code": richErr.TextCode,
	})
}

// httpStatusFor maps text codes to wire statuses: duplicates and failed
// confirmations surface as plain 400s, enumeration sensitive failures as
// undifferentiated 401s.
func httpStatusFor(err *errors.Error) int {
	switch err.TextCode {
	case TextCodeDuplicateIdentity, TextCodeEnrollmentConfirmed, TextCodeInvalidTOTPCode:
		return http.StatusBadRequest
	case TextCodePrincipalNotFound:
		return http.StatusNotFound
	case TextCodeEnrollmentIncomplete:
		return http.StatusForbidden
	case TextCodeInvalidCredentials, TextCodeTooManyLoginAttempts, TextCodeTokenExpired,
		TextCodeTokenMalformed, TextCodeWrongTokenKind, TextCodePrincipalInactive:
		return http.StatusUnauthorized
	}

	switch err.Category {
	case errors.CategoryValidation, errors.CategoryBadInput:
		return http.StatusBadRequest
	case errors.CategoryConflict:
		return http.StatusConflict
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
