package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	TextCodeTooManyLoginAttempts = "TOO_MANY_LOGIN_ATTEMPTS"
	TextCodePrincipalNotFound    = "PRINCIPAL_NOT_FOUND"
	TextCodeDuplicateIdentity    = "DUPLICATE_IDENTITY"
	TextCodeEnrollmentIncomplete = "ENROLLMENT_INCOMPLETE"
	TextCodeEnrollmentConfirmed  = "ENROLLMENT_ALREADY_CONFIRMED"
	TextCodeInvalidTOTPCode      = "INVALID_TOTP_CODE"
	TextCodeTokenExpired         = "TOKEN_EXPIRED"
	TextCodeTokenMalformed       = "TOKEN_MALFORMED"
	TextCodeWrongTokenKind       = "WRONG_TOKEN_KIND"
	TextCodePrincipalInactive    = "PRINCIPAL_INACTIVE"
)

// ErrInvalidCredentials is the generic login failure. Unknown handle and
// wrong password both resolve here so callers cannot enumerate handles.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrMismatchedHashAndPassword is returned when a password does not match its digest.
var ErrMismatchedHashAndPassword = errors.New("password does not match", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString is returned when we try to hash an empty password.
var ErrNoEmptyString = errors.New("refusing to hash an empty string", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest)

// ErrTooManyLoginAttempts is returned when a principal is inside the cooldown window.
var ErrTooManyLoginAttempts = errors.New("too many login attempts", errors.CategoryAuth).
	WithTextCode(TextCodeTooManyLoginAttempts).
	WithCode(errors.CodeUnauthorized)

// ErrPrincipalNotFound is returned by operations that legitimately
// distinguish unknown handles, e.g. enrollment confirmation.
var ErrPrincipalNotFound = errors.New("principal not found", errors.CategoryNotFound).
	WithTextCode(TextCodePrincipalNotFound).
	WithCode(errors.CodeNotFound)

// ErrDuplicateIdentity is returned when a handle or contact address is already taken.
var ErrDuplicateIdentity = errors.New("handle or email already registered", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateIdentity).
	WithCode(errors.CodeConflict)

// ErrEnrollmentIncomplete is returned when an operation requires a
// confirmed second factor and the principal never finished enrollment.
var ErrEnrollmentIncomplete = errors.New("two-factor setup not complete", errors.CategoryAuth).
	WithTextCode(TextCodeEnrollmentIncomplete).
	WithCode(errors.CodeForbidden)

// ErrEnrollmentConfirmed is returned when enrollment is confirmed twice.
// Re-confirming never resets state.
var ErrEnrollmentConfirmed = errors.New("two-factor setup already confirmed", errors.CategoryConflict).
	WithTextCode(TextCodeEnrollmentConfirmed).
	WithCode(errors.CodeConflict)

// ErrInvalidTOTPCode is returned when a one-time code fails verification.
var ErrInvalidTOTPCode = errors.New("invalid or expired TOTP code", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidTOTPCode).
	WithCode(errors.CodeBadRequest)

// ErrTokenExpired is returned for tokens past their expiry timestamp.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that fail to parse or verify.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrWrongTokenKind is returned when a valid token is presented to an
// operation that accepts a different kind, e.g. a pre-auth token at refresh.
var ErrWrongTokenKind = errors.New("token kind not accepted here", errors.CategoryAuth).
	WithTextCode(TextCodeWrongTokenKind).
	WithCode(errors.CodeUnauthorized)

// ErrPrincipalInactive is returned when the referenced principal was deactivated.
var ErrPrincipalInactive = errors.New("principal is not active", errors.CategoryAuth).
	WithTextCode(TextCodePrincipalInactive).
	WithCode(errors.CodeUnauthorized)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
