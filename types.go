package auth

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Logger takes a message followed by optional key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Identity holds the attributes of an authenticated identity
type Identity interface {
	ID() string
	Handle() string
	Email() string
	Enrolled() bool
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetSecretCipherKey() string
	GetIssuer() string
	GetPreAuthTokenTTL() time.Duration
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetPasswordHashCost() int
	GetTOTPDriftWindow() uint
}

// Flow drives the staged authentication sequence. The session stage is
// encoded entirely in which token the caller currently holds, never in
// server-side session state.
type Flow interface {
	Register(ctx context.Context, handle, email, password string) (*EnrollmentTicket, error)
	ConfirmEnrollment(ctx context.Context, handle, code string) error
	Login(ctx context.Context, handle, password string) (string, error)
	CompleteLogin(ctx context.Context, preToken, handle, code string) (*TokenPair, error)
	RefreshAccess(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, refreshToken string) error
	AuthorizeRequest(ctx context.Context, accessToken string) (*Principal, error)
}

// TokenService mints and validates the signed tokens that carry session stage
type TokenService interface {
	Issue(identity Identity, kind TokenKind) (string, error)
	SignClaims(claims *JWTClaims) (string, error)
	Validate(tokenString string, kind TokenKind) (AuthClaims, error)
}

// PrincipalStore ensure we have a store to persist and retrieve principals
type PrincipalStore interface {
	Register(ctx context.Context, record *Principal) (*Principal, error)
	GetByHandle(ctx context.Context, handle string) (*Principal, error)
	ConfirmEnrollment(ctx context.Context, handle string) (*Principal, error)
	TrackAttemptedLogin(ctx context.Context, record *Principal) error
	TrackSuccessfulLogin(ctx context.Context, record *Principal) error
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// EnrollmentTicket is what a fresh registration hands back to the caller:
// the raw shared secret plus its provisioning descriptor. It carries the
// secret in cleartext and must never be logged.
type EnrollmentTicket struct {
	Principal       *Principal `json:"-"`
	Secret          string     `json:"secret"`
	ProvisioningURI string     `json:"otpauth_url"`
	QRCodePNG       string     `json:"qr_code_b64"`
}

// TokenPair is the fully authenticated credential set
type TokenPair struct {
	Access  string `json:"access_token"`
	Refresh string `json:"-"`
}

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Print("[ERR] AUTH " + logLine(msg, args...))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Print("[INF] AUTH " + logLine(msg, args...))
}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Print("[DBG] AUTH " + logLine(msg, args...))
}

// logLine renders a message followed by its trailing key/value pairs as
// key=value tokens. A dangling key is printed as-is.
func logLine(msg string, args ...any) string {
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	if len(args)%2 == 1 {
		fmt.Fprintf(&b, " %v", args[len(args)-1])
	}
	b.WriteString("\n")
	return b.String()
}
