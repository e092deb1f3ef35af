package auth

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Auther drives the staged authentication flow: registration, enrollment
// confirmation, password login, code verification, and token renewal. A
// principal that never confirmed enrollment can move through none of the
// token-issuing stages.
type Auther struct {
	store    PrincipalStore
	provider *PrincipalProvider
	second   *SecondFactor
	cipher   *SecretCipher
	tokens   TokenService
	machine  EnrollmentStateMachine
	activity ActivitySink
	logger   Logger
	hashCost int
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(store PrincipalStore, cfg Config) (*Auther, error) {
	cipher, err := NewSecretCipher([]byte(cfg.GetSecretCipherKey()))
	if err != nil {
		return nil, err
	}

	second := NewSecondFactor(cfg.GetIssuer(), WithDriftWindow(cfg.GetTOTPDriftWindow()))
	tokens := NewTokenService([]byte(cfg.GetSigningKey()), cfg, defLogger{})

	return &Auther{
		store:    store,
		provider: NewPrincipalProvider(store),
		second:   second,
		cipher:   cipher,
		tokens:   tokens,
		machine:  NewEnrollmentStateMachine(store),
		activity: noopActivitySink{},
		logger:   defLogger{},
		hashCost: cfg.GetPasswordHashCost(),
	}, nil
}

// WithActivitySink routes audit events to the given sink. Recording is
// best-effort and never fails the flow that produced the event.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activity = normalizeActivitySink(sink)
	return s
}

func (s *Auther) record(ctx context.Context, eventType ActivityEventType, handle string) {
	event := ActivityEvent{
		EventType:  eventType,
		Handle:     handle,
		OccurredAt: time.Now(),
	}
	if err := s.activity.Record(ctx, event); err != nil {
		s.logger.Error("activity sink rejected event", "event", string(eventType), "error", err)
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
		s.provider = s.provider.WithLogger(logger)
	}
	return s
}

// WithTokenService overrides the token service, mostly so tests can pin the clock.
func (s *Auther) WithTokenService(tokens TokenService) *Auther {
	if tokens != nil {
		s.tokens = tokens
	}
	return s
}

// WithSecondFactor overrides the TOTP component, mostly so tests can pin the clock.
func (s *Auther) WithSecondFactor(second *SecondFactor) *Auther {
	if second != nil {
		s.second = second
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokens
}

// NormalizeHandle lower-cases and trims a display handle.
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}

// Register creates a principal pending enrollment confirmation: it hashes
// the password, issues a fresh shared secret, seals it, and persists the
// record in one step. The returned ticket carries the raw secret, the
// provisioning URI, and a QR rendering of it.
func (s *Auther) Register(ctx context.Context, handle, email, password string) (*EnrollmentTicket, error) {
	handle = NormalizeHandle(handle)
	email = strings.ToLower(strings.TrimSpace(email))

	hash, err := HashPasswordWithCost(password, s.hashCost)
	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}

	secret, uri, err := s.second.Provision(handle)
	if err != nil {
		return nil, err
	}

	sealed, err := s.cipher.Seal(secret)
	if err != nil {
		return nil, err
	}

	record := &Principal{
		ID:           uuid.New(),
		Handle:       handle,
		Email:        email,
		PasswordHash: hash,
		TOTPSecret:   sealed,
		Enrolled:     false,
		Active:       true,
	}

	created, err := s.store.Register(ctx, record)
	if err != nil {
		s.logger.Error("Register persist error", "handle", handle, "error", err)
		return nil, err
	}

	qr, err := EnrollmentQR(uri, DefaultQRSize)
	if err != nil {
		return nil, err
	}

	s.record(ctx, ActivityEventRegistered, handle)

	return &EnrollmentTicket{
		Principal:       created,
		Secret:          secret,
		ProvisioningURI: uri,
		QRCodePNG:       qr,
	}, nil
}

// ConfirmEnrollment flips a pending principal to enrolled after its first
// valid code. Unknown handles are reported as such here; this operation
// legitimately distinguishes them.
func (s *Auther) ConfirmEnrollment(ctx context.Context, handle, code string) error {
	record, err := s.getByHandle(ctx, handle)
	if err != nil {
		return err
	}

	if record.EnrollmentState() == EnrollmentConfirmed {
		return ErrEnrollmentConfirmed
	}

	secret, err := s.cipher.Open(record.TOTPSecret)
	if err != nil {
		return err
	}

	if !s.second.VerifyCode(secret, code) {
		return ErrInvalidTOTPCode
	}

	if _, err := s.machine.Confirm(ctx, record); err != nil {
		return err
	}

	s.record(ctx, ActivityEventEnrollmentConfirmed, record.Handle)

	return nil
}

// Login verifies the password and issues a pre-auth token. It never
// issues access or refresh tokens, no matter how correct the password
// is; that only happens after the second factor clears.
func (s *Auther) Login(ctx context.Context, handle, password string) (string, error) {
	handle = NormalizeHandle(handle)

	identity, err := s.provider.VerifyIdentity(ctx, handle, password)
	if err != nil {
		s.logger.Info("Login rejected", "error", err)
		s.record(ctx, ActivityEventLoginFailure, handle)
		return "", err
	}

	if !identity.Enrolled() {
		return "", ErrEnrollmentIncomplete
	}

	s.record(ctx, ActivityEventLoginSuccess, handle)

	return s.tokens.Issue(identity, TokenKindPreAuth)
}

// CompleteLogin verifies the one-time code and mints the access/refresh
// pair. When a pre-auth token is presented it must be valid, of the
// pre-auth kind, and bound to the same handle. A failed code leaves the
// pre-auth stage untouched; the caller may retry while that token lives.
func (s *Auther) CompleteLogin(ctx context.Context, preToken, handle, code string) (*TokenPair, error) {
	handle = NormalizeHandle(handle)

	if preToken != "" {
		claims, err := s.tokens.Validate(preToken, TokenKindPreAuth)
		if err != nil {
			return nil, err
		}
		if claims.Subject() != handle {
			return nil, ErrInvalidCredentials
		}
	}

	record, err := s.getByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}

	if !record.IsActive() {
		return nil, ErrPrincipalInactive
	}

	if record.EnrollmentState() != EnrollmentConfirmed {
		return nil, ErrEnrollmentIncomplete
	}

	secret, err := s.cipher.Open(record.TOTPSecret)
	if err != nil {
		return nil, err
	}

	if !s.second.VerifyCode(secret, code) {
		s.record(ctx, ActivityEventTOTPRejected, handle)
		return nil, ErrInvalidTOTPCode
	}

	s.record(ctx, ActivityEventTOTPVerified, handle)

	identity := principalIdentity(record)

	access, err := s.tokens.Issue(identity, TokenKindAccess)
	if err != nil {
		return nil, err
	}

	refresh, err := s.tokens.Issue(identity, TokenKindRefresh)
	if err != nil {
		return nil, err
	}

	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// RefreshAccess mints a new access token from a refresh token. The
// refresh token itself is not rotated.
func (s *Auther) RefreshAccess(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.Validate(refreshToken, TokenKindRefresh)
	if err != nil {
		return "", err
	}

	record, err := s.store.GetByHandle(ctx, claims.Subject())
	if err != nil || record == nil {
		return "", ErrPrincipalInactive
	}

	if !record.IsActive() {
		return "", ErrPrincipalInactive
	}

	s.record(ctx, ActivityEventTokenRefreshed, record.Handle)

	return s.tokens.Issue(principalIdentity(record), TokenKindAccess)
}

// Logout is best-effort and client-side only: tokens are stateless, so
// the server keeps no bookkeeping. The transport discards the refresh
// credential; a presented token is checked purely for logging.
func (s *Auther) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if _, err := s.tokens.Validate(refreshToken, TokenKindRefresh); err != nil {
		s.logger.Debug("Logout presented an unusable refresh token", "error", err)
	}
	return nil
}

// AuthorizeRequest is the contract every protected resource consumes: a
// valid access token referencing an active, enrolled principal.
func (s *Auther) AuthorizeRequest(ctx context.Context, accessToken string) (*Principal, error) {
	claims, err := s.tokens.Validate(accessToken, TokenKindAccess)
	if err != nil {
		return nil, err
	}

	record, err := s.store.GetByHandle(ctx, claims.Subject())
	if err != nil || record == nil {
		return nil, ErrPrincipalInactive
	}

	if !record.IsActive() {
		return nil, ErrPrincipalInactive
	}

	if !record.Enrolled {
		return nil, ErrEnrollmentIncomplete
	}

	return record, nil
}

func (s *Auther) getByHandle(ctx context.Context, handle string) (*Principal, error) {
	record, err := s.store.GetByHandle(ctx, NormalizeHandle(handle))
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrPrincipalNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve principal")
	}
	if record == nil {
		return nil, ErrPrincipalNotFound
	}
	return record, nil
}

var _ Flow = (*Auther)(nil)
