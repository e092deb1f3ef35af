package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
)

// MaxLoginAttempts is the maximum number of failed attempts a principal
// gets inside the cooldown period
var MaxLoginAttempts = 5

// CoolDownPeriod is the period in which we enforce a cool down
var CoolDownPeriod = "24h"

// PrincipalTracker is the slice of the store the provider needs
type PrincipalTracker interface {
	GetByHandle(ctx context.Context, handle string) (*Principal, error)
	TrackAttemptedLogin(ctx context.Context, record *Principal) error
	TrackSuccessfulLogin(ctx context.Context, record *Principal) error
}

// PrincipalProvider verifies passwords against stored principals and
// keeps the failed-attempt counter honest.
type PrincipalProvider struct {
	store  PrincipalTracker
	logger Logger
}

// NewPrincipalProvider will create a new PrincipalProvider
func NewPrincipalProvider(store PrincipalTracker) *PrincipalProvider {
	return &PrincipalProvider{
		store:  store,
		logger: defLogger{},
	}
}

func (p *PrincipalProvider) WithLogger(l Logger) *PrincipalProvider {
	if l != nil {
		p.logger = l
	}
	return p
}

// VerifyIdentity finds the principal, compares the password, and returns
// the identity. Unknown handles and mismatched passwords are
// indistinguishable to the caller.
func (p *PrincipalProvider) VerifyIdentity(ctx context.Context, handle, password string) (Identity, error) {
	record, err := p.store.GetByHandle(ctx, handle)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve principal during verification")
	}

	if record == nil {
		return nil, ErrInvalidCredentials
	}

	if !record.IsActive() {
		return nil, ErrPrincipalInactive
	}

	if record.LoginAttemptAt != nil {
		expired, err := isOutsideThresholdPeriod(*record.LoginAttemptAt, CoolDownPeriod)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to calculate login attempt cooldown")
		}

		if expired {
			record.LoginAttempts = 0
		}
	}

	// too many attempts in the given window, cool off!
	if record.LoginAttempts > MaxLoginAttempts {
		return nil, ErrTooManyLoginAttempts
	}

	if err := ComparePasswordAndHash(password, record.PasswordHash); err != nil {
		if err2 := p.store.TrackAttemptedLogin(ctx, record); err2 != nil {
			return nil, errors.Wrap(err2, errors.CategoryInternal, "failed to track login attempt")
		}

		return nil, ErrInvalidCredentials
	}

	if err := p.store.TrackSuccessfulLogin(ctx, record); err != nil {
		p.logger.Error("failed to track successful login", "error", err)
	}

	return principalIdentity(record), nil
}

// FindByHandle retrieves the identity without a password check.
func (p *PrincipalProvider) FindByHandle(ctx context.Context, handle string) (Identity, error) {
	record, err := p.store.GetByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrPrincipalNotFound
	}
	return principalIdentity(record), nil
}

type authIdentity struct {
	id       string
	handle   string
	email    string
	enrolled bool
}

func principalIdentity(record *Principal) authIdentity {
	return authIdentity{
		id:       record.ID.String(),
		handle:   record.Handle,
		email:    record.Email,
		enrolled: record.Enrolled,
	}
}

func (a authIdentity) ID() string     { return a.id }
func (a authIdentity) Handle() string { return a.handle }
func (a authIdentity) Email() string  { return a.email }
func (a authIdentity) Enrolled() bool { return a.enrolled }

var _ Identity = authIdentity{}

func isOutsideThresholdPeriod(since time.Time, period string) (bool, error) {
	d, err := time.ParseDuration(period)
	if err != nil {
		return false, err
	}
	return time.Since(since) > d, nil
}
