package auth

import (
	"time"

	"github.com/goliatone/go-errors"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// TOTPSecretSize is the shared secret entropy in bytes (160 bits).
	TOTPSecretSize = 20
	// TOTPPeriod is the code time-step in seconds. Enrollment descriptors
	// advertise the same step, so the two must never diverge.
	TOTPPeriod = 30
	// DefaultTOTPDriftWindow is how many adjacent steps we accept on
	// either side of the current one to tolerate clock skew.
	DefaultTOTPDriftWindow = 1
)

// SecondFactor provisions per-principal shared secrets and verifies
// submitted one-time codes. It never tracks consumed codes; replay of a
// code inside the same step is not prevented here.
type SecondFactor struct {
	issuer string
	window uint
	now    func() time.Time
}

// SecondFactorOption customizes a SecondFactor.
type SecondFactorOption func(*SecondFactor)

// WithSecondFactorClock injects a custom clock (useful for tests).
func WithSecondFactorClock(clock func() time.Time) SecondFactorOption {
	return func(sf *SecondFactor) {
		if clock != nil {
			sf.now = clock
		}
	}
}

// WithDriftWindow overrides the accepted clock-skew window, in steps.
func WithDriftWindow(window uint) SecondFactorOption {
	return func(sf *SecondFactor) {
		sf.window = window
	}
}

// NewSecondFactor returns a SecondFactor labeled with the given issuer
func NewSecondFactor(issuer string, opts ...SecondFactorOption) *SecondFactor {
	sf := &SecondFactor{
		issuer: issuer,
		window: DefaultTOTPDriftWindow,
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(sf)
		}
	}
	return sf
}

// Provision generates a fresh random secret for the handle and returns it
// together with its otpauth provisioning URI. The URI embeds the secret in
// cleartext; transmit it only over a protected channel and never log it.
func (sf *SecondFactor) Provision(handle string) (secret, uri string, err error) {
	if handle == "" {
		return "", "", errors.New("handle is required to provision a secret", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      sf.issuer,
		AccountName: handle,
		SecretSize:  TOTPSecretSize,
		Period:      TOTPPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", "", errors.Wrap(err, errors.CategoryInternal, "failed to generate TOTP secret")
	}

	return key.Secret(), key.URL(), nil
}

// VerifyCode checks a submitted code against the secret for the current
// step and the configured drift window. Code comparison is constant-time.
func (sf *SecondFactor) VerifyCode(secret, code string) bool {
	ok, err := totp.ValidateCustom(code, secret, sf.now().UTC(), totp.ValidateOpts{
		Period:    TOTPPeriod,
		Skew:      sf.window,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}
