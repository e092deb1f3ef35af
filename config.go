package auth

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-errors"
	_ "github.com/joho/godotenv/autoload" // Load .env file automatically
)

// AppConfig is the env-backed Config implementation. The signing key and
// cipher key are read once at startup and never mutated afterwards.
type AppConfig struct {
	SigningKey       string        `env:"IDEA_JWT_SECRET,required"`
	SecretCipherKey  string        `env:"IDEA_TOTP_CIPHER_KEY,required"`
	Issuer           string        `env:"IDEA_TOKEN_ISSUER" envDefault:"IDE-A"`
	PreAuthTokenTTL  time.Duration `env:"IDEA_PREAUTH_TOKEN_TTL" envDefault:"5m"`
	AccessTokenTTL   time.Duration `env:"IDEA_ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL  time.Duration `env:"IDEA_REFRESH_TOKEN_TTL" envDefault:"168h"`
	PasswordHashCost int           `env:"IDEA_PASSWORD_HASH_COST" envDefault:"14"`
	TOTPDriftWindow  uint          `env:"IDEA_TOTP_DRIFT_WINDOW" envDefault:"1"`
}

// LoadConfig parses the process environment into an AppConfig.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "failed to parse auth configuration")
	}

	if len(cfg.SecretCipherKey) != SecretCipherKeySize {
		return nil, errors.New("IDEA_TOTP_CIPHER_KEY must be exactly 32 bytes", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest)
	}

	return cfg, nil
}

var _ Config = (*AppConfig)(nil)

func (c *AppConfig) GetSigningKey() string             { return c.SigningKey }
func (c *AppConfig) GetSecretCipherKey() string        { return c.SecretCipherKey }
func (c *AppConfig) GetIssuer() string                 { return c.Issuer }
func (c *AppConfig) GetPreAuthTokenTTL() time.Duration { return c.PreAuthTokenTTL }
func (c *AppConfig) GetAccessTokenTTL() time.Duration  { return c.AccessTokenTTL }
func (c *AppConfig) GetRefreshTokenTTL() time.Duration { return c.RefreshTokenTTL }
func (c *AppConfig) GetPasswordHashCost() int          { return c.PasswordHashCost }
func (c *AppConfig) GetTOTPDriftWindow() uint          { return c.TOTPDriftWindow }
