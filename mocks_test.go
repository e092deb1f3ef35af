package auth_test

import (
	"context"
	"sync"
	"time"

	auth "github.com/ideahq/idea-auth"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

// MockLogger implements auth.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

// MockEnrollmentStore implements auth.EnrollmentStore for testing
type MockEnrollmentStore struct {
	mock.Mock
}

func (m *MockEnrollmentStore) ConfirmEnrollment(ctx context.Context, handle string) (*auth.Principal, error) {
	args := m.Called(ctx, handle)
	if p, ok := args.Get(0).(*auth.Principal); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

// testIdentity is a minimal auth.Identity
type testIdentity struct {
	id       string
	handle   string
	email    string
	enrolled bool
}

func (t testIdentity) ID() string     { return t.id }
func (t testIdentity) Handle() string { return t.handle }
func (t testIdentity) Email() string  { return t.email }
func (t testIdentity) Enrolled() bool { return t.enrolled }

// testConfig implements auth.Config with fast, deterministic values
type testConfig struct {
	signingKey string
	cipherKey  string
	issuer     string
	preAuthTTL time.Duration
	accessTTL  time.Duration
	refreshTTL time.Duration
	hashCost   int
	window     uint
}

func newTestConfig() *testConfig {
	return &testConfig{
		signingKey: "test-signing-key-test-signing-key",
		cipherKey:  "0123456789abcdef0123456789abcdef",
		issuer:     "IDE-A",
		preAuthTTL: 5 * time.Minute,
		accessTTL:  15 * time.Minute,
		refreshTTL: 7 * 24 * time.Hour,
		hashCost:   bcrypt.MinCost,
		window:     1,
	}
}

func (c *testConfig) GetSigningKey() string             { return c.signingKey }
func (c *testConfig) GetSecretCipherKey() string        { return c.cipherKey }
func (c *testConfig) GetIssuer() string                 { return c.issuer }
func (c *testConfig) GetPreAuthTokenTTL() time.Duration { return c.preAuthTTL }
func (c *testConfig) GetAccessTokenTTL() time.Duration  { return c.accessTTL }
func (c *testConfig) GetRefreshTokenTTL() time.Duration { return c.refreshTTL }
func (c *testConfig) GetPasswordHashCost() int          { return c.hashCost }
func (c *testConfig) GetTOTPDriftWindow() uint          { return c.window }

// memStore is an in-memory auth.PrincipalStore with the same atomic
// uniqueness guarantees as the real repository.
type memStore struct {
	mu      sync.Mutex
	records map[string]*auth.Principal
}

func newMemStore() *memStore {
	return &memStore{records: map[string]*auth.Principal{}}
}

func (s *memStore) Register(ctx context.Context, record *auth.Principal) (*auth.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.Handle]; exists {
		return nil, auth.ErrDuplicateIdentity
	}
	for _, existing := range s.records {
		if existing.Email == record.Email {
			return nil, auth.ErrDuplicateIdentity
		}
	}

	now := time.Now()
	record.CreatedAt = &now
	clone := *record
	s.records[record.Handle] = &clone

	return record, nil
}

func (s *memStore) GetByHandle(ctx context.Context, handle string) (*auth.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[handle]
	if !ok {
		return nil, auth.ErrPrincipalNotFound
	}
	clone := *record
	return &clone, nil
}

func (s *memStore) ConfirmEnrollment(ctx context.Context, handle string) (*auth.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[handle]
	if !ok {
		return nil, auth.ErrPrincipalNotFound
	}
	if record.Enrolled {
		return nil, auth.ErrEnrollmentConfirmed
	}
	record.Enrolled = true
	clone := *record
	return &clone, nil
}

func (s *memStore) TrackAttemptedLogin(ctx context.Context, record *auth.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.records[record.Handle]
	if !ok {
		return auth.ErrPrincipalNotFound
	}
	now := time.Now()
	stored.LoginAttempts++
	stored.LoginAttemptAt = &now
	return nil
}

func (s *memStore) TrackSuccessfulLogin(ctx context.Context, record *auth.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.records[record.Handle]
	if !ok {
		return auth.ErrPrincipalNotFound
	}
	now := time.Now()
	stored.LoginAttempts = 0
	stored.LoginAttemptAt = nil
	stored.LoggedInAt = &now
	return nil
}

// mutate lets tests flip stored fields directly
func (s *memStore) mutate(handle string, fn func(*auth.Principal)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.records[handle]; ok {
		fn(record)
	}
}
