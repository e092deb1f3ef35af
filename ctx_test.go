package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/ideahq/idea-auth"
)

func TestPrincipalContextRoundTrip(t *testing.T) {
	record := &auth.Principal{Handle: testHandle, Email: testEmail}

	ctx := auth.WithContext(context.Background(), record)

	got, ok := auth.FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, testHandle, got.Handle)
}

func TestPrincipalContextMissing(t *testing.T) {
	_, ok := auth.FromContext(context.Background())
	assert.False(t, ok)
}

func TestClaimsContextRoundTrip(t *testing.T) {
	cfg := newTestConfig()
	tokens := auth.NewTokenService([]byte(cfg.GetSigningKey()), cfg, nil,
		auth.WithTokenClock(func() time.Time { return testClock }))

	token, err := tokens.Issue(testIdentity{id: "1", handle: testHandle}, auth.TokenKindAccess)
	require.NoError(t, err)

	claims, err := tokens.Validate(token, auth.TokenKindAccess)
	require.NoError(t, err)

	ctx := auth.WithClaimsContext(context.Background(), claims)

	got, ok := auth.GetClaims(ctx)
	require.True(t, ok)
	assert.Equal(t, testHandle, got.Subject())

	_, ok = auth.GetClaims(context.Background())
	assert.False(t, ok)
}
