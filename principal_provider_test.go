package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	auth "github.com/ideahq/idea-auth"
)

func seedPrincipal(t *testing.T, store *memStore, password string) *auth.Principal {
	t.Helper()

	hash, err := auth.HashPasswordWithCost(password, bcrypt.MinCost)
	require.NoError(t, err)

	record := &auth.Principal{
		Handle:       testHandle,
		Email:        testEmail,
		PasswordHash: hash,
		TOTPSecret:   "sealed",
		Enrolled:     true,
		Active:       true,
	}

	_, err = store.Register(context.Background(), record)
	require.NoError(t, err)

	return record
}

func TestVerifyIdentity(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	seedPrincipal(t, store, testPassword)

	provider := auth.NewPrincipalProvider(store)

	t.Run("valid credentials resolve the identity", func(t *testing.T) {
		identity, err := provider.VerifyIdentity(ctx, testHandle, testPassword)
		require.NoError(t, err)
		assert.Equal(t, testHandle, identity.Handle())
		assert.Equal(t, testEmail, identity.Email())
		assert.True(t, identity.Enrolled())
	})

	t.Run("unknown handle fails generically", func(t *testing.T) {
		_, err := provider.VerifyIdentity(ctx, "nobody", testPassword)
		assert.Equal(t, auth.ErrInvalidCredentials, err)
	})

	t.Run("wrong password fails generically and is counted", func(t *testing.T) {
		_, err := provider.VerifyIdentity(ctx, testHandle, "Wrongpass1234")
		assert.Equal(t, auth.ErrInvalidCredentials, err)

		record, err := store.GetByHandle(ctx, testHandle)
		require.NoError(t, err)
		assert.Equal(t, 1, record.LoginAttempts)
		assert.NotNil(t, record.LoginAttemptAt)
	})

	t.Run("successful login resets the counter", func(t *testing.T) {
		_, err := provider.VerifyIdentity(ctx, testHandle, testPassword)
		require.NoError(t, err)

		record, err := store.GetByHandle(ctx, testHandle)
		require.NoError(t, err)
		assert.Equal(t, 0, record.LoginAttempts)
		assert.Nil(t, record.LoginAttemptAt)
		assert.NotNil(t, record.LoggedInAt)
	})

	t.Run("inactive principal is rejected", func(t *testing.T) {
		store.mutate(testHandle, func(p *auth.Principal) { p.Active = false })
		defer store.mutate(testHandle, func(p *auth.Principal) { p.Active = true })

		_, err := provider.VerifyIdentity(ctx, testHandle, testPassword)
		assert.Equal(t, auth.ErrPrincipalInactive, err)
	})
}

func TestVerifyIdentityThrottling(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	seedPrincipal(t, store, testPassword)

	provider := auth.NewPrincipalProvider(store)

	recent := time.Now().Add(-time.Minute)
	store.mutate(testHandle, func(p *auth.Principal) {
		p.LoginAttempts = auth.MaxLoginAttempts + 1
		p.LoginAttemptAt = &recent
	})

	// even the right password cools off
	_, err := provider.VerifyIdentity(ctx, testHandle, testPassword)
	assert.Equal(t, auth.ErrTooManyLoginAttempts, err)

	// once the cooldown window passes the counter resets
	stale := time.Now().Add(-25 * time.Hour)
	store.mutate(testHandle, func(p *auth.Principal) {
		p.LoginAttemptAt = &stale
	})

	identity, err := provider.VerifyIdentity(ctx, testHandle, testPassword)
	require.NoError(t, err)
	assert.Equal(t, testHandle, identity.Handle())
}

func TestFindByHandle(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	seedPrincipal(t, store, testPassword)

	provider := auth.NewPrincipalProvider(store)

	identity, err := provider.FindByHandle(ctx, testHandle)
	require.NoError(t, err)
	assert.Equal(t, testHandle, identity.Handle())

	_, err = provider.FindByHandle(ctx, "nobody")
	assert.Error(t, err)
}
