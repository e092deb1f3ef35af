package auth_test

import (
	"testing"
	"time"

	auth "github.com/ideahq/idea-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(opts ...auth.TokenServiceOption) auth.TokenService {
	cfg := newTestConfig()
	return auth.NewTokenService([]byte(cfg.GetSigningKey()), cfg, nil, opts...)
}

func TestTokenServiceRoundTrip(t *testing.T) {
	identity := testIdentity{id: "b1c2", handle: "alice", email: "a@x.com", enrolled: true}
	ts := newTestTokenService()

	for _, kind := range []auth.TokenKind{auth.TokenKindPreAuth, auth.TokenKindAccess, auth.TokenKindRefresh} {
		t.Run(string(kind), func(t *testing.T) {
			token, err := ts.Issue(identity, kind)
			require.NoError(t, err)
			require.NotEmpty(t, token)

			claims, err := ts.Validate(token, kind)
			require.NoError(t, err)
			assert.Equal(t, "alice", claims.Subject())
			assert.Equal(t, "b1c2", claims.PrincipalID())
			assert.Equal(t, kind, claims.Kind())
			assert.True(t, claims.Expires().After(claims.IssuedAt()))
		})
	}
}

func TestTokenServiceKindIsolation(t *testing.T) {
	identity := testIdentity{id: "b1c2", handle: "alice", enrolled: true}
	ts := newTestTokenService()

	preToken, err := ts.Issue(identity, auth.TokenKindPreAuth)
	require.NoError(t, err)

	// a pre-auth token must never validate as anything else
	_, err = ts.Validate(preToken, auth.TokenKindAccess)
	assert.Equal(t, auth.ErrWrongTokenKind, err)

	_, err = ts.Validate(preToken, auth.TokenKindRefresh)
	assert.Equal(t, auth.ErrWrongTokenKind, err)
}

func TestTokenServiceExpiry(t *testing.T) {
	identity := testIdentity{id: "b1c2", handle: "alice", enrolled: true}

	past := time.Now().Add(-24 * time.Hour)
	issuedInThePast := newTestTokenService(auth.WithTokenClock(func() time.Time { return past }))

	token, err := issuedInThePast.Issue(identity, auth.TokenKindAccess)
	require.NoError(t, err)

	_, err = newTestTokenService().Validate(token, auth.TokenKindAccess)
	assert.Equal(t, auth.ErrTokenExpired, err)
}

func TestTokenServiceRejectsTamperedToken(t *testing.T) {
	identity := testIdentity{id: "b1c2", handle: "alice", enrolled: true}
	ts := newTestTokenService()

	token, err := ts.Issue(identity, auth.TokenKindAccess)
	require.NoError(t, err)

	_, err = ts.Validate(token+"x", auth.TokenKindAccess)
	require.Error(t, err)
	assert.True(t, auth.IsMalformedError(err))
}

func TestTokenServiceRejectsForeignSignature(t *testing.T) {
	identity := testIdentity{id: "b1c2", handle: "alice", enrolled: true}
	cfg := newTestConfig()

	other := auth.NewTokenService([]byte("a-completely-different-signing-key"), cfg, nil)
	token, err := other.Issue(identity, auth.TokenKindAccess)
	require.NoError(t, err)

	_, err = newTestTokenService().Validate(token, auth.TokenKindAccess)
	assert.Error(t, err)
}

func TestTokenServiceSignClaimsRequiresClaims(t *testing.T) {
	ts := newTestTokenService()

	_, err := ts.SignClaims(nil)
	assert.Error(t, err)
}
