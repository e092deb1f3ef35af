package auth_test

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/ideahq/idea-auth"
)

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
		fails    bool
	}{
		{name: "well formed", header: "Bearer abc.def.ghi", expected: "abc.def.ghi"},
		{name: "case insensitive scheme", header: "bearer abc.def.ghi", expected: "abc.def.ghi"},
		{name: "missing header", header: "", fails: true},
		{name: "wrong scheme", header: "Basic abc", fails: true},
		{name: "scheme only", header: "Bearer", fails: true},
		{name: "empty token", header: "Bearer ", fails: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				token, err := auth.ExtractBearerToken(c)
				if tt.fails {
					assert.Equal(t, auth.ErrMissingAuthHeader, err)
					return c.SendStatus(fiber.StatusUnauthorized)
				}
				require.NoError(t, err)
				assert.Equal(t, tt.expected, token)
				return c.SendStatus(fiber.StatusOK)
			})

			req := httptest.NewRequest(fiber.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}

			_, err := app.Test(req, -1)
			require.NoError(t, err)
		})
	}
}

func TestRequireAccessTokenPopulatesContext(t *testing.T) {
	store := newMemStore()
	auther := newTestAuther(t, store)
	ticket := registerAndEnroll(t, auther, store)

	pair, err := auther.CompleteLogin(context.Background(), "", testHandle, codeFor(t, ticket.Secret))
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/protected", auth.RequireAccessToken(auther, ""), func(c *fiber.Ctx) error {
		local, err := auth.PrincipalFromContext(c)
		require.NoError(t, err)
		assert.Equal(t, testHandle, local.Handle)

		// the principal also rides the request context for non-fiber callers
		fromCtx, ok := auth.FromContext(c.UserContext())
		require.True(t, ok)
		assert.Equal(t, testHandle, fromCtx.Handle)

		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, fmt.Sprintf("Bearer %s", pair.Access))

	res, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}

func TestPrincipalFromContextMissing(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		_, err := auth.PrincipalFromContext(c)
		assert.Equal(t, auth.ErrMissingAuthHeader, err)
		return c.SendStatus(fiber.StatusOK)
	})

	_, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil), -1)
	require.NoError(t, err)
}
