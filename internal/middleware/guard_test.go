package middleware

import (
	"context"
	"net/http/httptest"
	"testing"

	"inkwell/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedResolver(sess session.Session) session.Resolver {
	return session.ResolverFunc(func(_ context.Context, _ string) session.Session {
		return sess
	})
}

func newGuardApp(sess session.Session, wantAuthenticated bool) (*fiber.App, *bool) {
	app := fiber.New()
	handled := false
	app.Use(ResolveSession(fixedResolver(sess)))
	app.Get("/guarded", Guard(wantAuthenticated), func(c *fiber.Ctx) error {
		handled = true
		return c.SendString("ok")
	})
	return app, &handled
}

func TestGuardPendingHoldsRequest(t *testing.T) {
	app, handled := newGuardApp(session.Session{Status: session.StatusPending}, true)

	resp, err := app.Test(httptest.NewRequest("GET", "/guarded", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
	assert.Empty(t, resp.Header.Get("Location"))
	assert.False(t, *handled, "handler must not run while session is pending")
}

func TestGuardAnonymousRedirectsToLogin(t *testing.T) {
	app, handled := newGuardApp(session.Session{Status: session.StatusAnonymous}, true)

	resp, err := app.Test(httptest.NewRequest("GET", "/guarded", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	assert.False(t, *handled)
}

func TestGuardAuthenticatedPasses(t *testing.T) {
	app, handled := newGuardApp(session.Session{Status: session.StatusAuthenticated, UserID: 7}, true)

	resp, err := app.Test(httptest.NewRequest("GET", "/guarded", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, *handled)
}

func TestGuardGuestOnlyRedirectsAuthenticatedHome(t *testing.T) {
	app, handled := newGuardApp(session.Session{Status: session.StatusAuthenticated, UserID: 7}, false)

	resp, err := app.Test(httptest.NewRequest("GET", "/guarded", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	assert.False(t, *handled)
}

func TestGuardGuestOnlyPassesAnonymous(t *testing.T) {
	app, handled := newGuardApp(session.Session{Status: session.StatusAnonymous}, false)

	resp, err := app.Test(httptest.NewRequest("GET", "/guarded", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, *handled)
}

func TestAuthRequiredRejectsAnonymousWithJSON(t *testing.T) {
	app := fiber.New()
	app.Use(ResolveSession(fixedResolver(session.Session{Status: session.StatusAnonymous})))
	app.Get("/api/thing", AuthRequired, func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/thing", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Location"))
}

func TestAuthRequiredHoldsPending(t *testing.T) {
	app := fiber.New()
	app.Use(ResolveSession(fixedResolver(session.Session{Status: session.StatusPending, UserID: 3})))
	app.Get("/api/thing", AuthRequired, func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/thing", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
}

func TestResolveSessionSetsUserIDLocal(t *testing.T) {
	app := fiber.New()
	app.Use(ResolveSession(fixedResolver(session.Session{Status: session.StatusAuthenticated, UserID: 11})))
	var got uint
	app.Get("/", func(c *fiber.Ctx) error {
		got, _ = c.Locals("userID").(uint)
		return c.SendString("ok")
	})

	_, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, uint(11), got)
}

func TestBearerToken(t *testing.T) {
	app := fiber.New()
	var got string
	app.Get("/", func(c *fiber.Ctx) error {
		got = BearerToken(c)
		return c.SendString("ok")
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer abc123")
	_, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "abc123", got)

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Basic abc123")
	_, err = app.Test(req)
	require.NoError(t, err)
	assert.Empty(t, got)
}
