// Package middleware provides session, guard and rate-limit middleware.
package middleware

import (
	"strings"

	"inkwell/internal/session"

	"github.com/gofiber/fiber/v2"
)

// SessionLocalKey is the Fiber locals key holding the resolved session.
const SessionLocalKey = "session"

// BearerToken extracts the bearer token from the Authorization header,
// falling back to the auth_token cookie. Returns "" when absent.
func BearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
		return ""
	}
	return c.Cookies("auth_token")
}

// ResolveSession resolves the request's session and stores it in locals.
// It never rejects a request on its own; guards decide what to do with
// the resolved state.
func ResolveSession(resolver session.Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := resolver.Resolve(c.UserContext(), BearerToken(c))
		c.Locals(SessionLocalKey, sess)
		if sess.Authenticated() {
			c.Locals("userID", sess.UserID)
		}
		return c.Next()
	}
}

// SessionFromCtx returns the session stored by ResolveSession.
// Requests that never passed through the resolver are anonymous.
func SessionFromCtx(c *fiber.Ctx) session.Session {
	if sess, ok := c.Locals(SessionLocalKey).(session.Session); ok {
		return sess
	}
	return session.Session{Status: session.StatusAnonymous}
}

// Guard gates a route on the session state. With wantAuthenticated true
// it admits signed-in users and redirects everyone else to /login; with
// false it admits guests and redirects signed-in users to /.
//
// While the session is still pending the guard holds the request with a
// 503 and a Retry-After hint instead of redirecting, so an unreachable
// revocation store never bounces a signed-in user to the login page.
func Guard(wantAuthenticated bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := SessionFromCtx(c)

		if sess.Status == session.StatusPending {
			c.Set("Retry-After", "1")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "loading",
				"error":  "session state is still being resolved",
			})
		}

		if sess.Authenticated() != wantAuthenticated {
			if wantAuthenticated {
				return c.Redirect("/login", fiber.StatusFound)
			}
			return c.Redirect("/", fiber.StatusFound)
		}

		return c.Next()
	}
}

// AuthRequired is Guard(true) for API routes that respond with JSON
// rather than a redirect.
func AuthRequired(c *fiber.Ctx) error {
	sess := SessionFromCtx(c)

	if sess.Status == session.StatusPending {
		c.Set("Retry-After", "1")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "session state is still being resolved",
		})
	}

	if !sess.Authenticated() {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	return c.Next()
}
