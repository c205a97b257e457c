// Package session resolves the authentication state of a request.
package session

import "context"

// Status is the resolution state of a session.
type Status int

const (
	// StatusPending means the session could not be resolved yet, for
	// example because the token revocation store was unreachable.
	StatusPending Status = iota
	// StatusAnonymous means the request carries no valid credentials.
	StatusAnonymous
	// StatusAuthenticated means the request belongs to a known user.
	StatusAuthenticated
)

// String returns a human-readable name for the status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusAnonymous:
		return "anonymous"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Session describes the resolved authentication state of a request.
type Session struct {
	Status   Status
	UserID   uint
	Username string
	TokenID  string
}

// Authenticated reports whether the session belongs to a signed-in user.
func (s Session) Authenticated() bool {
	return s.Status == StatusAuthenticated
}

// Resolver turns a bearer token into a Session.
type Resolver interface {
	Resolve(ctx context.Context, token string) Session
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, token string) Session

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, token string) Session {
	return f(ctx, token)
}
