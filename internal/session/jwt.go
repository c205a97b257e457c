package session

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

const blacklistKeyPrefix = "jwt:blacklist:"

// BlacklistKey returns the Redis key for a revoked token ID.
func BlacklistKey(jti string) string {
	return blacklistKeyPrefix + jti
}

// JWTResolver resolves sessions from HMAC-signed JWTs, consulting Redis
// for token revocation.
type JWTResolver struct {
	secret []byte
	rdb    *redis.Client
	logger *slog.Logger
}

// NewJWTResolver creates a resolver for tokens signed with secret.
// rdb may be nil, in which case revocation checks are skipped.
func NewJWTResolver(secret string, rdb *redis.Client, logger *slog.Logger) *JWTResolver {
	return &JWTResolver{secret: []byte(secret), rdb: rdb, logger: logger}
}

// Resolve parses and validates the token. A missing or invalid token
// yields an anonymous session. A valid token whose revocation status
// cannot be determined yields a pending session rather than guessing.
func (r *JWTResolver) Resolve(ctx context.Context, tokenString string) Session {
	if tokenString == "" {
		return Session{Status: StatusAnonymous}
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return r.secret, nil
	})
	if err != nil || !token.Valid {
		return Session{Status: StatusAnonymous}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Session{Status: StatusAnonymous}
	}

	subStr, ok := claims["sub"].(string)
	if !ok {
		return Session{Status: StatusAnonymous}
	}
	userID, err := strconv.ParseUint(subStr, 10, 32)
	if err != nil {
		return Session{Status: StatusAnonymous}
	}

	sess := Session{
		Status: StatusAuthenticated,
		UserID: uint(userID),
	}
	if username, ok := claims["username"].(string); ok {
		sess.Username = username
	}

	jti, _ := claims["jti"].(string)
	sess.TokenID = jti

	if jti != "" && r.rdb != nil {
		revoked, err := r.rdb.Exists(ctx, BlacklistKey(jti)).Result()
		if err != nil {
			// Token is well-formed but we cannot tell whether it was
			// revoked. Report pending so callers can hold rather than
			// treat the user as signed out.
			if r.logger != nil {
				r.logger.WarnContext(ctx, "session revocation check failed",
					slog.String("error", err.Error()))
			}
			sess.Status = StatusPending
			return sess
		}
		if revoked > 0 {
			return Session{Status: StatusAnonymous}
		}
	}

	return sess
}
