package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"teamtasks/internal/auth"
	"teamtasks/internal/model"
)

// Context keys set by the auth middlewares.
const (
	UserIDKey   = "userID"
	EmailKey    = "email"
	IdentityKey = "identity"
)

// AccessTokenCookie is read when no Authorization header is sent.
const AccessTokenCookie = "access_token"

type TokenParser interface {
	ParseToken(tokenStr string) (*auth.Claims, error)
}

type ProfileLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)
}

// JWTAuthMiddleware rejects requests without a valid session token and stores
// the caller's user id and email in the context.
func JWTAuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, msg := extractToken(c)
		if msg != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		claims, err := tokens.ParseToken(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID in token"})
			return
		}

		c.Set(UserIDKey, userID)
		c.Set(EmailKey, claims.Email)
		c.Next()
	}
}

// OptionalJWTAuth behaves like JWTAuthMiddleware but lets anonymous or
// badly authenticated requests through without a user id.
func OptionalJWTAuth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr, msg := extractToken(c); msg == "" {
			if claims, err := tokens.ParseToken(tokenStr); err == nil {
				if userID, err := uuid.Parse(claims.UserID); err == nil {
					c.Set(UserIDKey, userID)
					c.Set(EmailKey, claims.Email)
				}
			}
		}
		c.Next()
	}
}

func extractToken(c *gin.Context) (string, string) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
			return cookie, ""
		}
		return "", "Authorization header is required"
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", "Authorization header format must be Bearer {token}"
	}
	return strings.TrimSpace(parts[1]), ""
}
