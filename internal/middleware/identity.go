package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"teamtasks/internal/model"
)

// IdentityMiddleware resolves the authenticated user's profile into a
// model.Identity for the rest of the request. Requests without a user id get
// the anonymous identity; a user without a profile row gets no role.
func IdentityMiddleware(profiles ProfileLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := model.Identity{}

		if raw, ok := c.Get(UserIDKey); ok {
			userID, _ := raw.(uuid.UUID)
			identity.UserID = userID
			identity.Email = c.GetString(EmailKey)

			profile, err := profiles.GetByID(c.Request.Context(), userID)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			if profile != nil {
				identity.Role = profile.RoleOrNone()
				identity.Team = profile.Team()
				identity.Name = profile.DisplayName()
				if identity.Email == "" {
					identity.Email = profile.Email
				}
			}
		}

		c.Set(IdentityKey, identity)
		c.Next()
	}
}

// CurrentIdentity returns the identity stored by IdentityMiddleware.
func CurrentIdentity(c *gin.Context) model.Identity {
	if v, ok := c.Get(IdentityKey); ok {
		if identity, ok := v.(model.Identity); ok {
			return identity
		}
	}
	return model.Identity{}
}

// RequireRole aborts with 403 unless the caller holds one of roles.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := CurrentIdentity(c)
		for _, r := range roles {
			if caller.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient role for this operation"})
	}
}
