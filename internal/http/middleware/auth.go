package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"courtreserve/internal/domain"
	"courtreserve/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// Context keys set by Authenticate.
const (
	UserIDKey   = "userID"
	UserRoleKey = "userRole"
	UserKey     = "user"
)

// Resolver turns a bearer token into the caller's current profile.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*models.User, error)
}

// Authenticate requires a valid bearer token and loads the caller. The token
// may also arrive as ?access_token= for EventSource clients.
func Authenticate(r Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		u, err := r.Resolve(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthenticated) {
				abortJSON(c, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}
			abortJSON(c, http.StatusServiceUnavailable, "store_unavailable", "cannot verify session")
			return
		}
		c.Set(UserIDKey, u.ID)
		c.Set(UserRoleKey, string(u.Role))
		c.Set(UserKey, u)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return strings.TrimSpace(c.Query("access_token"))
}

// Actor returns the authenticated caller set by Authenticate.
func Actor(c *gin.Context) domain.Actor {
	return domain.Actor{UserID: c.GetString(UserIDKey), Role: domain.Role(c.GetString(UserRoleKey))}
}

// CurrentUser returns the profile loaded by Authenticate.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(UserKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

func abortJSON(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":      message,
		"code":       code,
		"request_id": GetRequestID(c),
	})
}
