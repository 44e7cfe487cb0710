package middleware

import (
	"log/slog"
	"strings"

	"github.com/ErlanBelekov/uptask-api/internal/domain"
	"github.com/ErlanBelekov/uptask-api/internal/reqctx"
	"github.com/ErlanBelekov/uptask-api/internal/session"
	"github.com/ErlanBelekov/uptask-api/internal/transport/http/respond"
	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

type TokenVerifier interface {
	Verify(raw string) (*session.Claims, error)
}

// Auth validates a Bearer access token and sets "userID" in the gin context.
// Refresh tokens are rejected here even though they carry a valid signature.
func Auth(verifier TokenVerifier, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			respond.Abort(c, logger, domain.ErrTokenNotProvided)
			return
		}
		if !strings.HasPrefix(header, "Bearer ") {
			respond.Abort(c, logger, domain.ErrTokenInvalid)
			return
		}

		claims, err := verifier.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil || claims.Type != session.ClassAccess {
			respond.Abort(c, logger, domain.ErrTokenInvalid)
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Request = c.Request.WithContext(reqctx.WithUserID(c.Request.Context(), claims.UserID))
		c.Next()
	}
}

// UserID returns the caller set by Auth.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
