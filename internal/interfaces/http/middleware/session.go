package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/domain/identity"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/infrastructure/auth"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/infrastructure/logger"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Session context keys
const (
	IdentityKey   = "identity"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// SessionAuth rejects requests without a valid Bearer session token and
// stores the authenticated identity in the context
func SessionAuth(sessions *auth.SessionService, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthHeaderKey)
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			abortUnauthorized(c, log, auth.ErrInvalidToken, "Missing or malformed authorization header")
			return
		}

		claims, err := sessions.Parse(strings.TrimSpace(strings.TrimPrefix(authHeader, BearerPrefix)))
		if err != nil {
			abortUnauthorized(c, log, err, "Token validation failed")
			return
		}

		id, err := claims.Identity()
		if err != nil {
			abortUnauthorized(c, log, err, "Token carries no user")
			return
		}

		c.Set(IdentityKey, id)
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), id.ID.String()))
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, log *zap.Logger, err error, reason string) {
	log.Debug("Session authentication failed",
		zap.Error(err),
		zap.String("reason", reason),
		zap.String("path", c.Request.URL.Path),
	)

	code := dto.ErrCodeTokenInvalid
	message := "Authentication required"
	if errors.Is(err, auth.ErrExpiredToken) {
		code = dto.ErrCodeTokenExpired
		message = "Session has expired"
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}

// GetIdentity returns the identity stored by SessionAuth, or nil
func GetIdentity(c *gin.Context) *identity.Identity {
	if v, ok := c.Get(IdentityKey); ok {
		if id, ok := v.(*identity.Identity); ok {
			return id
		}
	}
	return nil
}
