package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/pkg/auth"
	apperrors "github.com/jwalitptl/booking-api/pkg/errors"
	"github.com/jwalitptl/booking-api/pkg/httputil"
)

const ContextIdentity = "identity"

type AuthMiddleware struct {
	provider auth.IdentityProvider
}

func NewAuthMiddleware(provider auth.IdentityProvider) *AuthMiddleware {
	return &AuthMiddleware{provider: provider}
}

// Authenticate verifies the bearer token and stores the caller identity
// in the context
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.RespondWithError(c, unauthorized("missing authorization header", nil))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httputil.RespondWithError(c, unauthorized("invalid authorization format", nil))
			return
		}

		identity, err := m.provider.Identify(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			log.Debug().Err(err).Str("request_id", c.GetString(ContextRequestID)).Msg("Rejected bearer token")
			httputil.RespondWithError(c, unauthorized("invalid token", err))
			return
		}

		c.Set(ContextIdentity, identity)
		c.Next()
	}
}

// IdentityFromContext returns the identity set by Authenticate
func IdentityFromContext(c *gin.Context) (model.Identity, error) {
	v, ok := c.Get(ContextIdentity)
	if !ok {
		return model.Identity{}, unauthorized("unauthenticated", errors.New("no identity in context"))
	}
	identity, ok := v.(model.Identity)
	if !ok {
		return model.Identity{}, unauthorized("unauthenticated", errors.New("malformed identity in context"))
	}
	return identity, nil
}

func unauthorized(msg string, err error) *apperrors.AppError {
	appErr := apperrors.Unauthorized(err)
	appErr.Message = msg
	return appErr
}
