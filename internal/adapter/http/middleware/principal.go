package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskapp/internal/adapter/http/helper"
	"taskapp/internal/core/domain"
	"taskapp/internal/core/port"
	"taskapp/pkg/logger"
)

const principalKey = "principal"

// PrincipalMiddleware attaches the request's principal. A request without an
// Authorization header is anonymous; a header that does not resolve to a
// user is rejected with 401.
func PrincipalMiddleware(resolver port.PrincipalResolver, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")

		if header == "" {
			c.Set(principalKey, domain.Anonymous())
			c.Next()
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")

		if !ok || strings.TrimSpace(token) == "" {
			helper.SendUnauthorizedError(c, "Invalid authorization format")
			return
		}

		principal, err := resolver.Resolve(c.Request.Context(), strings.TrimSpace(token))

		if errors.Is(err, domain.ErrUnauthenticated) {
			helper.SendUnauthorizedError(c, "Invalid or expired token")
			return
		}

		if err != nil {
			log.Logger.Ctx(c.Request.Context()).Error("Failed to resolve principal", zap.Error(err))
			helper.SendInternalError(c, "internal server error")
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// GetPrincipal returns the principal set by PrincipalMiddleware, or anonymous.
func GetPrincipal(c *gin.Context) domain.Principal {
	if value, ok := c.Get(principalKey); ok {
		if principal, ok := value.(domain.Principal); ok {
			return principal
		}
	}

	return domain.Anonymous()
}
