package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rameshiCode/aindependent-backend/internal/http/response"
	"github.com/rameshiCode/aindependent-backend/internal/platform/ctxutil"
	"github.com/rameshiCode/aindependent-backend/internal/platform/logger"
	"github.com/rameshiCode/aindependent-backend/internal/services"
)

const bearerPrefix = "bearer "

var (
	errMissingToken  = errors.New("missing or invalid token")
	errRejectedToken = errors.New("invalid or expired token")
)

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("Middleware", "AuthMiddleware"), authService: authService}
}

// RequireAuth reads the bearer token from the Authorization header only.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			am.reject(c, errMissingToken)
			return
		}
		ctx, err := am.authService.SetContextFromToken(c.Request.Context(), token)
		if err != nil {
			am.log.Debug("Token rejected", "path", c.FullPath(), "error", err)
			am.reject(c, errRejectedToken)
			return
		}
		if ctxutil.UserID(ctx) == uuid.Nil {
			am.reject(c, errRejectedToken)
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (am *AuthMiddleware) reject(c *gin.Context, err error) {
	response.RespondError(c, http.StatusUnauthorized, "unauthorized", err)
	c.Abort()
}

func bearerToken(header string) (string, bool) {
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	return token, token != ""
}
