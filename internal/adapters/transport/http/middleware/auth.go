package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	authsvc "tasknest/internal/app/auth/service"
	customErrors "tasknest/internal/domain/errors"
	"tasknest/internal/domain/model"
)

const (
	userContextKey = "user_context"
	rawTokenKey    = "raw_access_token"
)

// BearerToken pulls the credential out of the Authorization header; both
// "Bearer <token>" and a raw token are accepted.
func BearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return ""
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

// RequireAuth validates the access token (signature, expiry, kind and
// revocation) and injects the user context. Token failures are always 401,
// never 500.
func RequireAuth(auth authsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			abortUnauthorized(c, "AUTHENTICATION_ERROR", "authentication required")
			return
		}

		uc, err := auth.ValidateAccessToken(c.Request.Context(), token)
		if err != nil {
			switch {
			case customErrors.IsTokenExpired(err):
				abortUnauthorized(c, "TOKEN_EXPIRED", "token has expired")
			default:
				abortUnauthorized(c, "INVALID_TOKEN", "invalid token")
			}
			return
		}

		c.Set(userContextKey, uc)
		c.Set(rawTokenKey, token)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":       code,
			"message":    message,
			"request_id": GetRequestID(c),
		},
	})
}

func GetUserContext(c *gin.Context) (model.UserContext, bool) {
	v, ok := c.Get(userContextKey)
	if !ok {
		return model.UserContext{}, false
	}
	uc, ok := v.(model.UserContext)
	return uc, ok
}

func GetRawAccessToken(c *gin.Context) string {
	return c.GetString(rawTokenKey)
}
