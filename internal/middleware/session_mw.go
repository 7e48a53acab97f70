package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"admin_panel/internal/model"
	"admin_panel/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	AuthPrincipalKey = "authPrincipal"
	AuthSessionKey   = "authSession"
)

// SessionAuthMiddleware guards protected routes. The token comes from an
// "Authorization: Bearer" header or, failing that, the session cookie.
// Unauthenticated requests are aborted with 401 before any handler runs.
func SessionAuthMiddleware(auth service.AuthService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, problem := extractToken(c, cookieName)
		if problem != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": problem})
			return
		}

		principal, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, service.ErrUnauthenticated) {
				log.Printf("Error authenticating request %s: %v", RequestIDFrom(c), err)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			return
		}

		c.Set(AuthPrincipalKey, principal)
		c.Set(AuthSessionKey, principal.SessionID)

		c.Next()
	}
}

// extractToken returns the token, or a message for the 401 response
func extractToken(c *gin.Context, cookieName string) (string, string) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
			return "", "Invalid authorization header format"
		}
		return parts[1], ""
	}

	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie, ""
	}
	return "", "Authentication required"
}

// PrincipalFrom returns the principal set by SessionAuthMiddleware
func PrincipalFrom(c *gin.Context) (*model.Principal, bool) {
	v, exists := c.Get(AuthPrincipalKey)
	if !exists {
		return nil, false
	}
	p, ok := v.(*model.Principal)
	return p, ok
}
