package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	authpkg "github.com/octobees/leads-extractor/internal/auth"
)

// JWT validates bearer tokens and stores the client identity in the request
// context. A manager without a secret lets every request through.
func JWT(manager *authpkg.JWTManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if !manager.Enabled() {
			return next
		}
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return reject(c, http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return reject(c, http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := manager.ParseToken(strings.TrimSpace(parts[1]))
			if err != nil {
				return reject(c, http.StatusUnauthorized, "invalid token")
			}

			c.Set(ContextKeyClientID, claims.Subject)
			c.Set(ContextKeyScope, claims.Scope)

			return next(c)
		}
	}
}
