package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// AdminAuth guards the privileged override routes with a single bearer key.
// Only the bcrypt hash of the key is ever configured or stored.
type AdminAuth struct {
	keyHash string
}

func NewAdminAuth(keyHash string) *AdminAuth {
	return &AdminAuth{keyHash: keyHash}
}

func (a *AdminAuth) Require(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if a.keyHash == "" {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "admin access is not configured"})
		}

		authHeader := c.Request().Header.Get("Authorization")
		split := strings.Split(authHeader, " ")
		if len(split) != 2 || split[0] != "Bearer" {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "bearer token required"})
		}

		if err := bcrypt.CompareHashAndPassword([]byte(a.keyHash), []byte(split[1])); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid admin key"})
		}

		return next(c)
	}
}
