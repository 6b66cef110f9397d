package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mailworks/mailadmin/pkg/apiresult"
	"github.com/mailworks/mailadmin/pkg/tokens"
)

const bearerPrefix = "bearer "

type Middleware struct {
	JWTSecret []byte
}

func New(secret []byte) *Middleware {
	return &Middleware{JWTSecret: secret}
}

func bearerFromHeader(c echo.Context) string {
	v := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
	if len(v) < len(bearerPrefix) || !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}

// RequireAuth validates the bearer access token and stores the caller
// identity in the echo context. The server re-validates role and approval on
// every request; client-side guards are a UX convenience only.
func (m *Middleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := bearerFromHeader(c)
		if token == "" {
			return c.JSON(http.StatusUnauthorized, apiresult.Fail(apiresult.CodeTokenInvalid, "missing access token"))
		}

		claims, err := tokens.AccessClaimsFromToken(token, m.JWTSecret)
		if err != nil || claims == nil {
			return c.JSON(http.StatusUnauthorized, apiresult.Fail(apiresult.CodeTokenExpired, "invalid or expired token"))
		}

		c.Set("user_id", claims.Subject)
		c.Set("role", tokens.Normalize(claims.Role))
		c.Set("approved", claims.Approved)

		return next(c)
	}
}

// RequireRoles gates a route to the given role set, case-insensitive.
func (m *Middleware) RequireRoles(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[tokens.Normalize(r)] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			if !allowed[tokens.Normalize(role)] {
				return c.JSON(http.StatusForbidden, apiresult.Fail(apiresult.CodeSystem, "insufficient role"))
			}
			return next(c)
		}
	}
}

// RequireApproved blocks authenticated but unapproved accounts.
func (m *Middleware) RequireApproved(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		approved, _ := c.Get("approved").(bool)
		if !approved {
			return c.JSON(http.StatusForbidden, apiresult.Fail(apiresult.CodeUserNotApproved, "access restricted: account pending approval"))
		}
		return next(c)
	}
}
