package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/mailworks/mailadmin/internal/middleware/auth"
	"github.com/mailworks/mailadmin/pkg/tokens"
)

type Deps struct {
	AuthHandler         *AuthHTTP
	UsersHandler        *UsersHTTP
	ApplicationsHandler *ApplicationsHTTP
	EmailsHandler       *EmailsHTTP
	DashboardHandler    *DashboardHTTP
	JWTSecret           []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	mw := authmw.New(d.JWTSecret)

	v1 := e.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/azure", d.AuthHandler.AzureLogin)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.LogOut)

	// Protected surfaces: authenticated and approved.
	private := v1.Group("", mw.RequireAuth, mw.RequireApproved)

	users := private.Group("/users", mw.RequireRoles(tokens.RoleAdmin, tokens.RoleModerator))
	users.GET("", d.UsersHandler.List)
	users.PUT("/:id/approve", d.UsersHandler.Approve)
	users.PUT("/:id/revoke", d.UsersHandler.Revoke)
	users.PUT("/:id/role", d.UsersHandler.SetRole, mw.RequireRoles(tokens.RoleAdmin))

	apps := private.Group("/applications")
	apps.GET("", d.ApplicationsHandler.List)
	apps.POST("", d.ApplicationsHandler.Create, mw.RequireRoles(tokens.RoleAdmin))
	apps.PUT("/:id", d.ApplicationsHandler.Update, mw.RequireRoles(tokens.RoleAdmin))
	apps.DELETE("/:id", d.ApplicationsHandler.Delete, mw.RequireRoles(tokens.RoleAdmin))

	emails := private.Group("/emails")
	emails.GET("", d.EmailsHandler.List)
	emails.GET("/search", d.EmailsHandler.Search)
	emails.POST("", d.EmailsHandler.Record)
	emails.PUT("/:id/status", d.EmailsHandler.UpdateStatus, mw.RequireRoles(tokens.RoleAdmin, tokens.RoleTester))

	dashboard := private.Group("/dashboard")
	dashboard.GET("/summary", d.DashboardHandler.Summary)
}
