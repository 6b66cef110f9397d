package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mailworks/mailadmin/internal/repo"
	"github.com/mailworks/mailadmin/internal/service"
	"github.com/mailworks/mailadmin/pkg/apiresult"
	"github.com/mailworks/mailadmin/pkg/logging"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

type registerRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type azureLoginRequest struct {
	Email             string `json:"email"`
	UserPrincipalName string `json:"userPrincipalName"`
	DisplayName       string `json:"displayName"`
	Username          string `json:"username"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "error", err)
		return c.JSON(http.StatusBadRequest, apiresult.Fail(apiresult.CodeValidation, "invalid body"))
	}

	if err := h.Svc.Register(ctx, req.Username, req.Password, req.Email, req.DisplayName); err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return c.JSON(http.StatusBadRequest, apiresult.Fail(apiresult.CodeValidation, "username and password are required"))
		case errors.Is(err, repo.ErrUserAlreadyExist):
			return c.JSON(http.StatusConflict, apiresult.Fail(apiresult.CodeValidation, "user already exists"))
		default:
			return c.JSON(http.StatusInternalServerError, apiresult.Fail(apiresult.CodeSystem, "registration failed"))
		}
	}

	return c.JSON(http.StatusOK, apiresult.OK([]any{echo.Map{"username": req.Username}}))
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "error", err)
		return c.JSON(http.StatusBadRequest, apiresult.Fail(apiresult.CodeValidation, "invalid body"))
	}

	res, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return c.JSON(http.StatusBadRequest, apiresult.Fail(apiresult.CodeValidation, "username and password are required"))
		case errors.Is(err, service.ErrInvalidCredentials):
			return c.JSON(http.StatusUnauthorized, apiresult.Fail(apiresult.CodeInvalidCredentials, "invalid username or password"))
		case errors.Is(err, service.ErrUserNotApproved):
			return c.JSON(http.StatusForbidden, apiresult.Fail(apiresult.CodeUserNotApproved, "account is not approved"))
		case errors.Is(err, service.ErrAzureADRequired):
			return c.JSON(http.StatusUnauthorized, apiresult.Fail(apiresult.CodeAzureADRequired, "use Azure AD sign-in for this account"))
		default:
			return c.JSON(http.StatusInternalServerError, apiresult.Fail(apiresult.CodeSystem, "login failed"))
		}
	}

	return c.JSON(http.StatusOK, apiresult.OK([]*service.LoginResult{res}))
}

func (h *AuthHTTP) AzureLogin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_azure")

	var req azureLoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("azure_login_error", "error", err)
		return c.JSON(http.StatusBadRequest, apiresult.Fail(apiresult.CodeValidation, "invalid body"))
	}

	res, err := h.Svc.AzureLogin(ctx, req.Email, req.UserPrincipalName, req.DisplayName, req.Username)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			return c.JSON(http.StatusBadRequest, apiresult.Fail(apiresult.CodeValidation, "email and userPrincipalName are required"))
		}
		return c.JSON(http.StatusInternalServerError, apiresult.Fail(apiresult.CodeSystem, "federated login failed"))
	}

	return c.JSON(http.StatusOK, apiresult.OK([]*service.LoginResult{res}))
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	var req refreshRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, apiresult.Fail(apiresult.CodeTokenInvalid, "refresh token is required"))
	}

	res, err := h.Svc.Refresh(ctx, req.RefreshToken, c.RealIP())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRefreshToken):
			return c.JSON(http.StatusUnauthorized, apiresult.Fail(apiresult.CodeTokenInvalid, "invalid refresh token"))
		case errors.Is(err, repo.ErrTokenExpiredOrRevoked):
			return c.JSON(http.StatusUnauthorized, apiresult.Fail(apiresult.CodeTokenExpired, "refresh token expired or revoked"))
		default:
			return c.JSON(http.StatusInternalServerError, apiresult.Fail(apiresult.CodeSystem, "refresh failed"))
		}
	}

	return c.JSON(http.StatusOK, apiresult.OK([]*service.LoginResult{res}))
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()

	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		req.RefreshToken = ""
	}

	if err := h.Svc.LogOut(ctx, req.RefreshToken, c.RealIP()); err != nil {
		return c.JSON(http.StatusInternalServerError, apiresult.Fail(apiresult.CodeSystem, "logout failed"))
	}

	return c.JSON(http.StatusOK, apiresult.OK([]any{echo.Map{"message": "logged out"}}))
}
