package httpserver

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mailworks/mailadmin/internal/repo"
	"github.com/mailworks/mailadmin/internal/service"
	"github.com/mailworks/mailadmin/pkg/apiresult"
)

type UsersHTTP struct {
	Svc *service.UserService
}

func (h *UsersHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()

	f := repo.UserFilter{
		Search:   c.QueryParam("search"),
		Role:     c.QueryParam("role"),
		Approved: boolParam(c, "approved"),
		Params:   pageParams(c),
	}

	users, total, err := h.Svc.List(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, apiresult.Fail(apiresult.CodeSystem, "could not list users"))
	}
	return c.JSON(http.StatusOK, apiresult.OKList(users, total))
}

func (h *UsersHTTP) Approve(c echo.Context) error {
	return h.setApproval(c, true)
}

func (h *UsersHTTP) Revoke(c echo.Context) error {
	return h.setApproval(c, false)
}

func (h *UsersHTTP) setApproval(c echo.Context, approved bool) error {
	ctx := c.Request().Context()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, apiresult.Fail(apiresult.CodeValidation, "invalid user id"))
	}

	if err := h.Svc.SetApproval(ctx, id, approved); err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, apiresult.Fail(apiresult.CodeUserNotFound, "user not found"))
		}
		return c.JSON(http.StatusInternalServerError, apiresult.Fail(apiresult.CodeSystem, "could not update approval"))
	}
	return c.JSON(http.StatusOK, apiresult.OK([]any{echo.Map{"id": id, "approved": approved}}))
}

func (h *UsersHTTP) SetRole(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, apiresult.Fail(apiresult.CodeValidation, "invalid user id"))
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apiresult.Fail(apiresult.CodeValidation, "invalid body"))
	}

	if err := h.Svc.SetRole(ctx, id, req.Role); err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownRole):
			return c.JSON(http.StatusBadRequest, apiresult.Fail(apiresult.CodeUnknownRole, "unknown role"))
		case errors.Is(err, repo.ErrUserNotFound):
			return c.JSON(http.StatusNotFound, apiresult.Fail(apiresult.CodeUserNotFound, "user not found"))
		default:
			return c.JSON(http.StatusInternalServerError, apiresult.Fail(apiresult.CodeSystem, "could not update role"))
		}
	}
	return c.JSON(http.StatusOK, apiresult.OK([]any{echo.Map{"id": id, "role": req.Role}}))
}
