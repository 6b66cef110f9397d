package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mailworks/mailadmin/internal/models"
	"github.com/mailworks/mailadmin/internal/repo"
	"github.com/mailworks/mailadmin/internal/service"
	"github.com/mailworks/mailadmin/pkg/apiresult"
)

type ApplicationsHTTP struct {
	Svc *service.ApplicationService
}

type applicationRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Active      *bool  `json:"active"`
}

func (h *ApplicationsHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()

	f := repo.ApplicationFilter{
		Search: c.QueryParam("search"),
		Active: boolParam(c, "active"),
		Params: pageParams(c),
	}

	apps, total, err := h.Svc.List(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, apiresult.Fail(apiresult.CodeSystem, "could not list applications"))
	}
	return c.JSON(http.StatusOK, apiresult.OKList(apps, total))
}

func (h *ApplicationsHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req applicationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apiresult.Fail(apiresult.CodeValidation, "invalid body"))
	}

	app := models.Application{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		Active:      true,
	}
	if req.Active != nil {
		app.Active = *req.Active
	}

	if err := h.Svc.Create(ctx, &app); err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return c.JSON(http.StatusBadRequest, apiresult.Fail(apiresult.CodeValidation, "code and name are required"))
		case errors.Is(err, repo.ErrDuplicateCode):
			return c.JSON(http.StatusConflict, apiresult.Fail(apiresult.CodeDuplicateApplication, "application code already exists"))
		default:
			return c.JSON(http.StatusInternalServerError, apiresult.Fail(apiresult.CodeSystem, "could not create application"))
		}
	}
	return c.JSON(http.StatusOK, apiresult.OK([]models.Application{app}))
}

func (h *ApplicationsHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()

	id, ok := uintParam(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusBadRequest, apiresult.Fail(apiresult.CodeValidation, "invalid application id"))
	}

	var req applicationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apiresult.Fail(apiresult.CodeValidation, "invalid body"))
	}

	app := models.Application{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Active:      true,
	}
	if req.Active != nil {
		app.Active = *req.Active
	}

	if err := h.Svc.Update(ctx, &app); err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return c.JSON(http.StatusBadRequest, apiresult.Fail(apiresult.CodeValidation, "name is required"))
		case errors.Is(err, repo.ErrApplicationNotFound):
			return c.JSON(http.StatusNotFound, apiresult.Fail(apiresult.CodeApplicationNotFound, "application not found"))
		default:
			return c.JSON(http.StatusInternalServerError, apiresult.Fail(apiresult.CodeSystem, "could not update application"))
		}
	}
	return c.JSON(http.StatusOK, apiresult.OK([]any{echo.Map{"id": id}}))
}

func (h *ApplicationsHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	id, ok := uintParam(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusBadRequest, apiresult.Fail(apiresult.CodeValidation, "invalid application id"))
	}

	if err := h.Svc.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrApplicationNotFound) {
			return c.JSON(http.StatusNotFound, apiresult.Fail(apiresult.CodeApplicationNotFound, "application not found"))
		}
		return c.JSON(http.StatusInternalServerError, apiresult.Fail(apiresult.CodeSystem, "could not delete application"))
	}
	return c.JSON(http.StatusOK, apiresult.OK([]any{echo.Map{"id": id}}))
}
