package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mailworks/mailadmin/internal/models"
	"github.com/mailworks/mailadmin/internal/repo"
	"github.com/mailworks/mailadmin/internal/service"
	"github.com/mailworks/mailadmin/pkg/apiresult"
)

type EmailsHTTP struct {
	Svc *service.EmailService
}

type emailRequest struct {
	ApplicationID uint   `json:"applicationId"`
	Provider      string `json:"provider"`
	FromAddress   string `json:"fromAddress"`
	ToAddresses   string `json:"toAddresses"`
	CcAddresses   string `json:"ccAddresses"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
}

type emailStatusRequest struct {
	Status      string `json:"status"`
	ErrorDetail string `json:"errorDetail"`
}

func (h *EmailsHTTP) Record(c echo.Context) error {
	ctx := c.Request().Context()

	var req emailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apiresult.Fail(apiresult.CodeValidation, "invalid body"))
	}

	rec := models.EmailRecord{
		ApplicationID: req.ApplicationID,
		Provider:      req.Provider,
		FromAddress:   req.FromAddress,
		ToAddresses:   req.ToAddresses,
		CcAddresses:   req.CcAddresses,
		Subject:       req.Subject,
		Body:          req.Body,
	}

	if err := h.Svc.Record(ctx, &rec); err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return c.JSON(http.StatusBadRequest, apiresult.Fail(apiresult.CodeValidation, "applicationId, provider, fromAddress and toAddresses are required"))
		case errors.Is(err, repo.ErrApplicationNotFound):
			return c.JSON(http.StatusNotFound, apiresult.Fail(apiresult.CodeApplicationNotFound, "application not found"))
		default:
			return c.JSON(http.StatusInternalServerError, apiresult.Fail(apiresult.CodeSystem, "could not record email"))
		}
	}
	return c.JSON(http.StatusOK, apiresult.OK([]models.EmailRecord{rec}))
}

func (h *EmailsHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()

	id, ok := uintParam(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusBadRequest, apiresult.Fail(apiresult.CodeValidation, "invalid email id"))
	}

	var req emailStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apiresult.Fail(apiresult.CodeValidation, "invalid body"))
	}

	rec, err := h.Svc.UpdateStatus(ctx, id, req.Status, req.ErrorDetail)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return c.JSON(http.StatusBadRequest, apiresult.Fail(apiresult.CodeValidation, "status must be sent or failed"))
		case errors.Is(err, repo.ErrEmailNotFound):
			return c.JSON(http.StatusNotFound, apiresult.Fail(apiresult.CodeEmailNotFound, "email record not found"))
		default:
			return c.JSON(http.StatusInternalServerError, apiresult.Fail(apiresult.CodeSystem, "could not update email status"))
		}
	}
	return c.JSON(http.StatusOK, apiresult.OK([]*models.EmailRecord{rec}))
}

func (h *EmailsHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()

	f := repo.EmailFilter{
		Status: c.QueryParam("status"),
		Params: pageParams(c),
	}
	if appID, ok := uintParam(c.QueryParam("applicationId")); ok {
		f.ApplicationID = appID
	}
	if from, err := time.Parse(time.RFC3339, c.QueryParam("from")); err == nil {
		f.From = &from
	}
	if to, err := time.Parse(time.RFC3339, c.QueryParam("to")); err == nil {
		f.To = &to
	}

	recs, total, err := h.Svc.List(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, apiresult.Fail(apiresult.CodeSystem, "could not list emails"))
	}
	return c.JSON(http.StatusOK, apiresult.OKList(recs, total))
}

func (h *EmailsHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()

	q := c.QueryParam("q")
	recs, total, err := h.Svc.Search(ctx, q, pageParams(c))
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			return c.JSON(http.StatusBadRequest, apiresult.Fail(apiresult.CodeValidation, "query is required"))
		}
		return c.JSON(http.StatusInternalServerError, apiresult.Fail(apiresult.CodeSystem, "search failed"))
	}
	return c.JSON(http.StatusOK, apiresult.OKList(recs, total))
}
