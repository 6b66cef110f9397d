package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mailworks/mailadmin/internal/service"
	"github.com/mailworks/mailadmin/pkg/apiresult"
)

type DashboardHTTP struct {
	Svc *service.DashboardService
}

func (h *DashboardHTTP) Summary(c echo.Context) error {
	ctx := c.Request().Context()

	days, _ := strconv.Atoi(c.QueryParam("days"))
	summary, err := h.Svc.Summary(ctx, days)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, apiresult.Fail(apiresult.CodeSystem, "could not build summary"))
	}
	return c.JSON(http.StatusOK, apiresult.OK([]*service.DashboardSummary{summary}))
}
