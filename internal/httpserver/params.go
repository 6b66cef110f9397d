package httpserver

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mailworks/mailadmin/pkg/paging"
)

func pageParams(c echo.Context) paging.Params {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("pageSize"))
	return paging.Params{Page: page, Size: size}
}

func boolParam(c echo.Context, name string) *bool {
	v := c.QueryParam(name)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}

func uintParam(v string) (uint, bool) {
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(n), true
}
