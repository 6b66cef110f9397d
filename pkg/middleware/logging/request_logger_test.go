package loggingmw

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailworks/mailadmin/pkg/logging"
)

func newLoggedEcho(buf *bytes.Buffer) *echo.Echo {
	e := echo.New()
	e.Use(middleware.RequestID(), RequestLogger(slog.New(slog.NewJSONHandler(buf, nil))))
	return e
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	require.NotEmpty(t, entries)
	return entries
}

func TestRequestLogger_PicksUpGeneratedRequestID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	e := newLoggedEcho(&buf)
	e.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	generated := rec.Header().Get(echo.HeaderXRequestID)
	require.NotEmpty(t, generated)

	entries := logLines(t, &buf)
	entry := entries[len(entries)-1]
	assert.Equal(t, generated, entry["request_id"])
	assert.Equal(t, http.MethodGet, entry["method"])
	assert.EqualValues(t, http.StatusOK, entry["status"])
}

func TestRequestLogger_CallerSuppliedRequestIDWins(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	e := newLoggedEcho(&buf)
	e.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(echo.HeaderXRequestID, "caller-chosen-id")
	e.ServeHTTP(httptest.NewRecorder(), req)

	entries := logLines(t, &buf)
	assert.Equal(t, "caller-chosen-id", entries[len(entries)-1]["request_id"])
}

func TestRequestLogger_ContextLoggerCarriesRequestID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	e := newLoggedEcho(&buf)
	e.GET("/ping", func(c echo.Context) error {
		logging.FromContext(c.Request().Context()).Info("handler hit")
		return c.NoContent(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	generated := rec.Header().Get(echo.HeaderXRequestID)

	var handlerEntry map[string]any
	for _, entry := range logLines(t, &buf) {
		if entry["msg"] == "handler hit" {
			handlerEntry = entry
		}
	}
	require.NotNil(t, handlerEntry)
	assert.Equal(t, generated, handlerEntry["request_id"])
}

func TestRequestLogger_WarnsOnClientError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	e := newLoggedEcho(&buf)
	e.GET("/missing", func(c echo.Context) error { return c.NoContent(http.StatusNotFound) })

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	entries := logLines(t, &buf)
	entry := entries[len(entries)-1]
	assert.Equal(t, "WARN", entry["level"])
	assert.EqualValues(t, http.StatusNotFound, entry["status"])
}
