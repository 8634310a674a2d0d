package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loggerRouter(buf *bytes.Buffer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(buf, nil))

	router := gin.New()
	router.Use(CorrelationID())
	router.Use(Logger(logger))
	router.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	router.GET("/broken", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	return router
}

func logRecord(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	return record
}

func TestLogger(t *testing.T) {
	t.Run("LogsRequestDetails", func(t *testing.T) {
		var buf bytes.Buffer
		router := loggerRouter(&buf)

		req, _ := http.NewRequest(http.MethodGet, "/ok?page=2", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		record := logRecord(t, &buf)
		assert.Equal(t, "INFO", record["level"])
		assert.Equal(t, "GET", record["method"])
		assert.Equal(t, "/ok?page=2", record["path"])
		assert.Equal(t, float64(http.StatusOK), record["status"])
		assert.NotEmpty(t, record["correlation_id"])
		assert.NotZero(t, record["bytes"])
	})

	t.Run("ClientErrorsLogAtWarn", func(t *testing.T) {
		var buf bytes.Buffer
		router := loggerRouter(&buf)

		req, _ := http.NewRequest(http.MethodGet, "/missing", nil)
		router.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "WARN", logRecord(t, &buf)["level"])
	})

	t.Run("ServerErrorsLogAtError", func(t *testing.T) {
		var buf bytes.Buffer
		router := loggerRouter(&buf)

		req, _ := http.NewRequest(http.MethodGet, "/broken", nil)
		router.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "ERROR", logRecord(t, &buf)["level"])
	})
}
