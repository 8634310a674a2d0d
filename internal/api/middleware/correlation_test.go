package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func correlationRouter(captured *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CorrelationID())
	router.GET("/test", func(c *gin.Context) {
		*captured = c.GetString(CorrelationIDKey)
		c.Status(http.StatusOK)
	})
	return router
}

func TestCorrelationID(t *testing.T) {
	t.Run("GeneratesIDWhenMissing", func(t *testing.T) {
		var contextID string
		router := correlationRouter(&contextID)

		req, _ := http.NewRequest(http.MethodGet, "/test", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		headerID := rr.Header().Get(CorrelationIDHeader)
		_, err := uuid.Parse(headerID)
		assert.NoError(t, err, "generated correlation ID should be a valid UUID")
		assert.Equal(t, headerID, contextID, "header and context must carry the same ID")
	})

	t.Run("HonorsValidInboundID", func(t *testing.T) {
		var contextID string
		router := correlationRouter(&contextID)

		providedID := uuid.New().String()
		req, _ := http.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(CorrelationIDHeader, providedID)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, providedID, rr.Header().Get(CorrelationIDHeader))
		assert.Equal(t, providedID, contextID)
	})

	t.Run("ReplacesMalformedInboundID", func(t *testing.T) {
		var contextID string
		router := correlationRouter(&contextID)

		req, _ := http.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(CorrelationIDHeader, "not-a-uuid")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		headerID := rr.Header().Get(CorrelationIDHeader)
		assert.NotEqual(t, "not-a-uuid", headerID)
		_, err := uuid.Parse(headerID)
		assert.NoError(t, err)
		assert.Equal(t, headerID, contextID)
	})
}

func TestGetCorrelationID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("ReturnsStoredID", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set(CorrelationIDKey, "abc-123")
		assert.Equal(t, "abc-123", GetCorrelationID(c))
	})

	t.Run("ReturnsEmptyWhenUnset", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		assert.Empty(t, GetCorrelationID(c))
	})

	t.Run("ReturnsEmptyOnWrongType", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set(CorrelationIDKey, 42)
		assert.Empty(t, GetCorrelationID(c))
	})
}
