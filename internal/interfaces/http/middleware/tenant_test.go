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

func newTenantRouter(cfg TenantMiddlewareConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(TenantMiddlewareWithConfig(cfg))
	handler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"tenant_id": GetTenantID(c)})
	}
	router.GET("/api/v1/stock/levels", handler)
	router.GET("/health", handler)
	return router
}

func TestTenantMiddleware(t *testing.T) {
	tenantID := uuid.New()

	t.Run("accepts a valid tenant header", func(t *testing.T) {
		router := newTenantRouter(DefaultTenantConfig())
		req := httptest.NewRequest(http.MethodGet, "/api/v1/stock/levels", nil)
		req.Header.Set(TenantHeaderKey, tenantID.String())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), tenantID.String())
	})

	t.Run("rejects a missing tenant header", func(t *testing.T) {
		router := newTenantRouter(DefaultTenantConfig())
		req := httptest.NewRequest(http.MethodGet, "/api/v1/stock/levels", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects a malformed tenant ID", func(t *testing.T) {
		router := newTenantRouter(DefaultTenantConfig())
		req := httptest.NewRequest(http.MethodGet, "/api/v1/stock/levels", nil)
		req.Header.Set(TenantHeaderKey, "not-a-uuid")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects the nil UUID", func(t *testing.T) {
		router := newTenantRouter(DefaultTenantConfig())
		req := httptest.NewRequest(http.MethodGet, "/api/v1/stock/levels", nil)
		req.Header.Set(TenantHeaderKey, uuid.Nil.String())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("skip paths pass through without a tenant", func(t *testing.T) {
		router := newTenantRouter(DefaultTenantConfig())
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("optional mode lets requests through without a tenant", func(t *testing.T) {
		cfg := DefaultTenantConfig()
		cfg.Required = false
		router := newTenantRouter(cfg)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/stock/levels", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGetTenantUUID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("round-trips the parsed tenant", func(t *testing.T) {
		tenantID := uuid.New()
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set(TenantIDKey, tenantID.String())

		parsed, ok := GetTenantUUID(c)
		require.True(t, ok)
		assert.Equal(t, tenantID, parsed)
	})

	t.Run("reports absence", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		_, ok := GetTenantUUID(c)
		assert.False(t, ok)
	})
}
