package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"transaction-service/internal/api/middleware"
	"transaction-service/internal/config"
)

func TestCORS_SetsHeadersAndPassesThroughNonOptions(t *testing.T) {
	r := gin.New()
	r.Use(middleware.CORS(config.CORSConfig{
		AllowOrigins: []string{"https://example.com"},
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Authorization"},
	}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Authorization", rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestCORS_ShortCircuitsOptionsRequest(t *testing.T) {
	r := gin.New()
	r.Use(middleware.CORS(config.CORSConfig{}))
	called := false
	r.OPTIONS("/x", func(c *gin.Context) { called = true })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, called, "handler must not run once CORS aborts an OPTIONS preflight")
}
