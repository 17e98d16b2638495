package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transaction-service/internal/api/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, secret string, subject string, roles []string) string {
	claims := jwt.MapClaims{
		"sub":   subject,
		"roles": roles,
		"exp":   time.Now().Add(time.Minute).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func newAuthedRouter(secret string, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Authenticate(secret))
	handlers := append(extra, func(c *gin.Context) {
		principal, _ := middleware.CurrentPrincipal(c)
		c.JSON(http.StatusOK, gin.H{"userId": principal.UserID})
	})
	r.GET("/protected", handlers...)
	return r
}

func TestAuthenticate_ValidTokenPopulatesPrincipal(t *testing.T) {
	secret := "test-secret"
	token := signToken(t, secret, "user-1", []string{"ROLE_USER"})
	router := newAuthedRouter(secret)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "user-1")
}

func TestAuthenticate_MissingHeaderProceedsUnauthenticated(t *testing.T) {
	router := newAuthedRouter("test-secret")

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"userId":""`)
}

func TestAuthenticate_WrongSecretProceedsUnauthenticated(t *testing.T) {
	token := signToken(t, "other-secret", "user-1", nil)
	router := newAuthedRouter("test-secret")

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"userId":""`)
}

func TestRequireAuthenticated_RejectsAnonymousRequest(t *testing.T) {
	router := newAuthedRouter("test-secret", middleware.RequireAuthenticated())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoles_RejectsPrincipalMissingRole(t *testing.T) {
	secret := "test-secret"
	token := signToken(t, secret, "user-1", []string{"ROLE_USER"})
	router := newAuthedRouter(secret, middleware.RequireRoles("ROLE_ADMIN"))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoles_AllowsPrincipalWithMatchingRole(t *testing.T) {
	secret := "test-secret"
	token := signToken(t, secret, "user-1", []string{"ROLE_ADMIN"})
	router := newAuthedRouter(secret, middleware.RequireRoles("ROLE_ADMIN"))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBearerToken_StripsPrefix(t *testing.T) {
	r := gin.New()
	var got string
	r.GET("/x", func(c *gin.Context) { got = middleware.BearerToken(c) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer raw-token")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "raw-token", got)
}
