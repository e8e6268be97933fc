package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tapearn/internal/domain"
	"tapearn/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	service.InitJWT("middleware-test-secret")
}

type errorResponse struct {
	Error struct {
		Code    domain.ErrorCode `json:"code"`
		Message string           `json:"message"`
	} `json:"error"`
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) domain.ErrorCode {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func TestJWT(t *testing.T) {
	r := gin.New()
	r.GET("/me", JWT(), func(c *gin.Context) {
		id, ok := UserID(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": id})
	})

	player, err := service.GenerateJWT(42)
	require.NoError(t, err)
	admin, err := service.GenerateAdminJWT(42, domain.RoleOwner)
	require.NoError(t, err)

	w := do(r, http.MethodGet, "/me", player)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":42}`, w.Body.String())

	w = do(r, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, domain.CodeUnauthorized, errorCode(t, w))

	w = do(r, http.MethodGet, "/me", admin)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/me", "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequirePermission(t *testing.T) {
	r := gin.New()
	roster := domain.AdminRoster{1: domain.RoleOwner, 2: domain.RoleSupport}
	admin := r.Group("/admin", AdminJWT(roster))
	admin.GET("/stats", RequirePermission(domain.PermStatsRead), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	admin.DELETE("/users/1", RequirePermission(domain.PermAccountsManage), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	owner, err := service.GenerateAdminJWT(1, domain.RoleOwner)
	require.NoError(t, err)
	support, err := service.GenerateAdminJWT(2, domain.RoleSupport)
	require.NoError(t, err)
	player, err := service.GenerateJWT(3)
	require.NoError(t, err)

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/admin/stats", support).Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, "/admin/users/1", owner).Code)

	w := do(r, http.MethodDelete, "/admin/users/1", support)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, domain.CodeForbidden, errorCode(t, w))

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/admin/stats", player).Code)

	// the roster decides, not the role baked into the token
	removed, err := service.GenerateAdminJWT(4, domain.RoleOwner)
	require.NoError(t, err)
	w = do(r, http.MethodGet, "/admin/stats", removed)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, domain.CodeForbidden, errorCode(t, w))

	demoted, err := service.GenerateAdminJWT(2, domain.RoleOwner)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/admin/stats", demoted).Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodDelete, "/admin/users/1", demoted).Code)
}

func TestRateLimitInMemory(t *testing.T) {
	UseRedis(nil)

	r := gin.New()
	r.GET("/tap", RateLimit("test_tap", 2, time.Minute, ByIP), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/tap", "").Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/tap", "").Code)

	w := do(r, http.MethodGet, "/tap", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, domain.CodeRateLimited, errorCode(t, w))
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestRateLimitByUser(t *testing.T) {
	UseRedis(nil)

	r := gin.New()
	r.GET("/tap", JWT(), RateLimit("test_user", 1, time.Minute, ByUser), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	alice, err := service.GenerateJWT(100)
	require.NoError(t, err)
	bob, err := service.GenerateJWT(200)
	require.NoError(t, err)

	// same address, different players
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/tap", alice).Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/tap", bob).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodGet, "/tap", alice).Code)
}

func TestMemoryLimiterWindow(t *testing.T) {
	l := newMemoryLimiter(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, int64(1), l.hit("a", now))
	assert.Equal(t, int64(2), l.hit("a", now.Add(30*time.Second)))
	assert.Equal(t, int64(1), l.hit("b", now.Add(30*time.Second)))
	assert.Equal(t, int64(1), l.hit("a", now.Add(61*time.Second)))
}

func TestRequestIDAndRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Logger(), Recovery())
	r.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})
	r.GET("/ok", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	w := do(r, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, domain.CodeInternal, errorCode(t, w))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Body.String())
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestStatusFor(t *testing.T) {
	cases := map[domain.ErrorCode]int{
		domain.CodeNotFound:           http.StatusNotFound,
		domain.CodeValidation:         http.StatusBadRequest,
		domain.CodeInsufficientCoins:  http.StatusUnprocessableEntity,
		domain.CodeInsufficientEnergy: http.StatusUnprocessableEntity,
		domain.CodeConflict:           http.StatusConflict,
		domain.CodeUnauthorized:       http.StatusUnauthorized,
		domain.CodeForbidden:          http.StatusForbidden,
		domain.CodeRateLimited:        http.StatusTooManyRequests,
		domain.CodeInternal:           http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, StatusFor(code), code)
	}
}
