package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/shopfloor-app/models"
	"github.com/yeremiapane/shopfloor-app/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func okHandler(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func perform(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	r := gin.New()
	r.GET("/scan", NewRateLimiter(0.001, 2).RateLimit(), okHandler)

	assert.Equal(t, http.StatusOK, perform(r, "GET", "/scan", nil).Code)
	assert.Equal(t, http.StatusOK, perform(r, "GET", "/scan", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, perform(r, "GET", "/scan", nil).Code)
}

func TestRateLimiterIsPerClient(t *testing.T) {
	r := gin.New()
	r.GET("/scan", NewRateLimiter(0.001, 1).RateLimit(), okHandler)

	first := httptest.NewRequest("GET", "/scan", nil)
	first.RemoteAddr = "10.0.0.1:1234"
	second := httptest.NewRequest("GET", "/scan", nil)
	second.RemoteAddr = "10.0.0.2:1234"

	for _, req := range []*http.Request{first, second} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestScannerKeyMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/scan", ScannerKeyMiddleware("floor-key"), okHandler)

	assert.Equal(t, http.StatusUnauthorized, perform(r, "GET", "/scan", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, "GET", "/scan", map[string]string{"X-Scanner-Key": "wrong"}).Code)
	assert.Equal(t, http.StatusOK, perform(r, "GET", "/scan", map[string]string{"X-Scanner-Key": "floor-key"}).Code)
	assert.Equal(t, http.StatusOK, perform(r, "GET", "/scan?key=floor-key", nil).Code)

	open := gin.New()
	open.GET("/scan", ScannerKeyMiddleware(""), okHandler)
	assert.Equal(t, http.StatusOK, perform(open, "GET", "/scan", nil).Code)
}

func TestAuthAndRole(t *testing.T) {
	r := gin.New()
	r.GET("/admin", AuthMiddleware(), RequireRole(models.RoleAdmin), okHandler)
	r.GET("/read", AuthMiddleware(), RequireRole(models.RoleAdmin, models.RoleSupervisor), okHandler)

	admin, err := utils.GenerateToken(1, models.RoleAdmin, time.Hour)
	require.NoError(t, err)
	supervisor, err := utils.GenerateToken(2, models.RoleSupervisor, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, perform(r, "GET", "/admin", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, "GET", "/admin", map[string]string{"Authorization": admin}).Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, "GET", "/admin", map[string]string{"Authorization": "Bearer garbage"}).Code)
	assert.Equal(t, http.StatusOK, perform(r, "GET", "/admin", map[string]string{"Authorization": "Bearer " + admin}).Code)
	assert.Equal(t, http.StatusForbidden, perform(r, "GET", "/admin", map[string]string{"Authorization": "Bearer " + supervisor}).Code)
	assert.Equal(t, http.StatusOK, perform(r, "GET", "/read", map[string]string{"Authorization": "Bearer " + supervisor}).Code)
}

func TestWebSocketAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/ws", WebSocketAuthMiddleware(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("role"))
	})

	token, err := utils.GenerateToken(1, models.RoleAdmin, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, perform(r, "GET", "/ws", nil).Code)
	w := perform(r, "GET", "/ws?token="+token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.RoleAdmin, w.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddlewares("https://office.example"))
	r.GET("/ping", okHandler)

	w := perform(r, "OPTIONS", "/ping", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://office.example", w.Header().Get("Access-Control-Allow-Origin"))
}
