package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func limitedRouter(rl *RateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(rl.Middleware())
	router.POST("/login", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	return router
}

func hit(router *gin.Engine, addr string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/login", nil)
	req.RemoteAddr = addr
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimit_AllowsNormalRequests(t *testing.T) {
	rl := NewRateLimiter(10, 10)
	defer rl.Stop()

	w := hit(limitedRouter(rl), "192.168.1.1:12345")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_BlocksExcessiveRequests(t *testing.T) {
	rl := NewRateLimiter(0.5, 2)
	defer rl.Stop()
	router := limitedRouter(rl)

	var last *httptest.ResponseRecorder
	for i := 0; i < 5; i++ {
		last = hit(router, "10.0.0.1:12345")
	}

	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Equal(t, "2", last.Header().Get("Retry-After"))
	assert.Contains(t, last.Body.String(), `"code":429`)
}

func TestRateLimit_IndependentPerIP(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Stop()
	router := limitedRouter(rl)

	assert.Equal(t, http.StatusOK, hit(router, "10.0.0.1:12345").Code)
	assert.Equal(t, http.StatusOK, hit(router, "10.0.0.2:12345").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(router, "10.0.0.1:12345").Code)
}

func TestRateLimit_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.Stop()
	rl.Stop()
}
