package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/wb-go/wbf/ginext"
)

func TestRateLimiter_PerClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl := NewRateLimiter(2, time.Minute)
	r := gin.New()
	r.POST("/login", rl.Middleware(), func(c *ginext.Context) { c.Status(http.StatusOK) })

	call := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = ip + ":40000"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1"))
	assert.Equal(t, http.StatusOK, call("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1"))
	assert.Equal(t, http.StatusOK, call("10.0.0.2"))
}

func TestRateLimiter_RefillsAndForgetsIdleClients(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("a"))
	assert.False(t, rl.allow("a"))

	now = now.Add(61 * time.Second)
	assert.True(t, rl.allow("a"))

	now = now.Add(idleTTL + time.Second)
	rl.allow("b")
	rl.mu.Lock()
	_, kept := rl.limiters["a"]
	rl.mu.Unlock()
	assert.False(t, kept)
}
