package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimit(2, 100*time.Millisecond))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	do := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		return w
	}

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, do().Code)
	}

	w := do()
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	require.Contains(t, w.Body.String(), "RATE_LIMITED")

	time.Sleep(120 * time.Millisecond)
	require.Equal(t, http.StatusOK, do().Code)
}

func TestRateLimitDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimit(0, time.Minute))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.Equal(t, http.StatusOK, w.Code)
		require.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateWindowsDropExpiredKeys(t *testing.T) {
	now := time.Unix(1700000000, 0)
	w := newRateWindows(func() time.Time { return now })

	count, resetIn := w.increment("a", time.Minute)
	require.Equal(t, 1, count)
	require.Equal(t, time.Minute, resetIn)
	count, _ = w.increment("b", time.Minute)
	require.Equal(t, 1, count)
	count, _ = w.increment("a", time.Minute)
	require.Equal(t, 2, count)
	require.Len(t, w.data, 2)

	now = now.Add(2 * time.Minute)
	count, _ = w.increment("c", time.Minute)
	require.Equal(t, 1, count)
	require.Len(t, w.data, 1)
	require.Contains(t, w.data, "c")
}
