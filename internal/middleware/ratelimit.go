package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	appErrors "github.com/charlesng35/chatgate/pkg/errors"
	"github.com/charlesng35/chatgate/pkg/response"
)

// ErrRateLimited is returned once a client exhausts its probe budget.
var ErrRateLimited = appErrors.New("RATE_LIMITED", "Too many requests", http.StatusTooManyRequests)

type rateCounter struct {
	count     int
	windowEnd time.Time
}

// rateWindows counts requests per key within a fixed window. Expired keys are
// dropped at most once per window, on the request path.
type rateWindows struct {
	mu        sync.Mutex
	data      map[string]*rateCounter
	clock     func() time.Time
	nextSweep time.Time
}

func newRateWindows(clock func() time.Time) *rateWindows {
	return &rateWindows{data: make(map[string]*rateCounter), clock: clock}
}

func (w *rateWindows) increment(key string, window time.Duration) (int, time.Duration) {
	now := w.clock()

	w.mu.Lock()
	defer w.mu.Unlock()

	if now.After(w.nextSweep) {
		w.sweepLocked(now)
		w.nextSweep = now.Add(window)
	}

	ct, ok := w.data[key]
	if !ok || now.After(ct.windowEnd) {
		ct = &rateCounter{windowEnd: now.Add(window)}
		w.data[key] = ct
	}
	ct.count++
	return ct.count, ct.windowEnd.Sub(now)
}

func (w *rateWindows) sweepLocked(now time.Time) {
	for k, v := range w.data {
		if now.After(v.windowEnd) {
			delete(w.data, k)
		}
	}
}

// RateLimit limits requests per (clientIP, route) within a fixed window. Every
// probe fans out to a remote chat server, so the budget protects those servers too.
// A non-positive limit or window disables the middleware.
func RateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	if maxRequests <= 0 || window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	windows := newRateWindows(time.Now)
	return func(c *gin.Context) {
		count, resetIn := windows.increment(c.ClientIP()+"|"+c.FullPath(), window)

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(0, maxRequests-count)))
		c.Header("X-RateLimit-Reset", strconv.Itoa(int(resetIn.Seconds())))

		if count > maxRequests {
			response.Error(c, ErrRateLimited)
			c.Abort()
			return
		}

		c.Next()
	}
}
