package api

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// RequestID propagates the caller's X-Request-ID or assigns a new one
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// Logger writes one structured line per request
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString(requestIDKey)),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("HTTP request", fields...)
			return
		}
		logger.Info("HTTP request", fields...)
	}
}

// Recovery turns a handler panic into a 500 and logs it
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic in HTTP handler",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path),
					zap.String("request_id", c.GetString(requestIDKey)),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody("Internal server error"))
			}
		}()
		c.Next()
	}
}

// limiterIdleTTL is how long an unused per-IP limiter is kept
const limiterIdleTTL = 10 * time.Minute

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanoseconds
}

// IPRateLimiter manages per-IP rate limiting. Limiters unused for the idle TTL are
// dropped during GetLimiter, at most once per TTL.
type IPRateLimiter struct {
	limiters  sync.Map // ip -> *ipLimiter
	rate      rate.Limit
	burst     int
	idle      time.Duration
	now       func() time.Time
	lastSweep atomic.Int64
}

// NewIPRateLimiter creates a new IP-based rate limiter
func NewIPRateLimiter(r rate.Limit, burst int) *IPRateLimiter {
	idle := limiterIdleTTL
	// an evicted limiter must already have refilled, or eviction would raise the budget
	if r > 0 {
		if refill := time.Duration(float64(burst) / float64(r) * float64(time.Second)); refill > idle {
			idle = refill
		}
	}
	l := &IPRateLimiter{
		rate:  r,
		burst: burst,
		idle:  idle,
		now:   time.Now,
	}
	l.lastSweep.Store(l.now().UnixNano())
	return l
}

// GetLimiter returns the rate limiter for a given IP
func (l *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	now := l.now().UnixNano()

	v, ok := l.limiters.Load(ip)
	if !ok {
		v, _ = l.limiters.LoadOrStore(ip, &ipLimiter{limiter: rate.NewLimiter(l.rate, l.burst)})
	}
	entry := v.(*ipLimiter)
	entry.lastSeen.Store(now)

	if last := l.lastSweep.Load(); now-last >= int64(l.idle) && l.lastSweep.CompareAndSwap(last, now) {
		l.sweep(now)
	}
	return entry.limiter
}

// sweep drops limiters last used before now minus the idle TTL
func (l *IPRateLimiter) sweep(now int64) int {
	cutoff := now - int64(l.idle)
	removed := 0
	l.limiters.Range(func(key, v any) bool {
		if v.(*ipLimiter).lastSeen.Load() < cutoff {
			l.limiters.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// Len returns the number of tracked client IPs
func (l *IPRateLimiter) Len() int {
	n := 0
	l.limiters.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}

// RateLimit rejects requests over the per-IP budget with 429 and a Retry-After hint
func RateLimit(l *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := l.GetLimiter(c.ClientIP()).Reserve()
		if !res.OK() {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorBody("Too many requests"))
			return
		}
		if delay := res.Delay(); delay > 0 {
			res.Cancel()
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorBody("Too many requests"))
			return
		}
		c.Next()
	}
}
