// Package api exposes the catalog over HTTP with gin.
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config holds the router settings
type Config struct {
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
	// Ready reports whether the catalog has been loaded. Nil means always ready.
	Ready func() bool
}

// NewRouter builds the gin engine with middleware, health checks and /api routes
func NewRouter(store Catalog, cfg Config, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Logger(logger), Recovery(logger))

	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", requestIDHeader},
			ExposeHeaders:    []string{requestIDHeader, "Retry-After"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Health check endpoints (outside /api group, no rate limiting)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
	r.GET("/ready", func(c *gin.Context) {
		if cfg.Ready != nil && !cfg.Ready() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	api := r.Group("/api")
	if cfg.RateLimitRPS > 0 {
		burst := cfg.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		api.Use(RateLimit(NewIPRateLimiter(rate.Limit(cfg.RateLimitRPS), burst)))
	}
	RegisterRoutes(api, store, logger)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorBody("Not found"))
	})

	return r
}
