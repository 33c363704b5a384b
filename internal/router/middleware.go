package router

import (
	"strconv"
	"strings"
	"time"

	"github.com/shipflow-next/internal/cache"
	"github.com/shipflow-next/internal/config"
	"github.com/shipflow-next/internal/http/handlers"
	"github.com/shipflow-next/internal/http/response"
	"github.com/shipflow-next/internal/logger"
	"github.com/shipflow-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestID tags every request with an id for log correlation.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// Recovery converts panics into envelope 500s with a structured log entry.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorw("request_panic",
					"path", c.Request.URL.Path,
					"request_id", c.GetString("request_id"),
					"panic", r)
				response.Internal(c, "internal server error")
			}
		}()
		c.Next()
	}
}

// AccessLog writes one structured line per request.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Infow("http_request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString("request_id"))
	}
}

// CORS applies the configured cross-origin policy.
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && originAllowed(origin, allowedOrigins) {
			c.Header("Access-Control-Allow-Origin", origin)
			if methods != "" {
				c.Header("Access-Control-Allow-Methods", methods)
			}
			if headers != "" {
				c.Header("Access-Control-Allow-Headers", headers)
			}
			if cfg.AllowCredentials {
				c.Header("Access-Control-Allow-Credentials", "true")
			}
			if cfg.MaxAge > 0 {
				c.Header("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
			}
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

func originAllowed(origin string, allowed []string) bool {
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return len(allowed) == 0
}

// ClientAuth verifies the bearer JWT and stores the client in the context.
func ClientAuth(authSvc *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			response.Unauthorized(c, "missing bearer token")
			return
		}
		client, err := authSvc.VerifyToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			return
		}
		c.Set(handlers.ContextClientKey, client)
		c.Next()
	}
}

// RateLimit throttles per-client request rates through redis. With no redis
// the limiter is a pass-through.
func RateLimit(cfg config.APIRateLimitConfig, redisClient *cache.Client) gin.HandlerFunc {
	window := time.Duration(cfg.WindowSeconds) * time.Second
	block := time.Duration(cfg.BlockSeconds) * time.Second
	return func(c *gin.Context) {
		if redisClient == nil || cfg.MaxRequests <= 0 {
			c.Next()
			return
		}
		key := c.ClientIP()
		ctx := c.Request.Context()

		blocked, err := redisClient.IsBlocked(ctx, "ratelimit", "block", key)
		if err == nil && blocked {
			response.TooManyRequests(c, "rate limit exceeded")
			return
		}
		count, err := redisClient.IncrWindow(ctx, window, "ratelimit", "count", key)
		if err != nil {
			// Redis trouble never takes the API down.
			logger.Warnw("rate_limit_unavailable", "error", err)
			c.Next()
			return
		}
		if count > int64(cfg.MaxRequests) {
			if err := redisClient.SetBlock(ctx, block, "ratelimit", "block", key); err != nil {
				logger.Warnw("rate_limit_block_failed", "error", err)
			}
			response.TooManyRequests(c, "rate limit exceeded")
			return
		}
		c.Next()
	}
}
