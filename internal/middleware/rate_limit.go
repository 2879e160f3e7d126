package middleware

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/scenariolabs/imagevault/internal/metrics"
	"github.com/scenariolabs/imagevault/internal/ratelimit"
	"github.com/scenariolabs/imagevault/pkg/config"
)

func RateLimitLogin(lim ratelimit.Limiter, cfg *config.Config) gin.HandlerFunc {
	return rateLimitByClientIP(lim, "login", cfg.RateLimit.Login)
}

func RateLimitTempURL(lim ratelimit.Limiter, cfg *config.Config) gin.HandlerFunc {
	return rateLimitByClientIP(lim, "temp_url", cfg.RateLimit.TempURL)
}

func rateLimitByClientIP(lim ratelimit.Limiter, bucketName string, bcfg config.RateLimitBucketConfig) gin.HandlerFunc {
	bucket := ratelimit.Bucket{RequestsPerMinute: bcfg.RequestsPerMinute, BurstSize: bcfg.BurstSize}
	return func(c *gin.Context) {
		if lim == nil || !bucket.Enabled() {
			c.Next()
			return
		}

		dec, err := lim.Allow(c.Request.Context(), bucketName, c.ClientIP(), bucket)
		if err != nil {
			// Fail open to avoid turning Redis hiccups into outages.
			slog.Default().Warn("rate limit check failed", "bucket", bucketName, "err", err)
			c.Next()
			return
		}
		if dec.Allowed {
			c.Next()
			return
		}

		retryAfterSeconds := int(dec.RetryAfter.Seconds())
		if retryAfterSeconds <= 0 {
			retryAfterSeconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
		metrics.RateLimitHitsTotal.WithLabelValues(bucketName).Inc()
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":             "rate limit exceeded",
			"retryAfterSeconds": retryAfterSeconds,
		})
	}
}
