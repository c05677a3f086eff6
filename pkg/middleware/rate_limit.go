package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/yeisme/filerelay/pkg/configs"
)

const (
	maxLimiterEntries = 10000
	limiterIdleTTL    = 10 * time.Minute
)

// RateLimitMiddleware 令牌桶限流，key 支持 global、ip、header:<Name>.
// 按键限流时闲置的 limiter 由 LRU 淘汰，SkipPaths 下的请求不计数.
func RateLimitMiddleware(cfg configs.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	keyMode := strings.ToLower(strings.TrimSpace(cfg.Key))
	if keyMode == "global" || keyMode == "" {
		limiter := rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)

		return func(c *gin.Context) {
			if isSkippedPath(c.Request.URL.Path, cfg.SkipPaths) {
				c.Next()
				return
			}

			if !limiter.Allow() {
				tooMany(c)
				return
			}

			c.Next()
		}
	}

	var mu sync.Mutex

	limiters := expirable.NewLRU[string, *rate.Limiter](maxLimiterEntries, nil, limiterIdleTTL)

	get := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		if l, ok := limiters.Get(key); ok {
			return l
		}

		l := rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)
		limiters.Add(key, l)

		return l
	}

	header, byHeader := strings.CutPrefix(keyMode, "header:")

	return func(c *gin.Context) {
		if isSkippedPath(c.Request.URL.Path, cfg.SkipPaths) {
			c.Next()
			return
		}

		key := ""
		if byHeader {
			key = c.GetHeader(header)
		}

		if key == "" {
			key = c.ClientIP()
		}

		if !get(key).Allow() {
			tooMany(c)
			return
		}

		c.Next()
	}
}

func tooMany(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded, please try again later"})
}
