package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskapp/internal/adapter/http/helper"
	"taskapp/internal/core/port"
	"taskapp/pkg/config"
)

type RateLimitMetrics interface {
	RecordRateLimitHit(ctx context.Context, path, keyType string)
	RecordRateLimitAllowed(ctx context.Context, path, keyType string)
}

// RateLimiter applies fixed-window limits per route. Rules are keyed by
// "METHOD /route" with a "default" fallback.
type RateLimiter struct {
	store   port.RateLimitStore
	rules   map[string]config.RateLimitRule
	logger  *zap.Logger
	metrics RateLimitMetrics
}

func NewRateLimiter(store port.RateLimitStore, rules map[string]config.RateLimitRule, logger *zap.Logger, metrics RateLimitMetrics) *RateLimiter {
	return &RateLimiter{
		store:   store,
		rules:   rules,
		logger:  logger,
		metrics: metrics,
	}
}

func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()

		if path == "" {
			path = c.Request.URL.Path
		}

		route := c.Request.Method + " " + path

		rule, ok := rl.rules[route]
		if !ok {
			rule = rl.rules["default"]
		}

		if rule.Requests <= 0 {
			c.Next()
			return
		}

		identifier, keyType := rl.identify(c, rule)
		key := fmt.Sprintf("%s:%s", route, identifier)

		count, resetAt, err := rl.store.Increment(c.Request.Context(), key, rule.Window)

		if err != nil {
			rl.logger.Error("Rate limit check failed",
				zap.String("key", key),
				zap.Error(err))
			c.Next()
			return
		}

		remaining := int64(rule.Requests) - count
		if remaining < 0 {
			remaining = 0
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rule.Requests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if count > int64(rule.Requests) {
			if rl.metrics != nil {
				rl.metrics.RecordRateLimitHit(c.Request.Context(), path, keyType)
			}

			rl.logger.Warn("Rate limit exceeded",
				zap.String("key", key),
				zap.Int("limit", rule.Requests),
				zap.Duration("window", rule.Window))

			c.Header("Retry-After", strconv.Itoa(int(time.Until(resetAt).Seconds())+1))
			helper.SendTooManyRequests(c, fmt.Sprintf("Too many requests. Limit: %d per %v", rule.Requests, rule.Window))
			return
		}

		if rl.metrics != nil {
			rl.metrics.RecordRateLimitAllowed(c.Request.Context(), path, keyType)
		}

		c.Next()
	}
}

// identify keys authenticated callers by user when the rule asks for it and
// everyone else by client IP. Forwarding headers only count when the engine
// trusts the immediate peer.
func (rl *RateLimiter) identify(c *gin.Context, rule config.RateLimitRule) (string, string) {
	if rule.ByUser {
		if principal := GetPrincipal(c); principal.IsAuthenticated() {
			return "user_" + strconv.FormatInt(principal.UserID, 10), "user"
		}
	}

	return "ip_" + c.ClientIP(), "ip"
}
