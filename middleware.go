package main

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	constants "github.com/CodeAndHammer/rootword/internal/constants"
	models "github.com/CodeAndHammer/rootword/internal/models"
	"github.com/CodeAndHammer/rootword/internal/ratelimit"
	util "github.com/CodeAndHammer/rootword/internal/util"
)

const csp = "default-src 'none'; frame-ancestors 'none'; base-uri 'none'"

func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Security-Policy", csp)
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "no-referrer")
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
		}
		c.Next()
	}
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.Request.Header.Get(constants.HeaderRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx := context.WithValue(c.Request.Context(), constants.RequestIDKey, reqID)
		c.Request = c.Request.WithContext(ctx)
		c.Header(constants.HeaderRequestID, reqID)
		c.Next()
	}
}

func requestLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		util.Logger(c.Request.Context()).Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request handled")
	}
}

// rateLimitMiddleware admits at most RATE_LIMIT requests per client per
// fixed window of RATE_WINDOW.
func rateLimitMiddleware(app *models.App) gin.HandlerFunc {
	limit := app.Config.RateLimit
	window := app.Config.RateWindow
	if limit <= 0 {
		limit = ratelimit.DefaultLimit
	}
	if window <= 0 {
		window = ratelimit.DefaultWindow
	}

	return func(c *gin.Context) {
		key := ratelimit.ClientKey(c.Request, app.Config.TrustXFF)
		allowed := app.Limiter.IsAllowed(key, limit, window)

		if app.StatsStore != nil {
			ev := ratelimit.StatsEvent{
				Key:     key,
				Allowed: allowed,
				Method:  c.Request.Method,
				Path:    c.FullPath(),
				At:      app.Clock.Now(),
			}
			if err := app.StatsStore.Record(c.Request.Context(), ev); err != nil {
				util.Logger(c.Request.Context()).Warn().Err(err).Msg("failed to record rate limit decision")
			}
		}

		c.Header(constants.HeaderRateLimitCap, strconv.Itoa(limit))
		c.Header(constants.HeaderRateLimitSpan, window.String())
		if !allowed {
			util.Logger(c.Request.Context()).Info().Str("client", key).Str("path", c.FullPath()).Msg("rate limited")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error: "Too many requests.",
				Code:  constants.ErrorCodeRateLimited,
			})
			return
		}
		c.Next()
	}
}
