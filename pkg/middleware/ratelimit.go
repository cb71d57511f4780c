package middleware

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/riskcanvas/pkg/config"
	"github.com/wyfcoding/riskcanvas/pkg/logger"
	"github.com/wyfcoding/riskcanvas/pkg/ratelimit"
	"github.com/wyfcoding/riskcanvas/pkg/response"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

func limitFromConfig(cfg config.RateLimitConfig) ratelimit.Limit {
	return ratelimit.Limit{Rate: cfg.QPS, Period: time.Second, Burst: cfg.Burst}
}

// RateLimitMiddleware 按客户端 IP 限流
func RateLimitMiddleware(limiter ratelimit.RateLimiter, cfg config.RateLimitConfig) gin.HandlerFunc {
	limit := limitFromConfig(cfg)
	return func(c *gin.Context) {
		if !cfg.Enabled || limiter == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:http:%s", c.ClientIP())
		res, err := limiter.Allow(c.Request.Context(), key, limit)
		if err != nil {
			// 限流器故障时放行
			logger.Warn(c.Request.Context(), "Rate limiter unavailable", "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit.Burst))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(res.RetryAfter)))
			response.Abort(c, response.CodeRateLimited, "too many requests")
			return
		}

		c.Next()
	}
}

// retryAfterSeconds 向上取整，至少 1 秒
func retryAfterSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// GRPCRateLimitInterceptor 按对端地址限流
func GRPCRateLimitInterceptor(limiter ratelimit.RateLimiter, cfg config.RateLimitConfig) grpc.UnaryServerInterceptor {
	limit := limitFromConfig(cfg)
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !cfg.Enabled || limiter == nil {
			return handler(ctx, req)
		}

		addr := "unknown"
		if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
			addr = p.Addr.String()
		}

		res, err := limiter.Allow(ctx, "ratelimit:grpc:"+addr, limit)
		if err == nil && !res.Allowed {
			return nil, status.Error(codes.ResourceExhausted, "rate limit exceeded")
		}
		return handler(ctx, req)
	}
}
