// Package redis 定价结果的 Redis 缓存
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"github.com/wyfcoding/riskcanvas/internal/pricing/domain"
	"github.com/wyfcoding/riskcanvas/pkg/cache"
	"github.com/wyfcoding/riskcanvas/pkg/logger"
)

const (
	resultPrefix = "pricing_result:"
	defaultTTL   = 15 * time.Minute
)

// JSONStore 缓存读写接口，由 pkg/cache.RedisCache 实现
type JSONStore interface {
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, expiration time.Duration) error
}

// BreakerSettings 熔断参数
type BreakerSettings struct {
	// 连续失败多少次后熔断
	ConsecutiveFailures uint32
	// 熔断后多久进入半开状态
	OpenTimeout time.Duration
}

// ResultCache 实现 domain.ResultCache
// Redis 故障时熔断，熔断期间直接返回错误，不再等待网络超时
type ResultCache struct {
	store   JSONStore
	ttl     time.Duration
	breaker *gobreaker.CircuitBreaker
}

// NewResultCache 构造函数，ttl <= 0 时使用默认值
func NewResultCache(store JSONStore, ttl time.Duration, bs BreakerSettings) *ResultCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if bs.ConsecutiveFailures == 0 {
		bs.ConsecutiveFailures = 5
	}
	if bs.OpenTimeout <= 0 {
		bs.OpenTimeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "pricing-result-cache",
		MaxRequests: 1,
		Timeout:     bs.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bs.ConsecutiveFailures
		},
		// 未命中不是故障
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, cache.ErrMiss)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn(context.Background(), "circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &ResultCache{store: store, ttl: ttl, breaker: breaker}
}

// Get 读取缓存结果
func (c *ResultCache) Get(ctx context.Context, key string) (*domain.PricingResult, bool, error) {
	var result domain.PricingResult
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.store.GetJSON(ctx, resultPrefix+key, &result)
	})
	if errors.Is(err, cache.ErrMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &result, true, nil
}

// Set 写入缓存结果
func (c *ResultCache) Set(ctx context.Context, key string, result domain.PricingResult) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.store.SetJSON(ctx, resultPrefix+key, result, c.ttl)
	})
	return err
}

// State 当前熔断状态
func (c *ResultCache) State() gobreaker.State {
	return c.breaker.State()
}
