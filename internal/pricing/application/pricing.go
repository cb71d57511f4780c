package application

import (
	"context"
	"time"

	"github.com/wyfcoding/riskcanvas/internal/pricing/domain"
)

// Options 应用层配置
type Options struct {
	// 批量定价并发度
	BatchConcurrency int
	// 单次批量定价的最大合约数
	BatchMaxSize int
	// 是否发布定价事件
	PublishEvents bool
	// 单次事件发布超时
	PublishTimeout time.Duration
}

// DefaultOptions 默认配置
func DefaultOptions() Options {
	return Options{
		BatchConcurrency: 8,
		BatchMaxSize:     1000,
		PublishTimeout:   2 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.BatchConcurrency <= 0 {
		o.BatchConcurrency = d.BatchConcurrency
	}
	if o.BatchMaxSize <= 0 {
		o.BatchMaxSize = d.BatchMaxSize
	}
	if o.PublishTimeout <= 0 {
		o.PublishTimeout = d.PublishTimeout
	}
	return o
}

// PricingService 定价门面服务。
type PricingService struct {
	Option *OptionPricingService
	Bond   *BondPricingService
}

// NewPricingService 构造函数。cache、publisher、recorder 均可为 nil。
func NewPricingService(opts Options, cache domain.ResultCache, publisher domain.EventPublisher, recorder MetricsRecorder) *PricingService {
	opts = opts.withDefaults()
	exec := newExecutor(opts, cache, publisher, recorder)
	return &PricingService{
		Option: newOptionPricingService(exec, opts),
		Bond:   newBondPricingService(exec),
	}
}

// --- Option Facade ---

func (s *PricingService) PriceOption(ctx context.Context, cmd PriceOptionCommand) (domain.PricingResult, error) {
	return s.Option.PriceOption(ctx, cmd)
}

func (s *PricingService) OptionGreeks(ctx context.Context, cmd PriceOptionCommand) (domain.PricingResult, error) {
	return s.Option.OptionGreeks(ctx, cmd)
}

func (s *PricingService) ImpliedVolatility(ctx context.Context, cmd ImpliedVolatilityCommand) (domain.PricingResult, error) {
	return s.Option.ImpliedVolatility(ctx, cmd)
}

func (s *PricingService) BatchPriceOptions(ctx context.Context, cmd BatchPriceOptionsCommand) (*BatchPricingResult, error) {
	return s.Option.BatchPriceOptions(ctx, cmd)
}

// --- Bond Facade ---

func (s *PricingService) BondPresentValue(ctx context.Context, cmd BondCommand) (domain.PricingResult, error) {
	return s.Bond.BondPresentValue(ctx, cmd)
}

func (s *PricingService) BondDuration(ctx context.Context, cmd BondCommand) (domain.PricingResult, error) {
	return s.Bond.BondDuration(ctx, cmd)
}

func (s *PricingService) BondModifiedDuration(ctx context.Context, cmd BondCommand) (domain.PricingResult, error) {
	return s.Bond.BondModifiedDuration(ctx, cmd)
}

func (s *PricingService) BondConvexity(ctx context.Context, cmd BondCommand) (domain.PricingResult, error) {
	return s.Bond.BondConvexity(ctx, cmd)
}

func (s *PricingService) BondDV01(ctx context.Context, cmd BondCommand) (domain.PricingResult, error) {
	return s.Bond.BondDV01(ctx, cmd)
}

func (s *PricingService) BondAnalytics(ctx context.Context, cmd BondCommand) (BondAnalytics, error) {
	return s.Bond.BondAnalytics(ctx, cmd)
}

func (s *PricingService) BondYield(ctx context.Context, cmd BondYieldCommand) (domain.PricingResult, error) {
	return s.Bond.BondYield(ctx, cmd)
}
