package application

import (
	"context"

	"github.com/wyfcoding/riskcanvas/internal/pricing/domain"
)

// BondPricingService 债券定价：现值、久期、凸性、DV01 与到期收益率
type BondPricingService struct {
	exec *executor
}

// newBondPricingService 构造函数
func newBondPricingService(exec *executor) *BondPricingService {
	return &BondPricingService{exec: exec}
}

// BondPresentValue 现值
func (s *BondPricingService) BondPresentValue(ctx context.Context, cmd BondCommand) (domain.PricingResult, error) {
	return s.metric(ctx, domain.MetricBondPresentValue, cmd.Params, domain.BondPresentValue)
}

// BondDuration 麦考利久期（年）
func (s *BondPricingService) BondDuration(ctx context.Context, cmd BondCommand) (domain.PricingResult, error) {
	return s.metric(ctx, domain.MetricBondDuration, cmd.Params, domain.BondDuration)
}

// BondModifiedDuration 修正久期
func (s *BondPricingService) BondModifiedDuration(ctx context.Context, cmd BondCommand) (domain.PricingResult, error) {
	return s.metric(ctx, domain.MetricBondModifiedDuration, cmd.Params, domain.BondModifiedDuration)
}

// BondConvexity 凸性
func (s *BondPricingService) BondConvexity(ctx context.Context, cmd BondCommand) (domain.PricingResult, error) {
	return s.metric(ctx, domain.MetricBondConvexity, cmd.Params, domain.BondConvexity)
}

// BondDV01 收益率变动 1bp 的价格变化
func (s *BondPricingService) BondDV01(ctx context.Context, cmd BondCommand) (domain.PricingResult, error) {
	return s.metric(ctx, domain.MetricBondDV01, cmd.Params, domain.BondDV01)
}

// BondAnalytics 一次返回全部指标，任一指标失败即返回该错误
func (s *BondPricingService) BondAnalytics(ctx context.Context, cmd BondCommand) (BondAnalytics, error) {
	out := BondAnalytics{Params: cmd.Params.WithDefaults()}

	steps := []struct {
		fn   func(context.Context, BondCommand) (domain.PricingResult, error)
		dest *float64
	}{
		{s.BondPresentValue, &out.PresentValue},
		{s.BondDuration, &out.MacaulayDuration},
		{s.BondModifiedDuration, &out.ModifiedDuration},
		{s.BondConvexity, &out.Convexity},
		{s.BondDV01, &out.DV01},
	}
	for _, step := range steps {
		res, err := step.fn(ctx, cmd)
		if err != nil {
			return BondAnalytics{}, err
		}
		*step.dest = res.Value
	}
	return out, nil
}

// BondYield 由目标价格反解到期收益率
func (s *BondPricingService) BondYield(ctx context.Context, cmd BondYieldCommand) (domain.PricingResult, error) {
	p := cmd.Params.WithDefaults()
	p.YieldToMaturity = 0
	return s.exec.run(ctx, job{
		metric:   domain.MetricBondYield,
		validate: p.Validate,
		key:      domain.BondResultKey(domain.MetricBondYield, p, cmd.TargetPrice),
		compute: func() (domain.PricingResult, error) {
			y, err := domain.BondYield(p, cmd.TargetPrice)
			if err != nil {
				return domain.PricingResult{}, err
			}
			solved := p
			solved.YieldToMaturity = y
			return domain.NewSolvedResult(domain.MetricBondYield, y, cmd.TargetPrice, nil, &solved), nil
		},
	})
}

func (s *BondPricingService) metric(ctx context.Context, metric domain.Metric, params domain.BondParameters, fn func(domain.BondParameters) (float64, error)) (domain.PricingResult, error) {
	p := params.WithDefaults()
	return s.exec.run(ctx, job{
		metric:   metric,
		validate: p.Validate,
		key:      domain.BondResultKey(metric, p),
		compute: func() (domain.PricingResult, error) {
			v, err := fn(p)
			if err != nil {
				return domain.PricingResult{}, err
			}
			return domain.NewBondResult(metric, v, p), nil
		},
	})
}
