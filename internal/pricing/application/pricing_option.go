package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/riskcanvas/internal/pricing/domain"
	"github.com/wyfcoding/riskcanvas/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// OptionPricingService 期权定价：价格、希腊字母、隐含波动率与批量定价
type OptionPricingService struct {
	exec             *executor
	batchConcurrency int
	batchMaxSize     int
}

// newOptionPricingService 构造函数
func newOptionPricingService(exec *executor, opts Options) *OptionPricingService {
	return &OptionPricingService{
		exec:             exec,
		batchConcurrency: opts.BatchConcurrency,
		batchMaxSize:     opts.BatchMaxSize,
	}
}

// PriceOption 期权价格
func (s *OptionPricingService) PriceOption(ctx context.Context, cmd PriceOptionCommand) (domain.PricingResult, error) {
	p := cmd.Params
	return s.exec.run(ctx, job{
		metric:   domain.MetricOptionPrice,
		validate: p.Validate,
		key:      domain.OptionResultKey(domain.MetricOptionPrice, p),
		compute: func() (domain.PricingResult, error) {
			price, err := domain.PriceOption(p)
			if err != nil {
				return domain.PricingResult{}, err
			}
			return domain.NewOptionResult(domain.MetricOptionPrice, price, p), nil
		},
	})
}

// OptionGreeks 期权价格与全部希腊字母
func (s *OptionPricingService) OptionGreeks(ctx context.Context, cmd PriceOptionCommand) (domain.PricingResult, error) {
	p := cmd.Params
	return s.exec.run(ctx, job{
		metric:   domain.MetricOptionGreeks,
		validate: p.Validate,
		key:      domain.OptionResultKey(domain.MetricOptionGreeks, p),
		compute: func() (domain.PricingResult, error) {
			return priceWithGreeks(p)
		},
	})
}

// ImpliedVolatility 由目标价格反解波动率
func (s *OptionPricingService) ImpliedVolatility(ctx context.Context, cmd ImpliedVolatilityCommand) (domain.PricingResult, error) {
	p := cmd.Params
	p.Volatility = 0
	return s.exec.run(ctx, job{
		metric:   domain.MetricImpliedVolatility,
		validate: p.Validate,
		key:      domain.OptionResultKey(domain.MetricImpliedVolatility, p, cmd.TargetPrice),
		compute: func() (domain.PricingResult, error) {
			sigma, err := domain.ImpliedVolatility(p, cmd.TargetPrice)
			if err != nil {
				return domain.PricingResult{}, err
			}
			solved := p
			solved.Volatility = sigma
			return domain.NewSolvedResult(domain.MetricImpliedVolatility, sigma, cmd.TargetPrice, &solved, nil), nil
		},
	})
}

// BatchPriceOptions 并发定价一组合约；单个合约失败只记录在对应条目中，不影响其他合约
func (s *OptionPricingService) BatchPriceOptions(ctx context.Context, cmd BatchPriceOptionsCommand) (*BatchPricingResult, error) {
	n := len(cmd.Contracts)
	if n == 0 {
		return nil, domain.NewValidationError("contracts", "must contain at least one contract")
	}
	if n > s.batchMaxSize {
		return nil, domain.NewValidationError("contracts", "at most %d contracts per batch, got %d", s.batchMaxSize, n)
	}

	batchID := cmd.BatchID
	if batchID == "" {
		batchID = uuid.New().String()
	}

	price := s.PriceOption
	if cmd.IncludeGreeks {
		price = s.OptionGreeks
	}

	items := make([]BatchItem, n)
	elapsed := make([]time.Duration, n)

	done := logger.LogDuration(ctx, "batch fan-out finished", "batch_id", batchID, "total", n)
	var g errgroup.Group
	g.SetLimit(s.batchConcurrency)
	for i, contract := range cmd.Contracts {
		g.Go(func() error {
			start := time.Now()
			result, err := price(ctx, PriceOptionCommand{Params: contract})
			elapsed[i] = time.Since(start)
			items[i] = BatchItem{Index: i, Result: result, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	done()

	out := &BatchPricingResult{BatchID: batchID, Items: items}
	var total time.Duration
	for i, item := range items {
		total += elapsed[i]
		if item.Err != nil {
			out.FailureCount++
		} else {
			out.SuccessCount++
		}
	}
	out.AverageTime = total / time.Duration(n)

	s.exec.metrics.RecordBatch(n)
	logger.Info(ctx, "batch pricing completed",
		"batch_id", batchID,
		"total", n,
		"success", out.SuccessCount,
		"failure", out.FailureCount,
	)

	if s.exec.publishEvents {
		event := domain.BatchPricingCompletedEvent{
			BatchID:        batchID,
			TotalContracts: n,
			SuccessCount:   out.SuccessCount,
			FailureCount:   out.FailureCount,
			AverageTime:    out.AverageTime.Seconds(),
			OccurredOn:     s.exec.now(),
		}
		s.exec.publish(ctx, domain.BatchPricingCompletedEventType, func(pctx context.Context) error {
			return s.exec.publisher.PublishBatchPricingCompleted(pctx, event)
		})
	}

	return out, nil
}

func priceWithGreeks(p domain.OptionParameters) (domain.PricingResult, error) {
	price, err := domain.PriceOption(p)
	if err != nil {
		return domain.PricingResult{}, err
	}
	greeks, err := domain.OptionGreeks(p)
	if err != nil {
		return domain.PricingResult{}, err
	}
	return domain.NewGreeksResult(price, greeks, p), nil
}
