package application

import (
	"context"
	"errors"
	"time"

	"github.com/wyfcoding/riskcanvas/internal/pricing/domain"
	"github.com/wyfcoding/riskcanvas/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/wyfcoding/riskcanvas/internal/pricing/application"

// 计算结果分类，用作指标标签
const (
	OutcomeOK               = "ok"
	OutcomeValidationError  = "validation_error"
	OutcomeComputationError = "computation_error"
	OutcomeError            = "error"
)

// 缓存查询结果，用作指标标签
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// MetricsRecorder 应用层指标
type MetricsRecorder interface {
	RecordPricing(operation, outcome string, duration time.Duration)
	RecordCacheLookup(result string)
	RecordBatch(size int)
	RecordEvent(eventType string, err error)
}

type nopRecorder struct{}

func (nopRecorder) RecordPricing(string, string, time.Duration) {}
func (nopRecorder) RecordCacheLookup(string)                    {}
func (nopRecorder) RecordBatch(int)                             {}
func (nopRecorder) RecordEvent(string, error)                   {}

// Outcome 错误对应的结果分类
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case domain.IsValidation(err):
		return OutcomeValidationError
	case domain.IsComputation(err):
		return OutcomeComputationError
	default:
		return OutcomeError
	}
}

// ErrorCode 错误对应的对外错误码
func ErrorCode(err error) string {
	switch {
	case domain.IsValidation(err):
		return "VALIDATION_ERROR"
	case domain.IsComputation(err):
		return "COMPUTATION_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}

// job 一次定价：校验、查缓存、计算、写缓存、发布事件
type job struct {
	metric   domain.Metric
	validate func() error
	key      string
	compute  func() (domain.PricingResult, error)
}

// executor 定价流水线，缓存与发布者均可为空
type executor struct {
	cache          domain.ResultCache
	cacheEnabled   bool
	publisher      domain.EventPublisher
	publishEvents  bool
	publishTimeout time.Duration
	metrics        MetricsRecorder
	tracer         trace.Tracer
	now            func() time.Time
}

func newExecutor(opts Options, cache domain.ResultCache, publisher domain.EventPublisher, recorder MetricsRecorder) *executor {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &executor{
		cache:          cache,
		cacheEnabled:   cache != nil,
		publisher:      publisher,
		publishEvents:  opts.PublishEvents && publisher != nil,
		publishTimeout: opts.PublishTimeout,
		metrics:        recorder,
		tracer:         otel.Tracer(tracerName),
		now:            time.Now,
	}
}

func (e *executor) run(ctx context.Context, j job) (domain.PricingResult, error) {
	ctx, span := e.tracer.Start(ctx, "pricing."+string(j.metric), trace.WithAttributes(
		attribute.String("pricing.metric", string(j.metric)),
	))
	defer span.End()

	result, err := e.runTraced(ctx, j)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, Outcome(err))
	}
	return result, err
}

func (e *executor) runTraced(ctx context.Context, j job) (domain.PricingResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.PricingResult{}, err
	}

	start := e.now()
	if j.validate != nil {
		if err := j.validate(); err != nil {
			return domain.PricingResult{}, e.fail(ctx, j.metric, err, start)
		}
	}

	if cached, ok := e.lookup(ctx, j.key); ok {
		return cached, nil
	}

	result, err := j.compute()
	if err != nil {
		return domain.PricingResult{}, e.fail(ctx, j.metric, err, start)
	}
	e.metrics.RecordPricing(string(j.metric), OutcomeOK, e.now().Sub(start))

	e.store(ctx, j.key, result)
	e.publishResult(ctx, result)
	return result, nil
}

func (e *executor) fail(ctx context.Context, metric domain.Metric, err error, start time.Time) error {
	e.metrics.RecordPricing(string(metric), Outcome(err), e.now().Sub(start))
	logger.Debug(ctx, "pricing rejected", "metric", metric, "error", err)

	if e.publishEvents {
		e.publish(ctx, domain.PricingErrorEventType, func(pctx context.Context) error {
			return e.publisher.PublishPricingError(pctx, domain.PricingErrorEvent{
				Metric:     metric,
				ErrorCode:  ErrorCode(err),
				Error:      err.Error(),
				RequestID:  logger.RequestIDFromContext(ctx),
				OccurredOn: e.now(),
			})
		})
	}
	return err
}

func (e *executor) lookup(ctx context.Context, key string) (domain.PricingResult, bool) {
	if !e.cacheEnabled || key == "" {
		return domain.PricingResult{}, false
	}

	cached, found, err := e.cache.Get(ctx, key)
	switch {
	case err != nil:
		e.metrics.RecordCacheLookup(CacheError)
		logger.Warn(ctx, "pricing cache lookup failed", "key", key, "error", err)
		return domain.PricingResult{}, false
	case !found || cached == nil:
		e.metrics.RecordCacheLookup(CacheMiss)
		return domain.PricingResult{}, false
	default:
		e.metrics.RecordCacheLookup(CacheHit)
		return *cached, true
	}
}

func (e *executor) store(ctx context.Context, key string, result domain.PricingResult) {
	if !e.cacheEnabled || key == "" {
		return
	}
	if err := e.cache.Set(ctx, key, result); err != nil {
		logger.Warn(ctx, "pricing cache store failed", "key", key, "error", err)
	}
}

func (e *executor) publishResult(ctx context.Context, result domain.PricingResult) {
	if !e.publishEvents {
		return
	}
	requestID := logger.RequestIDFromContext(ctx)

	switch {
	case result.Option != nil:
		event := domain.OptionPricedEvent{
			Metric:      result.Metric,
			Value:       result.Value,
			Params:      *result.Option,
			Greeks:      result.Greeks,
			TargetPrice: result.TargetPrice,
			RequestID:   requestID,
			OccurredOn:  e.now(),
		}
		e.publish(ctx, domain.OptionPricedEventType, func(pctx context.Context) error {
			return e.publisher.PublishOptionPriced(pctx, event)
		})
	case result.Bond != nil:
		event := domain.BondPricedEvent{
			Metric:      result.Metric,
			Value:       result.Value,
			Params:      *result.Bond,
			TargetPrice: result.TargetPrice,
			RequestID:   requestID,
			OccurredOn:  e.now(),
		}
		e.publish(ctx, domain.BondPricedEventType, func(pctx context.Context) error {
			return e.publisher.PublishBondPriced(pctx, event)
		})
	}
}

// publish 尽力发布：失败仅记录日志与指标，不影响调用方
func (e *executor) publish(ctx context.Context, eventType string, send func(context.Context) error) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.publishTimeout)
	defer cancel()

	err := send(pctx)
	e.metrics.RecordEvent(eventType, err)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn(ctx, "pricing event publish failed", "event_type", eventType, "error", err)
	}
}
