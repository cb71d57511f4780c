package application

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wyfcoding/riskcanvas/internal/pricing/domain"
	"github.com/wyfcoding/riskcanvas/pkg/logger"
)

type fakeCache struct {
	mu       sync.Mutex
	data     map[string]domain.PricingResult
	getErr   error
	gets     int
	sets     int
	delay    time.Duration
	inFlight int
	peak     int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]domain.PricingResult)}
}

func (c *fakeCache) Get(_ context.Context, key string) (*domain.PricingResult, bool, error) {
	c.mu.Lock()
	c.gets++
	c.inFlight++
	if c.inFlight > c.peak {
		c.peak = c.inFlight
	}
	c.mu.Unlock()

	if c.delay > 0 {
		time.Sleep(c.delay)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight--
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	r, ok := c.data[key]
	if !ok {
		return nil, false, nil
	}
	return &r, true, nil
}

func (c *fakeCache) Set(_ context.Context, key string, result domain.PricingResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.data[key] = result
	return nil
}

type fakePublisher struct {
	mu      sync.Mutex
	err     error
	options []domain.OptionPricedEvent
	bonds   []domain.BondPricedEvent
	errors  []domain.PricingErrorEvent
	batches []domain.BatchPricingCompletedEvent
}

func (p *fakePublisher) PublishOptionPriced(_ context.Context, e domain.OptionPricedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.options = append(p.options, e)
	return p.err
}

func (p *fakePublisher) PublishBondPriced(_ context.Context, e domain.BondPricedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bonds = append(p.bonds, e)
	return p.err
}

func (p *fakePublisher) PublishPricingError(_ context.Context, e domain.PricingErrorEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errors = append(p.errors, e)
	return p.err
}

func (p *fakePublisher) PublishBatchPricingCompleted(_ context.Context, e domain.BatchPricingCompletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, e)
	return p.err
}

type fakeRecorder struct {
	mu      sync.Mutex
	pricing map[string]int
	cache   map[string]int
	events  map[string]int
	batches []int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{pricing: map[string]int{}, cache: map[string]int{}, events: map[string]int{}}
}

func (r *fakeRecorder) RecordPricing(operation, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pricing[operation+"/"+outcome]++
}

func (r *fakeRecorder) RecordCacheLookup(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[result]++
}

func (r *fakeRecorder) RecordBatch(size int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, size)
}

func (r *fakeRecorder) RecordEvent(eventType string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		eventType += "/error"
	}
	r.events[eventType]++
}

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func atmCall() domain.OptionParameters {
	return domain.OptionParameters{Spot: 100, Strike: 100, Maturity: 1, Rate: 0.05, Volatility: 0.2, Type: domain.OptionTypeCall}
}

type fixture struct {
	svc       *PricingService
	cache     *fakeCache
	publisher *fakePublisher
	recorder  *fakeRecorder
}

func newFixture(opts Options) fixture {
	f := fixture{cache: newFakeCache(), publisher: &fakePublisher{}, recorder: newFakeRecorder()}
	opts.PublishEvents = true
	f.svc = NewPricingService(opts, f.cache, f.publisher, f.recorder)
	return f
}

func TestPriceOption(t *testing.T) {
	f := newFixture(Options{})
	ctx := logger.WithRequestID(context.Background(), "req-1")

	res, err := f.svc.PriceOption(ctx, PriceOptionCommand{Params: atmCall()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(res.Value, 10.450583572185565, 1e-9) {
		t.Fatalf("price: got=%v", res.Value)
	}
	if res.Metric != domain.MetricOptionPrice || res.Option == nil || *res.Option != atmCall() {
		t.Fatalf("result must carry the inputs: %+v", res)
	}

	if f.recorder.pricing["option_price/ok"] != 1 || f.recorder.cache[CacheMiss] != 1 {
		t.Fatalf("metrics: pricing=%v cache=%v", f.recorder.pricing, f.recorder.cache)
	}
	if f.cache.sets != 1 {
		t.Fatalf("result must be cached, sets=%d", f.cache.sets)
	}
	if len(f.publisher.options) != 1 || f.publisher.options[0].RequestID != "req-1" {
		t.Fatalf("option priced event: %+v", f.publisher.options)
	}
}

func TestPriceOption_CacheHit(t *testing.T) {
	f := newFixture(Options{})
	p := atmCall()
	f.cache.data[domain.OptionResultKey(domain.MetricOptionPrice, p)] = domain.NewOptionResult(domain.MetricOptionPrice, 42, p)

	res, err := f.svc.PriceOption(context.Background(), PriceOptionCommand{Params: p})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Value != 42 {
		t.Fatalf("cached value expected, got %v", res.Value)
	}
	if f.recorder.cache[CacheHit] != 1 || len(f.recorder.pricing) != 0 {
		t.Fatalf("cache hit must skip computation: cache=%v pricing=%v", f.recorder.cache, f.recorder.pricing)
	}
	if len(f.publisher.options) != 0 {
		t.Fatalf("cache hit must not publish")
	}
}

func TestPriceOption_CacheFailureStillComputes(t *testing.T) {
	f := newFixture(Options{})
	f.cache.getErr = errors.New("redis down")

	res, err := f.svc.PriceOption(context.Background(), PriceOptionCommand{Params: atmCall()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(res.Value, 10.450583572185565, 1e-9) {
		t.Fatalf("price: got=%v", res.Value)
	}
	if f.recorder.cache[CacheError] != 1 {
		t.Fatalf("cache error must be recorded: %v", f.recorder.cache)
	}
}

func TestPriceOption_ValidationError(t *testing.T) {
	f := newFixture(Options{})
	p := atmCall()
	p.Strike = -1

	_, err := f.svc.PriceOption(context.Background(), PriceOptionCommand{Params: p})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.cache.gets != 0 {
		t.Fatalf("invalid input must not reach the cache")
	}
	if f.recorder.pricing["option_price/validation_error"] != 1 {
		t.Fatalf("metrics: %v", f.recorder.pricing)
	}
	if len(f.publisher.errors) != 1 || f.publisher.errors[0].ErrorCode != "VALIDATION_ERROR" {
		t.Fatalf("error event: %+v", f.publisher.errors)
	}
}

func TestPriceOption_PublishFailureIsNotReturned(t *testing.T) {
	f := newFixture(Options{})
	f.publisher.err = errors.New("kafka down")

	if _, err := f.svc.PriceOption(context.Background(), PriceOptionCommand{Params: atmCall()}); err != nil {
		t.Fatalf("publish failure must not fail pricing: %v", err)
	}
	if f.recorder.events[domain.OptionPricedEventType+"/error"] != 1 {
		t.Fatalf("failed publish must be recorded: %v", f.recorder.events)
	}
}

func TestPriceOption_EventsDisabled(t *testing.T) {
	publisher := &fakePublisher{}
	svc := NewPricingService(Options{}, nil, publisher, nil)

	if _, err := svc.PriceOption(context.Background(), PriceOptionCommand{Params: atmCall()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(publisher.options) != 0 {
		t.Fatalf("events must not be published when disabled")
	}
}

func TestPriceOption_CancelledContext(t *testing.T) {
	f := newFixture(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.svc.PriceOption(ctx, PriceOptionCommand{Params: atmCall()}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestOptionGreeks(t *testing.T) {
	f := newFixture(Options{})

	res, err := f.svc.OptionGreeks(context.Background(), PriceOptionCommand{Params: atmCall()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Greeks == nil || !almostEqual(res.Greeks.Delta, 0.6368306511756191, 1e-9) {
		t.Fatalf("greeks: %+v", res.Greeks)
	}
	if !almostEqual(res.Value, 10.450583572185565, 1e-9) {
		t.Fatalf("greeks result carries the price, got %v", res.Value)
	}
	if len(f.publisher.options) != 1 || f.publisher.options[0].Greeks == nil {
		t.Fatalf("event must carry greeks: %+v", f.publisher.options)
	}
}

func TestImpliedVolatility(t *testing.T) {
	f := newFixture(Options{})
	p := domain.OptionParameters{Spot: 40, Strike: 40, Maturity: 0.25, Rate: 0.03, Volatility: 0.9, Type: domain.OptionTypeCall}

	res, err := f.svc.ImpliedVolatility(context.Background(), ImpliedVolatilityCommand{Params: p, TargetPrice: 2.07})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Value < 0.24 || res.Value > 0.243 {
		t.Fatalf("implied vol: got=%v", res.Value)
	}
	if res.TargetPrice != 2.07 || res.Option == nil || res.Option.Volatility != res.Value {
		t.Fatalf("solved result: %+v", res)
	}

	_, err = f.svc.ImpliedVolatility(context.Background(), ImpliedVolatilityCommand{Params: p, TargetPrice: 50})
	if !domain.IsValidation(err) {
		t.Fatalf("target above spot: expected validation error, got %v", err)
	}
}

func TestBatchPriceOptions(t *testing.T) {
	f := newFixture(Options{BatchConcurrency: 3})
	invalid := atmCall()
	invalid.Spot = 0
	put := atmCall()
	put.Type = domain.OptionTypePut

	res, err := f.svc.BatchPriceOptions(context.Background(), BatchPriceOptionsCommand{
		BatchID:   "batch-1",
		Contracts: []domain.OptionParameters{atmCall(), invalid, put},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.BatchID != "batch-1" || res.SuccessCount != 2 || res.FailureCount != 1 {
		t.Fatalf("summary: %+v", res)
	}
	if len(res.Items) != 3 {
		t.Fatalf("items: %d", len(res.Items))
	}
	for i, item := range res.Items {
		if item.Index != i {
			t.Fatalf("item order: %d at %d", item.Index, i)
		}
	}
	if !almostEqual(res.Items[0].Result.Value, 10.450583572185565, 1e-9) {
		t.Fatalf("call: %v", res.Items[0].Result.Value)
	}
	if !domain.IsValidation(res.Items[1].Err) {
		t.Fatalf("invalid item: %v", res.Items[1].Err)
	}
	if !almostEqual(res.Items[2].Result.Value, 5.573526022256971, 1e-9) {
		t.Fatalf("put: %v", res.Items[2].Result.Value)
	}

	if len(f.publisher.batches) != 1 || f.publisher.batches[0].SuccessCount != 2 {
		t.Fatalf("batch event: %+v", f.publisher.batches)
	}
	if len(f.recorder.batches) != 1 || f.recorder.batches[0] != 3 {
		t.Fatalf("batch size metric: %v", f.recorder.batches)
	}
}

func TestBatchPriceOptions_LogsFanOutDuration(t *testing.T) {
	var buf bytes.Buffer
	prev := logger.Get()
	logger.SetLogger(logger.New(&buf, logger.Config{Level: "debug", Format: "json"}))
	t.Cleanup(func() { logger.SetLogger(prev) })

	f := newFixture(Options{})
	if _, err := f.svc.BatchPriceOptions(context.Background(), BatchPriceOptionsCommand{
		BatchID:   "batch-log",
		Contracts: []domain.OptionParameters{atmCall()},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), `"msg":"batch fan-out finished"`) || !strings.Contains(buf.String(), `"batch_id":"batch-log"`) {
		t.Fatalf("fan-out duration not logged: %s", buf.String())
	}
}

func TestBatchPriceOptions_IncludeGreeksAndGeneratedID(t *testing.T) {
	f := newFixture(Options{})

	res, err := f.svc.BatchPriceOptions(context.Background(), BatchPriceOptionsCommand{
		Contracts:     []domain.OptionParameters{atmCall()},
		IncludeGreeks: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.BatchID == "" {
		t.Fatalf("batch id must be generated")
	}
	if res.Items[0].Result.Greeks == nil {
		t.Fatalf("greeks requested but missing")
	}
}

func TestBatchPriceOptions_Limits(t *testing.T) {
	f := newFixture(Options{BatchMaxSize: 2})

	if _, err := f.svc.BatchPriceOptions(context.Background(), BatchPriceOptionsCommand{}); !domain.IsValidation(err) {
		t.Fatalf("empty batch: expected validation error, got %v", err)
	}

	contracts := []domain.OptionParameters{atmCall(), atmCall(), atmCall()}
	if _, err := f.svc.BatchPriceOptions(context.Background(), BatchPriceOptionsCommand{Contracts: contracts}); !domain.IsValidation(err) {
		t.Fatalf("oversized batch: expected validation error, got %v", err)
	}
}

func TestBatchPriceOptions_BoundedConcurrency(t *testing.T) {
	f := newFixture(Options{BatchConcurrency: 2})
	f.cache.delay = 5 * time.Millisecond

	contracts := make([]domain.OptionParameters, 10)
	for i := range contracts {
		contracts[i] = atmCall()
		contracts[i].Strike = 90 + float64(i)
	}

	res, err := f.svc.BatchPriceOptions(context.Background(), BatchPriceOptionsCommand{Contracts: contracts})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.SuccessCount != 10 {
		t.Fatalf("success count: %d", res.SuccessCount)
	}
	if f.cache.peak > 2 {
		t.Fatalf("concurrency limit exceeded: peak=%d", f.cache.peak)
	}
}

func TestBondOperations(t *testing.T) {
	f := newFixture(Options{})
	ctx := context.Background()
	cmd := BondCommand{Params: domain.BondParameters{CouponRate: 0.05, FaceValue: 1000, Maturity: 3, YieldToMaturity: 0.06}}

	tests := []struct {
		name string
		fn   func(context.Context, BondCommand) (domain.PricingResult, error)
		want float64
	}{
		{"present value", f.svc.BondPresentValue, 973.2698805053835},
		{"duration", f.svc.BondDuration, 2.857347435255957},
		{"modified duration", f.svc.BondModifiedDuration, 2.857347435255957 / 1.06},
		{"convexity", f.svc.BondConvexity, 10.004463510502209},
		{"dv01", f.svc.BondDV01, 0.2623556865414116},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.fn(ctx, cmd)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !almostEqual(res.Value, tt.want, 1e-9) {
				t.Fatalf("got=%v want=%v", res.Value, tt.want)
			}
			if res.Bond == nil || res.Bond.PaymentsPerYear != domain.DefaultPaymentsPerYear {
				t.Fatalf("default frequency must be recorded: %+v", res.Bond)
			}
		})
	}

	if len(f.publisher.bonds) != len(tests) {
		t.Fatalf("bond events: %d", len(f.publisher.bonds))
	}
}

func TestBondAnalytics(t *testing.T) {
	f := newFixture(Options{})
	cmd := BondCommand{Params: domain.BondParameters{CouponRate: 0.06, FaceValue: 1000, Maturity: 10, YieldToMaturity: 0.05, PaymentsPerYear: 2}}

	a, err := f.svc.BondAnalytics(context.Background(), cmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(a.PresentValue, 1077.9458114282354, 1e-9) ||
		!almostEqual(a.MacaulayDuration, 7.761793618242712, 1e-9) ||
		!almostEqual(a.ModifiedDuration, 7.761793618242712/1.025, 1e-9) ||
		!almostEqual(a.Convexity, 70.64948799435304, 1e-9) {
		t.Fatalf("analytics: %+v", a)
	}
	if a.DV01 <= 0 {
		t.Fatalf("dv01 must be positive: %v", a.DV01)
	}

	cmd.Params.Maturity = 0
	if _, err := f.svc.BondAnalytics(context.Background(), cmd); !domain.IsComputation(err) {
		t.Fatalf("zero maturity: expected computation error, got %v", err)
	}
}

func TestBondYield(t *testing.T) {
	f := newFixture(Options{})
	params := domain.BondParameters{CouponRate: 0.06, FaceValue: 1000, Maturity: 10, PaymentsPerYear: 2}

	res, err := f.svc.BondYield(context.Background(), BondYieldCommand{Params: params, TargetPrice: 1077.9458114282354})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(res.Value, 0.05, 1e-9) {
		t.Fatalf("yield: got=%v", res.Value)
	}
	if res.Bond == nil || res.Bond.YieldToMaturity != res.Value || res.TargetPrice != 1077.9458114282354 {
		t.Fatalf("solved result: %+v", res)
	}
}

func TestOutcomeAndErrorCode(t *testing.T) {
	p := atmCall()
	p.Volatility = -1
	_, verr := domain.PriceOption(p)
	_, cerr := domain.BondDuration(domain.BondParameters{FaceValue: 100, PaymentsPerYear: 1})

	tests := []struct {
		err     error
		outcome string
		code    string
	}{
		{verr, OutcomeValidationError, "VALIDATION_ERROR"},
		{cerr, OutcomeComputationError, "COMPUTATION_ERROR"},
		{errors.New("other"), OutcomeError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		if got := Outcome(tt.err); got != tt.outcome {
			t.Errorf("Outcome(%v) = %s, want %s", tt.err, got, tt.outcome)
		}
		if got := ErrorCode(tt.err); got != tt.code {
			t.Errorf("ErrorCode(%v) = %s, want %s", tt.err, got, tt.code)
		}
	}
	if Outcome(nil) != OutcomeOK {
		t.Errorf("nil error must be ok")
	}
}
