// Package metrics 提供 Prometheus 指标定义与采集
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wyfcoding/riskcanvas/pkg/logger"
)

const namespace = "riskcanvas"

// Metrics 指标集合
type Metrics struct {
	// HTTP 请求计数
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTP 请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// gRPC 请求计数
	GRPCRequestsTotal *prometheus.CounterVec
	// gRPC 请求耗时
	GRPCRequestDuration *prometheus.HistogramVec

	// 定价计算计数，按 operation/outcome 区分
	PricingOperationsTotal *prometheus.CounterVec
	// 定价计算耗时
	PricingDuration *prometheus.HistogramVec
	// 结果缓存查询，result 为 hit/miss/error
	CacheLookupsTotal *prometheus.CounterVec
	// 批量定价合约数
	BatchSize prometheus.Histogram
	// 事件发布计数
	EventsPublishedTotal *prometheus.CounterVec
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),

		GRPCRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "grpc_requests_total",
			Help:      "Total gRPC requests",
		}, []string{"method", "code"}),
		GRPCRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "grpc_request_duration_seconds",
			Help:      "gRPC request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		PricingOperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "pricing_operations_total",
			Help:      "Total pricing computations",
		}, []string{"operation", "outcome"}),
		PricingDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "pricing_duration_seconds",
			Help:      "Pricing computation duration in seconds",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
		}, []string{"operation"}),
		CacheLookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "cache_lookups_total",
			Help:      "Pricing result cache lookups",
		}, []string{"result"}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "batch_size",
			Help:      "Contracts per batch pricing request",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 6),
		}),
		EventsPublishedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "events_published_total",
			Help:      "Pricing events published",
		}, []string{"event_type", "outcome"}),
	}
}

// Register 注册所有指标
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.GRPCRequestsTotal,
		m.GRPCRequestDuration,
		m.PricingOperationsTotal,
		m.PricingDuration,
		m.CacheLookupsTotal,
		m.BatchSize,
		m.EventsPublishedTotal,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			logger.Error(context.Background(), "Failed to register metric", "error", err)
			return err
		}
	}

	logger.Info(context.Background(), "Metrics registered successfully")
	return nil
}

// StartHTTPServer 启动 Prometheus HTTP 服务器，返回的 server 用于关停
func StartHTTPServer(port int, path string, gatherer prometheus.Gatherer) *http.Server {
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info(context.Background(), "Starting Prometheus HTTP server", "addr", srv.Addr, "path", path)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "Prometheus HTTP server failed", "error", err)
		}
	}()

	return srv
}

// RecordHTTPRequest 记录 HTTP 请求
func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordGRPCRequest 记录 gRPC 请求
func (m *Metrics) RecordGRPCRequest(method, code string, duration time.Duration) {
	m.GRPCRequestsTotal.WithLabelValues(method, code).Inc()
	m.GRPCRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordPricing 记录一次定价计算
func (m *Metrics) RecordPricing(operation, outcome string, duration time.Duration) {
	m.PricingOperationsTotal.WithLabelValues(operation, outcome).Inc()
	m.PricingDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCacheLookup 记录一次缓存查询
func (m *Metrics) RecordCacheLookup(result string) {
	m.CacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordBatch 记录批量定价规模
func (m *Metrics) RecordBatch(size int) {
	m.BatchSize.Observe(float64(size))
}

// RecordEvent 记录事件发布结果
func (m *Metrics) RecordEvent(eventType string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.EventsPublishedTotal.WithLabelValues(eventType, outcome).Inc()
}
