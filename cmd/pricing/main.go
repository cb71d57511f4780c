// PricingService 主程序
// 功能：欧式期权与固定票息债券的定价和风险指标计算
// 架构：DDD + gin HTTP + gRPC 健康检查 + 可选 Redis 结果缓存与 Kafka 事件
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/wyfcoding/riskcanvas/internal/pricing/application"
	"github.com/wyfcoding/riskcanvas/internal/pricing/domain"
	"github.com/wyfcoding/riskcanvas/internal/pricing/infrastructure/messaging"
	rediscache "github.com/wyfcoding/riskcanvas/internal/pricing/infrastructure/persistence/redis"
	grpcserver "github.com/wyfcoding/riskcanvas/internal/pricing/interfaces/grpc"
	httphandler "github.com/wyfcoding/riskcanvas/internal/pricing/interfaces/http"
	"github.com/wyfcoding/riskcanvas/pkg/cache"
	"github.com/wyfcoding/riskcanvas/pkg/config"
	"github.com/wyfcoding/riskcanvas/pkg/logger"
	"github.com/wyfcoding/riskcanvas/pkg/metrics"
	"github.com/wyfcoding/riskcanvas/pkg/middleware"
	"github.com/wyfcoding/riskcanvas/pkg/mq"
	"github.com/wyfcoding/riskcanvas/pkg/ratelimit"
	"github.com/wyfcoding/riskcanvas/pkg/trace"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

const shutdownTimeout = 10 * time.Second

// dependencies 外部依赖，未启用的组件为 nil 接口
type dependencies struct {
	cache     domain.ResultCache
	publisher domain.EventPublisher
	limiter   ratelimit.RateLimiter
	closers   []func() error
}

func (d *dependencies) close(ctx context.Context) {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			logger.Error(ctx, "Failed to release resource", "error", err)
		}
	}
}

func main() {
	// 1. 加载 .env 与配置
	_ = godotenv.Load()
	configPath := config.GetEnv("PRICING_CONFIG", "configs/pricing/config.toml")
	cfg, err := config.LoadWithDefaults(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	loggerCfg := logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}
	if err := logger.Init(loggerCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "Starting PricingService",
		"service", cfg.ServiceName,
		"version", cfg.Version,
		"environment", cfg.Environment,
	)

	// 3. 初始化追踪
	if cfg.Tracing.Enabled {
		shutdown, err := trace.InitTracer(ctx, cfg.ServiceName, cfg.Version, cfg.Tracing.CollectorEndpoint, cfg.Tracing.SamplingRate)
		if err != nil {
			logger.Error(ctx, "Failed to initialize tracer", "error", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error(ctx, "Failed to shutdown tracer", "error", err)
				}
			}()
			logger.Info(ctx, "Tracer initialized", "endpoint", cfg.Tracing.CollectorEndpoint)
		}
	}

	// 4. 初始化指标
	metricsInstance := metrics.New(cfg.ServiceName)
	if err := metricsInstance.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Fatal(ctx, "Failed to register metrics", "error", err)
	}
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path, prometheus.DefaultGatherer)
	}

	// 5. 初始化 Redis、Kafka 与限流器
	deps, err := buildDependencies(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize dependencies", "error", err)
	}
	defer deps.close(context.Background())

	// 6. 初始化应用服务
	opts := application.DefaultOptions()
	opts.BatchConcurrency = cfg.Pricing.BatchConcurrency
	opts.BatchMaxSize = cfg.Pricing.BatchMaxSize
	opts.PublishEvents = cfg.Pricing.PublishEvents
	pricingService := application.NewPricingService(opts, deps.cache, deps.publisher, metricsInstance)

	// 7. 创建 HTTP 与 gRPC 服务器
	httpServer := createHTTPServer(cfg, pricingService, deps.limiter, metricsInstance)
	grpcServer := createGRPCServer(cfg, deps.limiter, metricsInstance)

	// 8. 启动并等待退出信号
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info(ctx, "Starting HTTP server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		listener, err := net.Listen("tcp", cfg.GRPC.Addr())
		if err != nil {
			return fmt.Errorf("listen grpc: %w", err)
		}
		if err := grpcServer.Serve(listener); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info(ctx, "Shutting down PricingService")
		grpcServer.MarkNotServing()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error(ctx, "HTTP server shutdown error", "error", err)
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error(ctx, "Metrics server shutdown error", "error", err)
			}
		}
		grpcServer.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error(ctx, "PricingService exited with error", "error", err)
	}
	logger.Info(ctx, "PricingService stopped")
}

func buildDependencies(ctx context.Context, cfg *config.Config) (*dependencies, error) {
	deps := &dependencies{}

	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		rc, err := cache.New(ctx, cache.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			MaxPoolSize:  cfg.Redis.MaxPoolSize,
			ConnTimeout:  cfg.Redis.ConnTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			return nil, err
		}
		redisCache = rc
		deps.closers = append(deps.closers, rc.Close)
	}

	if cfg.Pricing.CacheEnabled {
		if redisCache == nil {
			logger.Warn(ctx, "Pricing cache requires Redis, cache disabled")
		} else {
			deps.cache = rediscache.NewResultCache(redisCache, cfg.Pricing.CacheExpiration(), rediscache.BreakerSettings{})
		}
	}

	if redisCache != nil {
		deps.limiter = ratelimit.NewRedisRateLimiter(redisCache.GetClient())
	} else {
		deps.limiter = ratelimit.NewLocalRateLimiter()
	}

	if cfg.Kafka.Enabled {
		producer, err := mq.NewProducer(mq.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			BatchTimeout: cfg.Kafka.BatchTimeout,
		})
		if err != nil {
			deps.close(ctx)
			return nil, err
		}
		deps.closers = append(deps.closers, producer.Close)
		deps.publisher = messaging.NewKafkaEventPublisher(producer)
	} else if cfg.Pricing.PublishEvents {
		logger.Warn(ctx, "Pricing events require Kafka, publishing disabled")
	}

	return deps, nil
}

// createHTTPServer 创建 HTTP 服务器
func createHTTPServer(cfg *config.Config, svc *application.PricingService, limiter ratelimit.RateLimiter, m *metrics.Metrics) *http.Server {
	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.GinRecoveryMiddleware())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(middleware.GinRequestIDMiddleware())
	router.Use(middleware.GinLoggingMiddleware(m))
	router.Use(middleware.GinCORSMiddleware())
	router.Use(middleware.RateLimitMiddleware(limiter, cfg.RateLimit))

	httphandler.NewPricingHandler(svc, cfg.Pricing.DecimalPlaces).RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   cfg.ServiceName,
			"version":   cfg.Version,
			"timestamp": time.Now().Unix(),
		})
	})

	return &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}
}

// createGRPCServer 创建 gRPC 服务器
func createGRPCServer(cfg *config.Config, limiter ratelimit.RateLimiter, m *metrics.Metrics) *grpcserver.Server {
	return grpcserver.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			middleware.GRPCRecoveryInterceptor(),
			middleware.GRPCLoggingInterceptor(m),
			middleware.GRPCRateLimitInterceptor(limiter, cfg.RateLimit),
		),
		grpc.MaxConcurrentStreams(cfg.GRPC.MaxConcurrentStreams),
	)
}
