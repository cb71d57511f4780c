// Package grpcclient 提供 gRPC 客户端工厂：连接退避、keepalive、请求超时与重试拦截器
package grpcclient

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/riskcanvas/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// RequestIDMetadataKey 请求 ID 的 metadata 键，与服务端日志拦截器一致
const RequestIDMetadataKey = "x-request-id"

// ClientConfig gRPC 客户端配置
type ClientConfig struct {
	// 目标地址
	Target string
	// 连接超时（秒）
	ConnTimeout int
	// 单次请求超时（秒）
	RequestTimeout int
	// 最大重试次数
	MaxRetries int
	// 重试间隔（毫秒）
	RetryDelay int
	// Keepalive 间隔（秒），0 表示关闭
	KeepaliveInterval int
}

// NewClient 创建 gRPC 客户端连接，连接在首次调用时建立
func NewClient(cfg ClientConfig, extra ...grpc.DialOption) (*grpc.ClientConn, error) {
	if cfg.Target == "" {
		return nil, fmt.Errorf("grpc target is required")
	}

	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(unaryClientInterceptor(cfg)),
	}

	if cfg.ConnTimeout > 0 {
		opts = append(opts, grpc.WithConnectParams(grpc.ConnectParams{
			Backoff: backoff.Config{
				BaseDelay:  100 * time.Millisecond,
				MaxDelay:   time.Duration(cfg.ConnTimeout) * time.Second,
				Multiplier: 1.6,
				Jitter:     0.2,
			},
			MinConnectTimeout: time.Duration(cfg.ConnTimeout) * time.Second,
		}))
	}

	if cfg.KeepaliveInterval > 0 {
		opts = append(opts, grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                time.Duration(cfg.KeepaliveInterval) * time.Second,
			Timeout:             10 * time.Second,
			PermitWithoutStream: true,
		}))
	}

	conn, err := grpc.NewClient(cfg.Target, append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("create grpc client for %s: %w", cfg.Target, err)
	}
	return conn, nil
}

// CheckHealth 调用标准健康检查服务，service 为空时检查整个进程
func CheckHealth(ctx context.Context, conn *grpc.ClientConn, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}

// unaryClientInterceptor 透传请求 ID，附加超时，对可重试错误按固定间隔重试
func unaryClientInterceptor(cfg ClientConfig) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		if requestID := logger.RequestIDFromContext(ctx); requestID != "" {
			ctx = metadata.AppendToOutgoingContext(ctx, RequestIDMetadataKey, requestID)
		}

		start := time.Now()
		var lastErr error
		for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
			lastErr = invokeOnce(ctx, cfg, method, req, reply, cc, invoker, opts...)
			if lastErr == nil {
				logger.Debug(ctx, "gRPC request succeeded", "method", method, "attempts", attempt+1, "duration", time.Since(start))
				return nil
			}
			if !shouldRetry(status.Code(lastErr)) || attempt >= cfg.MaxRetries {
				break
			}

			select {
			case <-time.After(time.Duration(cfg.RetryDelay) * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		logger.Warn(ctx, "gRPC request failed", "method", method, "duration", time.Since(start), "error", lastErr)
		return lastErr
	}
}

func invokeOnce(ctx context.Context, cfg ClientConfig, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
	if cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.RequestTimeout)*time.Second)
		defer cancel()
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

func shouldRetry(code codes.Code) bool {
	switch code {
	case codes.Unavailable, codes.ResourceExhausted:
		return true
	default:
		return false
	}
}
