// Package middleware 提供 Gin 与 gRPC 的通用中间件（日志、request id、panic recover、CORS、限流）
package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wyfcoding/riskcanvas/pkg/logger"
	"github.com/wyfcoding/riskcanvas/pkg/response"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// RequestIDHeader 请求 ID 头
const RequestIDHeader = "X-Request-ID"

// HTTPRecorder HTTP 指标记录
type HTTPRecorder interface {
	RecordHTTPRequest(method, path string, statusCode int, duration time.Duration)
}

// GRPCRecorder gRPC 指标记录
type GRPCRecorder interface {
	RecordGRPCRequest(method, code string, duration time.Duration)
}

// GinRequestIDMiddleware 为每个请求分配 request id，沿用客户端传入的 X-Request-ID
func GinRequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(response.RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), requestID))

		c.Next()
	}
}

// GinLoggingMiddleware Gin 日志中间件，recorder 可为 nil
func GinLoggingMiddleware(recorder HTTPRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		duration := time.Since(start)
		statusCode := c.Writer.Status()

		logger.Info(c.Request.Context(), "HTTP request completed",
			"method", method,
			"path", c.Request.URL.Path,
			"status_code", statusCode,
			"client_ip", c.ClientIP(),
			"response_size", c.Writer.Size(),
			"duration", duration,
		)

		if recorder != nil {
			recorder.RecordHTTPRequest(method, path, statusCode, duration)
		}
	}
}

// GinRecoveryMiddleware Gin panic 恢复中间件，返回统一错误结构
func GinRecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error(c.Request.Context(), "HTTP request panicked",
					"path", c.Request.URL.Path,
					"panic", fmt.Sprint(err),
				)
				response.Abort(c, response.CodeInternalError, "internal server error")
			}
		}()
		c.Next()
	}
}

// GinCORSMiddleware Gin CORS 中间件
func GinCORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, Retry-After")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// GRPCLoggingInterceptor gRPC 日志拦截器，recorder 可为 nil
func GRPCLoggingInterceptor(recorder GRPCRecorder) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		requestID := requestIDFromMetadata(ctx)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		ctx = logger.WithRequestID(ctx, requestID)

		start := time.Now()
		resp, err := handler(ctx, req)
		duration := time.Since(start)

		code := status.Code(err)
		if err != nil {
			logger.Error(ctx, "gRPC request failed",
				"method", info.FullMethod,
				"error_code", code.String(),
				"error_message", status.Convert(err).Message(),
				"duration", duration,
			)
		} else {
			logger.Info(ctx, "gRPC request completed",
				"method", info.FullMethod,
				"duration", duration,
			)
		}

		if recorder != nil {
			recorder.RecordGRPCRequest(info.FullMethod, code.String(), duration)
		}
		return resp, err
	}
}

// GRPCRecoveryInterceptor gRPC panic 恢复拦截器，panic 转为 codes.Internal
func GRPCRecoveryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(ctx, "gRPC request panicked",
					"method", info.FullMethod,
					"panic", fmt.Sprint(r),
				)
				err = status.Error(codes.Internal, "internal server error")
			}
		}()
		return handler(ctx, req)
	}
}

func requestIDFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get("x-request-id"); len(values) > 0 {
		return values[0]
	}
	return ""
}
