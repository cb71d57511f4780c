// Package grpc 定价服务的 gRPC 入口：健康检查与反射
package grpc

import (
	"context"
	"net"

	"github.com/wyfcoding/riskcanvas/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName 健康检查中的服务名
const ServiceName = "riskcanvas.pricing.v1.PricingService"

// Server gRPC 服务端，健康状态跟随进程生命周期
type Server struct {
	srv    *grpc.Server
	health *health.Server
}

// NewServer 创建 gRPC 服务端并注册健康检查与反射，启动前状态为 NOT_SERVING
func NewServer(opts ...grpc.ServerOption) *Server {
	srv := grpc.NewServer(opts...)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	s := &Server{srv: srv, health: hs}
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Serve 标记为 SERVING 并阻塞处理请求
func (s *Server) Serve(lis net.Listener) error {
	s.setStatus(healthpb.HealthCheckResponse_SERVING)
	logger.Info(context.Background(), "gRPC server listening", "addr", lis.Addr().String())
	return s.srv.Serve(lis)
}

// MarkNotServing 停机开始时调用，让负载均衡尽快摘除本实例
func (s *Server) MarkNotServing() {
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
}

// GracefulStop 等待进行中的请求完成后停止
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}

// GRPCServer 底层 *grpc.Server，用于注册其他服务
func (s *Server) GRPCServer() *grpc.Server {
	return s.srv
}

func (s *Server) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
