package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/wyfcoding/riskcanvas/pkg/grpcclient"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// healthCmd 探测运行中的定价服务，非 SERVING 时返回错误，便于用作容器探针
func (c *cli) healthCmd() *cobra.Command {
	var (
		addr    string
		service string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the serving status of a running pricing service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := grpcclient.NewClient(grpcclient.ClientConfig{
				Target:     addr,
				MaxRetries: 2,
				RetryDelay: 200,
			}, c.dialOpts...)
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			st, err := grpcclient.CheckHealth(ctx, conn, service)
			if err != nil {
				return fmt.Errorf("health check %s: %w", addr, err)
			}

			if c.json {
				if err := c.printJSON(map[string]string{"target": addr, "status": st.String()}); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(c.out, "%s: %s\n", addr, st)
			}
			if st != healthpb.HealthCheckResponse_SERVING {
				return fmt.Errorf("service is %s", st)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:50051", "gRPC address of the pricing service")
	cmd.Flags().StringVar(&service, "service", "", "service name, empty for the whole process")
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Second, "overall timeout")
	return cmd
}
