package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/wyfcoding/riskcanvas/internal/pricing/application"
	"github.com/wyfcoding/riskcanvas/internal/pricing/domain"
	"github.com/wyfcoding/riskcanvas/pkg/logger"
	"google.golang.org/grpc"
)

// cli 各子命令共享的状态
type cli struct {
	out    io.Writer
	svc    *application.PricingService
	json   bool
	places int32
	level  string
	// 测试中注入 bufconn 拨号
	dialOpts []grpc.DialOption
}

func newRootCmd(out io.Writer, dialOpts ...grpc.DialOption) *cobra.Command {
	c := &cli{
		out:      out,
		svc:      application.NewPricingService(application.DefaultOptions(), nil, nil, nil),
		dialOpts: dialOpts,
	}

	root := &cobra.Command{
		Use:           "pricing-cli",
		Short:         "Option and bond pricing from the command line",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetLogger(logger.New(cmd.ErrOrStderr(), logger.Config{Level: c.level, Format: "text"}))
		},
	}
	root.SetOut(out)

	root.PersistentFlags().BoolVar(&c.json, "json", false, "output as JSON")
	root.PersistentFlags().Int32Var(&c.places, "places", 10, "decimal places in text output")
	root.PersistentFlags().StringVar(&c.level, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(c.optionCmd())
	root.AddCommand(c.bondCmd())
	root.AddCommand(c.searchCmd())
	root.AddCommand(c.healthCmd())
	return root
}

func (c *cli) round(v float64) string {
	return decimal.NewFromFloat(v).Round(c.places).String()
}

// printResult 文本模式下每行一个 "名称: 值"
func (c *cli) printResult(res domain.PricingResult) error {
	if c.json {
		return c.printJSON(res)
	}
	fmt.Fprintf(c.out, "%s: %s\n", res.Metric, c.round(res.Value))
	if g := res.Greeks; g != nil {
		for _, kv := range []struct {
			name  string
			value float64
		}{
			{"delta", g.Delta},
			{"gamma", g.Gamma},
			{"theta", g.Theta},
			{"vega", g.Vega},
			{"rho", g.Rho},
		} {
			fmt.Fprintf(c.out, "%s: %s\n", kv.name, c.round(kv.value))
		}
	}
	return nil
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
