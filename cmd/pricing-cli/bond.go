package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/wyfcoding/riskcanvas/internal/pricing/application"
	"github.com/wyfcoding/riskcanvas/internal/pricing/domain"
)

// bondFlags 债券参数
type bondFlags struct {
	coupon, face, maturity, yield float64
	freq                          int
}

func (f *bondFlags) register(cmd *cobra.Command, withYield bool) {
	cmd.Flags().Float64VarP(&f.coupon, "coupon", "c", 0, "annual coupon rate")
	cmd.Flags().Float64VarP(&f.face, "face", "f", 100, "face value")
	cmd.Flags().Float64VarP(&f.maturity, "maturity", "t", 0, "years to maturity")
	cmd.Flags().IntVar(&f.freq, "freq", domain.DefaultPaymentsPerYear, "coupon payments per year")
	if withYield {
		cmd.Flags().Float64VarP(&f.yield, "yield", "y", 0, "annual yield to maturity")
	}
	_ = cmd.MarkFlagRequired("maturity")
}

func (f *bondFlags) params() domain.BondParameters {
	return domain.BondParameters{
		CouponRate:      f.coupon,
		FaceValue:       f.face,
		Maturity:        f.maturity,
		YieldToMaturity: f.yield,
		PaymentsPerYear: f.freq,
	}
}

func (c *cli) bondCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bond",
		Short: "Fixed-coupon bond analytics",
	}
	cmd.AddCommand(c.bondMetricCmd("pv", "Present value", c.svc.BondPresentValue))
	cmd.AddCommand(c.bondMetricCmd("duration", "Macaulay duration in years", c.svc.BondDuration))
	cmd.AddCommand(c.bondMetricCmd("modified-duration", "Modified duration", c.svc.BondModifiedDuration))
	cmd.AddCommand(c.bondMetricCmd("convexity", "Convexity", c.svc.BondConvexity))
	cmd.AddCommand(c.bondMetricCmd("dv01", "Price change for a one basis point yield move", c.svc.BondDV01))
	cmd.AddCommand(c.bondYieldCmd())
	return cmd
}

func (c *cli) bondMetricCmd(use, short string, fn func(context.Context, application.BondCommand) (domain.PricingResult, error)) *cobra.Command {
	var f bondFlags
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := fn(cmd.Context(), application.BondCommand{Params: f.params()})
			if err != nil {
				return err
			}
			return c.printResult(res)
		},
	}
	f.register(cmd, true)
	return cmd
}

func (c *cli) bondYieldCmd() *cobra.Command {
	var (
		f      bondFlags
		target float64
	)
	cmd := &cobra.Command{
		Use:   "yield",
		Short: "Solve the yield to maturity that reproduces a target price",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.svc.BondYield(cmd.Context(), application.BondYieldCommand{Params: f.params(), TargetPrice: target})
			if err != nil {
				return err
			}
			return c.printResult(res)
		},
	}
	f.register(cmd, false)
	cmd.Flags().Float64Var(&target, "target", 0, "observed bond price")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}
