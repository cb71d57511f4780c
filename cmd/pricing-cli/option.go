package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/wyfcoding/riskcanvas/internal/pricing/application"
	"github.com/wyfcoding/riskcanvas/internal/pricing/domain"
)

// optionFlags 期权参数
type optionFlags struct {
	spot, strike, maturity, rate, vol, dividend float64
	optionType                                  string
}

func (f *optionFlags) register(cmd *cobra.Command, withVol bool) {
	cmd.Flags().Float64VarP(&f.spot, "spot", "s", 0, "spot price S")
	cmd.Flags().Float64VarP(&f.strike, "strike", "k", 0, "strike price K")
	cmd.Flags().Float64VarP(&f.maturity, "maturity", "t", 0, "time to expiry in years")
	cmd.Flags().Float64VarP(&f.rate, "rate", "r", 0, "continuously compounded risk-free rate")
	cmd.Flags().Float64VarP(&f.dividend, "dividend", "q", 0, "continuous dividend yield")
	cmd.Flags().StringVar(&f.optionType, "type", "call", "option type (call or put)")
	if withVol {
		cmd.Flags().Float64Var(&f.vol, "vol", 0, "volatility sigma")
	}
	_ = cmd.MarkFlagRequired("spot")
	_ = cmd.MarkFlagRequired("strike")
}

func (f *optionFlags) params() (domain.OptionParameters, error) {
	typ, err := domain.ParseOptionType(f.optionType)
	if err != nil {
		return domain.OptionParameters{}, err
	}
	return domain.OptionParameters{
		Spot:          f.spot,
		Strike:        f.strike,
		Maturity:      f.maturity,
		Rate:          f.rate,
		Volatility:    f.vol,
		DividendYield: f.dividend,
		Type:          typ,
	}, nil
}

func (c *cli) optionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "option",
		Short: "European option pricing (Black-Scholes-Merton)",
	}
	cmd.AddCommand(c.optionMetricCmd("price", "Option price", c.svc.PriceOption))
	cmd.AddCommand(c.optionMetricCmd("greeks", "Option price and Greeks", c.svc.OptionGreeks))
	cmd.AddCommand(c.impliedVolCmd())
	return cmd
}

func (c *cli) optionMetricCmd(use, short string, fn func(context.Context, application.PriceOptionCommand) (domain.PricingResult, error)) *cobra.Command {
	var f optionFlags
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := f.params()
			if err != nil {
				return err
			}
			res, err := fn(cmd.Context(), application.PriceOptionCommand{Params: p})
			if err != nil {
				return err
			}
			return c.printResult(res)
		},
	}
	f.register(cmd, true)
	return cmd
}

func (c *cli) impliedVolCmd() *cobra.Command {
	var (
		f      optionFlags
		target float64
	)
	cmd := &cobra.Command{
		Use:   "implied-vol",
		Short: "Solve the volatility that reproduces a target price",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := f.params()
			if err != nil {
				return err
			}
			res, err := c.svc.ImpliedVolatility(cmd.Context(), application.ImpliedVolatilityCommand{Params: p, TargetPrice: target})
			if err != nil {
				return err
			}
			return c.printResult(res)
		},
	}
	f.register(cmd, false)
	cmd.Flags().Float64Var(&target, "target", 0, "observed option price")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}
