package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wyfcoding/riskcanvas/internal/pricing/domain"
)

// searchResult 网格扫描结果
type searchResult struct {
	Sigma       float64 `json:"sigma"`
	Price       float64 `json:"price"`
	TargetPrice float64 `json:"target_price"`
}

func (c *cli) searchCmd() *cobra.Command {
	var (
		f                    optionFlags
		target, from, to, st float64
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Scan a volatility grid for the price closest to a target",
		Long: `Scan sigma over [from, to] in fixed steps and report the point whose
price is closest to the target.

Example:
  pricing-cli search -s 40 -k 40 -t 0.25 -r 0.03 --target 2.07 --from 0.2 --to 0.3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := f.params()
			if err != nil {
				return err
			}
			sigma, price, err := domain.SearchVolatility(p, target, from, to, st)
			if err != nil {
				return err
			}

			res := searchResult{Sigma: sigma, Price: price, TargetPrice: target}
			if c.json {
				return c.printJSON(res)
			}
			fmt.Fprintf(c.out, "sigma: %s\nprice: %s\ntarget: %s\n", c.round(sigma), c.round(price), c.round(target))
			return nil
		},
	}
	f.register(cmd, false)
	cmd.Flags().Float64Var(&target, "target", 0, "target option price")
	cmd.Flags().Float64Var(&from, "from", 0.01, "lowest volatility")
	cmd.Flags().Float64Var(&to, "to", 1, "highest volatility")
	cmd.Flags().Float64Var(&st, "step", 0.0001, "grid step")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}
