package domain

import (
	"math"
)

// OptionGreeks 计算 Black-Scholes-Merton 希腊字母
//
// 退化情形不做除零运算：
//   - T == 0：Gamma、Vega、Theta、Rho 为 0；严格实值时 Delta 为 +1（看涨）/ -1（看跌），否则为 0
//   - sigma·√T == 0 且 T > 0：Gamma、Vega 为 0；Delta、Theta、Rho 为贴现内在价值的精确导数，远期意义上虚值或平值时为 0
func OptionGreeks(p OptionParameters) (Greeks, error) {
	if err := p.Validate(); err != nil {
		return Greeks{}, err
	}

	if p.Maturity == 0 {
		return expiryGreeks(p)
	}

	divDiscount := math.Exp(-p.DividendYield * p.Maturity)
	fwdSpot := p.Spot * divDiscount
	pvStrike := p.Strike * math.Exp(-p.Rate*p.Maturity)

	if p.degenerate() {
		return finiteGreeks(deterministicGreeks(p, divDiscount, fwdSpot, pvStrike))
	}

	d1, d2 := d1d2(p)
	sqrtT := math.Sqrt(p.Maturity)
	pdf := NormPDF(d1)

	g := Greeks{
		Gamma: divDiscount * pdf / (p.Spot * p.Volatility * sqrtT),
		Vega:  fwdSpot * pdf * sqrtT,
	}
	decay := -fwdSpot * pdf * p.Volatility / (2 * sqrtT)

	switch p.Type {
	case OptionTypeCall:
		g.Delta = divDiscount * NormCDF(d1)
		g.Theta = decay - p.Rate*pvStrike*NormCDF(d2) + p.DividendYield*fwdSpot*NormCDF(d1)
		g.Rho = p.Maturity * pvStrike * NormCDF(d2)
	case OptionTypePut:
		g.Delta = -divDiscount * NormCDF(-d1)
		g.Theta = decay + p.Rate*pvStrike*NormCDF(-d2) - p.DividendYield*fwdSpot*NormCDF(-d1)
		g.Rho = -p.Maturity * pvStrike * NormCDF(-d2)
	default:
		return Greeks{}, unknownOptionType(p.Type)
	}
	return finiteGreeks(g, nil)
}

// finiteGreeks 极端参数下中间量溢出时返回计算错误
func finiteGreeks(g Greeks, err error) (Greeks, error) {
	if err != nil {
		return Greeks{}, err
	}
	for _, v := range []float64{g.Delta, g.Gamma, g.Theta, g.Vega, g.Rho} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Greeks{}, computationError("greeks are not finite for these inputs")
		}
	}
	return g, nil
}

func expiryGreeks(p OptionParameters) (Greeks, error) {
	switch p.Type {
	case OptionTypeCall:
		if p.Spot > p.Strike {
			return Greeks{Delta: 1}, nil
		}
	case OptionTypePut:
		if p.Spot < p.Strike {
			return Greeks{Delta: -1}, nil
		}
	default:
		return Greeks{}, unknownOptionType(p.Type)
	}
	return Greeks{}, nil
}

// deterministicGreeks sigma·√T == 0 时价格为 max(±(S·e^{-qT} - K·e^{-rT}), 0)
func deterministicGreeks(p OptionParameters, divDiscount, fwdSpot, pvStrike float64) (Greeks, error) {
	switch p.Type {
	case OptionTypeCall:
		if fwdSpot > pvStrike {
			return Greeks{
				Delta: divDiscount,
				Theta: p.DividendYield*fwdSpot - p.Rate*pvStrike,
				Rho:   p.Maturity * pvStrike,
			}, nil
		}
	case OptionTypePut:
		if pvStrike > fwdSpot {
			return Greeks{
				Delta: -divDiscount,
				Theta: p.Rate*pvStrike - p.DividendYield*fwdSpot,
				Rho:   -p.Maturity * pvStrike,
			}, nil
		}
	default:
		return Greeks{}, unknownOptionType(p.Type)
	}
	return Greeks{}, nil
}
