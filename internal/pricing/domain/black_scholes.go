package domain

import (
	"math"
)

// PriceOption 计算欧式期权的 Black-Scholes-Merton 公允价值（含连续股息率）
//
// sigma == 0 或 T == 0 时直接返回贴现后的内在价值，不调用 N(x)。
func PriceOption(p OptionParameters) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	return blackScholesPrice(p)
}

// blackScholesPrice 假定参数已通过校验；溢出导致的非有限价格返回计算错误
func blackScholesPrice(p OptionParameters) (float64, error) {
	price, err := bsmPrice(p)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, computationError("option price is not finite for these inputs, got %v", price)
	}
	return price, nil
}

func bsmPrice(p OptionParameters) (float64, error) {
	fwdSpot := p.Spot * math.Exp(-p.DividendYield*p.Maturity)
	pvStrike := p.Strike * math.Exp(-p.Rate*p.Maturity)

	if p.degenerate() {
		switch p.Type {
		case OptionTypeCall:
			return math.Max(fwdSpot-pvStrike, 0), nil
		case OptionTypePut:
			return math.Max(pvStrike-fwdSpot, 0), nil
		default:
			return 0, unknownOptionType(p.Type)
		}
	}

	d1, d2 := d1d2(p)

	var price float64
	switch p.Type {
	case OptionTypeCall:
		price = fwdSpot*NormCDF(d1) - pvStrike*NormCDF(d2)
	case OptionTypePut:
		price = pvStrike*NormCDF(-d2) - fwdSpot*NormCDF(-d1)
	default:
		return 0, unknownOptionType(p.Type)
	}

	// 深度虚值时舍入误差可能产生 -1e-17 量级的负值
	return math.Max(price, 0), nil
}

// d1d2 仅在 sigma·√T > 0 时调用
func d1d2(p OptionParameters) (float64, float64) {
	volSqrtT := p.Volatility * math.Sqrt(p.Maturity)
	d1 := (math.Log(p.Spot/p.Strike) + (p.Rate-p.DividendYield+0.5*p.Volatility*p.Volatility)*p.Maturity) / volSqrtT
	return d1, d1 - volSqrtT
}

func unknownOptionType(t OptionType) error {
	return validationError("option_type", "unknown option type %q, expected call or put", string(t))
}
