package domain

import (
	"math"
)

const (
	// 隐含波动率搜索上限 (500%)
	maxImpliedVolatility = 5.0
	// 波动率收敛精度
	impliedVolTolerance = 1e-12
	// 二分法最大迭代次数
	solverMaxIterations = 300
	// 波动率网格扫描的最大点数
	maxSearchPoints = 1_000_000
)

// ImpliedVolatility 由目标价格反解 Black-Scholes-Merton 波动率
//
// 期权价格对 sigma 单调递增，使用二分法在 [0, 5] 区间搜索；p.Volatility 被忽略。
func ImpliedVolatility(p OptionParameters, targetPrice float64) (float64, error) {
	p.Volatility = 0
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if err := checkFinite("target_price", targetPrice); err != nil {
		return 0, err
	}
	if p.Maturity == 0 {
		return 0, computationError("implied volatility is undefined at zero maturity")
	}

	lower, err := blackScholesPrice(p)
	if err != nil {
		return 0, err
	}
	p.Volatility = maxImpliedVolatility
	upper, err := blackScholesPrice(p)
	if err != nil {
		return 0, err
	}
	if targetPrice < lower || targetPrice > upper {
		return 0, validationError("target_price", "%v is outside the attainable range [%v, %v]", targetPrice, lower, upper)
	}

	lo, hi := 0.0, maxImpliedVolatility
	for i := 0; i < solverMaxIterations && hi-lo > impliedVolTolerance; i++ {
		mid := 0.5 * (lo + hi)
		p.Volatility = mid
		price, err := blackScholesPrice(p)
		if err != nil {
			return 0, err
		}
		if price < targetPrice {
			lo = mid
		} else {
			hi = mid
		}
	}
	return 0.5 * (lo + hi), nil
}

// SearchVolatility 在等距波动率网格上寻找价格最接近目标的点
// 用于参数扫描，步长 step 必须为正；返回的 sigma 与对应价格。
func SearchVolatility(p OptionParameters, targetPrice, from, to, step float64) (float64, float64, error) {
	fields := []struct {
		name  string
		value float64
	}{
		{"target_price", targetPrice},
		{"from", from},
		{"to", to},
	}
	for _, f := range fields {
		if err := checkFinite(f.name, f.value); err != nil {
			return 0, 0, err
		}
	}
	if !(step > 0) || math.IsInf(step, 0) {
		return 0, 0, validationError("step", "must be positive, got %v", step)
	}
	if from < 0 || to < from {
		return 0, 0, validationError("range", "invalid volatility range [%v, %v]", from, to)
	}

	span := (to - from) / step
	if span > maxSearchPoints {
		return 0, 0, validationError("step", "%v yields more than %d grid points over [%v, %v]", step, maxSearchPoints, from, to)
	}

	bestSigma, bestPrice := math.NaN(), math.NaN()
	bestDiff := math.Inf(1)
	steps := int(math.Floor(span + 1e-9))
	for i := 0; i <= steps; i++ {
		p.Volatility = from + float64(i)*step
		price, err := PriceOption(p)
		if err != nil {
			return 0, 0, err
		}
		if diff := math.Abs(price - targetPrice); diff < bestDiff {
			bestSigma, bestPrice, bestDiff = p.Volatility, price, diff
		}
	}
	return bestSigma, bestPrice, nil
}
