package domain

import (
	"math"
)

const (
	// 二分法收益率上限的扩展次数
	maxBracketExpansions = 64
)

// BondYield 由目标价格反解到期收益率（年化）
//
// 现值对收益率单调递减，先扩展上界再二分；p.YieldToMaturity 被忽略。
// 以返回的收益率重新定价可在 1e-8 以内复现目标价格。
func BondYield(p BondParameters, targetPrice float64) (float64, error) {
	p.YieldToMaturity = 0
	n, err := p.periods()
	if err != nil {
		return 0, err
	}
	if err := checkFinite("target_price", targetPrice); err != nil {
		return 0, err
	}
	if targetPrice <= 0 {
		return 0, validationError("target_price", "must be positive, got %v", targetPrice)
	}
	if n == 0 {
		return 0, computationError("yield is undefined for a bond with zero maturity")
	}

	freq := float64(p.PaymentsPerYear)
	// 每期收益率下界 -99%
	lo := -0.99 * freq
	if presentValueAt(p, n, lo) < targetPrice {
		return 0, computationError("no yield above %v reproduces price %v", lo, targetPrice)
	}

	hi := 1.0
	for i := 0; presentValueAt(p, n, hi) > targetPrice; i++ {
		if i >= maxBracketExpansions {
			return 0, computationError("no yield below %v reproduces price %v", hi, targetPrice)
		}
		lo = hi
		hi *= 2
	}

	for i := 0; i < solverMaxIterations; i++ {
		mid := 0.5 * (lo + hi)
		if mid == lo || mid == hi {
			break
		}
		if presentValueAt(p, n, mid) > targetPrice {
			lo = mid
		} else {
			hi = mid
		}
	}

	// 取两端中定价误差较小者
	if math.Abs(presentValueAt(p, n, lo)-targetPrice) < math.Abs(presentValueAt(p, n, hi)-targetPrice) {
		return lo, nil
	}
	return hi, nil
}
