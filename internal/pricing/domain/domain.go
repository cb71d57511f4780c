// Package domain 定价核心：欧式期权 (Black-Scholes-Merton) 与固定票息债券的解析定价和风险敏感度。
// 包内函数均为纯函数，无状态、无 I/O，可被任意 goroutine 并发调用。
package domain

import (
	"math"
	"strings"
)

// OptionType 期权类型
type OptionType string

const (
	OptionTypeCall OptionType = "CALL" // 看涨期权
	OptionTypePut  OptionType = "PUT"  // 看跌期权
)

// ParseOptionType 解析期权类型，大小写不敏感，仅接受 call / put
func ParseOptionType(s string) (OptionType, error) {
	switch OptionType(strings.ToUpper(strings.TrimSpace(s))) {
	case OptionTypeCall:
		return OptionTypeCall, nil
	case OptionTypePut:
		return OptionTypePut, nil
	default:
		return "", validationError("option_type", "unknown option type %q, expected call or put", s)
	}
}

// Valid 是否为已知的期权类型
func (t OptionType) Valid() bool {
	switch t {
	case OptionTypeCall, OptionTypePut:
		return true
	default:
		return false
	}
}

// OptionParameters 欧式期权定价参数
type OptionParameters struct {
	Spot          float64    `json:"spot"`           // 标的资产价格 S
	Strike        float64    `json:"strike"`         // 执行价格 K
	Maturity      float64    `json:"maturity"`       // 到期时间 T (年)
	Rate          float64    `json:"rate"`           // 无风险利率 r (连续复利)
	Volatility    float64    `json:"volatility"`     // 波动率 sigma
	DividendYield float64    `json:"dividend_yield"` // 连续股息率 q
	Type          OptionType `json:"option_type"`
}

// Validate 校验期权参数，sigma == 0 与 T == 0 为合法的退化输入
func (p OptionParameters) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"spot", p.Spot},
		{"strike", p.Strike},
		{"maturity", p.Maturity},
		{"rate", p.Rate},
		{"volatility", p.Volatility},
		{"dividend_yield", p.DividendYield},
	}
	for _, f := range fields {
		if err := checkFinite(f.name, f.value); err != nil {
			return err
		}
	}

	switch {
	case p.Spot <= 0:
		return validationError("spot", "must be positive, got %v", p.Spot)
	case p.Strike <= 0:
		return validationError("strike", "must be positive, got %v", p.Strike)
	case p.Maturity < 0:
		return validationError("maturity", "must not be negative, got %v", p.Maturity)
	case p.Volatility < 0:
		return validationError("volatility", "must not be negative, got %v", p.Volatility)
	case p.DividendYield < 0:
		return validationError("dividend_yield", "must not be negative, got %v", p.DividendYield)
	}

	if !p.Type.Valid() {
		return validationError("option_type", "unknown option type %q, expected call or put", string(p.Type))
	}
	return nil
}

// degenerate sigma·√T 为 0 时 d1 无定义，包括两者极小导致乘积下溢的情形
func (p OptionParameters) degenerate() bool {
	return p.Volatility*math.Sqrt(p.Maturity) == 0
}

// Greeks 希腊字母
// Vega 与 Rho 以 1.00 (100%) 变动计，Theta 为每年的时间价值衰减 (-dV/dT)
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}
