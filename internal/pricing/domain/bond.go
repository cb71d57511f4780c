package domain

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	// DefaultPaymentsPerYear 未指定付息频率时按年付息
	DefaultPaymentsPerYear = 1
	// 期数 T * paymentsPerYear 与整数的最大允许偏差
	periodTolerance = 1e-9
	// 期数上限：100 年按日付息
	maxBondPeriods = 36500
	// 一个基点
	basisPoint = 0.0001
)

// BondParameters 固定票息债券参数
type BondParameters struct {
	CouponRate      float64 `json:"coupon_rate"`       // 年票息率
	FaceValue       float64 `json:"face_value"`        // 面值
	Maturity        float64 `json:"maturity"`          // 剩余期限 (年)
	YieldToMaturity float64 `json:"yield_to_maturity"` // 到期收益率 (年化，按付息频率复利)
	PaymentsPerYear int     `json:"payments_per_year"` // 每年付息次数
}

// WithDefaults 付息频率为 0 时补默认值 1，其余字段原样返回
func (p BondParameters) WithDefaults() BondParameters {
	if p.PaymentsPerYear == 0 {
		p.PaymentsPerYear = DefaultPaymentsPerYear
	}
	return p
}

// Validate 校验债券参数
//
// T * paymentsPerYear 必须为整数期数，小数期数不做舍入而是直接拒绝。
func (p BondParameters) Validate() error {
	_, err := p.periods()
	return err
}

// periods 校验并返回总期数 n
func (p BondParameters) periods() (int, error) {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"coupon_rate", p.CouponRate},
		{"face_value", p.FaceValue},
		{"maturity", p.Maturity},
		{"yield_to_maturity", p.YieldToMaturity},
	} {
		if err := checkFinite(f.name, f.value); err != nil {
			return 0, err
		}
	}

	switch {
	case p.FaceValue <= 0:
		return 0, validationError("face_value", "must be positive, got %v", p.FaceValue)
	case p.Maturity < 0:
		return 0, validationError("maturity", "must not be negative, got %v", p.Maturity)
	case p.PaymentsPerYear <= 0:
		return 0, validationError("payments_per_year", "must be a positive integer, got %d", p.PaymentsPerYear)
	case p.CouponRate < 0:
		return 0, validationError("coupon_rate", "must not be negative, got %v", p.CouponRate)
	case p.YieldToMaturity/float64(p.PaymentsPerYear) <= -1:
		return 0, validationError("yield_to_maturity", "per-period yield must be greater than -100%%, got %v", p.YieldToMaturity)
	}

	raw := p.Maturity * float64(p.PaymentsPerYear)
	n := math.Round(raw)
	if math.Abs(raw-n) > periodTolerance {
		return 0, validationError("maturity", "%v years at %d payments per year is a fractional period count %v", p.Maturity, p.PaymentsPerYear, raw)
	}
	if n > maxBondPeriods {
		return 0, validationError("maturity", "%v periods exceeds the limit of %d", n, maxBondPeriods)
	}
	return int(n), nil
}

// cashFlows 第 t 期 (1..n) 的现金流与按 ytm 贴现后的现值
type cashFlows struct {
	periods    []float64 // t
	amounts    []float64 // CF_t
	discounted []float64 // CF_t / (1+y)^t
	perPeriod  float64   // y
	frequency  float64   // paymentsPerYear
}

func newCashFlows(p BondParameters, n int, ytm float64) cashFlows {
	freq := float64(p.PaymentsPerYear)
	coupon := p.CouponRate * p.FaceValue / freq
	y := ytm / freq

	cf := cashFlows{
		periods:    make([]float64, n),
		amounts:    make([]float64, n),
		discounted: make([]float64, n),
		perPeriod:  y,
		frequency:  freq,
	}
	for i := 0; i < n; i++ {
		t := float64(i + 1)
		amount := coupon
		if i == n-1 {
			amount += p.FaceValue
		}
		cf.periods[i] = t
		cf.amounts[i] = amount
		// 零票息的中间期不贴现，避免 0·Inf
		if amount != 0 {
			cf.discounted[i] = amount * math.Pow(1+y, -t)
		}
	}
	return cf
}

func (cf cashFlows) presentValue() float64 {
	return floats.Sum(cf.discounted)
}

// presentValueAt 以给定年化收益率计算现值，假定参数已通过校验
func presentValueAt(p BondParameters, n int, ytm float64) float64 {
	if n == 0 {
		return p.FaceValue
	}
	return newCashFlows(p, n, ytm).presentValue()
}

// BondPresentValue 计算债券现值
//
// 到期期限为 0 时返回面值本身，不贴现也不计票息。
func BondPresentValue(p BondParameters) (float64, error) {
	n, err := p.periods()
	if err != nil {
		return 0, err
	}
	return finiteValue("present value", presentValueAt(p, n, p.YieldToMaturity))
}

// finiteValue 深度负收益率配合长期限时贴现因子会溢出
func finiteValue(metric string, v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, computationError("%s is not finite for these inputs, got %v", metric, v)
	}
	return v, nil
}

// analyticCashFlows 久期与凸性共用的前置检查
func analyticCashFlows(p BondParameters, metric string) (cashFlows, float64, error) {
	n, err := p.periods()
	if err != nil {
		return cashFlows{}, 0, err
	}
	if n == 0 {
		return cashFlows{}, 0, computationError("%s is undefined for a bond with zero maturity", metric)
	}
	cf := newCashFlows(p, n, p.YieldToMaturity)
	pv := cf.presentValue()
	if !(pv > 0) || math.IsInf(pv, 0) {
		return cashFlows{}, 0, computationError("%s is undefined for present value %v", metric, pv)
	}
	return cf, pv, nil
}

// BondDuration 计算麦考利久期（年）
func BondDuration(p BondParameters) (float64, error) {
	cf, pv, err := analyticCashFlows(p, "duration")
	if err != nil {
		return 0, err
	}
	return finiteValue("duration", floats.Dot(cf.periods, cf.discounted)/pv/cf.frequency)
}

// BondModifiedDuration 计算修正久期：麦考利久期 / (1 + y)
func BondModifiedDuration(p BondParameters) (float64, error) {
	macaulay, err := BondDuration(p)
	if err != nil {
		return 0, err
	}
	return macaulay / (1 + p.YieldToMaturity/float64(p.PaymentsPerYear)), nil
}

// BondConvexity 计算凸性 Σ CF_t·t(t+1)/(1+y)^(t+2) / PV，按付息频率平方年化
func BondConvexity(p BondParameters) (float64, error) {
	cf, pv, err := analyticCashFlows(p, "convexity")
	if err != nil {
		return 0, err
	}
	weights := make([]float64, len(cf.periods))
	for i, t := range cf.periods {
		weights[i] = t * (t + 1)
	}
	growth := 1 + cf.perPeriod
	return finiteValue("convexity", floats.Dot(weights, cf.discounted)/(growth*growth)/pv/(cf.frequency*cf.frequency))
}

// BondDV01 收益率平移一个基点时的价格变动
//
// 采用中心差分 (PV(y-1bp) - PV(y+1bp)) / 2，复利方式与现值一致；多头为正值。
func BondDV01(p BondParameters) (float64, error) {
	n, err := p.periods()
	if err != nil {
		return 0, err
	}
	down := p
	down.YieldToMaturity -= basisPoint
	if _, err := down.periods(); err != nil {
		return 0, err
	}
	lower, err := finiteValue("dv01", presentValueAt(p, n, down.YieldToMaturity))
	if err != nil {
		return 0, err
	}
	upper, err := finiteValue("dv01", presentValueAt(p, n, p.YieldToMaturity+basisPoint))
	if err != nil {
		return 0, err
	}
	return (lower - upper) / 2, nil
}
