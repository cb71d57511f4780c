package domain

import (
	"context"
	"strconv"
	"strings"
)

// ResultCache 定价结果缓存
// 定价是确定性的，相同输入的结果可直接复用；未命中时 found 为 false
type ResultCache interface {
	Get(ctx context.Context, key string) (result *PricingResult, found bool, err error)
	Set(ctx context.Context, key string, result PricingResult) error
}

// OptionResultKey 期权结果的缓存键
func OptionResultKey(metric Metric, p OptionParameters, extra ...float64) string {
	values := []float64{p.Spot, p.Strike, p.Maturity, p.Rate, p.Volatility, p.DividendYield}
	return resultKey(metric, string(p.Type), append(values, extra...))
}

// BondResultKey 债券结果的缓存键
func BondResultKey(metric Metric, p BondParameters, extra ...float64) string {
	values := []float64{p.CouponRate, p.FaceValue, p.Maturity, p.YieldToMaturity}
	return resultKey(metric, strconv.Itoa(p.PaymentsPerYear), append(values, extra...))
}

func resultKey(metric Metric, tag string, values []float64) string {
	var b strings.Builder
	b.WriteString(string(metric))
	b.WriteByte(':')
	b.WriteString(tag)
	for _, v := range values {
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return b.String()
}
