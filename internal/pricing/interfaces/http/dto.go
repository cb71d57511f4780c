package http

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/riskcanvas/internal/pricing/application"
	"github.com/wyfcoding/riskcanvas/internal/pricing/domain"
)

// OptionRequest 期权定价请求，sigma 与 T 允许为 0
type OptionRequest struct {
	Spot          float64 `json:"spot"`
	Strike        float64 `json:"strike"`
	Maturity      float64 `json:"maturity"`
	Rate          float64 `json:"rate"`
	Volatility    float64 `json:"volatility"`
	DividendYield float64 `json:"dividend_yield"`
	OptionType    string  `json:"option_type" binding:"required"`
}

func (r OptionRequest) params() (domain.OptionParameters, error) {
	if _, err := domain.ParseOptionType(r.OptionType); err != nil {
		return domain.OptionParameters{}, err
	}
	return r.contract(), nil
}

// contract 不校验期权类型，非法值留给定价流水线报告
func (r OptionRequest) contract() domain.OptionParameters {
	return domain.OptionParameters{
		Spot:          r.Spot,
		Strike:        r.Strike,
		Maturity:      r.Maturity,
		Rate:          r.Rate,
		Volatility:    r.Volatility,
		DividendYield: r.DividendYield,
		Type:          domain.OptionType(strings.ToUpper(strings.TrimSpace(r.OptionType))),
	}
}

// ImpliedVolatilityRequest 隐含波动率请求，volatility 字段被忽略
type ImpliedVolatilityRequest struct {
	OptionRequest
	TargetPrice float64 `json:"target_price"`
}

// BatchRequest 批量定价请求
type BatchRequest struct {
	BatchID       string          `json:"batch_id"`
	Contracts     []OptionRequest `json:"contracts" binding:"required,dive"`
	IncludeGreeks bool            `json:"include_greeks"`
}

// BondRequest 债券指标请求，payments_per_year 缺省为 1
type BondRequest struct {
	CouponRate      float64 `json:"coupon_rate"`
	FaceValue       float64 `json:"face_value"`
	Maturity        float64 `json:"maturity"`
	YieldToMaturity float64 `json:"yield_to_maturity"`
	PaymentsPerYear int     `json:"payments_per_year"`
}

func (r BondRequest) params() domain.BondParameters {
	return domain.BondParameters{
		CouponRate:      r.CouponRate,
		FaceValue:       r.FaceValue,
		Maturity:        r.Maturity,
		YieldToMaturity: r.YieldToMaturity,
		PaymentsPerYear: r.PaymentsPerYear,
	}
}

// BondYieldRequest 到期收益率请求，yield_to_maturity 字段被忽略
type BondYieldRequest struct {
	BondRequest
	TargetPrice float64 `json:"target_price"`
}

// GreeksResponse 希腊字母
type GreeksResponse struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// ResultResponse 单项计算结果，附带产生该结果的输入
type ResultResponse struct {
	Metric      string                   `json:"metric"`
	Value       float64                  `json:"value"`
	Greeks      *GreeksResponse          `json:"greeks,omitempty"`
	TargetPrice float64                  `json:"target_price,omitempty"`
	Option      *domain.OptionParameters `json:"option,omitempty"`
	Bond        *domain.BondParameters   `json:"bond,omitempty"`
}

// BatchItemResponse 批量结果中的一项，失败时只有错误字段
type BatchItemResponse struct {
	Index     int             `json:"index"`
	Result    *ResultResponse `json:"result,omitempty"`
	ErrorCode string          `json:"error_code,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// BatchResponse 批量定价结果
type BatchResponse struct {
	BatchID       string              `json:"batch_id"`
	SuccessCount  int                 `json:"success_count"`
	FailureCount  int                 `json:"failure_count"`
	AverageTimeMs float64             `json:"average_time_ms"`
	Items         []BatchItemResponse `json:"items"`
}

// BondAnalyticsResponse 债券全部指标
type BondAnalyticsResponse struct {
	Bond             domain.BondParameters `json:"bond"`
	PresentValue     float64               `json:"present_value"`
	MacaulayDuration float64               `json:"macaulay_duration"`
	ModifiedDuration float64               `json:"modified_duration"`
	Convexity        float64               `json:"convexity"`
	DV01             float64               `json:"dv01"`
}

// renderer 按固定小数位输出数值
type renderer struct {
	places int32
}

func (r renderer) round(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(r.places).InexactFloat64()
}

func (r renderer) result(res domain.PricingResult) *ResultResponse {
	out := &ResultResponse{
		Metric:      string(res.Metric),
		Value:       r.round(res.Value),
		TargetPrice: res.TargetPrice,
		Option:      res.Option,
		Bond:        res.Bond,
	}
	if res.Greeks != nil {
		out.Greeks = &GreeksResponse{
			Delta: r.round(res.Greeks.Delta),
			Gamma: r.round(res.Greeks.Gamma),
			Theta: r.round(res.Greeks.Theta),
			Vega:  r.round(res.Greeks.Vega),
			Rho:   r.round(res.Greeks.Rho),
		}
	}
	return out
}

func (r renderer) batch(res *application.BatchPricingResult) BatchResponse {
	out := BatchResponse{
		BatchID:       res.BatchID,
		SuccessCount:  res.SuccessCount,
		FailureCount:  res.FailureCount,
		AverageTimeMs: float64(res.AverageTime.Microseconds()) / 1000,
		Items:         make([]BatchItemResponse, len(res.Items)),
	}
	for i, item := range res.Items {
		out.Items[i] = BatchItemResponse{Index: item.Index}
		if item.Err != nil {
			out.Items[i].ErrorCode = application.ErrorCode(item.Err)
			out.Items[i].Error = item.Err.Error()
			continue
		}
		out.Items[i].Result = r.result(item.Result)
	}
	return out
}

func (r renderer) analytics(a application.BondAnalytics) BondAnalyticsResponse {
	return BondAnalyticsResponse{
		Bond:             a.Params,
		PresentValue:     r.round(a.PresentValue),
		MacaulayDuration: r.round(a.MacaulayDuration),
		ModifiedDuration: r.round(a.ModifiedDuration),
		Convexity:        r.round(a.Convexity),
		DV01:             r.round(a.DV01),
	}
}
