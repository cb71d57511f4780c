package domain

// Metric 计算指标
type Metric string

const (
	MetricOptionPrice          Metric = "option_price"
	MetricOptionGreeks         Metric = "option_greeks"
	MetricImpliedVolatility    Metric = "implied_volatility"
	MetricBondPresentValue     Metric = "bond_present_value"
	MetricBondDuration         Metric = "bond_duration"
	MetricBondModifiedDuration Metric = "bond_modified_duration"
	MetricBondConvexity        Metric = "bond_convexity"
	MetricBondDV01             Metric = "bond_dv01"
	MetricBondYield            Metric = "bond_yield"
)

// PricingResult 定价结果：计算值及产生该值的输入参数，便于追溯
// 参数以副本保存，返回后不再被修改
type PricingResult struct {
	Metric Metric            `json:"metric"`
	Value  float64           `json:"value"`
	Option *OptionParameters `json:"option,omitempty"`
	Bond   *BondParameters   `json:"bond,omitempty"`
	Greeks *Greeks           `json:"greeks,omitempty"`
	// 反解类指标（隐含波动率、到期收益率）的目标价格
	TargetPrice float64 `json:"target_price,omitempty"`
}

// NewOptionResult 构造期权类结果
func NewOptionResult(metric Metric, value float64, params OptionParameters) PricingResult {
	return PricingResult{Metric: metric, Value: value, Option: &params}
}

// NewGreeksResult 构造希腊字母结果，Value 为期权价格
func NewGreeksResult(price float64, greeks Greeks, params OptionParameters) PricingResult {
	return PricingResult{Metric: MetricOptionGreeks, Value: price, Option: &params, Greeks: &greeks}
}

// NewBondResult 构造债券类结果
func NewBondResult(metric Metric, value float64, params BondParameters) PricingResult {
	return PricingResult{Metric: metric, Value: value, Bond: &params}
}

// NewSolvedResult 构造反解结果：value 为解出的参数，target 为目标价格
func NewSolvedResult(metric Metric, value, target float64, option *OptionParameters, bond *BondParameters) PricingResult {
	return PricingResult{Metric: metric, Value: value, Option: option, Bond: bond, TargetPrice: target}
}
