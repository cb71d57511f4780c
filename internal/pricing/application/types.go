package application

import (
	"time"

	"github.com/wyfcoding/riskcanvas/internal/pricing/domain"
)

// PriceOptionCommand 期权定价命令（价格与希腊字母共用）
type PriceOptionCommand struct {
	Params domain.OptionParameters
}

// ImpliedVolatilityCommand 隐含波动率反解命令，Params.Volatility 被忽略
type ImpliedVolatilityCommand struct {
	Params      domain.OptionParameters
	TargetPrice float64
}

// BatchPriceOptionsCommand 批量定价命令
type BatchPriceOptionsCommand struct {
	// 为空时自动生成
	BatchID   string
	Contracts []domain.OptionParameters
	// 是否同时计算希腊字母
	IncludeGreeks bool
}

// BatchItem 批量定价中单个合约的结果，Err 非空时 Result 为零值
type BatchItem struct {
	Index  int
	Result domain.PricingResult
	Err    error
}

// BatchPricingResult 批量定价结果，Items 与输入顺序一致
type BatchPricingResult struct {
	BatchID      string
	Items        []BatchItem
	SuccessCount int
	FailureCount int
	// 单合约平均耗时
	AverageTime time.Duration
}

// BondCommand 债券指标命令，PaymentsPerYear 为 0 时按每年付息一次
type BondCommand struct {
	Params domain.BondParameters
}

// BondYieldCommand 到期收益率反解命令，Params.YieldToMaturity 被忽略
type BondYieldCommand struct {
	Params      domain.BondParameters
	TargetPrice float64
}

// BondAnalytics 债券全部风险指标
type BondAnalytics struct {
	Params           domain.BondParameters
	PresentValue     float64
	MacaulayDuration float64
	ModifiedDuration float64
	Convexity        float64
	DV01             float64
}
