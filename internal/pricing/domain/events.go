package domain

import "time"

const (
	OptionPricedEventType          = "OptionPriced"
	BondPricedEventType            = "BondPriced"
	PricingErrorEventType          = "PricingError"
	BatchPricingCompletedEventType = "BatchPricingCompleted"
)

// OptionPricedEvent 期权定价完成事件
type OptionPricedEvent struct {
	Metric      Metric           `json:"metric"`
	Value       float64          `json:"value"`
	Params      OptionParameters `json:"params"`
	Greeks      *Greeks          `json:"greeks,omitempty"`
	TargetPrice float64          `json:"target_price,omitempty"`
	RequestID   string           `json:"request_id,omitempty"`
	OccurredOn  time.Time        `json:"occurred_on"`
}

// BondPricedEvent 债券定价完成事件
type BondPricedEvent struct {
	Metric      Metric         `json:"metric"`
	Value       float64        `json:"value"`
	Params      BondParameters `json:"params"`
	TargetPrice float64        `json:"target_price,omitempty"`
	RequestID   string         `json:"request_id,omitempty"`
	OccurredOn  time.Time      `json:"occurred_on"`
}

// PricingErrorEvent 定价错误事件
type PricingErrorEvent struct {
	Metric     Metric    `json:"metric"`
	ErrorCode  string    `json:"error_code"`
	Error      string    `json:"error"`
	RequestID  string    `json:"request_id,omitempty"`
	OccurredOn time.Time `json:"occurred_on"`
}

// BatchPricingCompletedEvent 批量定价完成事件
type BatchPricingCompletedEvent struct {
	BatchID        string    `json:"batch_id"`
	TotalContracts int       `json:"total_contracts"`
	SuccessCount   int       `json:"success_count"`
	FailureCount   int       `json:"failure_count"`
	AverageTime    float64   `json:"average_time"`
	OccurredOn     time.Time `json:"occurred_on"`
}
