// Package messaging 定价事件的 Kafka 发布
package messaging

import (
	"context"

	"github.com/wyfcoding/riskcanvas/internal/pricing/domain"
)

// Producer 消息生产者，由 pkg/mq.KafkaProducer 实现
type Producer interface {
	SendMessage(ctx context.Context, eventType, key string, value any) error
}

// KafkaEventPublisher 实现 domain.EventPublisher
// 单笔事件以请求 ID 为消息键，批量事件以批次 ID 为消息键
type KafkaEventPublisher struct {
	producer Producer
}

// NewKafkaEventPublisher 构造函数
func NewKafkaEventPublisher(producer Producer) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer}
}

// PublishOptionPriced 发布期权定价完成事件
func (p *KafkaEventPublisher) PublishOptionPriced(ctx context.Context, event domain.OptionPricedEvent) error {
	return p.producer.SendMessage(ctx, domain.OptionPricedEventType, messageKey(event.RequestID, event.Metric), event)
}

// PublishBondPriced 发布债券定价完成事件
func (p *KafkaEventPublisher) PublishBondPriced(ctx context.Context, event domain.BondPricedEvent) error {
	return p.producer.SendMessage(ctx, domain.BondPricedEventType, messageKey(event.RequestID, event.Metric), event)
}

// PublishPricingError 发布定价错误事件
func (p *KafkaEventPublisher) PublishPricingError(ctx context.Context, event domain.PricingErrorEvent) error {
	return p.producer.SendMessage(ctx, domain.PricingErrorEventType, messageKey(event.RequestID, event.Metric), event)
}

// PublishBatchPricingCompleted 发布批量定价完成事件
func (p *KafkaEventPublisher) PublishBatchPricingCompleted(ctx context.Context, event domain.BatchPricingCompletedEvent) error {
	return p.producer.SendMessage(ctx, domain.BatchPricingCompletedEventType, event.BatchID, event)
}

// 无请求 ID 时退化为按指标分区
func messageKey(requestID string, metric domain.Metric) string {
	if requestID != "" {
		return requestID
	}
	return string(metric)
}
