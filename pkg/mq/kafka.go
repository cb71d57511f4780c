// Package mq 提供 Kafka producer 通用实现
package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/wyfcoding/riskcanvas/pkg/logger"
)

// EventTypeHeader 事件类型消息头
const EventTypeHeader = "event_type"

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	Brokers []string
	// 默认主题
	Topic        string
	MaxRetries   int
	RetryBackoff int
	// 批量写入超时（毫秒）
	BatchTimeout int
}

// MessageWriter kafka.Writer 的最小抽象，便于替换
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer Kafka 生产者
type KafkaProducer struct {
	writer MessageWriter
	topic  string
}

// NewProducer 创建 Kafka 生产者
func NewProducer(cfg KafkaConfig) (*KafkaProducer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 100
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		Compression:            kafka.Gzip,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            cfg.MaxRetries,
		BatchTimeout:           time.Duration(cfg.BatchTimeout) * time.Millisecond,
		WriteBackoffMin:        time.Duration(cfg.RetryBackoff) * time.Millisecond,
		WriteBackoffMax:        time.Duration(cfg.RetryBackoff*10) * time.Millisecond,
	}

	logger.Info(context.Background(), "Kafka producer created successfully", "brokers", cfg.Brokers, "topic", cfg.Topic)
	return NewProducerWithWriter(writer, cfg.Topic), nil
}

// NewProducerWithWriter 使用给定 writer 构造生产者
func NewProducerWithWriter(writer MessageWriter, topic string) *KafkaProducer {
	return &KafkaProducer{writer: writer, topic: topic}
}

// SendMessage 以 JSON 发送单条消息到默认主题，eventType 写入消息头
func (kp *KafkaProducer) SendMessage(ctx context.Context, eventType, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	msg := kafka.Message{
		Topic:   kp.topic,
		Key:     []byte(key),
		Value:   data,
		Headers: []kafka.Header{{Key: EventTypeHeader, Value: []byte(eventType)}},
		Time:    time.Now(),
	}

	if err := kp.writer.WriteMessages(ctx, msg); err != nil {
		logger.Error(ctx, "Failed to send Kafka message",
			"topic", kp.topic,
			"event_type", eventType,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to send kafka message: %w", err)
	}

	logger.Debug(ctx, "Kafka message sent", "topic", kp.topic, "event_type", eventType, "key", key)
	return nil
}

// Close 关闭生产者
func (kp *KafkaProducer) Close() error {
	return kp.writer.Close()
}
