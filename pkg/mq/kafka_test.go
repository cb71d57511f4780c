package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestSendMessage(t *testing.T) {
	w := &recordingWriter{}
	p := NewProducerWithWriter(w, "pricing-events")

	if err := p.SendMessage(context.Background(), "OptionPriced", "req-1", map[string]float64{"value": 10.45}); err != nil {
		t.Fatalf("send: %v", err)
	}

	if len(w.msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(w.msgs))
	}
	msg := w.msgs[0]
	if msg.Topic != "pricing-events" || string(msg.Key) != "req-1" {
		t.Fatalf("unexpected topic/key: %q %q", msg.Topic, msg.Key)
	}
	if len(msg.Headers) != 1 || msg.Headers[0].Key != EventTypeHeader || string(msg.Headers[0].Value) != "OptionPriced" {
		t.Fatalf("unexpected headers: %+v", msg.Headers)
	}

	var payload map[string]float64
	if err := json.Unmarshal(msg.Value, &payload); err != nil || payload["value"] != 10.45 {
		t.Fatalf("payload: %s (%v)", msg.Value, err)
	}

	if err := p.Close(); err != nil || !w.closed {
		t.Fatalf("close: %v", err)
	}
}

func TestSendMessage_WriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewProducerWithWriter(&recordingWriter{err: boom}, "t")

	if err := p.SendMessage(context.Background(), "BondPriced", "k", 1); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped writer error, got %v", err)
	}
}

func TestSendMessage_MarshalError(t *testing.T) {
	w := &recordingWriter{}
	p := NewProducerWithWriter(w, "t")

	if err := p.SendMessage(context.Background(), "x", "k", make(chan int)); err == nil {
		t.Fatalf("expected marshal error")
	}
	if len(w.msgs) != 0 {
		t.Fatalf("nothing must be written on marshal failure")
	}
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	if _, err := NewProducer(KafkaConfig{Topic: "t"}); err == nil {
		t.Fatalf("expected error without brokers")
	}
}
