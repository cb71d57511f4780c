package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestNew_UnreachableServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 端口 1 上没有 Redis，连接会被拒绝
	_, err := New(ctx, Config{Host: "127.0.0.1", Port: 1, ConnTimeout: 1, ReadTimeout: 1, WriteTimeout: 1})
	if err == nil {
		t.Fatalf("expected connection error")
	}
}

func TestGetJSON_ClosedClient(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: time.Second})
	rc := NewFromClient(client)
	if err := rc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var dest map[string]any
	err := rc.GetJSON(context.Background(), "k", &dest)
	if err == nil || errors.Is(err, ErrMiss) {
		t.Fatalf("closed client must fail with a real error, got %v", err)
	}
}
