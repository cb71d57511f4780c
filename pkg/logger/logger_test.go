package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func captureLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := globalLogger
	SetLogger(New(&buf, Config{Level: "debug", Format: "json"}))
	t.Cleanup(func() { globalLogger = prev })
	return &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid json log line %q: %v", buf.String(), err)
	}
	return entry
}

func TestInfo_AttachesRequestAndTraceIDs(t *testing.T) {
	buf := captureLogger(t)

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithTraceID(ctx, "trace-1", "span-1")
	Info(ctx, "priced", "metric", "option_price")

	entry := decodeLine(t, buf)
	for key, want := range map[string]string{
		"msg":        "priced",
		"request_id": "req-1",
		"trace_id":   "trace-1",
		"span_id":    "span-1",
		"metric":     "option_price",
	} {
		if entry[key] != want {
			t.Errorf("%s: got=%v want=%v", key, entry[key], want)
		}
	}
}

func TestLogDuration(t *testing.T) {
	buf := captureLogger(t)

	done := LogDuration(WithRequestID(context.Background(), "req-2"), "batch fan-out finished", "total", 3)
	if buf.Len() != 0 {
		t.Fatalf("nothing is logged before the returned func runs")
	}
	done()

	entry := decodeLine(t, buf)
	if entry["msg"] != "batch fan-out finished" || entry["level"] != "DEBUG" || entry["request_id"] != "req-2" {
		t.Fatalf("entry: %v", entry)
	}
	if _, ok := entry["duration"]; !ok || entry["total"] != float64(3) {
		t.Fatalf("duration and caller attrs expected: %v", entry)
	}
}

func TestInfo_PrefersOpenTelemetrySpan(t *testing.T) {
	buf := captureLogger(t)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(WithTraceID(context.Background(), "manual", "manual"), sc)

	Info(ctx, "hello")

	entry := decodeLine(t, buf)
	if entry["trace_id"] != traceID.String() || entry["span_id"] != spanID.String() {
		t.Fatalf("expected otel ids, got trace=%v span=%v", entry["trace_id"], entry["span_id"])
	}
}

func TestWithContext_NoIDs(t *testing.T) {
	buf := captureLogger(t)

	Warn(context.Background(), "plain")

	entry := decodeLine(t, buf)
	if _, ok := entry["request_id"]; ok {
		t.Fatalf("unexpected request_id in %v", entry)
	}
	if entry["level"] != "WARN" {
		t.Fatalf("level: got=%v", entry["level"])
	}
}

func TestParseLevel(t *testing.T) {
	buf := captureLogger(t)
	SetLogger(New(buf, Config{Level: "error", Format: "json"}))

	Info(context.Background(), "dropped")
	if buf.Len() != 0 {
		t.Fatalf("info must be filtered at error level, got %q", buf.String())
	}
}

func TestRequestIDFromContext_Empty(t *testing.T) {
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Fatalf("got=%q", got)
	}
}
