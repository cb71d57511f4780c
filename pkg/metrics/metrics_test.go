package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegister_DuplicateFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := New("pricing").Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := New("pricing").Register(reg); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}

func TestRecorders(t *testing.T) {
	m := New("pricing")
	if err := m.Register(prometheus.NewRegistry()); err != nil {
		t.Fatalf("register: %v", err)
	}

	m.RecordPricing("option_price", "ok", time.Millisecond)
	m.RecordPricing("option_price", "ok", time.Millisecond)
	m.RecordPricing("bond_duration", "computation_error", time.Millisecond)
	m.RecordCacheLookup("hit")
	m.RecordEvent("OptionPriced", nil)
	m.RecordEvent("OptionPriced", errors.New("down"))
	m.RecordHTTPRequest("POST", "/api/v1/pricing/option/price", 200, time.Millisecond)
	m.RecordGRPCRequest("/grpc.health.v1.Health/Check", "OK", time.Millisecond)

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"option ok", testutil.ToFloat64(m.PricingOperationsTotal.WithLabelValues("option_price", "ok")), 2},
		{"bond error", testutil.ToFloat64(m.PricingOperationsTotal.WithLabelValues("bond_duration", "computation_error")), 1},
		{"cache hit", testutil.ToFloat64(m.CacheLookupsTotal.WithLabelValues("hit")), 1},
		{"event ok", testutil.ToFloat64(m.EventsPublishedTotal.WithLabelValues("OptionPriced", "ok")), 1},
		{"event error", testutil.ToFloat64(m.EventsPublishedTotal.WithLabelValues("OptionPriced", "error")), 1},
		{"http", testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/pricing/option/price", "200")), 1},
		{"grpc", testutil.ToFloat64(m.GRPCRequestsTotal.WithLabelValues("/grpc.health.v1.Health/Check", "OK")), 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got=%v want=%v", c.name, c.got, c.want)
		}
	}
}
