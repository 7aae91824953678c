package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestWebhookMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWebhookMetrics(reg)
	m.ObserveInbound("processed")
	m.ObserveInbound("processed")
	m.ObserveInbound("ignored")
	m.ObserveOutbound("failed")
	m.ObserveWebhookLatency("processed", 0.5)
	m.ObserveNotification("WHATSAPP_SEND_FAILED")

	if got := testutil.ToFloat64(m.inboundTotal.WithLabelValues("processed")); got != 2 {
		t.Fatalf("expected 2 processed deliveries, got %v", got)
	}
	if got := testutil.ToFloat64(m.outboundTotal.WithLabelValues("failed")); got != 1 {
		t.Fatalf("expected 1 failed send, got %v", got)
	}
	if got := testutil.ToFloat64(m.notificationsCreated.WithLabelValues("WHATSAPP_SEND_FAILED")); got != 1 {
		t.Fatalf("expected 1 notification, got %v", got)
	}
	if got := testutil.CollectAndCount(m.webhookLatency); got != 1 {
		t.Fatalf("expected one latency series, got %d", got)
	}
}

func TestWebhookMetricsNilSafe(t *testing.T) {
	var m *WebhookMetrics
	m.ObserveInbound("processed")
	m.ObserveOutbound("sent")
	m.ObserveWebhookLatency("processed", 0.1)
	m.ObserveNotification("SYSTEM")
}
