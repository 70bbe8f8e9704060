package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.PacketReceived("Ping", "ok")
	m.PacketSent("tls", 10)
	m.BytesReceived(10)
	m.MapTask("LoadMap", "ok")
	m.QueueDepth("map", 3)
}

// gathered returns the value of the single sample in family name.
func gathered(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		if len(f.GetMetric()) != 1 {
			t.Fatalf("%s has %d samples; want 1", name, len(f.GetMetric()))
		}
		s := f.GetMetric()[0]
		if s.GetCounter() != nil {
			return s.GetCounter().GetValue()
		}
		return s.GetGauge().GetValue()
	}
	t.Fatalf("no metric family %s", name)
	return 0
}

func TestCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(WithRegistry(reg), WithNamespace("test"))

	m.PacketReceived("Ping", "ok")
	m.PacketReceived("Ping", "ok")
	m.PacketSent("plain", 24)
	m.QueueDepth("chat", 5)

	if got := gathered(t, reg, "test_packets_received_total"); got != 2 {
		t.Errorf("packets received = %v; want 2", got)
	}
	if got := gathered(t, reg, "test_bytes_sent_total"); got != 24 {
		t.Errorf("bytes sent = %v; want 24", got)
	}
	if got := gathered(t, reg, "test_task_queue_depth"); got != 5 {
		t.Errorf("chat queue depth = %v; want 5", got)
	}
}
