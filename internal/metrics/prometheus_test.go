package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersWithFreshRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.PacketsReceived.Inc()
	m.RecordDecodeError("malformed_header")
	m.RecordApplyRejection("out_of_bounds")
	m.RecordHTTPRequest("GET", "/stats", "200", 0.01)

	if got := testutil.ToFloat64(m.PacketsReceived); got != 1 {
		t.Errorf("PacketsReceived = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.DecodeErrors.WithLabelValues("malformed_header")); got != 1 {
		t.Errorf("DecodeErrors{malformed_header} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ApplyRejections.WithLabelValues("out_of_bounds")); got != 1 {
		t.Errorf("ApplyRejections{out_of_bounds} = %v, want 1", got)
	}
}

func TestTwoRegistriesDoNotCollide(t *testing.T) {
	a := New(prometheus.NewRegistry())
	b := New(prometheus.NewRegistry())

	a.FramesPushed.Inc()
	if got := testutil.ToFloat64(b.FramesPushed); got != 0 {
		t.Errorf("Second registry FramesPushed = %v, want 0", got)
	}
}
