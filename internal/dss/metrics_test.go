package dss

// Copyright (c) The InterUSS Project.
// Licensed under the Apache License 2.0.

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusEmitter(t *testing.T) {
	reg := prometheus.NewRegistry()
	emitter := NewPrometheusEmitter(reg)

	labels := map[string]string{"verb": "GET", "code": "200", "route": "/status"}

	// The vector is registered lazily on first use and reused afterwards.
	emitter.AddCounter("datanode_requests_total", 1.0, labels)
	emitter.AddCounter("datanode_requests_total", 1.0, labels)
	emitter.EmitGauge("datanode_health", 0.0, map[string]string{"endpoint": "/healthz/ready"})
	emitter.EmitGauge("datanode_health", 1.0, map[string]string{"endpoint": "/healthz/ready"})

	count, err := testutil.GatherAndCount(reg, "datanode_requests_total", "datanode_health")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.Equal(t, 2.0, gatherValue(t, reg, "datanode_requests_total", labels))
	assert.Equal(t, 1.0, gatherValue(t, reg, "datanode_health", map[string]string{"endpoint": "/healthz/ready"}))

	lintMetrics(t, reg)
}

func TestMetricsMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	metricsMiddleware := MetricsMiddleware{Emitter: NewPrometheusEmitter(reg)}

	// The route label comes from the mux pattern, so drive the middleware
	// through a MiddlewareMux the way the server wires it.
	mux := NewMiddlewareMux(metricsMiddleware.Metrics())
	mux.HandleFunc(MuxPattern(http.MethodGet, "dss", "v1", "status"), func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	writer := httptest.NewRecorder()
	request, err := http.NewRequest(http.MethodGet, "/dss/v1/status", nil)
	require.NoError(t, err)

	mux.ServeHTTP(writer, request)
	require.Equal(t, http.StatusTeapot, writer.Code)

	wantLabels := map[string]string{
		"verb":  "GET",
		"code":  "418",
		"route": "/dss/v1/status",
	}
	assert.Equal(t, 1.0, gatherValue(t, reg, "datanode_requests_total", wantLabels))

	count, err := testutil.GatherAndCount(reg, "datanode_duration")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	lintMetrics(t, reg)
}

// gatherValue returns the value of the metric carrying exactly the given
// labels, failing the test when no such metric was recorded.
func gatherValue(t *testing.T, r prometheus.Gatherer, name string, labels map[string]string) float64 {
	t.Helper()

	metrics, err := r.Gather()
	require.NoError(t, err)

	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}

		for _, m := range mf.GetMetric() {
			if !matchLabels(m, labels) {
				continue
			}

			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			}
		}
	}

	t.Errorf("no metric %q with labels %v", name, labels)
	return 0
}

func matchLabels(m *dto.Metric, labels map[string]string) bool {
	if len(m.GetLabel()) != len(labels) {
		return false
	}

	for _, l := range m.GetLabel() {
		if labels[l.GetName()] != l.GetValue() {
			return false
		}
	}
	return true
}

func lintMetrics(t *testing.T, r prometheus.Gatherer) {
	t.Helper()

	problems, err := testutil.GatherAndLint(r)
	require.NoError(t, err)

	for _, p := range problems {
		t.Errorf("metric %q: %s", p.Metric, p.Text)
	}
}
