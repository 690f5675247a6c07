package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/adrisa007/sentinelgate"
)

func staticExporter(snap sentinelgate.Snapshot, opts ...Option) *Exporter {
	e := &Exporter{namespace: "sentinelgate", snapshot: func() sentinelgate.Snapshot { return snap }}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func TestServeCounters(t *testing.T) {
	e := staticExporter(sentinelgate.Snapshot{
		Counters: map[sentinelgate.MetricID]uint64{
			sentinelgate.MetricLoginSuccess:    7,
			sentinelgate.MetricAuthorizeDenied: 2,
		},
	})

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := w.Body.String()
	for _, line := range []string{
		"# TYPE sentinelgate_login_success_total counter",
		"sentinelgate_login_success_total 7",
		"sentinelgate_authorize_denied_total 2",
	} {
		if !strings.Contains(body, line) {
			t.Errorf("missing %q in:\n%s", line, body)
		}
	}
}

func TestServeHistogram(t *testing.T) {
	buckets := make([]uint64, len(sentinelgate.LatencyBucketBounds())+1)
	buckets[0] = 3
	buckets[len(buckets)-1] = 1

	e := staticExporter(sentinelgate.Snapshot{
		Counters: map[sentinelgate.MetricID]uint64{},
		Histograms: map[sentinelgate.MetricID][]uint64{
			sentinelgate.MetricAuthorizeLatency: buckets,
		},
	})

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := w.Body.String()
	for _, line := range []string{
		"# TYPE sentinelgate_authorize_latency_us histogram",
		`sentinelgate_authorize_latency_us_bucket{le="50"} 3`,
		`sentinelgate_authorize_latency_us_bucket{le="+Inf"} 4`,
		"sentinelgate_authorize_latency_us_count 4",
	} {
		if !strings.Contains(body, line) {
			t.Errorf("missing %q in:\n%s", line, body)
		}
	}
}

func TestNamespaceOverride(t *testing.T) {
	e := staticExporter(sentinelgate.Snapshot{
		Counters: map[sentinelgate.MetricID]uint64{sentinelgate.MetricLoginSuccess: 1},
	}, WithNamespace("authsvc"))

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if !strings.Contains(w.Body.String(), "authsvc_login_success_total 1") {
		t.Errorf("namespace not applied:\n%s", w.Body.String())
	}
}
