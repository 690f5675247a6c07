// Package prometheus renders engine metrics in the Prometheus text
// exposition format without pulling the client library into the module.
package prometheus

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/adrisa007/sentinelgate"
)

// Exporter is an http.Handler serving the current metrics snapshot.
type Exporter struct {
	namespace string
	snapshot  func() sentinelgate.Snapshot
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithNamespace overrides the default "sentinelgate" metric prefix.
func WithNamespace(ns string) Option {
	return func(e *Exporter) {
		if ns != "" {
			e.namespace = ns
		}
	}
}

// New creates an Exporter reading from the given engine.
func New(engine *sentinelgate.Engine, opts ...Option) *Exporter {
	e := &Exporter{
		namespace: "sentinelgate",
		snapshot:  engine.MetricsSnapshot,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Exporter) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	snap := e.snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	ids := make([]sentinelgate.MetricID, 0, len(snap.Counters))
	for id := range snap.Counters {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		name := fmt.Sprintf("%s_%s_total", e.namespace, id.Name())
		fmt.Fprintf(w, "# TYPE %s counter\n", name)
		fmt.Fprintf(w, "%s %d\n", name, snap.Counters[id])
	}

	for id, buckets := range snap.Histograms {
		e.writeHistogram(w, id, buckets)
	}
}

func (e *Exporter) writeHistogram(w http.ResponseWriter, id sentinelgate.MetricID, buckets []uint64) {
	name := fmt.Sprintf("%s_%s_us", e.namespace, id.Name())
	bounds := sentinelgate.LatencyBucketBounds()

	fmt.Fprintf(w, "# TYPE %s histogram\n", name)

	var cumulative uint64
	for i, bound := range bounds {
		if i >= len(buckets) {
			break
		}
		cumulative += buckets[i]
		fmt.Fprintf(w, "%s_bucket{le=\"%d\"} %d\n", name, bound, cumulative)
	}
	if len(buckets) > 0 {
		cumulative += buckets[len(buckets)-1]
	}
	fmt.Fprintf(w, "%s_bucket{le=\"+Inf\"} %d\n", name, cumulative)
	fmt.Fprintf(w, "%s_count %d\n", name, cumulative)
}
