// Package otel bridges engine metrics into an OpenTelemetry meter as
// observable counters. The bridge reads a snapshot on every collection
// cycle; nothing is pushed on the hot path.
package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"

	"github.com/adrisa007/sentinelgate"
)

// Register creates one observable counter per engine counter metric under
// the given meter and returns the registration, which the caller should
// Unregister on shutdown. Histograms are not bridged; use the Prometheus
// exporter for latency buckets.
func Register(meter metric.Meter, engine *sentinelgate.Engine) (metric.Registration, error) {
	type boundCounter struct {
		id  sentinelgate.MetricID
		obs metric.Int64ObservableCounter
	}

	var (
		counters    []boundCounter
		observables []metric.Observable
	)
	for _, id := range sentinelgate.MetricIDs() {
		if id.IsHistogram() {
			continue
		}
		obs, err := meter.Int64ObservableCounter(
			fmt.Sprintf("sentinelgate.%s", id.Name()),
			metric.WithDescription(fmt.Sprintf("sentinelgate %s events", id.Name())),
		)
		if err != nil {
			return nil, err
		}
		counters = append(counters, boundCounter{id: id, obs: obs})
		observables = append(observables, obs)
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		snap := engine.MetricsSnapshot()
		for _, c := range counters {
			o.ObserveInt64(c.obs, int64(snap.Counters[c.id]))
		}
		return nil
	}, observables...)
}
