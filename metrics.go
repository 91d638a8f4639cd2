package granary

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("granary.cache")

// Metrics for cell operations. They are no-ops unless the host
// process installs a MeterProvider.
var (
	cellLoads      metric.Int64Counter
	cellStores     metric.Int64Counter
	computeSeconds metric.Float64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// Load origins reported on granary_cell_loads_total.
const (
	loadFromDisk    = "disk"
	loadFromCompute = "compute"
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		cellLoads, err = meter.Int64Counter(
			"granary_cell_loads_total",
			metric.WithDescription("Number of attribute cells made resident, by origin"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cellStores, err = meter.Int64Counter(
			"granary_cell_stores_total",
			metric.WithDescription("Number of attribute entries written to the store"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		computeSeconds, err = meter.Float64Histogram(
			"granary_cell_compute_seconds",
			metric.WithDescription("Time spent computing attributes from their prerequisites"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordLoad(ctx context.Context, name, origin string) {
	if err := initMetrics(); err != nil {
		return
	}
	cellLoads.Add(ctx, 1, metric.WithAttributes(
		attribute.String("attribute", name),
		attribute.String("origin", origin),
	))
}

func recordStore(ctx context.Context, name string) {
	if err := initMetrics(); err != nil {
		return
	}
	cellStores.Add(ctx, 1, metric.WithAttributes(attribute.String("attribute", name)))
}

func recordCompute(ctx context.Context, name string, d time.Duration) {
	if err := initMetrics(); err != nil {
		return
	}
	computeSeconds.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("attribute", name)))
}
