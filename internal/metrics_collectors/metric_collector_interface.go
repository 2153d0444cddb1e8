package metrics_collectors

import "context"

// MetricCollector collects a single numeric device metric.
type MetricCollector interface {
	Name() string                         // Name of the metric (e.g. "memory")
	Collect(ctx context.Context) *float64 // Collect the metric, nil when unavailable
	Unit() string                         // Unit of the metric (e.g. "percentage")
}
