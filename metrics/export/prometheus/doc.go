// Package prometheus exposes engine metrics through client_golang.
//
// [Exporter] implements prometheus.Collector over [goSession.Engine.MetricsSnapshot].
// Counters are named gosession_*_total; the single histogram is
// gosession_validate_latency_seconds. Each exporter owns a private registry
// served by [Exporter.Handler]; callers who want the default registry can
// register the exporter there themselves.
package prometheus
