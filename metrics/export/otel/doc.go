// Package otel publishes engine metrics through an OpenTelemetry meter.
//
// [NewOTelExporter] registers an Int64ObservableCounter per engine counter and
// one Int64ObservableGauge per latency bucket, all read by a single callback
// from [goSession.Engine.MetricsSnapshot]. The caller owns the MeterProvider.
package otel
