// Package metrics defines the gauge sink the scan engine reports health
// signals to.
//
// The engine exposes a single gauge: the count of distinct active network
// namespaces observed by the last scan. Unbounded growth of this value over
// a host's lifetime indicates a namespace leak.
package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Sink receives the per-scan namespace count.
type Sink interface {
	SetNamespaceCount(n int)
}

// Noop discards everything. Used when no metrics pipeline is configured.
type Noop struct{}

// SetNamespaceCount does nothing.
func (Noop) SetNamespaceCount(int) {}

// OTelSink records the namespace count on an OpenTelemetry gauge.
type OTelSink struct {
	namespaces metric.Int64Gauge
}

// NewOTelSink creates the engine's instruments on the given meter.
func NewOTelSink(meter metric.Meter) (*OTelSink, error) {
	gauge, err := meter.Int64Gauge(
		"sockowner.namespaces",
		metric.WithDescription("Count of distinct active network namespaces observed by the last scan"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating namespace gauge: %w", err)
	}
	return &OTelSink{namespaces: gauge}, nil
}

// SetNamespaceCount records n on the namespace gauge.
func (s *OTelSink) SetNamespaceCount(n int) {
	s.namespaces.Record(context.Background(), int64(n))
}
