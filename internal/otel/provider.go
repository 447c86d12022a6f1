// Package otel provides OpenTelemetry meter provider initialization and management.
package otel

import (
	"context"
	"fmt"
	"time"

	"github.com/mrzor/sockowner/internal/config"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// InitProvider initializes the OpenTelemetry meter provider against the
// configured OTLP endpoint.
//
// Note: Uses OTLP/HTTP protocol. The HTTP client automatically honors
// HTTP_PROXY, HTTPS_PROXY, and NO_PROXY environment variables through Go's
// standard net/http transport.
func InitProvider(cfg *config.OTELConfig) (*sdkmetric.MeterProvider, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exporter, err := otlpmetrichttp.New(ctx,
		otlpmetrichttp.WithEndpoint(cfg.GetEndpoint()),
		otlpmetrichttp.WithInsecure(),
		otlpmetrichttp.WithTimeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}

	// Build resource attributes
	resourceAttrs := []resource.Option{
		resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)),
	}

	// Add custom resource attributes from environment
	customAttrs := cfg.ParseResourceAttributes()
	if len(customAttrs) > 0 {
		resourceAttrs = append(resourceAttrs, resource.WithAttributes(customAttrs...))
	}

	res, err := resource.New(ctx, resourceAttrs...)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
	)

	return mp, nil
}

// ShutdownProvider gracefully shuts down the meter provider, flushing any
// remaining metrics.
func ShutdownProvider(mp *sdkmetric.MeterProvider, ctx context.Context) error {
	if mp == nil {
		return nil
	}

	if err := mp.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}

	return nil
}
