package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// MetricConfig holds configuration for the metrics.
type MetricConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	// OTLPEndpoint is the OTLP gRPC endpoint. Metrics are only pushed when set.
	OTLPEndpoint string

	// Registerer receives the pull exporter served on /metrics. Nil skips it.
	Registerer prometheus.Registerer

	// ExportInterval is the OTLP push interval.
	ExportInterval time.Duration
}

func newResource(serviceName, serviceVersion, environment string) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
			semconv.DeploymentEnvironmentName(environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("building telemetry resource: %w", err)
	}
	return res, nil
}

// InitMetrics installs the global meter provider with a Prometheus reader
// and, when configured, an OTLP push reader.
func InitMetrics(ctx context.Context, config MetricConfig) (shutdown func(context.Context) error, err error) {
	if config.OTLPEndpoint == "" && config.Registerer == nil {
		return func(context.Context) error { return nil }, nil
	}
	if config.ExportInterval <= 0 {
		config.ExportInterval = 15 * time.Second
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, err
	}
	readers, err := metricReaders(ctx, config)
	if err != nil {
		return nil, err
	}

	opts := []metric.Option{metric.WithResource(res)}
	for _, r := range readers {
		opts = append(opts, metric.WithReader(r))
	}
	meterProvider := metric.NewMeterProvider(opts...)
	otel.SetMeterProvider(meterProvider)

	return func(ctx context.Context) error {
		if err := meterProvider.Shutdown(ctx); err != nil && !errors.Is(err, metric.ErrReaderShutdown) {
			return err
		}
		return nil
	}, nil
}

// metricReaders returns the pull reader backing /metrics and the OTLP push
// reader, each only when configured.
func metricReaders(ctx context.Context, config MetricConfig) ([]metric.Reader, error) {
	var readers []metric.Reader
	if config.Registerer != nil {
		pull, err := otelprom.New(otelprom.WithRegisterer(config.Registerer))
		if err != nil {
			return nil, fmt.Errorf("creating prometheus reader: %w", err)
		}
		readers = append(readers, pull)
	}
	if config.OTLPEndpoint != "" {
		push, err := otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(config.OTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("creating OTLP metric exporter for %s: %w", config.OTLPEndpoint, err)
		}
		readers = append(readers, metric.NewPeriodicReader(push, metric.WithInterval(config.ExportInterval)))
	}
	return readers, nil
}
