package metrics

import (
	"context"
	"fmt"
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// OTelExporter provides OpenTelemetry metrics export following OTel standards
type OTelExporter struct {
	meterProvider *sdkmetric.MeterProvider
	registry      *promclient.Registry
	collector     Collector

	// OTel meters and instruments
	meter           metric.Meter
	eventsCounter   metric.Int64ObservableCounter
	deliveryCounter metric.Int64ObservableCounter
	attemptsCounter metric.Int64ObservableCounter
	retriesCounter  metric.Int64ObservableCounter
	listenerUpGauge metric.Int64ObservableGauge
}

// NewOTelExporter creates a new OpenTelemetry metrics exporter with Prometheus format.
// Each exporter owns its registry so several can coexist in one process.
func NewOTelExporter(collector Collector) (*OTelExporter, error) {
	registry := promclient.NewRegistry()

	// Create Prometheus exporter
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	// Create meter provider
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)

	// Create meter with service info
	meter := meterProvider.Meter(
		"kincord",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	oe := &OTelExporter{
		meterProvider: meterProvider,
		registry:      registry,
		collector:     collector,
		meter:         meter,
	}

	// Register metrics instruments
	if err := oe.registerInstruments(); err != nil {
		return nil, fmt.Errorf("registering instruments: %w", err)
	}

	return oe, nil
}

// registerInstruments creates and registers all OpenTelemetry metric instruments
func (oe *OTelExporter) registerInstruments() error {
	var err error

	oe.eventsCounter, err = oe.meter.Int64ObservableCounter(
		"kincord.events",
		metric.WithDescription("Number of inbound kintone events by relay status"),
		metric.WithUnit("{events}"),
		metric.WithInt64Callback(oe.observeResults),
	)
	if err != nil {
		return fmt.Errorf("creating events counter: %w", err)
	}

	oe.deliveryCounter, err = oe.meter.Int64ObservableCounter(
		"kincord.deliveries",
		metric.WithDescription("Number of Discord deliveries by outcome"),
		metric.WithUnit("{deliveries}"),
		metric.WithInt64Callback(oe.observeDeliveries),
	)
	if err != nil {
		return fmt.Errorf("creating deliveries counter: %w", err)
	}

	oe.attemptsCounter, err = oe.meter.Int64ObservableCounter(
		"kincord.delivery.attempts",
		metric.WithDescription("Number of HTTP sends to Discord, retries included"),
		metric.WithUnit("{attempts}"),
		metric.WithInt64Callback(oe.observeAttempts),
	)
	if err != nil {
		return fmt.Errorf("creating attempts counter: %w", err)
	}

	oe.retriesCounter, err = oe.meter.Int64ObservableCounter(
		"kincord.delivery.retries",
		metric.WithDescription("Number of scheduled Discord delivery retries"),
		metric.WithUnit("{retries}"),
		metric.WithInt64Callback(oe.observeRetries),
	)
	if err != nil {
		return fmt.Errorf("creating retries counter: %w", err)
	}

	oe.listenerUpGauge, err = oe.meter.Int64ObservableGauge(
		"kincord.listener.up",
		metric.WithDescription("1 while the inbound listener is running"),
		metric.WithUnit("{listener}"),
		metric.WithInt64Callback(oe.observeListener),
	)
	if err != nil {
		return fmt.Errorf("creating listener gauge: %w", err)
	}

	return nil
}

// observeResults is a callback that reports inbound events by status
func (oe *OTelExporter) observeResults(ctx context.Context, observer metric.Int64Observer) error {
	counts, err := oe.collector.GetResultCounts(ctx)
	if err != nil {
		return err
	}

	for status, count := range counts {
		observer.Observe(count, metric.WithAttributes(
			attribute.String("relay.status", status),
		))
	}

	return nil
}

// observeDeliveries is a callback that reports delivery outcomes
func (oe *OTelExporter) observeDeliveries(ctx context.Context, observer metric.Int64Observer) error {
	d, err := oe.collector.GetDeliveries(ctx)
	if err != nil {
		return err
	}

	observer.Observe(d.Succeeded, metric.WithAttributes(attribute.String("delivery.outcome", "succeeded")))
	observer.Observe(d.Failed, metric.WithAttributes(attribute.String("delivery.outcome", "failed")))

	return nil
}

func (oe *OTelExporter) observeAttempts(ctx context.Context, observer metric.Int64Observer) error {
	d, err := oe.collector.GetDeliveries(ctx)
	if err != nil {
		return err
	}
	observer.Observe(d.Attempts)
	return nil
}

func (oe *OTelExporter) observeRetries(ctx context.Context, observer metric.Int64Observer) error {
	d, err := oe.collector.GetDeliveries(ctx)
	if err != nil {
		return err
	}
	observer.Observe(d.Retries)
	return nil
}

// observeListener is a callback that reports whether the listener is up
func (oe *OTelExporter) observeListener(ctx context.Context, observer metric.Int64Observer) error {
	l, err := oe.collector.GetListener(ctx)
	if err != nil {
		return err
	}

	var up int64
	if l.Up {
		up = 1
	}
	observer.Observe(up, metric.WithAttributes(
		attribute.String("listener.state", l.State),
	))

	return nil
}

// ServeHTTP serves Prometheus-formatted metrics on the given HTTP handler
func (oe *OTelExporter) ServeHTTP() http.Handler {
	return promhttp.HandlerFor(oe.registry, promhttp.HandlerOpts{})
}

// Shutdown gracefully shuts down the meter provider
func (oe *OTelExporter) Shutdown(ctx context.Context) error {
	if oe.meterProvider != nil {
		return oe.meterProvider.Shutdown(ctx)
	}
	return nil
}
