// Package telemetry records dispatcher activity as OpenTelemetry metrics.
//
// Hooks builds the instruments and returns them as dispatcher options:
//
//	opts, err := telemetry.Hooks(otel.Meter(telemetry.ScopeName))
//	if err != nil {
//	    return err
//	}
//	d := slackdispatch.New(api, opts...)
//
// Setup installs a global meter provider: a stdout exporter for development,
// an OTLP/HTTP exporter for a collector, or a no-op provider when telemetry
// is off.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/bjaus/slackdispatch"
)

// ScopeName is the instrumentation scope for dispatcher metrics.
const ScopeName = "github.com/bjaus/slackdispatch"

// Exporters accepted by Config.Exporter.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// Config selects where metrics go.
type Config struct {
	Exporter string
	// Endpoint is the collector host:port for the otlp exporter. Empty uses
	// the OTEL_EXPORTER_OTLP_* environment variables.
	Endpoint    string
	Interval    time.Duration
	ServiceName string
	Version     string
}

// Setup installs the global meter provider described by cfg and returns a
// function that flushes and stops it.
func Setup(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if cfg.Exporter == "" || cfg.Exporter == ExporterNone {
		otel.SetMeterProvider(metricnoop.NewMeterProvider())
		return func(context.Context) error { return nil }, nil
	}

	exp, err := buildExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = 15 * time.Second
	}

	name := cfg.ServiceName
	if name == "" {
		name = "slackdispatch"
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(name),
			semconv.ServiceVersionKey.String(cfg.Version),
		),
		resource.WithHost(),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: resource: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(interval))),
	)
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}

func buildExporter(ctx context.Context, cfg Config) (sdkmetric.Exporter, error) {
	switch cfg.Exporter {
	case ExporterStdout:
		exp, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("telemetry: stdout exporter: %w", err)
		}
		return exp, nil
	case ExporterOTLP:
		var opts []otlpmetrichttp.Option
		if cfg.Endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(cfg.Endpoint), otlpmetrichttp.WithInsecure())
		}
		exp, err := otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("telemetry: otlp exporter: %w", err)
		}
		return exp, nil
	default:
		return nil, fmt.Errorf("telemetry: unknown exporter %q", cfg.Exporter)
	}
}

// Hooks creates the dispatcher instruments on meter and returns the options
// that feed them. Every measurement carries a "kind" attribute, and handler
// measurements for commands also carry the command name.
func Hooks(meter metric.Meter) ([]slackdispatch.Option, error) {
	dispatched, err1 := meter.Int64Counter("slackdispatch.dispatched",
		metric.WithDescription("Handlers invoked"),
	)
	unmatched, err2 := meter.Int64Counter("slackdispatch.unmatched",
		metric.WithDescription("Payloads dropped because no handler matched"),
	)
	failures, err3 := meter.Int64Counter("slackdispatch.failures",
		metric.WithDescription("Handlers that returned an error"),
	)
	expired, err4 := meter.Int64Counter("slackdispatch.expired",
		metric.WithDescription("Pending dialogs evicted before submission"),
	)
	duration, err5 := meter.Float64Histogram("slackdispatch.handler.duration",
		metric.WithDescription("Handler execution time in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err := errors.Join(err1, err2, err3, err4, err5); err != nil {
		return nil, fmt.Errorf("telemetry: instruments: %w", err)
	}

	submissionKind := attribute.String("kind", slackdispatch.KindSubmission.String())

	return []slackdispatch.Option{
		slackdispatch.WithOnDispatch(func(ctx context.Context, kind slackdispatch.Kind, key string) {
			dispatched.Add(ctx, 1, metric.WithAttributes(attrs(kind, key)...))
		}),
		slackdispatch.WithOnSuccess(func(ctx context.Context, kind slackdispatch.Kind, key string, d time.Duration) {
			duration.Record(ctx, ms(d), metric.WithAttributes(attrs(kind, key)...))
		}),
		slackdispatch.WithOnFailure(func(ctx context.Context, kind slackdispatch.Kind, key string, err error, d time.Duration) {
			duration.Record(ctx, ms(d), metric.WithAttributes(attrs(kind, key)...))
			failures.Add(ctx, 1, metric.WithAttributes(attrs(kind, key)...))
		}),
		slackdispatch.WithOnUnmatched(func(ctx context.Context, kind slackdispatch.Kind, key string) {
			unmatched.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind.String())))
		}),
		slackdispatch.WithOnExpired(func(callbackID string) {
			expired.Add(context.Background(), 1, metric.WithAttributes(submissionKind))
		}),
	}, nil
}

// attrs keys measurements by kind, and by key for commands. Callback IDs
// are left out since they are unbounded.
func attrs(kind slackdispatch.Kind, key string) []attribute.KeyValue {
	kv := []attribute.KeyValue{attribute.String("kind", kind.String())}
	if kind == slackdispatch.KindCommand && key != "" {
		kv = append(kv, attribute.String("command", key))
	}
	return kv
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
