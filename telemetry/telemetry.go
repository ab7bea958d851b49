package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

var ErrUnknownExporter = errors.New("telemetry: unknown exporter")

type ShutdownFunc func(context.Context) error

type exporters struct {
	spans   sdktrace.SpanExporter
	metrics sdkmetric.Exporter
	logs    sdklog.Exporter
}

// Setup installs global tracer, meter and logger providers backed by the
// named exporter. The stdout exporter writes to out. With ExporterNone the
// otel globals are left as no-ops.
func Setup(ctx context.Context, exporter, serviceName string, out io.Writer) (ShutdownFunc, error) {
	if exporter == ExporterNone || exporter == "" {
		return func(context.Context) error { return nil }, nil
	}

	exp, err := newExporters(ctx, exporter, out)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: building resource: %w", err)
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp.spans),
		sdktrace.WithResource(res),
	)
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp.metrics)),
		sdkmetric.WithResource(res),
	)
	loggerProvider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exp.logs)),
		sdklog.WithResource(res),
	)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(meterProvider)
	global.SetLoggerProvider(loggerProvider)

	shutdown := func(ctx context.Context) error {
		return errors.Join(
			tracerProvider.Shutdown(ctx),
			meterProvider.Shutdown(ctx),
			loggerProvider.Shutdown(ctx),
		)
	}

	return shutdown, nil
}

func newExporters(ctx context.Context, exporter string, out io.Writer) (exporters, error) {
	var (
		exp exporters
		err error
	)

	switch exporter {
	case ExporterStdout:
		if exp.spans, err = stdouttrace.New(stdouttrace.WithWriter(out)); err != nil {
			return exp, fmt.Errorf("telemetry: stdout trace exporter: %w", err)
		}
		if exp.metrics, err = stdoutmetric.New(stdoutmetric.WithWriter(out)); err != nil {
			return exp, fmt.Errorf("telemetry: stdout metric exporter: %w", err)
		}
		if exp.logs, err = stdoutlog.New(stdoutlog.WithWriter(out)); err != nil {
			return exp, fmt.Errorf("telemetry: stdout log exporter: %w", err)
		}
	case ExporterOTLP:
		// Endpoint and protocol come from the OTEL_EXPORTER_OTLP_* variables.
		if exp.spans, err = otlptracegrpc.New(ctx); err != nil {
			return exp, fmt.Errorf("telemetry: otlp trace exporter: %w", err)
		}
		if exp.metrics, err = otlpmetricgrpc.New(ctx); err != nil {
			return exp, fmt.Errorf("telemetry: otlp metric exporter: %w", err)
		}
		if exp.logs, err = otlploggrpc.New(ctx); err != nil {
			return exp, fmt.Errorf("telemetry: otlp log exporter: %w", err)
		}
	default:
		return exp, fmt.Errorf("%w: %q", ErrUnknownExporter, exporter)
	}

	return exp, nil
}
