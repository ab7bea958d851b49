package http

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/freekieb7/hearth/http"

type Instruments struct {
	Requests     metric.Int64Counter
	ResponseSize metric.Int64Histogram
	ActiveConns  metric.Int64UpDownCounter
}

func NewInstruments(meter metric.Meter) (*Instruments, error) {
	requests, err := meter.Int64Counter("http.server.requests",
		metric.WithDescription("The number of requests served by status code"),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, err
	}

	responseSize, err := meter.Int64Histogram("http.server.response.body.size",
		metric.WithDescription("Size of response bodies as sent, after compression"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, err
	}

	activeConns, err := meter.Int64UpDownCounter("http.server.active_connections",
		metric.WithDescription("The number of connections currently being served"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return nil, err
	}

	return &Instruments{
		Requests:     requests,
		ResponseSize: responseSize,
		ActiveConns:  activeConns,
	}, nil
}

func defaultTracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

func defaultMeter() metric.Meter {
	return otel.Meter(instrumentationName)
}
