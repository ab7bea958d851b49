package telemetry

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/freekieb7/hearth/test"
	"go.opentelemetry.io/otel"
)

func TestSetupNone(t *testing.T) {
	shutdown, err := Setup(context.Background(), ExporterNone, "hearth-test", nil)
	if err != nil {
		t.Fatal(err)
	}
	test.AssertNoError(t, shutdown(context.Background()))
}

func TestSetupUnknownExporter(t *testing.T) {
	_, err := Setup(context.Background(), "carrier-pigeon", "hearth-test", nil)
	if !errors.Is(err, ErrUnknownExporter) {
		t.Errorf("expected ErrUnknownExporter, got %v", err)
	}
}

func TestSetupStdout(t *testing.T) {
	var out bytes.Buffer

	shutdown, err := Setup(context.Background(), ExporterStdout, "hearth-test", &out)
	if err != nil {
		t.Fatal(err)
	}

	_, span := otel.Tracer("telemetry-test").Start(context.Background(), "probe-span")
	span.End()

	test.AssertNoError(t, shutdown(context.Background()))
	test.AssertContains(t, out.String(), "probe-span")
	test.AssertContains(t, out.String(), "hearth-test")
}
