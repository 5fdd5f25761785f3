package telemetry_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/sentinell/internal/telemetry"
	"go.opentelemetry.io/otel"
)

func TestSetupExportsSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	tel, err := telemetry.Setup(telemetry.Config{
		ServiceName:    "sentinell-test",
		ServiceVersion: "1.0.0",
		Environment:    "test",
		Writer:         &buf,
	})
	gt.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "agent_scan_execution")
	span.End()

	gt.NoError(t, tel.Shutdown(context.Background()))
	out := buf.String()
	gt.True(t, strings.Contains(out, "agent_scan_execution"))
	gt.True(t, strings.Contains(out, "sentinell-test"))
}

func TestShutdownNil(t *testing.T) {
	var tel *telemetry.Telemetry
	gt.NoError(t, tel.Shutdown(context.Background()))
}
