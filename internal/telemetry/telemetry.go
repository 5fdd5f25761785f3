// Package telemetry installs the OpenTelemetry tracer provider.
package telemetry

import (
	"context"
	"io"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Config describes the traced service.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	// Writer receives exported spans. Nil means os.Stdout.
	Writer io.Writer
}

// Telemetry owns the installed tracer provider.
type Telemetry struct {
	tp *sdktrace.TracerProvider
}

// Setup exports spans as JSON lines to cfg.Writer and installs the provider globally.
func Setup(cfg Config) (*Telemetry, error) {
	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create span exporter")
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
		attribute.String("deployment.environment", cfg.Environment),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return &Telemetry{tp: tp}, nil
}

// Shutdown flushes pending spans. It is safe on a nil receiver.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil || t.tp == nil {
		return nil
	}
	if err := t.tp.Shutdown(ctx); err != nil {
		return goerr.Wrap(err, "failed to shutdown tracer provider")
	}
	return nil
}
