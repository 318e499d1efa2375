package tracing

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"jilai-deployer/internal/config"
)

type ShutdownFunc func(context.Context) error

/**
 * Install the global tracer provider
 * @param {config.TraceConfig} cfg - Tracing switch and output file ("" or "stderr" for stderr)
 * @param {string} version - Service version attribute
 * @returns {ShutdownFunc} Flushes and closes the exporter; a no-op when tracing is disabled
 */
func Init(cfg config.TraceConfig, version string) (ShutdownFunc, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	var out io.Writer = os.Stderr
	var file *os.File
	if cfg.Output != "" && cfg.Output != "stderr" {
		f, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open trace output: %w", err)
		}
		out, file = f, f
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(out), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}
	res := resource.NewSchemaless(
		attribute.String("service.name", "jilai-deployer"),
		attribute.String("service.version", version),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return func(ctx context.Context) error {
		err := tp.Shutdown(ctx)
		if file != nil {
			file.Close()
		}
		return err
	}, nil
}
