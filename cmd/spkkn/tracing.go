package main

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/ittaigolde/spkkn-words/internal/config"
)

// setupTracing registers a global OTLP trace provider when tracing is
// enabled. The returned shutdown flushes pending spans.
func setupTracing(ctx context.Context, conf config.Server) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	if !conf.EnableTrace {
		return noop, nil
	}

	opts := []otlptracehttp.Option{}
	if conf.TraceEndpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpointURL(conf.TraceEndpoint))
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return noop, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(programName),
		),
	)
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}
