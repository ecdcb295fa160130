// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tracing

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/tombee/uri-agent/internal/tracing/export"
)

// Provider owns the tracer and meter providers.
type Provider struct {
	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
}

// NewProvider creates the tracer provider with the configured exporter and a
// meter provider backed by the prometheus registry.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "uri-agent"
	}

	// Note: We don't set SchemaURL to avoid conflicts when merging with default resource
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			"",
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler(cfg.SampleRate)),
	}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	switch {
	case exporter == nil:
	case cfg.Exporter == ExporterStdout:
		// Synchronous so spans appear in order with log output.
		opts = append(opts, sdktrace.WithSyncer(exporter))
	default:
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	registerer := cfg.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	promExporter, err := otelprom.New(otelprom.WithRegisterer(registerer))
	if err != nil {
		if exporter != nil {
			_ = exporter.Shutdown(ctx)
		}
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	p := &Provider{
		tp: sdktrace.NewTracerProvider(opts...),
		mp: sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(promExporter),
		),
	}

	if cfg.SetGlobal {
		otel.SetTracerProvider(p.tp)
		otel.SetMeterProvider(p.mp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}

	return p, nil
}

func newSampler(rate float64) sdktrace.Sampler {
	if rate <= 0 || rate >= 1 {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
}

func newExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case "", ExporterNone:
		return nil, nil

	case ExporterStdout:
		writer := cfg.Writer
		if writer == nil {
			writer = os.Stdout
		}
		return export.NewConsoleExporter(export.ConsoleConfig{Writer: writer})

	case ExporterOTLP, ExporterOTLPHTTP:
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("exporter %s requires an endpoint", cfg.Exporter)
		}
		tlsCfg, err := export.BuildTLSConfig(export.TLSConfigInput{
			Enabled:           !cfg.Insecure,
			VerifyCertificate: true,
			CACertPath:        cfg.CACertPath,
		})
		if err != nil {
			return nil, err
		}
		if cfg.Exporter == ExporterOTLP {
			return export.NewOTLPExporter(ctx, export.OTLPConfig{
				Endpoint:  cfg.Endpoint,
				Insecure:  cfg.Insecure,
				TLSConfig: tlsCfg,
				Headers:   cfg.Headers,
			})
		}
		return export.NewOTLPHTTPExporter(ctx, export.OTLPHTTPConfig{
			Endpoint:  cfg.Endpoint,
			Insecure:  cfg.Insecure,
			TLSConfig: tlsCfg,
			Headers:   cfg.Headers,
		})

	default:
		return nil, fmt.Errorf("unknown trace exporter %q", cfg.Exporter)
	}
}

// Tracer returns a tracer for the given instrumentation scope.
func (p *Provider) Tracer(name string) trace.Tracer {
	return p.tp.Tracer(name)
}

// Meter returns a meter for the given instrumentation scope.
func (p *Provider) Meter(name string) metric.Meter {
	return p.mp.Meter(name)
}

// ForceFlush exports all pending spans synchronously.
func (p *Provider) ForceFlush(ctx context.Context) error {
	return p.tp.ForceFlush(ctx)
}

// Shutdown flushes any pending spans and releases resources.
func (p *Provider) Shutdown(ctx context.Context) error {
	return errors.Join(p.tp.Shutdown(ctx), p.mp.Shutdown(ctx))
}
