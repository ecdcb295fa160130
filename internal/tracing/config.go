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

// Package tracing sets up OpenTelemetry for the agent: a tracer provider
// with an optional span exporter, and a meter provider whose instruments
// are exposed through the prometheus registry.
package tracing

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
)

// Exporter names.
const (
	ExporterNone     = "none"
	ExporterStdout   = "stdout"
	ExporterOTLP     = "otlp"
	ExporterOTLPHTTP = "otlp-http"
)

// Config holds observability configuration.
type Config struct {
	// Exporter is one of none, stdout, otlp, otlp-http.
	Exporter string

	// Endpoint is the OTLP receiver (e.g., "localhost:4317").
	Endpoint string

	// Insecure disables TLS towards the receiver.
	Insecure bool

	// CACertPath is an optional CA bundle for verifying the receiver.
	CACertPath string

	// Headers are sent with every export request.
	Headers map[string]string

	// ServiceName identifies this service in traces.
	ServiceName string

	// ServiceVersion is the application version.
	ServiceVersion string

	// SampleRate is the fraction of root spans recorded (0.0 - 1.0).
	// Zero means sample everything.
	SampleRate float64

	// Writer receives spans for the stdout exporter (default: os.Stdout).
	Writer io.Writer

	// Registerer receives the OpenTelemetry metric collector
	// (default: prometheus.DefaultRegisterer).
	Registerer prometheus.Registerer

	// SetGlobal installs the providers as the process-wide defaults.
	SetGlobal bool
}
