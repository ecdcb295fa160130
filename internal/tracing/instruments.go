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
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Instruments are the OpenTelemetry metric instruments recorded per request.
type Instruments struct {
	// RequestDuration is the time from handler entry to response write.
	RequestDuration metric.Float64Histogram
}

// NewInstruments creates the agent's instruments on meter.
func NewInstruments(meter metric.Meter) (*Instruments, error) {
	duration, err := meter.Float64Histogram(
		"uri_agent.request.duration",
		metric.WithDescription("Duration of requests to the disclosure endpoint"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request duration histogram: %w", err)
	}

	return &Instruments{RequestDuration: duration}, nil
}
