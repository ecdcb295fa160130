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

// Package metrics holds the agent's prometheus collectors. They register
// with the default registry and are exposed by the admin listener.
package metrics

import (
	"context"
	"errors"
	"io"
	"net"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcomes.
const (
	OutcomeDisclosed  = "disclosed"
	OutcomeMissingKey = "missing_key"
	OutcomeInvalidKey = "invalid_key"
)

var (
	connectionsAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "uri_agent_connections_accepted_total",
			Help: "Total inbound TCP connections accepted",
		},
	)

	connectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "uri_agent_connections_active",
			Help: "Connections currently open on the disclosure listener",
		},
	)

	handshakeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uri_agent_tls_handshake_failures_total",
			Help: "Total TLS handshakes that failed, by reason",
		},
		[]string{"reason"},
	)

	handshakeSuccesses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "uri_agent_tls_handshakes_total",
			Help: "Total TLS handshakes that completed",
		},
	)

	requests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uri_agent_requests_total",
			Help: "Total requests to the disclosure endpoint by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordConnectionAccepted counts a raw connection accepted by the listener.
func RecordConnectionAccepted() {
	connectionsAccepted.Inc()
}

// ConnectionOpened and ConnectionClosed track the active connection gauge.
func ConnectionOpened() { connectionsActive.Inc() }

// ConnectionClosed decrements the active connection gauge.
func ConnectionClosed() { connectionsActive.Dec() }

// RecordHandshakeSuccess counts a completed TLS handshake.
func RecordHandshakeSuccess() {
	handshakeSuccesses.Inc()
}

// RecordHandshakeFailure counts a failed TLS handshake. The reason label is
// derived from err: "timeout", "eof", "reset" or "protocol".
func RecordHandshakeFailure(err error) {
	handshakeFailures.WithLabelValues(HandshakeFailureReason(err)).Inc()
}

// RecordRequest counts a request outcome (OutcomeDisclosed, OutcomeMissingKey, ...).
func RecordRequest(outcome string) {
	requests.WithLabelValues(outcome).Inc()
}

// HandshakeFailureReason classifies a handshake error into a low-cardinality label.
func HandshakeFailureReason(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return "eof"
	case isReset(err):
		return "reset"
	default:
		return "protocol"
	}
}
