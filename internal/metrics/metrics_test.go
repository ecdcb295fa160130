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

package metrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRequest(t *testing.T) {
	tests := []string{OutcomeDisclosed, OutcomeMissingKey, OutcomeInvalidKey}

	for _, outcome := range tests {
		t.Run(outcome, func(t *testing.T) {
			counter := requests.With(prometheus.Labels{"outcome": outcome})
			initialCount := testutil.ToFloat64(counter)

			RecordRequest(outcome)

			if got := testutil.ToFloat64(counter); got != initialCount+1 {
				t.Errorf("expected count to increment by 1, got initial=%f, new=%f", initialCount, got)
			}
		})
	}
}

func TestRecordHandshakeFailure(t *testing.T) {
	counter := handshakeFailures.With(prometheus.Labels{"reason": "eof"})
	initialCount := testutil.ToFloat64(counter)

	for i := 0; i < 3; i++ {
		RecordHandshakeFailure(io.EOF)
	}

	if got := testutil.ToFloat64(counter); got != initialCount+3 {
		t.Errorf("expected count to increment by 3, got initial=%f, new=%f", initialCount, got)
	}
}

func TestHandshakeFailureReason(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"context deadline", context.DeadlineExceeded, "timeout"},
		{"io deadline", fmt.Errorf("read: %w", os.ErrDeadlineExceeded), "timeout"},
		{"eof", io.EOF, "eof"},
		{"unexpected eof", fmt.Errorf("tls: %w", io.ErrUnexpectedEOF), "eof"},
		{"reset", fmt.Errorf("read tcp: %w", syscall.ECONNRESET), "reset"},
		{"protocol", errors.New("tls: first record does not look like a TLS handshake"), "protocol"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HandshakeFailureReason(tt.err); got != tt.want {
				t.Errorf("HandshakeFailureReason() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConnectionGauge(t *testing.T) {
	initial := testutil.ToFloat64(connectionsActive)

	ConnectionOpened()
	ConnectionOpened()
	ConnectionClosed()

	if got := testutil.ToFloat64(connectionsActive); got != initial+1 {
		t.Errorf("expected gauge at %f, got %f", initial+1, got)
	}
	ConnectionClosed()
}

func TestCountersRegistered(t *testing.T) {
	RecordConnectionAccepted()
	RecordHandshakeSuccess()

	if n := testutil.CollectAndCount(connectionsAccepted); n != 1 {
		t.Errorf("expected 1 accepted-connections series, got %d", n)
	}
	if testutil.ToFloat64(handshakeSuccesses) < 1 {
		t.Error("handshake success counter not incremented")
	}
}
