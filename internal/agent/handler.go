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

package agent

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/tombee/uri-agent/internal/httputil"
	"github.com/tombee/uri-agent/internal/metrics"
	"github.com/tombee/uri-agent/internal/tracing"
)

// DisclosurePath is the only route served on the disclosure listener.
const DisclosurePath = "/v1/mongo-uri"

// DisclosureHandler answers with the secret in a one-field JSON object.
// It holds no mutable state and is safe for concurrent use.
type DisclosureHandler struct {
	field       string
	secret      string
	tracer      trace.Tracer
	instruments *tracing.Instruments
}

// NewDisclosureHandler creates the handler. field is the JSON key
// ("uri" or "mongo_uri").
func NewDisclosureHandler(field, secret string, tracer trace.Tracer, instruments *tracing.Instruments) *DisclosureHandler {
	return &DisclosureHandler{
		field:       field,
		secret:      secret,
		tracer:      tracer,
		instruments: instruments,
	}
}

// ServeHTTP implements http.Handler.
func (h *DisclosureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	// The span never carries the secret.
	ctx, span := h.tracer.Start(r.Context(), "uri-agent.disclose",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			semconv.HTTPRequestMethodKey.String(r.Method),
			semconv.URLPath(r.URL.Path),
			semconv.HTTPRoute(DisclosurePath),
		),
	)
	defer span.End()

	httputil.NoStore(w)
	httputil.WriteJSON(w, http.StatusOK, map[string]string{h.field: h.secret})

	span.SetAttributes(semconv.HTTPResponseStatusCode(http.StatusOK))
	span.SetStatus(codes.Ok, "")
	metrics.RecordRequest(metrics.OutcomeDisclosed)
	if h.instruments != nil {
		h.instruments.RequestDuration.Record(ctx, time.Since(start).Seconds())
	}
}

// newDisclosureMux routes GET (and implicitly HEAD) on DisclosurePath to h.
// Other methods get 405 with an Allow header; other paths get 404.
func newDisclosureMux(h http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET "+DisclosurePath, h)
	return mux
}
