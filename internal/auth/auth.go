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

// Package auth implements the shared-credential gate in front of the
// disclosure endpoint.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tombee/uri-agent/internal/httputil"
	"github.com/tombee/uri-agent/internal/log"
	"github.com/tombee/uri-agent/internal/metrics"
	agenterrors "github.com/tombee/uri-agent/pkg/errors"
)

// HeaderName is the request header carrying the shared credential.
const HeaderName = "X-API-Key"

// Decision is the outcome of checking one request.
type Decision struct {
	Allowed bool

	// Reason is AuthMissing or AuthInvalid when the request is denied.
	Reason agenterrors.Kind
}

// Err returns nil for an allowed request and an *errors.AuthError otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &agenterrors.AuthError{Reason: d.Reason}
}

// Authorize checks the X-API-Key header against expected.
//
// An absent header is denied as missing. A present header is trimmed of
// surrounding whitespace and compared in constant time; anything but an
// exact match is denied as invalid. An empty expected credential matches
// nothing. When the header is repeated only the first value counts.
func Authorize(h http.Header, expected string) Decision {
	values := h.Values(HeaderName)
	if len(values) == 0 {
		return Decision{Reason: agenterrors.AuthMissing}
	}

	presented := strings.TrimSpace(values[0])
	if expected == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(expected)) != 1 {
		return Decision{Reason: agenterrors.AuthInvalid}
	}
	return Decision{Allowed: true}
}

// Config contains authentication configuration.
type Config struct {
	// Enabled controls whether authentication is required.
	Enabled bool

	// Credential is the shared key callers must present.
	Credential string

	// Logger receives rejected-request events at debug level.
	Logger *slog.Logger
}

// Middleware provides authentication middleware.
type Middleware struct {
	config Config
	logger *slog.Logger
}

// NewMiddleware creates a new auth middleware.
func NewMiddleware(cfg Config) *Middleware {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Middleware{
		config: cfg,
		logger: log.WithComponent(logger, "auth"),
	}
}

// Wrap wraps an http.Handler with authentication. Denied requests get a
// 401 with a plain-text reason and never reach next.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.config.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		decision := Authorize(r.Header, m.config.Credential)
		if !decision.Allowed {
			m.unauthorized(w, r, decision)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// unauthorized sends an unauthorized response.
func (m *Middleware) unauthorized(w http.ResponseWriter, r *http.Request, d Decision) {
	outcome := metrics.OutcomeInvalidKey
	if d.Reason == agenterrors.AuthMissing {
		outcome = metrics.OutcomeMissingKey
	}
	metrics.RecordRequest(outcome)

	log.WithRequestID(m.logger, w.Header().Get(log.RequestIDHeader)).Debug("request denied",
		slog.String("reason", string(d.Reason)),
		slog.String(log.RemoteKey, r.RemoteAddr),
		slog.String("path", r.URL.Path))

	w.Header().Set("WWW-Authenticate", "ApiKey")
	httputil.NoStore(w)
	httputil.WriteText(w, http.StatusUnauthorized, d.Err().Error())
}

// GenerateKey generates a new random shared credential.
func GenerateKey() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return "uak_" + hex.EncodeToString(bytes), nil
}
