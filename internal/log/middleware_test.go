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

package log

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMiddleware_LogsRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "info", Format: FormatJSON, Output: &buf})

	handler := NewMiddleware(logger).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"uri":"x"}`))
	}))

	req := httptest.NewRequest("GET", "/v1/mongo-uri", nil)
	req.RemoteAddr = "10.1.2.3:40000"
	req.Header.Set("X-API-Key", "super-secret-key")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected valid JSON output: %v", err)
	}

	if entry["event"] != "http_request" {
		t.Errorf("expected event 'http_request', got: %v", entry["event"])
	}
	if entry["path"] != "/v1/mongo-uri" {
		t.Errorf("expected path '/v1/mongo-uri', got: %v", entry["path"])
	}
	if entry["status"] != float64(200) {
		t.Errorf("expected status 200, got: %v", entry["status"])
	}
	if entry["bytes"] != float64(len(`{"uri":"x"}`)) {
		t.Errorf("expected bytes to match body length, got: %v", entry["bytes"])
	}
	if entry["remote"] != "10.1.2.3:40000" {
		t.Errorf("expected remote '10.1.2.3:40000', got: %v", entry["remote"])
	}
	if entry["level"] != "INFO" {
		t.Errorf("expected INFO level, got: %v", entry["level"])
	}

	if strings.Contains(buf.String(), "super-secret-key") {
		t.Errorf("credential header must never be logged: %s", buf.String())
	}

	id := rec.Header().Get(RequestIDHeader)
	if id == "" {
		t.Fatal("expected X-Request-ID response header")
	}
	if entry["request_id"] != id {
		t.Errorf("expected logged request_id %q, got %v", id, entry["request_id"])
	}
}

func TestMiddleware_RejectedRequestLogsWarn(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "info", Format: FormatJSON, Output: &buf})

	handler := NewMiddleware(logger).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "missing API key", http.StatusUnauthorized)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/v1/mongo-uri", nil))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected valid JSON output: %v", err)
	}
	if entry["level"] != "WARN" {
		t.Errorf("expected WARN level, got: %v", entry["level"])
	}
	if entry["status"] != float64(401) {
		t.Errorf("expected status 401, got: %v", entry["status"])
	}
	if entry["msg"] != "request rejected" {
		t.Errorf("expected msg 'request rejected', got: %v", entry["msg"])
	}
}

func TestMiddleware_ImplicitStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "info", Format: FormatJSON, Output: &buf})

	handler := NewMiddleware(logger).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if !strings.Contains(buf.String(), `"status":200`) {
		t.Errorf("expected implicit status 200, got: %s", buf.String())
	}
}
