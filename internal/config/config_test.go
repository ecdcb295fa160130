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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	agenterrors "github.com/tombee/uri-agent/pkg/errors"
)

// clearEnv blanks every variable Load reads so the host environment cannot
// leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"AGENT_BIND", "BIND", "TLS_CERT", "TLS_KEY", "MONGODB_URI_FILE", "API_KEY_FILE",
		"AGENT_RESPONSE_FIELD", "AGENT_ADMIN_BIND", "AGENT_KEYRING_SERVICE", "AGENT_TRACING",
		"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_INSECURE", "AGENT_TLS",
		"AGENT_REQUIRE_AUTH", "AGENT_HANDSHAKE_TIMEOUT", "AGENT_READ_HEADER_TIMEOUT",
		"AGENT_IDLE_TIMEOUT", "AGENT_SHUTDOWN_TIMEOUT", "AGENT_MAX_CONNS",
		"MONGODB_URI", "API_KEY",
	} {
		t.Setenv(name, "")
	}
}

func TestDefault(t *testing.T) {
	s := Default()

	assert.Equal(t, "0.0.0.0:8443", s.Bind)
	assert.True(t, s.TLS.Enabled)
	assert.True(t, s.Auth.Required)
	assert.Equal(t, "uri", s.Secret.ResponseField)
	assert.Equal(t, 10*time.Second, s.TLS.HandshakeTimeout)
	assert.Equal(t, 60*time.Second, s.Server.IdleTimeout)
	assert.Equal(t, TracingNone, s.Tracing.Exporter)
	assert.Equal(t, Options{EnableTLS: true, RequireAuth: true}, s.Options())
	require.NoError(t, s.Validate())
}

func TestLoad_EnvOnly(t *testing.T) {
	clearEnv(t)
	t.Setenv("AGENT_BIND", "127.0.0.1:9443")
	t.Setenv("AGENT_TLS", "false")
	t.Setenv("AGENT_REQUIRE_AUTH", "off")
	t.Setenv("AGENT_RESPONSE_FIELD", "mongo_uri")
	t.Setenv("AGENT_MAX_CONNS", "64")
	t.Setenv("AGENT_IDLE_TIMEOUT", "2m")

	s, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9443", s.Bind)
	assert.False(t, s.TLS.Enabled)
	assert.False(t, s.Auth.Required)
	assert.Equal(t, "mongo_uri", s.Secret.ResponseField)
	assert.Equal(t, 64, s.Server.MaxConnections)
	assert.Equal(t, 2*time.Minute, s.Server.IdleTimeout)
}

func TestLoad_BindFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("BIND", "127.0.0.1:7000")

	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", s.Bind)

	t.Setenv("AGENT_BIND", "127.0.0.1:7001")
	s, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7001", s.Bind, "AGENT_BIND wins over BIND")
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "agent.yaml")
	content := `
bind: 127.0.0.1:8000
tls:
  enabled: false
auth:
  api_key_file: /run/secrets/api_key
secret:
  response_field: mongo_uri
server:
  idle_timeout: 30s
  max_connections: 10
admin:
  bind: 127.0.0.1:9090
tracing:
  exporter: stdout
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8000", s.Bind)
	assert.False(t, s.TLS.Enabled)
	assert.True(t, s.Auth.Required, "unset keys keep defaults")
	assert.Equal(t, "/run/secrets/api_key", s.Auth.CredentialFile)
	assert.Equal(t, DefaultSecretFile, s.Secret.File)
	assert.Equal(t, "mongo_uri", s.Secret.ResponseField)
	assert.Equal(t, 30*time.Second, s.Server.IdleTimeout)
	assert.Equal(t, DefaultShutdownTimeout, s.Server.ShutdownTimeout)
	assert.Equal(t, 10, s.Server.MaxConnections)
	assert.Equal(t, "127.0.0.1:9090", s.Admin.Bind)
	assert.Equal(t, TracingStdout, s.Tracing.Exporter)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "agent.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bind: 127.0.0.1:8000\ntls:\n  enabled: false\n"), 0o600))

	t.Setenv("AGENT_BIND", "127.0.0.1:8001")
	t.Setenv("AGENT_TLS", "true")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8001", s.Bind)
	assert.True(t, s.TLS.Enabled)
}

func TestLoad_OverridesBeatEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("AGENT_BIND", "127.0.0.1:8001")

	s, err := Load("", func(s *Settings) { s.Bind = "127.0.0.1:8002" })
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8002", s.Bind)
}

func TestLoad_OverrideIsValidated(t *testing.T) {
	clearEnv(t)

	_, err := Load("", func(s *Settings) { s.Bind = "not-an-address" })
	require.Error(t, err)
	assert.ErrorIs(t, err, agenterrors.InvalidBindAddress)
}

func TestLoad_EmptyFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultBindAddress, s.Bind)
}

func TestLoad_FileErrors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("mongodb_uri: mongodb://x\n"), 0o600))

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "nope.yaml")},
		{"unknown field", unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			require.Error(t, err)

			var cfgErr *agenterrors.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.ErrorIs(t, err, agenterrors.InvalidFile)
		})
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		kind agenterrors.Kind
	}{
		{"bad bool", "AGENT_TLS", "maybe", agenterrors.InvalidOption},
		{"bad int", "AGENT_MAX_CONNS", "many", agenterrors.InvalidOption},
		{"bad duration", "AGENT_IDLE_TIMEOUT", "soon", agenterrors.InvalidOption},
		{"bad bind", "AGENT_BIND", "8443", agenterrors.InvalidBindAddress},
		{"bad tracing", "AGENT_TRACING", "zipkin", agenterrors.InvalidOption},
		{"bad field", "AGENT_RESPONSE_FIELD", "mongo-uri", agenterrors.InvalidOption},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load("")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)

			var cfgErr *agenterrors.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.NotEmpty(t, cfgErr.Key)
		})
	}
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", "yes", "On"} {
		b, err := ParseBool(v)
		require.NoError(t, err, v)
		assert.True(t, b, v)
	}
	for _, v := range []string{"0", "false", "no", "off"} {
		b, err := ParseBool(v)
		require.NoError(t, err, v)
		assert.False(t, b, v)
	}
	_, err := ParseBool("enabled")
	assert.Error(t, err)
}
