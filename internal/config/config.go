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

// Package config resolves the agent's configuration.
//
// Non-secret settings come from defaults, an optional YAML file and the
// environment, in that order. Resolve then reads the secret, the shared
// credential and the TLS material once and returns an immutable AgentConfig.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	agenterrors "github.com/tombee/uri-agent/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Default values.
const (
	DefaultBindAddress       = "0.0.0.0:8443"
	DefaultSecretFile        = "/etc/uri-agent/mongodb_uri"
	DefaultCredentialFile    = "/etc/uri-agent/api_key"
	DefaultCertFile          = "/etc/uri-agent/tls/cert.pem"
	DefaultKeyFile           = "/etc/uri-agent/tls/key.pem"
	DefaultResponseField     = "uri"
	DefaultHandshakeTimeout  = 10 * time.Second
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultIdleTimeout       = 60 * time.Second
	DefaultShutdownTimeout   = 10 * time.Second
)

// Tracing exporters accepted in TracingSettings.Exporter.
const (
	TracingNone     = "none"
	TracingStdout   = "stdout"
	TracingOTLP     = "otlp"
	TracingOTLPHTTP = "otlp-http"
)

// Options is the single configuration surface for the agent's variants:
// TLS on or off, authentication on or off.
type Options struct {
	EnableTLS   bool
	RequireAuth bool
}

// Settings holds every non-secret setting. The YAML file maps onto it
// directly; secret values never appear here, only where to find them.
type Settings struct {
	// Bind is the host:port the disclosure listener binds to.
	// Environment: AGENT_BIND, then BIND
	Bind string `yaml:"bind"`

	TLS     TLSSettings     `yaml:"tls"`
	Auth    AuthSettings    `yaml:"auth"`
	Secret  SecretSettings  `yaml:"secret"`
	Server  ServerSettings  `yaml:"server"`
	Admin   AdminSettings   `yaml:"admin"`
	Tracing TracingSettings `yaml:"tracing"`

	// KeyringService enables the OS keyring as the last secret source.
	// Environment: AGENT_KEYRING_SERVICE
	KeyringService string `yaml:"keyring_service,omitempty"`
}

// TLSSettings configures transport security.
type TLSSettings struct {
	// Environment: AGENT_TLS
	Enabled bool `yaml:"enabled"`

	// Environment: TLS_CERT
	CertFile string `yaml:"cert_file"`

	// Environment: TLS_KEY
	KeyFile string `yaml:"key_file"`

	// HandshakeTimeout bounds each connection's TLS handshake.
	// Environment: AGENT_HANDSHAKE_TIMEOUT
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
}

// AuthSettings configures the shared-credential gate.
type AuthSettings struct {
	// Environment: AGENT_REQUIRE_AUTH
	Required bool `yaml:"required"`

	// CredentialFile is consulted when API_KEY is not set.
	// Environment: API_KEY_FILE
	CredentialFile string `yaml:"api_key_file"`
}

// SecretSettings configures where the disclosed value comes from and how
// it is rendered.
type SecretSettings struct {
	// File is consulted when MONGODB_URI is not set.
	// Environment: MONGODB_URI_FILE
	File string `yaml:"file"`

	// ResponseField is the JSON field carrying the value.
	// Environment: AGENT_RESPONSE_FIELD
	ResponseField string `yaml:"response_field"`
}

// ServerSettings configures the HTTP server.
type ServerSettings struct {
	// Environment: AGENT_READ_HEADER_TIMEOUT
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`

	// Environment: AGENT_IDLE_TIMEOUT
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// Environment: AGENT_SHUTDOWN_TIMEOUT
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxConnections caps concurrently open connections. 0 means unlimited.
	// Environment: AGENT_MAX_CONNS
	MaxConnections int `yaml:"max_connections"`
}

// AdminSettings configures the optional health and metrics listener.
type AdminSettings struct {
	// Bind is empty when the admin listener is disabled.
	// Environment: AGENT_ADMIN_BIND
	Bind string `yaml:"bind,omitempty"`
}

// TracingSettings configures span export.
type TracingSettings struct {
	// Exporter is one of none, stdout, otlp, otlp-http.
	// Environment: AGENT_TRACING
	Exporter string `yaml:"exporter"`

	// Endpoint is the OTLP collector address.
	// Environment: OTEL_EXPORTER_OTLP_ENDPOINT
	Endpoint string `yaml:"endpoint,omitempty"`

	// Insecure disables TLS towards the collector.
	// Environment: OTEL_EXPORTER_OTLP_INSECURE
	Insecure bool `yaml:"insecure,omitempty"`
}

// Default returns settings with sensible defaults: TLS and auth on, bind
// to all interfaces on 8443.
func Default() *Settings {
	return &Settings{
		Bind: DefaultBindAddress,
		TLS: TLSSettings{
			Enabled:          true,
			CertFile:         DefaultCertFile,
			KeyFile:          DefaultKeyFile,
			HandshakeTimeout: DefaultHandshakeTimeout,
		},
		Auth: AuthSettings{
			Required:       true,
			CredentialFile: DefaultCredentialFile,
		},
		Secret: SecretSettings{
			File:          DefaultSecretFile,
			ResponseField: DefaultResponseField,
		},
		Server: ServerSettings{
			ReadHeaderTimeout: DefaultReadHeaderTimeout,
			IdleTimeout:       DefaultIdleTimeout,
			ShutdownTimeout:   DefaultShutdownTimeout,
		},
		Tracing: TracingSettings{
			Exporter: TracingNone,
		},
	}
}

// Options returns the variant switches.
func (s *Settings) Options() Options {
	return Options{
		EnableTLS:   s.TLS.Enabled,
		RequireAuth: s.Auth.Required,
	}
}

// Override adjusts settings after the file and environment are applied.
// Command-line flags are applied this way.
type Override func(*Settings)

// Load builds settings from defaults, the optional YAML file at configPath,
// the environment and overrides, in that order of increasing precedence,
// then validates them.
func Load(configPath string, overrides ...Override) (*Settings, error) {
	s := Default()

	if configPath != "" {
		if err := s.loadFromFile(configPath); err != nil {
			return nil, &agenterrors.ConfigError{
				Kind:   agenterrors.InvalidFile,
				Key:    "config_file",
				Reason: fmt.Sprintf("failed to load from %s", configPath),
				Cause:  err,
			}
		}
	}

	s.applyDefaults()

	if err := s.loadFromEnv(); err != nil {
		return nil, err
	}

	for _, override := range overrides {
		override(s)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Settings) loadFromFile(path string) error {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// applyDefaults fills zero values a partial config file may have left.
func (s *Settings) applyDefaults() {
	d := Default()

	if s.Bind == "" {
		s.Bind = d.Bind
	}
	if s.TLS.CertFile == "" {
		s.TLS.CertFile = d.TLS.CertFile
	}
	if s.TLS.KeyFile == "" {
		s.TLS.KeyFile = d.TLS.KeyFile
	}
	if s.TLS.HandshakeTimeout == 0 {
		s.TLS.HandshakeTimeout = d.TLS.HandshakeTimeout
	}
	if s.Auth.CredentialFile == "" {
		s.Auth.CredentialFile = d.Auth.CredentialFile
	}
	if s.Secret.File == "" {
		s.Secret.File = d.Secret.File
	}
	if s.Secret.ResponseField == "" {
		s.Secret.ResponseField = d.Secret.ResponseField
	}
	if s.Server.ReadHeaderTimeout == 0 {
		s.Server.ReadHeaderTimeout = d.Server.ReadHeaderTimeout
	}
	if s.Server.IdleTimeout == 0 {
		s.Server.IdleTimeout = d.Server.IdleTimeout
	}
	if s.Server.ShutdownTimeout == 0 {
		s.Server.ShutdownTimeout = d.Server.ShutdownTimeout
	}
	if s.Tracing.Exporter == "" {
		s.Tracing.Exporter = d.Tracing.Exporter
	}
}

// loadFromEnv overrides settings from environment variables. Unlike plain
// strings, malformed booleans, integers and durations are errors rather than
// being silently ignored: a typo in AGENT_TLS must not turn TLS off.
func (s *Settings) loadFromEnv() error {
	if val := firstEnv("AGENT_BIND", "BIND"); val != "" {
		s.Bind = val
	}
	if val := os.Getenv("TLS_CERT"); val != "" {
		s.TLS.CertFile = val
	}
	if val := os.Getenv("TLS_KEY"); val != "" {
		s.TLS.KeyFile = val
	}
	if val := os.Getenv("MONGODB_URI_FILE"); val != "" {
		s.Secret.File = val
	}
	if val := os.Getenv("API_KEY_FILE"); val != "" {
		s.Auth.CredentialFile = val
	}
	if val := os.Getenv("AGENT_RESPONSE_FIELD"); val != "" {
		s.Secret.ResponseField = val
	}
	if val := os.Getenv("AGENT_ADMIN_BIND"); val != "" {
		s.Admin.Bind = val
	}
	if val := os.Getenv("AGENT_KEYRING_SERVICE"); val != "" {
		s.KeyringService = val
	}
	if val := os.Getenv("AGENT_TRACING"); val != "" {
		s.Tracing.Exporter = strings.ToLower(val)
	}
	if val := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); val != "" {
		s.Tracing.Endpoint = val
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"AGENT_TLS", &s.TLS.Enabled},
		{"AGENT_REQUIRE_AUTH", &s.Auth.Required},
		{"OTEL_EXPORTER_OTLP_INSECURE", &s.Tracing.Insecure},
	}
	for _, b := range bools {
		if err := envBool(b.name, b.dst); err != nil {
			return err
		}
	}

	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"AGENT_HANDSHAKE_TIMEOUT", &s.TLS.HandshakeTimeout},
		{"AGENT_READ_HEADER_TIMEOUT", &s.Server.ReadHeaderTimeout},
		{"AGENT_IDLE_TIMEOUT", &s.Server.IdleTimeout},
		{"AGENT_SHUTDOWN_TIMEOUT", &s.Server.ShutdownTimeout},
	}
	for _, d := range durations {
		if err := envDuration(d.name, d.dst); err != nil {
			return err
		}
	}

	if val := os.Getenv("AGENT_MAX_CONNS"); val != "" {
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return invalidOption("AGENT_MAX_CONNS", "must be an integer", err)
		}
		s.Server.MaxConnections = n
	}

	return nil
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if val := strings.TrimSpace(os.Getenv(name)); val != "" {
			return val
		}
	}
	return ""
}

func envBool(name string, dst *bool) error {
	val := strings.TrimSpace(os.Getenv(name))
	if val == "" {
		return nil
	}
	b, err := ParseBool(val)
	if err != nil {
		return invalidOption(name, "must be a boolean", err)
	}
	*dst = b
	return nil
}

func envDuration(name string, dst *time.Duration) error {
	val := strings.TrimSpace(os.Getenv(name))
	if val == "" {
		return nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return invalidOption(name, "must be a duration such as 10s", err)
	}
	*dst = d
	return nil
}

// ParseBool accepts the usual spellings of true and false, plus yes/no and on/off.
func ParseBool(val string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	return strconv.ParseBool(val)
}

func invalidOption(key, reason string, cause error) error {
	return &agenterrors.ConfigError{
		Kind:   agenterrors.InvalidOption,
		Key:    key,
		Reason: reason,
		Cause:  cause,
	}
}
