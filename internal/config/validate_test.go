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
	"testing"

	"github.com/stretchr/testify/assert"
	agenterrors "github.com/tombee/uri-agent/pkg/errors"
)

func TestValidateBindAddress(t *testing.T) {
	tests := []struct {
		addr    string
		wantErr bool
	}{
		{"0.0.0.0:8443", false},
		{":8443", false},
		{"127.0.0.1:0", false},
		{"[::1]:8443", false},
		{"agent.internal:8443", false},
		{"localhost:65535", false},
		{"8443", true},
		{"0.0.0.0", true},
		{"0.0.0.0:https", true},
		{"0.0.0.0:65536", true},
		{"0.0.0.0:-1", true},
		{"bad_host:8443", true},
		{"-leading.example:8443", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			err := ValidateBindAddress(tt.addr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
		kind   agenterrors.Kind
		key    string
	}{
		{"bind", func(s *Settings) { s.Bind = "nope" }, agenterrors.InvalidBindAddress, "bind"},
		{"admin bind", func(s *Settings) { s.Admin.Bind = "nope" }, agenterrors.InvalidBindAddress, "admin.bind"},
		{"admin shares bind", func(s *Settings) { s.Admin.Bind = s.Bind }, agenterrors.InvalidBindAddress, "admin.bind"},
		{"response field", func(s *Settings) { s.Secret.ResponseField = "" }, agenterrors.InvalidOption, "secret.response_field"},
		{"handshake timeout", func(s *Settings) { s.TLS.HandshakeTimeout = 0 }, agenterrors.InvalidOption, "tls.handshake_timeout"},
		{"shutdown timeout", func(s *Settings) { s.Server.ShutdownTimeout = -1 }, agenterrors.InvalidOption, "server.shutdown_timeout"},
		{"max conns", func(s *Settings) { s.Server.MaxConnections = -5 }, agenterrors.InvalidOption, "server.max_connections"},
		{"exporter", func(s *Settings) { s.Tracing.Exporter = "jaeger" }, agenterrors.InvalidOption, "tracing.exporter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(s)

			err := s.Validate()
			assert.ErrorIs(t, err, tt.kind)

			var cfgErr *agenterrors.ConfigError
			if assert.ErrorAs(t, err, &cfgErr) {
				assert.Equal(t, tt.key, cfgErr.Key)
			}
		})
	}
}

func TestSettingsValidate_HandshakeTimeoutIgnoredWithoutTLS(t *testing.T) {
	s := Default()
	s.TLS.Enabled = false
	s.TLS.HandshakeTimeout = 0
	assert.NoError(t, s.Validate())
}
