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
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"

	agenterrors "github.com/tombee/uri-agent/pkg/errors"
)

var (
	hostnameLabel = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9-]{0,61}[A-Za-z0-9])?$`)
	jsonFieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Validate checks the settings and returns the first problem found as a
// *errors.ConfigError.
func (s *Settings) Validate() error {
	if err := ValidateBindAddress(s.Bind); err != nil {
		return &agenterrors.ConfigError{
			Kind:   agenterrors.InvalidBindAddress,
			Key:    "bind",
			Reason: fmt.Sprintf("%q is not a valid host:port", s.Bind),
			Cause:  err,
		}
	}

	if s.Admin.Bind != "" {
		if err := ValidateBindAddress(s.Admin.Bind); err != nil {
			return &agenterrors.ConfigError{
				Kind:   agenterrors.InvalidBindAddress,
				Key:    "admin.bind",
				Reason: fmt.Sprintf("%q is not a valid host:port", s.Admin.Bind),
				Cause:  err,
			}
		}
		if s.Admin.Bind == s.Bind {
			return &agenterrors.ConfigError{
				Kind:   agenterrors.InvalidBindAddress,
				Key:    "admin.bind",
				Reason: "admin listener must not share the disclosure address",
			}
		}
	}

	if !jsonFieldName.MatchString(s.Secret.ResponseField) {
		return invalidOption("secret.response_field",
			fmt.Sprintf("%q must be a plain identifier such as uri or mongo_uri", s.Secret.ResponseField), nil)
	}

	if s.TLS.Enabled && s.TLS.HandshakeTimeout <= 0 {
		return invalidOption("tls.handshake_timeout", "must be positive", nil)
	}
	if s.Server.ReadHeaderTimeout <= 0 {
		return invalidOption("server.read_header_timeout", "must be positive", nil)
	}
	if s.Server.IdleTimeout < 0 {
		return invalidOption("server.idle_timeout", "must not be negative", nil)
	}
	if s.Server.ShutdownTimeout <= 0 {
		return invalidOption("server.shutdown_timeout", "must be positive", nil)
	}
	if s.Server.MaxConnections < 0 {
		return invalidOption("server.max_connections", "must not be negative", nil)
	}

	switch s.Tracing.Exporter {
	case TracingNone, TracingStdout, TracingOTLP, TracingOTLPHTTP:
	default:
		return invalidOption("tracing.exporter",
			fmt.Sprintf("%q must be one of [none, stdout, otlp, otlp-http]", s.Tracing.Exporter), nil)
	}

	return nil
}

// ValidateBindAddress checks that addr is host:port with a numeric port in
// 0..65535 and a host that is empty, an IP literal or a hostname.
func ValidateBindAddress(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}

	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return fmt.Errorf("port %q must be a number between 0 and 65535", port)
	}

	if host == "" || net.ParseIP(host) != nil {
		return nil
	}
	if len(host) > 253 {
		return fmt.Errorf("host %q is too long", host)
	}
	for _, label := range strings.Split(strings.TrimSuffix(host, "."), ".") {
		if !hostnameLabel.MatchString(label) {
			return fmt.Errorf("host %q is not an IP address or hostname", host)
		}
	}
	return nil
}
