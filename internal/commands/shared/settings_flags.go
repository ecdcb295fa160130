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

package shared

import (
	"github.com/spf13/pflag"

	"github.com/tombee/uri-agent/internal/config"
)

// SettingsFlags are the command-line overrides shared by serve and check.
// Only flags the user actually set are applied.
type SettingsFlags struct {
	Bind      string
	TLSCert   string
	TLSKey    string
	NoTLS     bool
	NoAuth    bool
	AdminBind string
	MaxConns  int
}

// Register adds the flags to fs.
func (f *SettingsFlags) Register(fs *pflag.FlagSet) {
	fs.StringVar(&f.Bind, "bind", "", "Address to listen on (default "+config.DefaultBindAddress+")")
	fs.StringVar(&f.TLSCert, "tls-cert", "", "Path to the PEM certificate chain")
	fs.StringVar(&f.TLSKey, "tls-key", "", "Path to the PEM private key")
	fs.BoolVar(&f.NoTLS, "no-tls", false, "Serve plain HTTP")
	fs.BoolVar(&f.NoAuth, "no-auth", false, "Do not require the X-API-Key header")
	fs.StringVar(&f.AdminBind, "admin-bind", "", "Address for /healthz and /metrics (disabled when empty)")
	fs.IntVar(&f.MaxConns, "max-conns", 0, "Maximum concurrent connections (0 means unlimited)")
}

// Override returns a config.Override applying the flags changed in fs.
func (f *SettingsFlags) Override(fs *pflag.FlagSet) config.Override {
	return func(s *config.Settings) {
		if fs.Changed("bind") {
			s.Bind = f.Bind
		}
		if fs.Changed("tls-cert") {
			s.TLS.CertFile = f.TLSCert
		}
		if fs.Changed("tls-key") {
			s.TLS.KeyFile = f.TLSKey
		}
		if fs.Changed("no-tls") {
			s.TLS.Enabled = !f.NoTLS
		}
		if fs.Changed("no-auth") {
			s.Auth.Required = !f.NoAuth
		}
		if fs.Changed("admin-bind") {
			s.Admin.Bind = f.AdminBind
		}
		if fs.Changed("max-conns") {
			s.Server.MaxConnections = f.MaxConns
		}
	}
}
