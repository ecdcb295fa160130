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

package check

import (
	"crypto/x509"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tombee/uri-agent/internal/agent"
	"github.com/tombee/uri-agent/internal/commands/shared"
	"github.com/tombee/uri-agent/internal/config"
	"github.com/tombee/uri-agent/internal/listener"
	"github.com/tombee/uri-agent/internal/tlsconfig"
)

// expiryWarning is how close to NotAfter a certificate draws a warning.
const expiryWarning = 30 * 24 * time.Hour

// Report is the result of a successful check. It never contains the
// connection string or the API key.
type Report struct {
	shared.JSONResponse
	Bind             string             `json:"bind"`
	URL              string             `json:"url"`
	TLS              *CertificateReport `json:"tls,omitempty"`
	AuthRequired     bool               `json:"auth_required"`
	SecretSource     string             `json:"secret_source"`
	CredentialSource string             `json:"credential_source,omitempty"`
	ResponseField    string             `json:"response_field"`
	AdminBind        string             `json:"admin_bind,omitempty"`
	MaxConnections   int                `json:"max_connections"`
	Warnings         []string           `json:"warnings,omitempty"`
}

// CertificateReport describes the leaf certificate.
type CertificateReport struct {
	CertFile  string    `json:"cert_file"`
	KeyFile   string    `json:"key_file"`
	Subject   string    `json:"subject"`
	DNSNames  []string  `json:"dns_names,omitempty"`
	NotAfter  time.Time `json:"not_after"`
	Algorithm string    `json:"algorithm"`
}

// NewCommand creates the check command
func NewCommand() *cobra.Command {
	var flags shared.SettingsFlags

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate configuration, secrets and TLS material",
		Long: `Check performs the same resolution as serve without opening a socket:
settings are loaded and validated, the connection string and API key are
located, and the certificate and key are parsed and matched.

Exit codes:
  0  configuration is usable
  2  configuration error (missing secret, bad bind address, ...)
  3  TLS material error`,
		Example: `  uri-agent check --tls-cert cert.pem --tls-key key.pem
  uri-agent check --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := run(cmd, &flags, time.Now())
			if err != nil {
				return err
			}
			if shared.GetJSON() {
				return shared.EmitJSON(cmd.OutOrStdout(), report)
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	flags.Register(cmd.Flags())

	return cmd
}

func run(cmd *cobra.Command, flags *shared.SettingsFlags, now time.Time) (*Report, error) {
	settings, err := config.Load(shared.GetConfigPath(), flags.Override(cmd.Flags()))
	if err != nil {
		return nil, err
	}

	cfg, err := config.Resolve(cmd.Context(), settings)
	if err != nil {
		return nil, err
	}

	scheme := "http"
	if cfg.Options.EnableTLS {
		scheme = "https"
	}

	report := &Report{
		JSONResponse:     shared.JSONResponse{Version: "1.0", Command: "check", Success: true},
		Bind:             cfg.BindAddress,
		URL:              fmt.Sprintf("%s://%s%s", scheme, cfg.BindAddress, agent.DisclosurePath),
		AuthRequired:     cfg.Options.RequireAuth,
		SecretSource:     cfg.SecretSource,
		CredentialSource: cfg.CredentialSource,
		ResponseField:    cfg.ResponseField,
		AdminBind:        cfg.AdminBind,
		MaxConnections:   cfg.MaxConnections,
	}

	if cfg.Options.EnableTLS {
		tlsCfg, err := tlsconfig.LoadFiles(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, err
		}
		leaf := tlsCfg.Certificates[0].Leaf
		report.TLS = &CertificateReport{
			CertFile:  cfg.CertFile,
			KeyFile:   cfg.KeyFile,
			Subject:   leaf.Subject.String(),
			DNSNames:  leaf.DNSNames,
			NotAfter:  leaf.NotAfter,
			Algorithm: leaf.PublicKeyAlgorithm.String(),
		}
		report.Warnings = append(report.Warnings, certificateWarnings(leaf, now)...)
	}

	if listener.IsRemote(cfg.BindAddress) {
		if !cfg.Options.EnableTLS {
			report.Warnings = append(report.Warnings, "TLS is disabled on a non-loopback address")
		}
		if !cfg.Options.RequireAuth {
			report.Warnings = append(report.Warnings, "authentication is disabled on a non-loopback address")
		}
	}

	return report, nil
}

func certificateWarnings(leaf *x509.Certificate, now time.Time) []string {
	switch {
	case now.After(leaf.NotAfter):
		return []string{fmt.Sprintf("certificate expired on %s", leaf.NotAfter.Format(time.DateOnly))}
	case now.Before(leaf.NotBefore):
		return []string{fmt.Sprintf("certificate is not valid until %s", leaf.NotBefore.Format(time.DateOnly))}
	case leaf.NotAfter.Sub(now) < expiryWarning:
		return []string{fmt.Sprintf("certificate expires on %s", leaf.NotAfter.Format(time.DateOnly))}
	}
	return nil
}

func printReport(w io.Writer, r *Report) {
	fmt.Fprintln(w, "Configuration OK")
	fmt.Fprintf(w, "  url:         %s\n", r.URL)
	if r.TLS != nil {
		fmt.Fprintf(w, "  certificate: %s (%s, expires %s)\n",
			r.TLS.Subject, r.TLS.Algorithm, r.TLS.NotAfter.Format(time.DateOnly))
		if len(r.TLS.DNSNames) > 0 {
			fmt.Fprintf(w, "  names:       %s\n", strings.Join(r.TLS.DNSNames, ", "))
		}
	} else {
		fmt.Fprintln(w, "  certificate: none (TLS disabled)")
	}
	if r.AuthRequired {
		fmt.Fprintf(w, "  api key:     %s\n", r.CredentialSource)
	} else {
		fmt.Fprintln(w, "  api key:     not required")
	}
	fmt.Fprintf(w, "  secret:      %s\n", r.SecretSource)
	fmt.Fprintf(w, "  field:       %s\n", r.ResponseField)
	if r.AdminBind != "" {
		fmt.Fprintf(w, "  admin:       %s\n", r.AdminBind)
	}
	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "\nWarning: %s\n", warning)
	}
}
