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
	"bytes"
	"crypto/x509"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/uri-agent/internal/commands/shared"
	"github.com/tombee/uri-agent/internal/testing/certs"
	agenterrors "github.com/tombee/uri-agent/pkg/errors"
)

const (
	testURI = "mongodb://db:27017/orders"
	testKey = "s3cr3t"
)

func isolate(t *testing.T) string {
	t.Helper()

	for _, name := range []string{
		"AGENT_BIND", "BIND", "TLS_CERT", "TLS_KEY", "AGENT_TLS", "AGENT_REQUIRE_AUTH",
		"AGENT_ADMIN_BIND", "AGENT_TRACING", "AGENT_KEYRING_SERVICE", "AGENT_MAX_CONNS",
		"AGENT_RESPONSE_FIELD",
	} {
		t.Setenv(name, "")
	}

	dir := t.TempDir()
	t.Setenv("MONGODB_URI", testURI)
	t.Setenv("API_KEY", testKey)
	t.Setenv("MONGODB_URI_FILE", filepath.Join(dir, "absent"))
	t.Setenv("API_KEY_FILE", filepath.Join(dir, "absent-key"))
	shared.SetConfigPathForTest("")
	return dir
}

// execute runs check under a root carrying the global --json flag.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := &cobra.Command{Use: "uri-agent", SilenceErrors: true, SilenceUsage: true}
	_, jsonPtr, _ := shared.RegisterFlagPointers()
	root.PersistentFlags().BoolVar(jsonPtr, "json", false, "JSON output")
	t.Cleanup(func() { *jsonPtr = false })

	root.AddCommand(NewCommand())

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"check"}, args...))

	err := root.Execute()
	return out.String(), err
}

func TestCheck_TLSAndAuth(t *testing.T) {
	isolate(t)
	cert, key := certs.Generate(t, certs.PKCS8).WriteFiles(t)

	out, err := execute(t, "--bind", "127.0.0.1:8443", "--tls-cert", cert, "--tls-key", key)
	require.NoError(t, err)

	assert.Contains(t, out, "Configuration OK")
	assert.Contains(t, out, "https://127.0.0.1:8443/v1/mongo-uri")
	assert.Contains(t, out, "CN=uri-agent-test")
	assert.Contains(t, out, "env:API_KEY")
	assert.Contains(t, out, "env:MONGODB_URI")
	assert.NotContains(t, out, testURI)
	assert.NotContains(t, out, testKey)
}

func TestCheck_JSON(t *testing.T) {
	isolate(t)
	cert, key := certs.Generate(t, certs.PKCS1).WriteFiles(t)

	out, err := execute(t, "--json", "--bind", "127.0.0.1:8443", "--tls-cert", cert, "--tls-key", key)
	require.NoError(t, err)
	assert.NotContains(t, out, testURI)
	assert.NotContains(t, out, testKey)

	var report Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.Success)
	assert.Equal(t, "check", report.Command)
	assert.Equal(t, "127.0.0.1:8443", report.Bind)
	assert.True(t, report.AuthRequired)
	assert.Equal(t, "uri", report.ResponseField)
	require.NotNil(t, report.TLS)
	assert.Equal(t, cert, report.TLS.CertFile)
	assert.Equal(t, "RSA", report.TLS.Algorithm)
	assert.Contains(t, report.TLS.DNSNames, "localhost")
}

func TestCheck_PlainNoAuthOnWildcard(t *testing.T) {
	isolate(t)

	out, err := execute(t, "--bind", "0.0.0.0:8443", "--no-tls", "--no-auth")
	require.NoError(t, err)

	assert.Contains(t, out, "http://0.0.0.0:8443/v1/mongo-uri")
	assert.Contains(t, out, "TLS disabled")
	assert.Contains(t, out, "not required")
	assert.Contains(t, out, "Warning: TLS is disabled on a non-loopback address")
	assert.Contains(t, out, "Warning: authentication is disabled on a non-loopback address")
}

func TestCheck_LoopbackHasNoExposureWarning(t *testing.T) {
	isolate(t)

	out, err := execute(t, "--bind", "127.0.0.1:8443", "--no-tls", "--no-auth")
	require.NoError(t, err)
	assert.NotContains(t, out, "Warning")
}

func TestCheck_MissingSecret(t *testing.T) {
	isolate(t)
	t.Setenv("MONGODB_URI", "")

	_, err := execute(t, "--no-tls", "--no-auth")
	require.Error(t, err)
	assert.ErrorIs(t, err, agenterrors.MissingSecret)
	assert.Equal(t, shared.ExitConfigError, shared.ExitCode(err))
}

func TestCheck_KeyMismatch(t *testing.T) {
	dir := isolate(t)
	cert, _ := certs.Generate(t, certs.PKCS8).WriteFiles(t)

	other := filepath.Join(dir, "other-key.pem")
	require.NoError(t, os.WriteFile(other, certs.Generate(t, certs.ECDSA).KeyPEM, 0o600))

	_, err := execute(t, "--tls-cert", cert, "--tls-key", other)
	require.Error(t, err)
	assert.ErrorIs(t, err, agenterrors.KeyMismatch)
	assert.Equal(t, shared.ExitTLSError, shared.ExitCode(err))

	var tlsErr *agenterrors.TLSError
	require.ErrorAs(t, err, &tlsErr)
	assert.Equal(t, other, tlsErr.Path)
}

func TestCertificateWarnings(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	cert := func(notBefore, notAfter time.Time) *x509.Certificate {
		return &x509.Certificate{NotBefore: notBefore, NotAfter: notAfter}
	}

	tests := []struct {
		name string
		leaf *x509.Certificate
		want string
	}{
		{"valid", cert(now.AddDate(0, -1, 0), now.AddDate(1, 0, 0)), ""},
		{"expiring", cert(now.AddDate(0, -1, 0), now.AddDate(0, 0, 10)), "certificate expires on 2025-06-11"},
		{"expired", cert(now.AddDate(-1, 0, 0), now.AddDate(0, 0, -1)), "certificate expired on 2025-05-31"},
		{"not yet valid", cert(now.AddDate(0, 0, 2), now.AddDate(1, 0, 0)), "certificate is not valid until 2025-06-03"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := certificateWarnings(tt.leaf, now)
			if tt.want == "" {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, []string{tt.want}, got)
		})
	}
}
