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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/tombee/uri-agent/internal/log"
	"github.com/tombee/uri-agent/internal/secrets"
	agenterrors "github.com/tombee/uri-agent/pkg/errors"
)

// Environment variables and keyring entries holding the sensitive values.
const (
	SecretEnv         = "MONGODB_URI"
	CredentialEnv     = "API_KEY"
	SecretKeyring     = "mongodb-uri"
	CredentialKeyring = "api-key"
)

// AgentConfig is the resolved configuration. It is built once by Resolve,
// shared by pointer and never mutated afterwards.
type AgentConfig struct {
	// SecretValue is the value disclosed to authenticated callers.
	SecretValue string

	// APICredential is the shared key callers must present. Empty when
	// authentication is not required.
	APICredential string

	BindAddress string
	Options     Options

	// CertificateMaterial and KeyMaterial hold raw PEM bytes. Both are nil
	// when TLS is disabled.
	CertificateMaterial []byte
	KeyMaterial         []byte
	CertFile            string
	KeyFile             string

	// SecretSource and CredentialSource name where each value came from,
	// e.g. "env:MONGODB_URI" or "file:/etc/uri-agent/api_key".
	SecretSource     string
	CredentialSource string

	ResponseField     string
	HandshakeTimeout  time.Duration
	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MaxConnections    int
	AdminBind         string
	Tracing           TracingSettings
}

// String renders the configuration without the secret or the credential.
func (c *AgentConfig) String() string {
	return fmt.Sprintf("AgentConfig{bind=%s tls=%t auth=%t secret=%s credential=%s field=%s}",
		c.BindAddress, c.Options.EnableTLS, c.Options.RequireAuth,
		log.SanitizeSecret(c.SecretValue), redactOptional(c.APICredential), c.ResponseField)
}

func redactOptional(v string) string {
	if v == "" {
		return "none"
	}
	return log.SanitizeSecret(v)
}

// LogValue implements slog.LogValuer with the same redaction as String.
func (c *AgentConfig) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("bind", c.BindAddress),
		slog.Bool("tls", c.Options.EnableTLS),
		slog.Bool("auth", c.Options.RequireAuth),
		slog.String("secret_source", c.SecretSource),
		slog.String("response_field", c.ResponseField),
	}
	if c.Options.RequireAuth {
		attrs = append(attrs, slog.String("credential_source", c.CredentialSource))
	}
	if c.Options.EnableTLS {
		attrs = append(attrs, slog.String("cert_file", c.CertFile), slog.String("key_file", c.KeyFile))
	}
	if c.MaxConnections > 0 {
		attrs = append(attrs, slog.Int("max_conns", c.MaxConnections))
	}
	if c.AdminBind != "" {
		attrs = append(attrs, slog.String("admin_bind", c.AdminBind))
	}
	return slog.GroupValue(attrs...)
}

// Resolve validates s and reads the secret, the credential (when auth is
// required) and the TLS material (when TLS is enabled). It runs once at
// startup; there is no retry.
//
// Secret lookup order: MONGODB_URI, the file at s.Secret.File, then the
// keyring entry "mongodb-uri" when s.KeyringService is set. The credential
// follows the same order with API_KEY, s.Auth.CredentialFile and "api-key".
func Resolve(ctx context.Context, s *Settings) (*AgentConfig, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	cfg := &AgentConfig{
		BindAddress:       s.Bind,
		Options:           s.Options(),
		ResponseField:     s.Secret.ResponseField,
		HandshakeTimeout:  s.TLS.HandshakeTimeout,
		ReadHeaderTimeout: s.Server.ReadHeaderTimeout,
		IdleTimeout:       s.Server.IdleTimeout,
		ShutdownTimeout:   s.Server.ShutdownTimeout,
		MaxConnections:    s.Server.MaxConnections,
		AdminBind:         s.Admin.Bind,
		Tracing:           s.Tracing,
	}

	secret, src, err := sourceChain(SecretEnv, s.Secret.File, SecretKeyring, s.KeyringService).Resolve(ctx)
	if err != nil {
		return nil, resolutionError(err, agenterrors.MissingSecret, SecretEnv, "MONGODB_URI_FILE",
			"no database connection string found")
	}
	cfg.SecretValue = secret
	cfg.SecretSource = src.String()

	if cfg.Options.RequireAuth {
		cred, src, err := sourceChain(CredentialEnv, s.Auth.CredentialFile, CredentialKeyring, s.KeyringService).Resolve(ctx)
		if err != nil {
			return nil, resolutionError(err, agenterrors.MissingCredential, CredentialEnv, "API_KEY_FILE",
				"authentication is required but no API key was found")
		}
		cred = strings.TrimSpace(cred)
		if cred == "" {
			return nil, &agenterrors.ConfigError{
				Kind:   agenterrors.MissingCredential,
				Key:    CredentialEnv,
				Reason: fmt.Sprintf("API key from %s is empty", src),
			}
		}
		cfg.APICredential = cred
		cfg.CredentialSource = src.String()
	}

	if cfg.Options.EnableTLS {
		cert, err := readMaterial(s.TLS.CertFile)
		if err != nil {
			return nil, err
		}
		key, err := readMaterial(s.TLS.KeyFile)
		if err != nil {
			return nil, err
		}
		cfg.CertificateMaterial = cert
		cfg.KeyMaterial = key
		cfg.CertFile = s.TLS.CertFile
		cfg.KeyFile = s.TLS.KeyFile
	}

	return cfg, nil
}

func sourceChain(envName, file, keyringEntry, keyringService string) *secrets.Chain {
	sources := []secrets.Source{
		{Provider: secrets.NewEnvProvider(), Reference: envName},
		{Provider: secrets.NewFileProvider(secrets.FileProviderConfig{}), Reference: file},
	}
	if keyringService != "" {
		sources = append(sources, secrets.Source{
			Provider:  secrets.NewKeychainProvider(keyringService),
			Reference: keyringEntry,
		})
	}
	return secrets.NewChain(sources...)
}

// resolutionError maps a chain failure to a ConfigError. Absence becomes
// missingKind; anything else (unreadable file, keyring fault) is InvalidFile.
func resolutionError(err error, missingKind agenterrors.Kind, envKey, fileKey, reason string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, secrets.ErrSecretNotFound) {
		return &agenterrors.ConfigError{
			Kind:   missingKind,
			Key:    envKey,
			Reason: reason,
			Cause:  err,
		}
	}
	return &agenterrors.ConfigError{
		Kind:   agenterrors.InvalidFile,
		Key:    fileKey,
		Reason: "secret source could not be read",
		Cause:  err,
	}
}

func readMaterial(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &agenterrors.TLSError{
			Kind:   agenterrors.TLSReadFailed,
			Path:   path,
			Reason: "failed to read file",
			Cause:  err,
		}
	}
	return data, nil
}
