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

package errors

import (
	"fmt"
)

// Kind classifies a failure. Kinds are comparable with errors.Is:
//
//	if errors.Is(err, errors.MissingSecret) { ... }
type Kind string

// Error implements the error interface so a Kind can be used as an errors.Is target.
func (k Kind) Error() string {
	return string(k)
}

// Configuration kinds.
const (
	MissingSecret      Kind = "missing secret"
	MissingCredential  Kind = "missing credential"
	InvalidBindAddress Kind = "invalid bind address"
	InvalidOption      Kind = "invalid option"
	InvalidFile        Kind = "invalid file"
)

// TLS material kinds.
const (
	TLSReadFailed      Kind = "tls material unreadable"
	MissingCertificate Kind = "missing certificate"
	InvalidCertificate Kind = "invalid certificate"
	MissingPrivateKey  Kind = "missing private key"
	InvalidPrivateKey  Kind = "invalid private key"
	KeyMismatch        Kind = "private key does not match certificate"
)

// Authentication kinds.
const (
	AuthMissing Kind = "missing API key"
	AuthInvalid Kind = "invalid API key"
)

// ConfigError represents configuration problems found while resolving the
// agent configuration. These are operator errors and abort startup.
type ConfigError struct {
	// Kind classifies the failure (MissingSecret, InvalidBindAddress, ...)
	Kind Kind

	// Key is the setting that has the problem (e.g., "MONGODB_URI", "bind")
	Key string

	// Reason explains what's wrong with the configuration
	Reason string

	// Cause is the underlying error (e.g., file read error, parse error)
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	msg := "config error"
	if e.Key != "" {
		msg = fmt.Sprintf("config error at %s", e.Key)
	}
	if e.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	} else if e.Kind != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Kind)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the Kind of this error.
func (e *ConfigError) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// IsUserVisible implements UserVisibleError.
func (e *ConfigError) IsUserVisible() bool { return true }

// UserMessage implements UserVisibleError.
func (e *ConfigError) UserMessage() string { return e.Error() }

// Suggestion implements UserVisibleError.
func (e *ConfigError) Suggestion() string {
	switch e.Kind {
	case MissingSecret:
		return "Set MONGODB_URI or write the connection string to the file named by MONGODB_URI_FILE"
	case MissingCredential:
		return "Set API_KEY or write the shared key to the file named by API_KEY_FILE, or disable auth with --no-auth"
	case InvalidBindAddress:
		return "Use host:port, for example 0.0.0.0:8443"
	case InvalidOption:
		return "Check boolean, integer and duration values in the environment and config file"
	default:
		return ""
	}
}

// TLSError represents unreadable or unparseable certificate and key material.
type TLSError struct {
	// Kind classifies the failure (MissingPrivateKey, KeyMismatch, ...)
	Kind Kind

	// Path is the file the material was read from, if any
	Path string

	// Reason explains the failure
	Reason string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *TLSError) Error() string {
	msg := "tls error"
	if e.Path != "" {
		msg = fmt.Sprintf("tls error in %s", e.Path)
	}
	reason := e.Reason
	if reason == "" {
		reason = string(e.Kind)
	}
	msg = fmt.Sprintf("%s: %s", msg, reason)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *TLSError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the Kind of this error.
func (e *TLSError) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// IsUserVisible implements UserVisibleError.
func (e *TLSError) IsUserVisible() bool { return true }

// UserMessage implements UserVisibleError.
func (e *TLSError) UserMessage() string { return e.Error() }

// Suggestion implements UserVisibleError.
func (e *TLSError) Suggestion() string {
	switch e.Kind {
	case MissingPrivateKey, InvalidPrivateKey:
		return "TLS_KEY must hold a PEM \"PRIVATE KEY\" (PKCS#8) or \"RSA PRIVATE KEY\" (PKCS#1) block"
	case MissingCertificate, InvalidCertificate:
		return "TLS_CERT must hold one or more PEM CERTIFICATE blocks, leaf first"
	case KeyMismatch:
		return "Check that TLS_CERT and TLS_KEY belong to the same key pair"
	case TLSReadFailed:
		return "Check TLS_CERT and TLS_KEY paths and file permissions, or disable TLS with --no-tls"
	default:
		return ""
	}
}

// HandshakeError is a failed TLS handshake on a single inbound connection.
// It is never fatal and never reaches a client.
type HandshakeError struct {
	// RemoteAddr is the peer address of the dropped connection
	RemoteAddr string

	// Cause is the handshake failure
	Cause error
}

// Error implements the error interface.
func (e *HandshakeError) Error() string {
	return fmt.Sprintf("tls handshake with %s failed: %v", e.RemoteAddr, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *HandshakeError) Unwrap() error {
	return e.Cause
}

// AuthError is a rejected request. Its message is safe to send to the client.
type AuthError struct {
	// Reason is AuthMissing or AuthInvalid
	Reason Kind
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return string(e.Reason)
}

// Is reports whether target is the Reason of this error.
func (e *AuthError) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Reason
}
