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

package secrets

import (
	"context"
	"errors"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeychainProvider implements secret resolution from the system keychain.
//
// Reference format:
//   - mongodb-uri -> entry "mongodb-uri" under the provider's service name
//
// Supported platforms:
//   - macOS: Keychain Access
//   - Linux: Secret Service API (GNOME Keyring, KWallet)
//   - Windows: Credential Manager
type KeychainProvider struct {
	// service is the keychain service name used for all entries
	service string
}

// NewKeychainProvider creates a new keychain secret provider.
func NewKeychainProvider(service string) *KeychainProvider {
	return &KeychainProvider{
		service: service,
	}
}

// Scheme returns the provider's identifier.
func (k *KeychainProvider) Scheme() string {
	return "keychain"
}

// Resolve retrieves a secret value from the system keychain.
func (k *KeychainProvider) Resolve(ctx context.Context, reference string) (string, error) {
	value, err := keyring.Get(k.service, reference)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", notFound("keychain", reference, "keychain entry not found")
		}
		if isKeychainUnavailableError(err) {
			return "", &ResolutionError{
				Scheme:    "keychain",
				Reference: reference,
				Reason:    "keychain is locked or inaccessible",
				Err:       errors.Join(ErrBackendUnavailable, err),
			}
		}
		return "", &ResolutionError{
			Scheme:    "keychain",
			Reference: reference,
			Reason:    "keychain access error",
			Err:       err,
		}
	}

	if strings.TrimSpace(value) == "" {
		return "", notFound("keychain", reference, "keychain entry is empty")
	}

	return strings.TrimSpace(value), nil
}

// isKeychainUnavailableError reports errors meaning "no keychain here"
// rather than "this entry is broken". Headless Linux hosts without a
// Secret Service daemon are the common case.
func isKeychainUnavailableError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"dbus",
		"secret service",
		"org.freedesktop.secrets",
		"no such interface",
		"locked",
		"not supported",
		"unsupported platform",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
