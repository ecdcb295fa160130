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
	"fmt"
)

var (
	// ErrSecretNotFound is returned when a secret does not exist in a source.
	ErrSecretNotFound = errors.New("secret not found")

	// ErrBackendUnavailable is returned when a source cannot be used in the current environment.
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// Provider resolves a secret reference from one kind of storage.
type Provider interface {
	// Scheme returns the provider identifier (e.g., "env", "file", "keychain").
	Scheme() string

	// Resolve retrieves the secret named by reference.
	// Returns an error wrapping ErrSecretNotFound if it does not exist.
	Resolve(ctx context.Context, reference string) (string, error)
}

// ResolutionError describes a failed lookup without exposing the value.
type ResolutionError struct {
	// Scheme is the provider that failed
	Scheme string

	// Reference is the variable name, path or keychain entry
	Reference string

	// Reason is a short human-readable explanation
	Reason string

	// Err is the underlying error; ErrSecretNotFound for absent secrets
	Err error
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("%s:%s: %s", e.Scheme, e.Reference, e.Reason)
	if e.Err != nil && !errors.Is(e.Err, ErrSecretNotFound) {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

func notFound(scheme, reference, reason string) error {
	return &ResolutionError{
		Scheme:    scheme,
		Reference: reference,
		Reason:    reason,
		Err:       ErrSecretNotFound,
	}
}
