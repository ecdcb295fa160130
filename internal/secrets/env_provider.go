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
	"os"
	"strings"
)

// EnvProvider implements secret resolution from environment variables.
//
// Reference format:
//   - MONGODB_URI -> value of the MONGODB_URI environment variable
//
// A variable that is unset or holds only whitespace counts as absent.
type EnvProvider struct {
	lookup func(string) (string, bool)
}

// NewEnvProvider creates a new environment variable secret provider.
func NewEnvProvider() *EnvProvider {
	return &EnvProvider{
		lookup: os.LookupEnv,
	}
}

// Scheme returns the provider's identifier.
func (e *EnvProvider) Scheme() string {
	return "env"
}

// Resolve retrieves a secret value from an environment variable.
// The value is returned as set; only an all-whitespace value is rejected.
func (e *EnvProvider) Resolve(ctx context.Context, reference string) (string, error) {
	value, ok := e.lookup(reference)
	if !ok {
		return "", notFound("env", reference, "environment variable not set")
	}
	if strings.TrimSpace(value) == "" {
		return "", notFound("env", reference, "environment variable is empty")
	}
	return value, nil
}
