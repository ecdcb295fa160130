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
)

// Source pairs a provider with the reference to look up in it.
type Source struct {
	Provider  Provider
	Reference string
}

func (s Source) String() string {
	return s.Provider.Scheme() + ":" + s.Reference
}

// Chain resolves a single secret from an ordered list of sources.
type Chain struct {
	sources []Source
}

// NewChain creates a chain that consults sources in the given order.
func NewChain(sources ...Source) *Chain {
	return &Chain{sources: sources}
}

// Resolve returns the first value found and the source it came from.
//
// Sources that report ErrSecretNotFound or ErrBackendUnavailable are skipped.
// Any other error is returned immediately: an unreadable secret file is an
// operator error, not an absent secret. When every source is skipped the
// returned error wraps ErrSecretNotFound and lists what was tried.
func (c *Chain) Resolve(ctx context.Context) (string, Source, error) {
	var tried []string
	for _, src := range c.sources {
		if err := ctx.Err(); err != nil {
			return "", Source{}, err
		}

		value, err := src.Provider.Resolve(ctx, src.Reference)
		if err == nil {
			return value, src, nil
		}
		if errors.Is(err, ErrSecretNotFound) || errors.Is(err, ErrBackendUnavailable) {
			tried = append(tried, src.String())
			continue
		}
		return "", src, err
	}

	return "", Source{}, &ResolutionError{
		Scheme:    "chain",
		Reference: strings.Join(tried, ", "),
		Reason:    "not found in any source",
		Err:       ErrSecretNotFound,
	}
}
