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

/*
Package secrets reads sensitive values from the places an operator can put
them: environment variables, files on disk and the OS keychain.

# Providers

Each source implements Provider:

	type Provider interface {
	    Scheme() string
	    Resolve(ctx context.Context, reference string) (string, error)
	}

	env      - environment variable named by the reference
	file     - absolute file path; contents are trimmed
	keychain - entry in the OS keychain under a fixed service name

# Chains

A Chain tries a list of (provider, reference) pairs in order and returns the
first value found:

	chain := secrets.NewChain(
	    secrets.Source{Provider: secrets.NewEnvProvider(), Reference: "MONGODB_URI"},
	    secrets.Source{Provider: secrets.NewFileProvider(secrets.FileProviderConfig{}), Reference: "/etc/uri-agent/mongodb_uri"},
	)
	uri, err := chain.Resolve(ctx)

A source that simply has nothing (unset variable, missing file, no keychain
entry, keychain unavailable) is skipped. Any other failure, such as a file
that exists but cannot be read, stops the chain.

# Error Handling

  - ErrSecretNotFound: no source in the chain produced a value
  - ErrBackendUnavailable: the keychain service cannot be reached

Errors never contain secret values.
*/
package secrets
