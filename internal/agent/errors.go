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

package agent

import (
	"github.com/tombee/uri-agent/internal/config"
	agenterrors "github.com/tombee/uri-agent/pkg/errors"
)

// annotateTLSError attaches the configured file path to a TLS material error
// so the operator knows which file to fix.
func annotateTLSError(err error, cfg *config.AgentConfig) error {
	var tlsErr *agenterrors.TLSError
	if !agenterrors.As(err, &tlsErr) || tlsErr.Path != "" {
		return err
	}
	switch tlsErr.Kind {
	case agenterrors.MissingCertificate, agenterrors.InvalidCertificate:
		tlsErr.Path = cfg.CertFile
	default:
		tlsErr.Path = cfg.KeyFile
	}
	return tlsErr
}
