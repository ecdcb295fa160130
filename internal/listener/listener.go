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

// Package listener provides the TCP listener for the disclosure endpoint and
// the acceptor that terminates TLS on each connection independently.
package listener

import (
	"net"
	"strings"

	"golang.org/x/net/netutil"

	agenterrors "github.com/tombee/uri-agent/pkg/errors"
)

// Config configures the raw TCP listener.
type Config struct {
	// Address is the host:port to bind.
	Address string

	// MaxConnections caps concurrently open connections. Once reached,
	// further connections wait in the kernel backlog. 0 means unlimited.
	MaxConnections int
}

// New binds a TCP listener on cfg.Address.
func New(cfg Config) (net.Listener, error) {
	ln, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return nil, agenterrors.Wrapf(err, "failed to listen on %s", cfg.Address)
	}

	if cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, cfg.MaxConnections)
	}

	return ln, nil
}

// IsRemote returns true if the address binds to non-localhost interfaces.
func IsRemote(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		// addr might be just a port like ":9000"
		host = addr
		if strings.HasPrefix(addr, ":") {
			host = ""
		}
	}

	// Empty host or unspecified address means all interfaces
	if host == "" || host == "0.0.0.0" || host == "::" {
		return true
	}

	if host == "localhost" {
		return false
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return false
	}

	return true
}
