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

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/tombee/uri-agent/internal/cli"
	"github.com/tombee/uri-agent/internal/commands/check"
	"github.com/tombee/uri-agent/internal/commands/keygen"
	"github.com/tombee/uri-agent/internal/commands/serve"
	versioncmd "github.com/tombee/uri-agent/internal/commands/version"
	"github.com/tombee/uri-agent/internal/log"
)

// Version information (injected via ldflags at build time)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	// Initialize structured logging from environment
	slog.SetDefault(log.New(log.FromEnv()))

	cli.SetVersion(version, commit, buildDate)

	rootCmd := cli.NewRootCommand()
	rootCmd.AddCommand(serve.NewCommand())
	rootCmd.AddCommand(check.NewCommand())
	rootCmd.AddCommand(keygen.NewCommand())
	rootCmd.AddCommand(versioncmd.NewVersionCommand())

	// SIGINT and SIGTERM cancel the context; serve shuts down gracefully.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		cli.HandleExitError(err)
	}
}
