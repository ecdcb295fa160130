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

// Package cli builds the root command shared by every uri-agent subcommand.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tombee/uri-agent/internal/commands/shared"
	"github.com/tombee/uri-agent/internal/log"
)

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	shared.SetVersion(v, c, b)
}

// NewRootCommand creates the root Cobra command for uri-agent
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uri-agent",
		Short: "uri-agent - serve a MongoDB connection string to authorized callers",
		Long: `uri-agent holds a single MongoDB connection string and hands it to
callers that present the shared API key. Traffic is protected with TLS
unless explicitly disabled.

Run 'uri-agent check' to verify configuration before starting.
Run 'uri-agent serve' to start the agent.`,
		SilenceUsage:  true, // Don't show usage on errors
		SilenceErrors: true, // We handle errors ourselves for proper exit codes
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if !shared.GetVerbose() {
				return
			}
			cfg := log.FromEnv()
			cfg.Level = "debug"
			slog.SetDefault(log.New(cfg))
		},
	}

	verbose, json, config := shared.RegisterFlagPointers()

	cmd.PersistentFlags().BoolVarP(verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(json, "json", false, "Output in JSON format")
	cmd.PersistentFlags().StringVar(config, "config", "", "Path to YAML config file")

	return cmd
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return shared.GetVersion()
}

// HandleExitError handles exit errors with proper exit codes
func HandleExitError(err error) {
	shared.HandleExitError(err)
}
