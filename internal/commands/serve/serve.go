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

package serve

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/tombee/uri-agent/internal/agent"
	"github.com/tombee/uri-agent/internal/commands/shared"
	"github.com/tombee/uri-agent/internal/config"
	"github.com/tombee/uri-agent/internal/lifecycle"
	"github.com/tombee/uri-agent/internal/log"
	"github.com/tombee/uri-agent/internal/tracing"
)

const instrumentationName = "github.com/tombee/uri-agent"

// metricsRegisterer receives the OpenTelemetry metric collector.
var metricsRegisterer prometheus.Registerer = prometheus.DefaultRegisterer

// NewCommand creates the serve command
func NewCommand() *cobra.Command {
	var (
		flags   shared.SettingsFlags
		pidFile string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the agent",
		Long: `Serve resolves the connection string and API key once, then answers
GET /v1/mongo-uri until interrupted.

Sources, highest precedence first:
  flags > environment > config file > defaults

The connection string is read from MONGODB_URI, then MONGODB_URI_FILE,
then the OS keyring when AGENT_KEYRING_SERVICE is set. The API key
follows the same order with API_KEY and API_KEY_FILE.`,
		Example: `  # TLS and authentication (default)
  MONGODB_URI=mongodb://db:27017/orders API_KEY=s3cr3t uri-agent serve \
    --tls-cert /etc/uri-agent/tls/cert.pem --tls-key /etc/uri-agent/tls/key.pem

  # Local development without TLS or authentication
  MONGODB_URI=mongodb://localhost:27017 uri-agent serve --bind 127.0.0.1:8443 --no-tls --no-auth

  # Expose health and metrics on a separate port
  uri-agent serve --admin-bind 127.0.0.1:9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd, &flags, pidFile)
		},
	}

	flags.Register(cmd.Flags())
	cmd.Flags().StringVar(&pidFile, "pid-file", "", "Write the process id to this file while serving")

	return cmd
}

func run(ctx context.Context, cmd *cobra.Command, flags *shared.SettingsFlags, pidFile string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := slog.Default()

	settings, err := config.Load(shared.GetConfigPath(), flags.Override(cmd.Flags()))
	if err != nil {
		return err
	}

	cfg, err := config.Resolve(ctx, settings)
	if err != nil {
		return err
	}
	logger.Debug("configuration resolved",
		slog.String("secret_source", cfg.SecretSource),
		slog.String("credential_source", cfg.CredentialSource))

	version, _, _ := shared.GetVersion()
	provider, err := tracing.NewProvider(ctx, tracing.Config{
		Exporter:       cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
		Insecure:       cfg.Tracing.Insecure,
		ServiceVersion: version,
		Writer:         cmd.OutOrStdout(),
		Registerer:     metricsRegisterer,
		SetGlobal:      true,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("failed to flush telemetry", log.Error(err))
		}
	}()

	a, err := agent.New(cfg, agent.Options{
		Logger: logger,
		Tracer: provider.Tracer(instrumentationName),
		Meter:  provider.Meter(instrumentationName),
	})
	if err != nil {
		return err
	}

	if pidFile != "" {
		pf, err := lifecycle.AcquirePIDFile(pidFile, os.Getpid())
		if err != nil {
			return err
		}
		defer func() {
			if err := pf.Release(); err != nil {
				logger.Warn("failed to remove PID file", log.Error(err))
			}
		}()
	}

	if err := a.Start(ctx); err != nil {
		return err
	}

	logger.Info("agent stopped")
	return nil
}
