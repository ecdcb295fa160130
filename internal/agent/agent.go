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

// Package agent runs the disclosure server: it binds the listener, terminates
// TLS per connection, authenticates requests and serves the secret.
package agent

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/tombee/uri-agent/internal/auth"
	"github.com/tombee/uri-agent/internal/config"
	"github.com/tombee/uri-agent/internal/listener"
	"github.com/tombee/uri-agent/internal/log"
	"github.com/tombee/uri-agent/internal/metrics"
	"github.com/tombee/uri-agent/internal/tlsconfig"
	"github.com/tombee/uri-agent/internal/tracing"
)

const (
	instrumentationName = "github.com/tombee/uri-agent/internal/agent"

	readTimeout  = 30 * time.Second
	writeTimeout = 30 * time.Second
)

// Options carries the agent's collaborators. Zero values use the process
// defaults.
type Options struct {
	// Logger is the base logger (default: slog.Default()).
	Logger *slog.Logger

	// Tracer records the disclosure span (default: the global provider).
	Tracer trace.Tracer

	// Meter creates request instruments (default: the global provider).
	Meter metric.Meter

	// MetricsHandler serves /metrics on the admin listener
	// (default: promhttp.Handler()).
	MetricsHandler http.Handler
}

// Agent is the disclosure server.
type Agent struct {
	cfg    *config.AgentConfig
	logger *slog.Logger

	tlsConfig *tls.Config
	server    *http.Server
	admin     *http.Server

	mu       sync.Mutex
	ln       net.Listener
	adminLn  net.Listener
	acceptor *listener.TLSAcceptor

	serving      atomic.Bool
	stopped      chan struct{}
	shutdownOnce sync.Once
	shutdownErr  error
}

// New builds the agent from a resolved configuration. When TLS is enabled
// the certificate and key are parsed here, so bad material fails before any
// socket is opened.
func New(cfg *config.AgentConfig, opts Options) (*Agent, error) {
	if cfg == nil {
		return nil, errors.New("agent: nil config")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.GetTracerProvider().Tracer(instrumentationName)
	}
	meter := opts.Meter
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(instrumentationName)
	}
	metricsHandler := opts.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	a := &Agent{
		cfg:     cfg,
		logger:  log.WithComponent(logger, "agent"),
		stopped: make(chan struct{}),
	}

	if cfg.Options.EnableTLS {
		tlsCfg, err := tlsconfig.Load(cfg.CertificateMaterial, cfg.KeyMaterial)
		if err != nil {
			return nil, annotateTLSError(err, cfg)
		}
		a.tlsConfig = tlsCfg
	}

	instruments, err := tracing.NewInstruments(meter)
	if err != nil {
		return nil, err
	}

	var handler http.Handler = newDisclosureMux(
		NewDisclosureHandler(cfg.ResponseField, cfg.SecretValue, tracer, instruments),
	)
	handler = auth.NewMiddleware(auth.Config{
		Enabled:    cfg.Options.RequireAuth,
		Credential: cfg.APICredential,
		Logger:     logger,
	}).Wrap(handler)
	handler = log.NewMiddleware(log.WithComponent(logger, "http")).Wrap(handler)

	a.server = &http.Server{
		Handler:           handler,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(a.logger.Handler(), slog.LevelDebug),
		ConnState:         trackConnState,
	}

	if cfg.AdminBind != "" {
		a.admin = &http.Server{
			Handler:           newAdminHandler(metricsHandler, a.serving.Load),
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			IdleTimeout:       cfg.IdleTimeout,
			ErrorLog:          slog.NewLogLogger(a.logger.Handler(), slog.LevelDebug),
		}
	}

	return a, nil
}

// Bind opens the disclosure listener and, if configured, the admin
// listener. It does not serve.
func (a *Agent) Bind() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ln != nil {
		return errors.New("agent: already bound")
	}

	raw, err := listener.New(listener.Config{
		Address:        a.cfg.BindAddress,
		MaxConnections: a.cfg.MaxConnections,
	})
	if err != nil {
		return err
	}

	if a.tlsConfig != nil {
		a.acceptor = listener.NewTLSAcceptor(raw, a.tlsConfig, listener.AcceptorOptions{
			HandshakeTimeout: a.cfg.HandshakeTimeout,
			Logger:           a.logger,
		})
		a.ln = a.acceptor
	} else {
		a.ln = raw
	}

	if a.admin != nil {
		adminLn, err := listener.New(listener.Config{Address: a.cfg.AdminBind})
		if err != nil {
			a.ln.Close()
			a.ln = nil
			return fmt.Errorf("admin listener: %w", err)
		}
		a.adminLn = adminLn
	}

	a.warnIfExposed()
	return nil
}

func (a *Agent) warnIfExposed() {
	addr := a.ln.Addr().String()
	if !listener.IsRemote(addr) {
		return
	}
	if !a.cfg.Options.EnableTLS {
		a.logger.Warn("TLS is disabled on a non-loopback address; the secret travels in clear text",
			slog.String("address", addr))
	}
	if !a.cfg.Options.RequireAuth {
		a.logger.Warn("authentication is disabled on a non-loopback address; anyone who can connect can read the secret",
			slog.String("address", addr))
	}
}

// Start binds and serves until ctx is cancelled or a server fails.
func (a *Agent) Start(ctx context.Context) error {
	if err := a.Bind(); err != nil {
		return err
	}
	return a.Serve(ctx)
}

// Serve serves on the bound listeners until ctx is cancelled, Shutdown is
// called, or a server fails. A graceful stop returns nil.
func (a *Agent) Serve(ctx context.Context) error {
	a.mu.Lock()
	ln, adminLn := a.ln, a.adminLn
	a.mu.Unlock()
	if ln == nil {
		return errors.New("agent: Serve called before Bind")
	}

	scheme := "http"
	if a.tlsConfig != nil {
		scheme = "https"
	}
	a.logger.Info("agent listening",
		slog.String("scheme", scheme),
		slog.String("address", ln.Addr().String()),
		slog.String("url", fmt.Sprintf("%s://%s%s", scheme, ln.Addr(), DisclosurePath)),
		slog.Any("config", a.cfg))

	g, gctx := errgroup.WithContext(ctx)

	a.serving.Store(true)
	g.Go(func() error {
		defer a.serving.Store(false)
		if err := a.server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("disclosure server: %w", err)
		}
		return nil
	})

	if adminLn != nil {
		a.logger.Info("admin listening", slog.String("address", adminLn.Addr().String()))
		g.Go(func() error {
			if err := a.admin.Serve(adminLn); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("admin server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-a.stopped:
			return nil
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		return a.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Shutdown gracefully stops both servers. Connections still active when ctx
// expires are closed. Safe to call more than once.
func (a *Agent) Shutdown(ctx context.Context) error {
	a.shutdownOnce.Do(func() {
		a.logger.Info("agent shutting down")
		close(a.stopped)

		var errs []error
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("disclosure server: %w", err))
			a.server.Close()
		}
		if a.admin != nil {
			if err := a.admin.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("admin server: %w", err))
				a.admin.Close()
			}
		}

		a.mu.Lock()
		acceptor, ln, adminLn := a.acceptor, a.ln, a.adminLn
		a.mu.Unlock()

		// Listeners that were bound but never served are not closed by
		// http.Server.
		if ln != nil {
			ln.Close()
		}
		if adminLn != nil {
			adminLn.Close()
		}
		if acceptor != nil {
			acceptor.Wait()
		}

		a.shutdownErr = errors.Join(errs...)
	})
	return a.shutdownErr
}

// Addr returns the bound disclosure address, or nil before Bind.
func (a *Agent) Addr() net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ln == nil {
		return nil
	}
	return a.ln.Addr()
}

// AdminAddr returns the bound admin address, or nil when disabled or unbound.
func (a *Agent) AdminAddr() net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.adminLn == nil {
		return nil
	}
	return a.adminLn.Addr()
}

func trackConnState(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		metrics.ConnectionOpened()
	case http.StateClosed, http.StateHijacked:
		metrics.ConnectionClosed()
	}
}
