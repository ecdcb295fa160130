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

package listener

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/tombee/uri-agent/internal/log"
	"github.com/tombee/uri-agent/internal/metrics"
	agenterrors "github.com/tombee/uri-agent/pkg/errors"
)

const (
	// DefaultHandshakeTimeout bounds a single connection's TLS handshake.
	DefaultHandshakeTimeout = 10 * time.Second

	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// AcceptorOptions configures a TLSAcceptor.
type AcceptorOptions struct {
	// HandshakeTimeout bounds each handshake. Default: 10s
	HandshakeTimeout time.Duration

	// Logger receives handshake failures at debug level.
	Logger *slog.Logger

	// FailureLogEvery and FailureLogBurst throttle handshake-failure logging.
	// Failures beyond the limit are counted and reported with the next
	// logged failure. Default: one per second, burst of 5.
	FailureLogEvery time.Duration
	FailureLogBurst int
}

// TLSAcceptor is a net.Listener that hands out connections which have
// already completed a TLS handshake.
//
// A background loop accepts raw connections one at a time and starts one
// goroutine per connection to run the handshake. Connections whose
// handshake fails or times out are closed and counted; they never reach
// Accept and never affect the loop or other connections.
type TLSAcceptor struct {
	raw    net.Listener
	config *tls.Config
	opts   AcceptorOptions
	logger *slog.Logger

	conns chan net.Conn
	done  chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
	mu        sync.Mutex
	err       error
	wg        sync.WaitGroup

	limiter    *rate.Limiter
	suppressed atomic.Int64
}

// NewTLSAcceptor wraps raw and starts the accept loop. The returned listener
// owns raw: closing it closes raw.
func NewTLSAcceptor(raw net.Listener, config *tls.Config, opts AcceptorOptions) *TLSAcceptor {
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.FailureLogEvery <= 0 {
		opts.FailureLogEvery = time.Second
	}
	if opts.FailureLogBurst <= 0 {
		opts.FailureLogBurst = 5
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &TLSAcceptor{
		raw:     raw,
		config:  config,
		opts:    opts,
		logger:  log.WithComponent(opts.Logger, "acceptor"),
		conns:   make(chan net.Conn),
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
		limiter: rate.NewLimiter(rate.Every(opts.FailureLogEvery), opts.FailureLogBurst),
	}

	a.wg.Add(1)
	go a.loop()

	return a
}

// Accept returns the next connection whose handshake succeeded.
func (a *TLSAcceptor) Accept() (net.Conn, error) {
	select {
	case conn := <-a.conns:
		return conn, nil
	case <-a.done:
		return nil, a.closedErr()
	}
}

// Close stops the loop, closes the raw listener and abandons in-flight
// handshakes. It does not close connections already returned by Accept.
func (a *TLSAcceptor) Close() error {
	err := a.raw.Close()
	a.shutdown(net.ErrClosed)
	return err
}

// Addr returns the raw listener's address.
func (a *TLSAcceptor) Addr() net.Addr {
	return a.raw.Addr()
}

// Wait blocks until the accept loop and every handshake goroutine have
// returned. Call it after Close.
func (a *TLSAcceptor) Wait() {
	a.wg.Wait()
}

func (a *TLSAcceptor) shutdown(err error) {
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.err = err
		a.mu.Unlock()
		a.cancel()
		close(a.done)
	})
}

func (a *TLSAcceptor) closedErr() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

func (a *TLSAcceptor) loop() {
	defer a.wg.Done()

	var delay time.Duration
	for {
		conn, err := a.raw.Accept()
		if err != nil {
			select {
			case <-a.done:
				return
			default:
			}

			if isTemporary(err) {
				if delay == 0 {
					delay = minAcceptDelay
				} else {
					delay *= 2
				}
				if delay > maxAcceptDelay {
					delay = maxAcceptDelay
				}
				a.logger.Warn("accept failed; retrying", log.Error(err), slog.Duration("retry_in", delay))

				select {
				case <-time.After(delay):
					continue
				case <-a.done:
					return
				}
			}

			a.logger.Error("accept loop stopped", log.Error(err))
			a.shutdown(err)
			return
		}
		delay = 0

		metrics.RecordConnectionAccepted()
		a.wg.Add(1)
		go a.handshake(conn)
	}
}

func (a *TLSAcceptor) handshake(conn net.Conn) {
	defer a.wg.Done()

	tlsConn := tls.Server(conn, a.config)

	ctx, cancel := context.WithTimeout(a.ctx, a.opts.HandshakeTimeout)
	err := tlsConn.HandshakeContext(ctx)
	cancel()

	if err != nil {
		conn.Close()
		a.reportFailure(&agenterrors.HandshakeError{
			RemoteAddr: conn.RemoteAddr().String(),
			Cause:      err,
		})
		return
	}
	metrics.RecordHandshakeSuccess()
	log.Trace(a.logger, "tls handshake completed",
		slog.String(log.RemoteKey, conn.RemoteAddr().String()),
		slog.String("alpn", tlsConn.ConnectionState().NegotiatedProtocol))

	select {
	case a.conns <- tlsConn:
	case <-a.done:
		tlsConn.Close()
	}
}

func (a *TLSAcceptor) reportFailure(err *agenterrors.HandshakeError) {
	metrics.RecordHandshakeFailure(err.Cause)

	// Handshakes abandoned because the acceptor is closing are not failures
	// worth logging.
	if errors.Is(err.Cause, context.Canceled) {
		return
	}

	if !a.limiter.Allow() {
		a.suppressed.Add(1)
		return
	}

	attrs := []any{
		slog.String(log.RemoteKey, err.RemoteAddr),
		slog.String("reason", metrics.HandshakeFailureReason(err.Cause)),
		log.Error(err.Cause),
	}
	if n := a.suppressed.Swap(0); n > 0 {
		attrs = append(attrs, slog.Int64("suppressed", n))
	}
	a.logger.Debug("tls handshake failed", attrs...)
}

func isTemporary(err error) bool {
	var temp interface{ Temporary() bool }
	if errors.As(err, &temp) && temp.Temporary() {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
