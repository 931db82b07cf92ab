package listener

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tuikaDLC/Kincord/config"
	"github.com/tuikaDLC/Kincord/notify"
)

const (
	// DefaultSettle is the pause between stop and start on restart.
	DefaultSettle = time.Second

	defaultShutdownTimeout = 10 * time.Second
)

/* Manager owns the inbound HTTP listener. Transitions are serialized by mu:
 * a Start or Stop issued while another transition runs waits for it and
 * then sees the settled state.
 */
type Manager struct {
	settings config.Provider
	handler  http.Handler
	log      zerolog.Logger
	notifier notify.Notifier
	hooks    []func(State)
	settle   time.Duration
	listen   func(ctx context.Context, network, address string) (net.Listener, error)
	// onShutdown runs when a drain begins, e.g. to close hijacked connections.
	onShutdown []func()

	mu   sync.Mutex // serializes transitions
	srv  *http.Server
	done chan struct{}

	stateMu sync.RWMutex
	state   State
	addr    string
}

type Option func(*Manager)

func WithLogger(log zerolog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

func WithNotifier(n notify.Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

// WithStateHook registers a callback for every state change. Hooks run
// inside the transition and must not call Start, Stop or Restart.
func WithStateHook(fn func(State)) Option {
	return func(m *Manager) { m.hooks = append(m.hooks, fn) }
}

// WithShutdownHook registers fn to run when the listener starts draining.
func WithShutdownHook(fn func()) Option {
	return func(m *Manager) { m.onShutdown = append(m.onShutdown, fn) }
}

// WithListenFunc replaces how the listening socket is opened.
func WithListenFunc(fn func(ctx context.Context, network, address string) (net.Listener, error)) Option {
	return func(m *Manager) { m.listen = fn }
}

// WithSettle overrides the pause between stop and start on restart.
func WithSettle(d time.Duration) Option {
	return func(m *Manager) { m.settle = d }
}

func NewManager(settings config.Provider, handler http.Handler, opts ...Option) *Manager {
	m := &Manager{
		settings: settings,
		handler:  handler,
		log:      zerolog.Nop(),
		notifier: notify.Nop{},
		settle:   DefaultSettle,
		state:    Stopped,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.listen == nil {
		var lc net.ListenConfig
		m.listen = lc.Listen
	}
	return m
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.state
}

// Addr returns the bound address while running, or "".
func (m *Manager) Addr() string {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.addr
}

// Start binds the configured address and serves. Starting a running
// listener is a no-op. A bind failure leaves the listener Stopped.
func (m *Manager) Start(ctx context.Context) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.start(ctx)
}

// Stop drains in-flight requests and closes the listener. Stopping a
// stopped listener is a no-op. The listener always ends Stopped; a non-nil
// error means the drain timed out and connections were closed forcibly.
func (m *Manager) Stop(ctx context.Context) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stop(ctx)
}

// Restart stops, waits for the settle delay and starts again, picking up
// the current settings.
func (m *Manager) Restart(ctx context.Context) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.stop(ctx); err != nil {
		m.log.Warn().Err(err).Msg("stopping listener for restart")
	}

	t := time.NewTimer(m.settle)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return m.State(), fmt.Errorf("waiting to restart: %w", ctx.Err())
	case <-t.C:
	}

	return m.start(ctx)
}

func (m *Manager) start(ctx context.Context) (State, error) {
	if s := m.State(); s.IsActive() {
		m.notify("Server is already running")
		return s, nil
	}

	cfg := m.settings.Current()
	m.setState(Starting, "")

	addr := cfg.Server.Addr()
	ln, err := m.listen(ctx, "tcp", addr)
	if err != nil {
		m.setState(Stopped, "")
		m.log.Error().Err(err).Str("addr", addr).Msg("starting listener")
		m.notify(fmt.Sprintf("Failed to start server: %v", err))
		return Stopped, fmt.Errorf("binding listener on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:      m.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	for _, fn := range m.onShutdown {
		srv.RegisterOnShutdown(fn)
	}
	done := make(chan struct{})
	go func() {
		err := srv.Serve(ln)
		close(done)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.serveFailed(srv, err)
		}
	}()

	m.srv = srv
	m.done = done
	bound := ln.Addr().String()
	m.setState(Running, bound)
	m.log.Info().Str("addr", bound).Msg("listener started")
	m.notify(fmt.Sprintf("Server started\n%s", endpointURL(bound)))

	return Running, nil
}

func (m *Manager) stop(ctx context.Context) (State, error) {
	if s := m.State(); s == Stopped || s == Stopping {
		return s, nil
	}

	m.setState(Stopping, m.Addr())

	timeout := m.settings.Current().Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	var shutdownErr error
	if err := m.srv.Shutdown(shutdownCtx); err != nil {
		shutdownErr = fmt.Errorf("shutting down listener: %w", err)
		m.log.Warn().Err(err).Msg("forcing listener close")
		m.srv.Close()
	}
	<-m.done

	m.srv = nil
	m.done = nil
	m.setState(Stopped, "")
	m.log.Info().Msg("listener stopped")
	m.notify("Server stopped")

	return Stopped, shutdownErr
}

// serveFailed moves a listener whose Serve loop died on its own to Stopped.
// done is already closed, so a concurrent stop is not blocked on it.
func (m *Manager) serveFailed(srv *http.Server, err error) {
	m.log.Error().Err(err).Msg("listener stopped unexpectedly")

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.srv != srv {
		return
	}
	srv.Close()
	m.srv = nil
	m.done = nil
	m.setState(Stopped, "")
	m.notify(fmt.Sprintf("Server stopped unexpectedly: %v", err))
}

func (m *Manager) setState(s State, addr string) {
	m.stateMu.Lock()
	m.state = s
	m.addr = addr
	m.stateMu.Unlock()

	for _, hook := range m.hooks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					m.log.Error().Interface("panic", r).Msg("listener state hook")
				}
			}()
			hook(s)
		}()
	}
}

func (m *Manager) notify(message string) {
	notify.Safe(m.notifier, message)
}

func endpointURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if ip := net.ParseIP(host); ip != nil && (ip.IsLoopback() || ip.IsUnspecified()) {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s/webhook/kintone", net.JoinHostPort(host, port))
}
