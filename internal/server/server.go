package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/muurk/smartweb/internal/device"
	"github.com/muurk/smartweb/internal/discovery"
	"github.com/muurk/smartweb/internal/logging"
	"github.com/muurk/smartweb/internal/version"
)

// shutdownTimeout bounds how long in-flight API requests may run after a
// shutdown signal
const shutdownTimeout = 10 * time.Second

// Config holds the bridge configuration
type Config struct {
	Listen       string // host:port for the API, e.g. ":8080"
	PollInterval time.Duration
	LogLevel     string
	Advertise    bool   // announce the bridge via mDNS
	InstanceName string // mDNS instance name (default: hostname)
	SmartWebHost string // advertised in the TXT record
	CertPath     string // optional; serve HTTPS when both paths are set
	KeyPath      string
}

// Server polls SmartWeb devices and serves their state over HTTP and
// WebSocket
type Server struct {
	config  *Config
	devices *device.Set
	poller  *Poller
	feed    *Feed
	echo    *echo.Echo

	tlsConfig  *tls.Config
	httpServer *http.Server

	mu       sync.Mutex
	listener net.Listener
	mdns     *zeroconf.Server
	ready    chan struct{}
	wg       sync.WaitGroup
	cancel   context.CancelFunc
}

// New creates a bridge over devices
func New(config *Config, devices *device.Set) (*Server, error) {
	if err := logging.Initialize(config.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	s := &Server{
		config:  config,
		devices: devices,
		ready:   make(chan struct{}),
	}

	if config.CertPath != "" || config.KeyPath != "" {
		tlsConfig, err := NewTLSConfig(config.CertPath, config.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
		s.tlsConfig = tlsConfig
	}

	s.poller = NewPoller(devices, config.PollInterval, nil)
	s.feed = NewFeed(s.poller.States)
	s.poller.onChange = s.feed.Broadcast
	s.echo = s.newRouter()

	return s, nil
}

// Handler returns the bridge API for embedding or testing
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Poller returns the bridge's poller
func (s *Server) Poller() *Poller {
	return s.poller
}

// Ready is closed once the listener is bound
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound listen address, or nil before Start
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start serves the API, runs the poller and blocks until ctx is done, a
// shutdown signal arrives or the HTTP server fails
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Listen, err)
	}

	scheme := "http"
	if s.tlsConfig != nil {
		listener = tls.NewListener(listener, s.tlsConfig)
		scheme = "https"
		logging.Info("TLS configuration", zap.Any("tls_info", GetTLSInfo(s.tlsConfig)))
	}

	s.mu.Lock()
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Unlock()
	close(s.ready)

	logging.Info("Starting SmartWeb bridge",
		zap.String("addr", listener.Addr().String()),
		zap.String("scheme", scheme),
		zap.Int("devices", s.devices.Len()),
		zap.String("version", version.Full()),
	)

	pollCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.poller.Run(pollCtx)
	}()

	if s.config.Advertise {
		s.advertise(listener.Addr())
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.Serve(listener)
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping bridge...")
	case <-ctx.Done():
		logging.Info("Context cancelled, stopping bridge...")
	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			_ = s.Shutdown(context.Background())
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	return s.Shutdown(shutdownCtx)
}

// advertise registers the bridge via mDNS. Failures are logged, the API
// stays up.
func (s *Server) advertise(addr net.Addr) {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		return
	}

	instance := s.config.InstanceName
	if instance == "" {
		instance, _ = os.Hostname()
		if instance == "" {
			instance = "smartweb-bridge"
		}
	}

	srv, err := discovery.Advertise(instance, tcp.Port, discovery.TXTRecords(version.Get().Version, s.config.SmartWebHost))
	if err != nil {
		logging.Warn("mDNS advertisement failed", zap.Error(err))
		return
	}

	s.mu.Lock()
	s.mdns = srv
	s.mu.Unlock()
}

// Shutdown withdraws the mDNS record, disconnects subscribers, stops the
// poller and the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down bridge...")

	s.mu.Lock()
	mdns, httpServer, cancel := s.mdns, s.httpServer, s.cancel
	s.mdns = nil
	s.mu.Unlock()

	if mdns != nil {
		mdns.Shutdown()
	}

	var err error
	if httpServer != nil {
		if err = httpServer.Shutdown(ctx); err != nil {
			logging.Warn("HTTP shutdown incomplete", zap.Error(err))
		}
	}

	// hijacked WebSocket connections are not tracked by http.Server
	s.feed.Close()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()

	logging.Info("Bridge stopped")
	logging.Sync()

	return err
}
