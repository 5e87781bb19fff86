package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/sendpair/internal/logging"
	"github.com/muurk/sendpair/internal/pairing"
	"github.com/muurk/sendpair/internal/registry"
	"github.com/muurk/sendpair/internal/settings"
)

const (
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 15 * time.Second
	defaultIdleTimeout  = 60 * time.Second
	shutdownTimeout     = 10 * time.Second
)

// Config holds the server configuration
type Config struct {
	Host     string
	Port     int
	CertPath string // Serve HTTPS when both CertPath and KeyPath are set
	KeyPath  string
}

// Addr returns host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, fmt.Sprint(c.Port))
}

// Pairer accepts raw pairing codes.
type Pairer interface {
	Submit(ctx context.Context, raw string) pairing.Outcome
}

// DeviceLister lists registered devices.
type DeviceLister interface {
	List() []registry.Entry
}

// Deps are the components the API exposes.
type Deps struct {
	Settings *settings.Coordinator
	Pairing  Pairer
	Devices  DeviceLister
}

const apiPrefix = "/api/v1"

// Server is the local sendpair HTTP API.
type Server struct {
	config    Config
	deps      Deps
	router    *mux.Router
	tlsConfig *tls.Config
	upgrader  websocket.Upgrader

	mu       sync.Mutex
	httpSrv  *http.Server
	stop     chan struct{} // closed on Shutdown; ends settings watchers
	stopOnce sync.Once
	watchers sync.WaitGroup
}

// New creates a new Server instance
func New(config Config, deps Deps) (*Server, error) {
	if deps.Settings == nil {
		return nil, errors.New("server: settings coordinator is required")
	}

	s := &Server{
		config: config,
		deps:   deps,
		router: mux.NewRouter(),
		stop:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkLocalOrigin,
		},
	}

	if config.CertPath != "" || config.KeyPath != "" {
		tlsConfig, err := NewTLSConfig(config.CertPath, config.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
		s.tlsConfig = tlsConfig
	}

	s.setupRoutes()
	return s, nil
}

// Handler returns the API's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)

	// Routes live on the root router so a method mismatch reaches
	// MethodNotAllowedHandler instead of falling through to NotFoundHandler.
	s.router.HandleFunc(apiPrefix+"/settings", s.getSettings).Methods(http.MethodGet)
	s.router.HandleFunc(apiPrefix+"/settings/watch", s.watchSettings).Methods(http.MethodGet)
	s.router.HandleFunc(apiPrefix+"/settings/{field}", s.putSetting).Methods(http.MethodPut)
	s.router.HandleFunc(apiPrefix+"/settings/{flag}/toggle", s.toggleSetting).Methods(http.MethodPost)

	s.router.HandleFunc(apiPrefix+"/pair", s.pair).Methods(http.MethodPost)
	s.router.HandleFunc(apiPrefix+"/devices", s.listDevices).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, "not found", http.StatusNotFound)
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
	})
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := s.config.Addr()

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if s.tlsConfig != nil {
		listener = tls.NewListener(listener, s.tlsConfig)
		logging.Info("TLS Configuration", zap.Any("tls_info", GetTLSInfo(s.tlsConfig)))
	}

	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}
	s.mu.Lock()
	s.httpSrv = srv
	s.mu.Unlock()

	logging.Info("Server listening",
		zap.String("addr", listener.Addr().String()),
		zap.Bool("tls", s.tlsConfig != nil))

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		logging.Info("Shutdown requested, stopping server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stop) })

	s.mu.Lock()
	srv := s.httpSrv
	s.mu.Unlock()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}

	// Hijacked websocket connections are not tracked by http.Server
	done := make(chan struct{})
	go func() {
		s.watchers.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("All connections closed gracefully")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	}

	logging.Sync()
	return err
}
