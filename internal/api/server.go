package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// ServerConfig holds configuration for the HTTP server
type ServerConfig struct {
	Host              string
	Port              int
	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

// DefaultServerConfig returns the production defaults. There is no write
// timeout because room watches hold their connection open.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:              8080,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		ShutdownTimeout:   30 * time.Second,
	}
}

// Server runs the room API with graceful shutdown
type Server struct {
	server   *http.Server
	listener net.Listener
	logger   *slog.Logger
	config   ServerConfig
}

// NewServer creates a new API server. Functions in onShutdown run when
// Shutdown starts, before in-flight requests drain; use them to close
// hijacked websocket connections that Shutdown cannot see.
func NewServer(handler http.Handler, config ServerConfig, logger *slog.Logger, onShutdown ...func()) *Server {
	srv := &http.Server{
		Addr:              net.JoinHostPort(config.Host, fmt.Sprint(config.Port)),
		Handler:           handler,
		ReadHeaderTimeout: config.ReadHeaderTimeout,
		IdleTimeout:       config.IdleTimeout,
	}
	for _, f := range onShutdown {
		srv.RegisterOnShutdown(f)
	}
	return &Server{
		server: srv,
		logger: logger,
		config: config,
	}
}

// Listen binds the configured address. Port 0 picks a free port; Addr
// reports it afterwards.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.server.Addr, err)
	}
	s.listener = ln
	return nil
}

// Start serves requests until Shutdown, binding first if Listen was not called
func (s *Server) Start() error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	s.logger.Info("starting HTTP server", slog.String("addr", s.Addr()))

	if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Addr returns the bound address once listening, else the configured one
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.server.Addr
}
