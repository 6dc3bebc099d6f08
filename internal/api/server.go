// Package api provides the HTTP REST API for Fieldlink Core.
//
// It exposes the protocol registry, configuration validation and
// connection testing to provisioning tools and dashboards.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/fieldlink-core/internal/infrastructure/config"
	"github.com/nerrad567/fieldlink-core/internal/infrastructure/database"
	"github.com/nerrad567/fieldlink-core/internal/infrastructure/logging"
	"github.com/nerrad567/fieldlink-core/internal/registry"
	"github.com/nerrad567/fieldlink-core/internal/tester"
	"github.com/nerrad567/fieldlink-core/internal/validation"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	Tester    config.TesterConfig
	Logger    *logging.Logger
	Registry  *registry.Registry
	Validator *validation.Validator
	Conntest  *tester.Tester
	Version   string

	// Store is the catalogue store, reported by the health endpoint.
	// Optional; health omits the database status when nil.
	Store *database.DB
}

// Server is the HTTP API server for Fieldlink Core.
//
// It manages the HTTP listener, routes and middleware. The server is
// created with New() and started with Start().
type Server struct {
	cfg       config.APIConfig
	testerCfg config.TesterConfig
	logger    *logging.Logger
	registry  *registry.Registry
	validator *validation.Validator
	conntest  *tester.Tester
	version   string
	store     *database.DB
	server    *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("protocol registry is required")
	}
	if deps.Validator == nil {
		return nil, fmt.Errorf("config validator is required")
	}
	if deps.Conntest == nil {
		return nil, fmt.Errorf("connection tester is required")
	}

	return &Server{
		cfg:       deps.Config,
		testerCfg: deps.Tester,
		logger:    deps.Logger,
		registry:  deps.Registry,
		validator: deps.Validator,
		conntest:  deps.Conntest,
		version:   deps.Version,
		store:     deps.Store,
	}, nil
}

// Start begins listening for HTTP connections.
//
// The listener runs in a background goroutine; the server is stopped
// with Close().
func (s *Server) Start(_ context.Context) error {
	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
