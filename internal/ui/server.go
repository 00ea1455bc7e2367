package ui

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/minhlq/github-harvester/cfg"
	"github.com/minhlq/github-harvester/pkg/db"
	"github.com/minhlq/github-harvester/pkg/log"
)

// Server exposes the harvested data over HTTP for inspection.
type Server struct {
	Logger log.Logger
	Config *cfg.Config
	Mysql  *db.Mysql
	server *http.Server
	port   int
}

func NewServer(logger log.Logger, config *cfg.Config, mysql *db.Mysql, port int) (*Server, error) {
	return &Server{
		Logger: logger,
		Config: config,
		Mysql:  mysql,
		port:   port,
	}, nil
}

// Start blocks serving requests until Stop is called.
func (s *Server) Start() error {
	handler, err := NewHandler(s.Logger, s.Config, s.Mysql)
	if err != nil {
		return fmt.Errorf("failed to create handler: %w", err)
	}

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.Logger.Info(context.Background(), "Starting inspection server on port %d", s.port)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		s.Logger.Info(ctx, "Shutting down inspection server")
		return s.server.Shutdown(ctx)
	}
	return nil
}
