// Package web serves the JSON API exposed in serve mode.
package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"scrollguard/internal/config"
	"scrollguard/internal/database"
	"scrollguard/internal/tracker"
)

type Server struct {
	handler *Handler
	server  *http.Server
	logger  zerolog.Logger
}

func NewServer(cfg *config.Config, repo *database.Repository, svc *tracker.Service, logger zerolog.Logger) *Server {
	handler := NewHandler(cfg, repo, svc)

	mux := http.NewServeMux()
	handler.SetupRoutes(mux)

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		handler: handler,
		server:  httpServer,
		logger:  logger.With().Str("component", "web").Logger(),
	}
}

// Address returns the host:port the server listens on.
func (s *Server) Address() string {
	return s.server.Addr
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("starting web server")

	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down web server")

	return s.server.Shutdown(ctx)
}
