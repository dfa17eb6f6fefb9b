package server

import (
	"HistoryDB/internal/platform/config"
	"HistoryDB/internal/platform/server/handler/health"
	"HistoryDB/internal/platform/server/handler/history"
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	httpAddr string
	engine   *chi.Mux
	history  *history.HistoryHandler
	srv      *http.Server
	logger   *slog.Logger
}

func NewServer(cfg config.Config, historyHandler *history.HistoryHandler, logger *slog.Logger) *Server {
	url := fmt.Sprintf(":%d", cfg.ServerPort)
	s := &Server{
		engine:   chi.NewRouter(),
		httpAddr: url,
		history:  historyHandler,
		logger:   logger.With("component", "http_server"),
	}
	s.engine.Use(middleware.Logger)
	s.engine.Use(middleware.Recoverer)
	s.registerRoutes()
	s.srv = &http.Server{Addr: s.httpAddr, Handler: s.engine}
	return s
}

// Handler exposes the router, mostly for httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Run() error {
	s.logger.Info("server running", "addr", s.httpAddr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.engine.Get("/health", health.CheckHandler)
	s.engine.Route("/history", func(r chi.Router) {
		r.Get("/", s.history.Query)
		r.Get("/bounds", s.history.Bounds)
		r.Get("/{quark}", s.history.SingularQuery)
		r.Post("/intervals", s.history.InsertIntervals)
		r.Post("/finish", s.history.FinishBuilding)
	})
}
