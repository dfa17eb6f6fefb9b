package bootstrap

import (
	"HistoryDB/internal/application/service"
	"HistoryDB/internal/domain"
	"HistoryDB/internal/platform/api/zmq"
	"HistoryDB/internal/platform/config"
	"HistoryDB/internal/platform/repository"
	"HistoryDB/internal/platform/server"
	"HistoryDB/internal/platform/server/handler/history"
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/dig"
)

const shutdownTimeout = 10 * time.Second

func Run() (bool, error) {
	container, err := BuildContainer()
	if err != nil {
		return false, err
	}

	err = container.Invoke(func(s *server.Server,
		api *zmq.ZmqApi,
		backend domain.StateHistoryBackend,
		logger *slog.Logger) error {

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errs := make(chan error, 2)
		go func() {
			errs <- api.Listen()
		}()
		go func() {
			errs <- s.Run()
		}()

		select {
		case <-ctx.Done():
			logger.Info("shutting down")
		case err := <-errs:
			if err != nil {
				logger.Error("surface failed", "error", err)
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", "error", err)
		}
		if err := api.Close(); err != nil {
			logger.Warn("zmq shutdown", "error", err)
		}
		return backend.Dispose()
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// BuildContainer registers every constructor of the history service.
func BuildContainer() (*dig.Container, error) {
	container := dig.New()
	serviceConstructors := []interface{}{
		config.LoadConfig,
		newLogger,
		repository.NewBackend,
		service.NewInsertStateService,
		service.NewFinishBuildingService,
		service.NewSingularQueryService,
		service.NewFullQueryService,
		service.NewPartialQueryService,
		service.NewBoundsService,
		history.NewHistoryHandler,
		server.NewServer,
		zmq.NewZmqApi,
	}
	for _, constructor := range serviceConstructors {
		if err := container.Provide(constructor); err != nil {
			return nil, err
		}
	}
	return container, nil
}

func newLogger(cfg config.Config) *slog.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})
	logger := slog.New(handler).With("store_id", cfg.StoreId)
	slog.SetDefault(logger)
	return logger
}
