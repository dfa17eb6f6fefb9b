package service

import (
	"HistoryDB/internal/domain"
	"log/slog"
)

type InsertStateService struct {
	backend domain.StateHistoryBackend
	logger  *slog.Logger
}

func NewInsertStateService(backend domain.StateHistoryBackend, logger *slog.Logger) *InsertStateService {
	return &InsertStateService{
		backend: backend,
		logger:  logger.With("service", "insert_state"),
	}
}

type InsertStateCommand struct {
	Intervals []domain.StateInterval
}

type InsertStateResult struct {
	Inserted int
	EndTime  int64
}

// Execute inserts the intervals in order and stops at the first failure.
// Intervals inserted before the failure stay in the history.
func (s *InsertStateService) Execute(command InsertStateCommand) (InsertStateResult, error) {
	for n, i := range command.Intervals {
		if err := s.backend.InsertPastState(i.Start(), i.End(), i.Quark(), i.Value()); err != nil {
			s.logger.Error("insert failed", "interval", i.String(), "error", err)
			return InsertStateResult{Inserted: n, EndTime: s.backend.EndTime()}, err
		}
	}
	return InsertStateResult{
		Inserted: len(command.Intervals),
		EndTime:  s.backend.EndTime(),
	}, nil
}
