package service

import (
	"HistoryDB/internal/domain"
	"log/slog"
)

type FinishBuildingService struct {
	backend domain.StateHistoryBackend
	logger  *slog.Logger
}

func NewFinishBuildingService(backend domain.StateHistoryBackend, logger *slog.Logger) *FinishBuildingService {
	return &FinishBuildingService{
		backend: backend,
		logger:  logger.With("service", "finish_building"),
	}
}

type FinishBuildingCommand struct {
	EndTime int64
}

type FinishBuildingResult struct {
	StartTime int64
	EndTime   int64
}

func (s *FinishBuildingService) Execute(command FinishBuildingCommand) (FinishBuildingResult, error) {
	if err := s.backend.FinishBuilding(command.EndTime); err != nil {
		s.logger.Error("finish building failed", "end", command.EndTime, "error", err)
		return FinishBuildingResult{}, err
	}
	s.logger.Info("history finished", "ssid", s.backend.SSID(), "end", s.backend.EndTime())
	return FinishBuildingResult{
		StartTime: s.backend.StartTime(),
		EndTime:   s.backend.EndTime(),
	}, nil
}
