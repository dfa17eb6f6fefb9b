package service

import (
	"HistoryDB/internal/domain"
)

type BoundsService struct {
	backend domain.StateHistoryBackend
}

func NewBoundsService(backend domain.StateHistoryBackend) *BoundsService {
	return &BoundsService{
		backend: backend,
	}
}

type BoundsResult struct {
	SSID      string
	StartTime int64
	EndTime   int64
}

func (s *BoundsService) Execute() BoundsResult {
	return BoundsResult{
		SSID:      s.backend.SSID(),
		StartTime: s.backend.StartTime(),
		EndTime:   s.backend.EndTime(),
	}
}
