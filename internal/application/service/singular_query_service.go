package service

import (
	"HistoryDB/internal/domain"
)

type SingularQueryService struct {
	backend domain.StateHistoryBackend
}

func NewSingularQueryService(backend domain.StateHistoryBackend) *SingularQueryService {
	return &SingularQueryService{
		backend: backend,
	}
}

type SingularQuery struct {
	Time  int64
	Quark int
}

type SingularQueryResult struct {
	Interval domain.StateInterval
}

func (s *SingularQueryService) Execute(query SingularQuery) (SingularQueryResult, error) {
	interval, err := s.backend.DoSingularQuery(query.Time, query.Quark)
	if err != nil {
		return SingularQueryResult{}, err
	}
	return SingularQueryResult{Interval: interval}, nil
}
