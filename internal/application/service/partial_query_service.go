package service

import (
	"HistoryDB/internal/domain"
)

type PartialQueryService struct {
	backend domain.StateHistoryBackend
}

func NewPartialQueryService(backend domain.StateHistoryBackend) *PartialQueryService {
	return &PartialQueryService{
		backend: backend,
	}
}

type PartialQuery struct {
	Time   int64
	Quarks []int
}

type PartialQueryResult struct {
	Intervals map[int]domain.StateInterval
}

func (s *PartialQueryService) Execute(query PartialQuery) (PartialQueryResult, error) {
	results := make(map[int]domain.StateInterval, len(query.Quarks))
	if err := s.backend.DoPartialQuery(query.Time, domain.NewQuarkSet(query.Quarks...), results); err != nil {
		return PartialQueryResult{}, err
	}
	return PartialQueryResult{Intervals: results}, nil
}
