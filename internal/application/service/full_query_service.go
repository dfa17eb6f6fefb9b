package service

import (
	"HistoryDB/internal/domain"
	"errors"
	"fmt"
)

// MaxAttributes bounds the state slice a full query allocates.
const MaxAttributes = 1 << 20

var ErrInvalidQuery = errors.New("invalid query")

type FullQueryService struct {
	backend domain.StateHistoryBackend
}

func NewFullQueryService(backend domain.StateHistoryBackend) *FullQueryService {
	return &FullQueryService{
		backend: backend,
	}
}

type FullQuery struct {
	Time         int64
	NbAttributes int
}

type FullQueryResult struct {
	// indexed by quark, nil where the attribute has no state
	Intervals []*domain.StateInterval
}

func (s *FullQueryService) Execute(query FullQuery) (FullQueryResult, error) {
	if query.NbAttributes < 0 || query.NbAttributes > MaxAttributes {
		return FullQueryResult{}, fmt.Errorf("%w: number of attributes %d out of [0, %d]", ErrInvalidQuery, query.NbAttributes, MaxAttributes)
	}
	stateInfo := make([]*domain.StateInterval, query.NbAttributes)
	if err := s.backend.DoQuery(stateInfo, query.Time); err != nil {
		return FullQueryResult{}, err
	}
	return FullQueryResult{Intervals: stateInfo}, nil
}
