package interval_set

import (
	. "HistoryDB/internal/domain"
	"log/slog"
	"sync"
)

const (
	maxLevel    = 16
	probability = 0.25
	// probeQuark sorts before every real quark sharing the same end time.
	probeQuark = -1
)

// IntervalTable is the lock-guarded ordered set backing the in-memory history.
type IntervalTable struct {
	mu       sync.RWMutex
	skiplist *SkipList
	logger   *slog.Logger
}

func NewIntervalTable(logger *slog.Logger) *IntervalTable {
	if logger == nil {
		logger = slog.Default()
	}
	return &IntervalTable{
		skiplist: NewSkipList(maxLevel, probability),
		logger:   logger,
	}
}

// Insert stores the interval. An interval whose (end, quark) is already
// present is dropped and Insert returns false.
func (it *IntervalTable) Insert(interval StateInterval) bool {
	it.mu.Lock()
	defer it.mu.Unlock()

	if !it.skiplist.Set(interval) {
		it.logger.Warn("duplicate interval ignored", "interval", interval.String())
		return false
	}
	return true
}

// Scan calls visit for every stored interval covering t, in (end, quark)
// order, until visit returns false.
func (it *IntervalTable) Scan(t int64, visit func(StateInterval) bool) {
	it.mu.RLock()
	defer it.mu.RUnlock()

	curr := it.skiplist.Lower(t, probeQuark)
	if curr == nil {
		curr = it.skiplist.First()
	} else {
		curr = curr.Next()
	}
	for ; curr != nil; curr = curr.Next() {
		if curr.Start() > t {
			continue
		}
		if !visit(curr.StateInterval) {
			return
		}
	}
}

// Find returns the interval covering quark at t.
func (it *IntervalTable) Find(t int64, quark int) (StateInterval, bool) {
	var (
		found StateInterval
		ok    bool
	)
	it.Scan(t, func(interval StateInterval) bool {
		if interval.Quark() == quark {
			found, ok = interval, true
			return false
		}
		return true
	})
	return found, ok
}

func (it *IntervalTable) Size() int {
	it.mu.RLock()
	defer it.mu.RUnlock()

	return it.skiplist.Size()
}

func (it *IntervalTable) All() []StateInterval {
	it.mu.RLock()
	defer it.mu.RUnlock()

	return it.skiplist.All()
}
