package repository

import (
	. "HistoryDB/internal/domain"
	"HistoryDB/internal/platform/repository/interval_set"
	"log/slog"
	"sync"
	"sync/atomic"
)

// InMemoryBackend keeps every interval in an ordered set keyed by
// (end, quark). Nothing is written to disk.
type InMemoryBackend struct {
	ssid      string
	startTime int64
	// serializes InsertPastState and FinishBuilding
	writeMu sync.Mutex
	// read without the table lock, it only ever grows
	latestTime atomic.Int64
	finished   atomic.Bool
	disposed   atomic.Bool
	intervals  *interval_set.IntervalTable
	logger     *slog.Logger
}

func NewInMemoryBackend(ssid string, startTime int64, logger *slog.Logger) *InMemoryBackend {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "in_memory_backend", "ssid", ssid)
	b := &InMemoryBackend{
		ssid:      ssid,
		startTime: startTime,
		intervals: interval_set.NewIntervalTable(logger),
		logger:    logger,
	}
	b.latestTime.Store(startTime)
	return b
}

func (b *InMemoryBackend) SSID() string {
	return b.ssid
}

func (b *InMemoryBackend) StartTime() int64 {
	return b.startTime
}

func (b *InMemoryBackend) EndTime() int64 {
	return b.latestTime.Load()
}

func (b *InMemoryBackend) InsertPastState(start, end int64, quark int, value StateValue) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	if b.disposed.Load() {
		return ErrBackendDisposed
	}
	if b.finished.Load() {
		return ErrBackendFinished
	}
	if err := checkInterval(b.ssid, start, end, quark, b.startTime); err != nil {
		return err
	}

	b.intervals.Insert(NewStateInterval(start, end, quark, value))

	if end > b.latestTime.Load() {
		b.latestTime.Store(end)
	}
	return nil
}

func (b *InMemoryBackend) FinishBuilding(endTime int64) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	if b.disposed.Load() {
		return ErrBackendDisposed
	}
	if b.finished.Load() {
		return ErrBackendFinished
	}
	if err := checkFinishTime(b.ssid, endTime, b.latestTime.Load()); err != nil {
		return err
	}
	b.latestTime.Store(endTime)
	b.finished.Store(true)
	b.logger.Debug("in-memory history finished", "end", endTime, "intervals", b.intervals.Size())
	return nil
}

func (b *InMemoryBackend) RemoveFiles() error {
	return nil
}

func (b *InMemoryBackend) Dispose() error {
	b.disposed.Store(true)
	return nil
}

func (b *InMemoryBackend) checkQuery(t int64) error {
	if b.disposed.Load() {
		return ErrBackendDisposed
	}
	return checkValidTime(b.ssid, t, b.startTime, b.latestTime.Load())
}

func (b *InMemoryBackend) DoQuery(stateInfo []*StateInterval, t int64) error {
	if err := b.checkQuery(t); err != nil {
		return err
	}

	filled := 0
	b.intervals.Scan(t, func(interval StateInterval) bool {
		quark := interval.Quark()
		if quark < 0 || quark >= len(stateInfo) {
			return true
		}
		stateInfo[quark] = &interval
		filled++
		return filled < len(stateInfo)
	})
	return nil
}

func (b *InMemoryBackend) DoSingularQuery(t int64, quark int) (StateInterval, error) {
	if err := b.checkQuery(t); err != nil {
		return StateInterval{}, err
	}

	interval, ok := b.intervals.Find(t, quark)
	if !ok {
		return StateInterval{}, attributeNotFound(b.ssid, quark, t)
	}
	return interval, nil
}

func (b *InMemoryBackend) DoPartialQuery(t int64, quarks QuarkSet, results map[int]StateInterval) error {
	if err := b.checkQuery(t); err != nil {
		return err
	}
	if len(quarks) == 0 {
		return nil
	}

	remaining := len(quarks)
	b.intervals.Scan(t, func(interval StateInterval) bool {
		if quarks.Contains(interval.Quark()) {
			results[interval.Quark()] = interval
			remaining--
		}
		return remaining > 0
	})
	return nil
}

// Len is the number of intervals stored.
func (b *InMemoryBackend) Len() int {
	return b.intervals.Size()
}
