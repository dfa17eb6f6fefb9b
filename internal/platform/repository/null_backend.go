package repository

import (
	"HistoryDB/internal/domain"
	"sync"
	"sync/atomic"
)

// NullBackend keeps no history. Only the store bounds are tracked.
type NullBackend struct {
	ssid     string
	writeMu  sync.Mutex
	endTime  atomic.Int64
	finished atomic.Bool
}

func NewNullBackend(ssid string) *NullBackend {
	return &NullBackend{ssid: ssid}
}

func (b *NullBackend) SSID() string {
	return b.ssid
}

func (b *NullBackend) StartTime() int64 {
	return 0
}

func (b *NullBackend) EndTime() int64 {
	return b.endTime.Load()
}

func (b *NullBackend) InsertPastState(start, end int64, quark int, value domain.StateValue) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	if b.finished.Load() {
		return domain.ErrBackendFinished
	}
	if err := checkInterval(b.ssid, start, end, quark, b.StartTime()); err != nil {
		return err
	}
	if end > b.endTime.Load() {
		b.endTime.Store(end)
	}
	return nil
}

func (b *NullBackend) FinishBuilding(endTime int64) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	if b.finished.Load() {
		return domain.ErrBackendFinished
	}
	if err := checkFinishTime(b.ssid, endTime, b.endTime.Load()); err != nil {
		return err
	}
	b.endTime.Store(endTime)
	b.finished.Store(true)
	return nil
}

func (b *NullBackend) RemoveFiles() error {
	return nil
}

func (b *NullBackend) Dispose() error {
	return nil
}

func (b *NullBackend) DoQuery(stateInfo []*domain.StateInterval, t int64) error {
	return nil
}

func (b *NullBackend) DoSingularQuery(t int64, quark int) (domain.StateInterval, error) {
	return domain.StateInterval{}, attributeNotFound(b.ssid, quark, t)
}

func (b *NullBackend) DoPartialQuery(t int64, quarks domain.QuarkSet, results map[int]domain.StateInterval) error {
	return nil
}
