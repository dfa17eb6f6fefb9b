package repository

import (
	. "HistoryDB/internal/domain"
	"HistoryDB/internal/platform/repository/history_tree"
	"log/slog"
	"sync"
	"sync/atomic"
)

// HistoryTreeBackend stores the history in a history tree file. A finished
// file can be reopened later without rebuilding it.
type HistoryTreeBackend struct {
	ssid     string
	tree     *history_tree.HistoryTree
	// serializes writers, Dispose included
	writeMu  sync.Mutex
	disposed atomic.Bool
	logger   *slog.Logger
}

func NewHistoryTreeBackend(ssid string, config history_tree.Config, logger *slog.Logger) (*HistoryTreeBackend, error) {
	logger = backendLogger(logger, ssid)
	tree, err := history_tree.NewHistoryTree(config, logger)
	if err != nil {
		return nil, err
	}
	return &HistoryTreeBackend{ssid: ssid, tree: tree, logger: logger}, nil
}

func OpenHistoryTreeBackend(ssid, path string, providerVersion int, logger *slog.Logger) (*HistoryTreeBackend, error) {
	logger = backendLogger(logger, ssid)
	tree, err := history_tree.OpenHistoryTree(path, providerVersion, logger)
	if err != nil {
		return nil, err
	}
	return &HistoryTreeBackend{ssid: ssid, tree: tree, logger: logger}, nil
}

func backendLogger(logger *slog.Logger, ssid string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("ssid", ssid)
}

func (b *HistoryTreeBackend) SSID() string {
	return b.ssid
}

func (b *HistoryTreeBackend) StartTime() int64 {
	return b.tree.StartTime()
}

func (b *HistoryTreeBackend) EndTime() int64 {
	return b.tree.EndTime()
}

// FileSize is the size of the history file in bytes.
func (b *HistoryTreeBackend) FileSize() int64 {
	return b.tree.FileSize()
}

func (b *HistoryTreeBackend) Tree() *history_tree.HistoryTree {
	return b.tree
}

func (b *HistoryTreeBackend) InsertPastState(start, end int64, quark int, value StateValue) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	if b.disposed.Load() {
		return ErrBackendDisposed
	}
	if err := checkInterval(b.ssid, start, end, quark, b.tree.StartTime()); err != nil {
		return err
	}
	return b.tree.Insert(NewStateInterval(start, end, quark, value))
}

func (b *HistoryTreeBackend) FinishBuilding(endTime int64) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	if b.disposed.Load() {
		return ErrBackendDisposed
	}
	if b.tree.Finished() {
		return ErrBackendFinished
	}
	if err := checkFinishTime(b.ssid, endTime, b.tree.EndTime()); err != nil {
		return err
	}
	return b.tree.Close(endTime)
}

func (b *HistoryTreeBackend) RemoveFiles() error {
	return b.tree.DeleteFile()
}

// Dispose closes the file. A tree that was never finished is unusable and
// its file is deleted.
func (b *HistoryTreeBackend) Dispose() error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	b.disposed.Store(true)
	if b.tree.Finished() {
		return b.tree.CloseFile()
	}
	b.logger.Info("disposing unfinished history, deleting file", "path", b.tree.Path())
	return b.tree.DeleteFile()
}

func (b *HistoryTreeBackend) checkQuery(t int64) error {
	if b.disposed.Load() {
		return ErrBackendDisposed
	}
	return checkValidTime(b.ssid, t, b.tree.StartTime(), b.tree.EndTime())
}

func (b *HistoryTreeBackend) DoQuery(stateInfo []*StateInterval, t int64) error {
	if err := b.checkQuery(t); err != nil {
		return err
	}
	return b.tree.Visit(t, func(node *history_tree.Node) bool {
		node.WriteInfo(t, func(interval StateInterval) {
			if quark := interval.Quark(); quark >= 0 && quark < len(stateInfo) {
				stateInfo[quark] = &interval
			}
		})
		return true
	})
}

func (b *HistoryTreeBackend) DoSingularQuery(t int64, quark int) (StateInterval, error) {
	if err := b.checkQuery(t); err != nil {
		return StateInterval{}, err
	}

	var (
		found StateInterval
		ok    bool
	)
	err := b.tree.Visit(t, func(node *history_tree.Node) bool {
		found, ok = node.RelevantInterval(t, quark)
		return !ok
	})
	if err != nil {
		return StateInterval{}, err
	}
	if !ok {
		return StateInterval{}, attributeNotFound(b.ssid, quark, t)
	}
	return found, nil
}

func (b *HistoryTreeBackend) DoPartialQuery(t int64, quarks QuarkSet, results map[int]StateInterval) error {
	if err := b.checkQuery(t); err != nil {
		return err
	}
	if len(quarks) == 0 {
		return nil
	}

	remaining := len(quarks)
	return b.tree.Visit(t, func(node *history_tree.Node) bool {
		node.WriteInfo(t, func(interval StateInterval) {
			if quarks.Contains(interval.Quark()) {
				results[interval.Quark()] = interval
				remaining--
			}
		})
		return remaining > 0
	})
}
