package repository

import (
	"HistoryDB/internal/domain"
	"HistoryDB/internal/platform/config"
	"HistoryDB/internal/platform/repository/history_tree"
	"fmt"
	"log/slog"
)

func CreateNullBackend(ssid string) *NullBackend {
	return NewNullBackend(ssid)
}

func CreateInMemoryBackend(ssid string, startTime int64) *InMemoryBackend {
	return NewInMemoryBackend(ssid, startTime, nil)
}

// CreateHistoryTreeBackendNewFile builds a new history file with the default
// block size and fan-out.
func CreateHistoryTreeBackendNewFile(ssid, file string, providerVersion int, startTime int64) (*HistoryTreeBackend, error) {
	return NewHistoryTreeBackend(ssid, history_tree.Config{
		Path:            file,
		BlockSize:       history_tree.DefaultBlockSize,
		MaxChildren:     history_tree.DefaultMaxChildren,
		ProviderVersion: providerVersion,
		StartTime:       startTime,
	}, nil)
}

func CreateHistoryTreeBackendExistingFile(ssid, file string, providerVersion int) (*HistoryTreeBackend, error) {
	return OpenHistoryTreeBackend(ssid, file, providerVersion, nil)
}

// NewBackend picks the backend named by the configuration.
func NewBackend(cfg config.Config, logger *slog.Logger) (domain.StateHistoryBackend, error) {
	switch cfg.BackendType {
	case config.NullBackend:
		return NewNullBackend(cfg.StoreId), nil
	case config.InMemoryBackend:
		return NewInMemoryBackend(cfg.StoreId, cfg.StartTime, logger), nil
	case config.HistoryTreeBackend:
		var (
			backend *HistoryTreeBackend
			err     error
		)
		if cfg.ReopenExisting {
			backend, err = OpenHistoryTreeBackend(cfg.StoreId, cfg.HistoryFile, cfg.ProviderVersion, logger)
		} else {
			backend, err = NewHistoryTreeBackend(cfg.StoreId, history_tree.Config{
				Path:            cfg.HistoryFile,
				BlockSize:       cfg.BlockSize,
				MaxChildren:     cfg.MaxChildren,
				ProviderVersion: cfg.ProviderVersion,
				StartTime:       cfg.StartTime,
			}, logger)
		}
		if err != nil {
			return nil, err
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unknown backend type %q", cfg.BackendType)
	}
}
