package config

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const (
	NullBackend        = "null"
	InMemoryBackend    = "in_memory"
	HistoryTreeBackend = "history_tree"
)

const (
	defaultServerPort     = 3000
	defaultZmqApiEndpoint = "tcp://*:7100"
	defaultBlockSize      = 64 * 1024
	defaultMaxChildren    = 50
)

var portCmd = flag.Int("port", 0, "HTTP server port")

type Config struct {
	ServerPort     int
	ZmqApiEndpoint string
	StoreId        string
	BackendType    string

	// history tree only
	HistoryFile     string
	ProviderVersion int
	StartTime       int64
	ReopenExisting  bool
	BlockSize       int
	MaxChildren     int

	LogLevel slog.Level
}

func LoadConfig() Config {
	godotenv.Load(".env")
	if !flag.Parsed() {
		flag.Parse()
	}

	storeId := os.Getenv("STORE_ID")
	if storeId == "" {
		storeId = uuid.NewString()
	}
	historyFile := os.Getenv("HISTORY_FILE")
	if historyFile == "" {
		historyFile = filepath.Join(os.TempDir(), storeId+".ht")
	}

	port := *portCmd
	if port == 0 {
		port = envInt("HTTP_SERVER_PORT", defaultServerPort)
	}

	return Config{
		ServerPort:      port,
		ZmqApiEndpoint:  envString("ZMQ_API_ENDPOINT", defaultZmqApiEndpoint),
		StoreId:         storeId,
		BackendType:     backendType(os.Getenv("BACKEND_TYPE")),
		HistoryFile:     historyFile,
		ProviderVersion: envInt("PROVIDER_VERSION", 0),
		StartTime:       envInt64("START_TIME", 0),
		ReopenExisting:  envBool("REOPEN_EXISTING", false),
		BlockSize:       envInt("BLOCK_SIZE", defaultBlockSize),
		MaxChildren:     envInt("MAX_CHILDREN", defaultMaxChildren),
		LogLevel:        logLevel(os.Getenv("LOG_LEVEL")),
	}
}

func envString(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envInt(name string, fallback int) int {
	return int(envInt64(name, int64(fallback)))
}

func envInt64(name string, fallback int64) int64 {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		slog.Warn("invalid numeric setting, using default", "name", name, "value", raw, "default", fallback)
		return fallback
	}
	return v
}

func envBool(name string, fallback bool) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Warn("invalid boolean setting, using default", "name", name, "value", raw, "default", fallback)
		return fallback
	}
	return v
}

func backendType(raw string) string {
	switch t := strings.ToLower(raw); t {
	case NullBackend, InMemoryBackend, HistoryTreeBackend:
		return t
	case "":
		return InMemoryBackend
	default:
		slog.Warn("unknown backend type, using in-memory backend", "value", raw)
		return InMemoryBackend
	}
}

func logLevel(raw string) slog.Level {
	var level slog.Level
	if raw == "" {
		return slog.LevelInfo
	}
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		slog.Warn("unknown log level, using info", "value", raw)
		return slog.LevelInfo
	}
	return level
}
