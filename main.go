package main

import (
	"HistoryDB/bootstrap"
	"log/slog"
	"os"
)

func main() {
	if _, err := bootstrap.Run(); err != nil {
		slog.Error("history service failed", "error", err)
		os.Exit(1)
	}
}
