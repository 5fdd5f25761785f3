// Package internal holds helpers shared by package tests.
package internal

import (
	"io"
	"log/slog"
	"os"
)

var testLogger *slog.Logger

func init() {
	testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	if os.Getenv("SENTINELL_TEST_LOG") == "1" {
		testLogger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
}

// TestLogger returns a logger that discards output unless SENTINELL_TEST_LOG=1.
func TestLogger() *slog.Logger {
	return testLogger
}
