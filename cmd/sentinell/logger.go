package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func loggerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Sources: cli.EnvVars("LOG_LEVEL"),
			Usage:   "Log level (debug, info, warn, error)",
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Sources: cli.EnvVars("LOG_FORMAT"),
			Usage:   "Log format (text, json)",
		},
	}
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, goerr.Wrap(err, "invalid log level", goerr.V("level", level))
	}

	opts := &slog.HandlerOptions{Level: lv}
	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, goerr.New("invalid log format", goerr.V("format", format))
	}
}

// setupLogger writes logs to stderr so that stdout stays free for reports and the MCP protocol.
func setupLogger(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	logger, err := newLogger(os.Stderr, cmd.String("log-level"), cmd.String("log-format"))
	if err != nil {
		return ctx, err
	}
	slog.SetDefault(logger)
	return ctxlog.With(ctx, logger), nil
}
