// Package logger builds the process-wide slog logger.
//
// Local runs get a coloured, human readable handler. Other environments log JSON to
// stdout, and additionally to a size-rotated file when LOG_FILE is set.
package logger

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"perfhub/internal/platform/config"
)

const (
	fileMaxSizeMB  = 50
	fileMaxBackups = 5
	fileMaxAgeDays = 28
)

// Setup builds a logger for cfg and installs it as the slog default.
func Setup(cfg config.Config) *slog.Logger {
	log := New(cfg, os.Stdout)
	slog.SetDefault(log)
	return log
}

func New(cfg config.Config, stdout io.Writer) *slog.Logger {
	var out io.Writer = stdout
	if cfg.LogFile != "" {
		out = io.MultiWriter(stdout, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    fileMaxSizeMB,
			MaxBackups: fileMaxBackups,
			MaxAge:     fileMaxAgeDays,
			Compress:   true,
		})
	}

	switch cfg.Environment {
	case config.EnvLocal:
		return slog.New(NewPrettyHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case config.EnvProduction:
		return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
