// Package logging builds the zap logger shared by the CLI and pipeline.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/linuxmatters/emberwave/internal/config"
)

// Options describes logger construction parameters
type Options struct {
	Level  string // debug, info, warn, error
	Format string // console or json
	Path   string // Log file; empty discards output
}

// New constructs a zap logger. With no Path the logger discards everything,
// since stdout and stderr belong to the terminal UI.
func New(opts Options) (*zap.Logger, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeDuration = zapcore.StringDurationEncoder

	var enc zapcore.Encoder
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "console":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	default:
		return nil, fmt.Errorf("%w: log format %q (supported: console, json)", config.ErrInvalidConfiguration, opts.Format)
	}

	path := strings.TrimSpace(opts.Path)
	if path == "" {
		return zap.NewNop(), nil
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}

	opt := []zap.Option{zap.ErrorOutput(zapcore.Lock(file))}
	if level <= zapcore.DebugLevel {
		opt = append(opt, zap.AddCaller())
	}
	core := zapcore.NewCore(enc, zapcore.Lock(file), level)
	return zap.New(core, opt...), nil
}

// NewFromConfig builds a logger from the [logging] config section
func NewFromConfig(cfg config.LoggingConfig) (*zap.Logger, error) {
	return New(Options{Level: cfg.Level, Format: cfg.Format, Path: cfg.Path})
}

func parseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("%w: log level %q", config.ErrInvalidConfiguration, level)
	}
}
