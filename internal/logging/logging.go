// Package logging builds the zap logger used across tacticscoach.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/diogo/tacticscoach/internal/config"
)

// Options controls where and how much is logged
type Options struct {
	Enabled bool
	Level   string
	// Path is the log file. stderr is never used since it would corrupt the TUI.
	Path string
}

// OptionsFromConfig maps the user configuration onto Options. verbose forces debug level.
func OptionsFromConfig(cfg config.Config, verbose bool) (Options, error) {
	path, err := config.GetLogPath()
	if err != nil {
		return Options{}, err
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}

	return Options{
		Enabled: cfg.LogEnabled,
		Level:   level,
		Path:    path,
	}, nil
}

// New builds a JSON file logger, or a no-op logger when logging is disabled.
func New(opts Options) (*zap.Logger, error) {
	if !opts.Enabled || opts.Path == "" {
		return zap.NewNop(), nil
	}

	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{opts.Path}
	zcfg.ErrorOutputPaths = []string{opts.Path}
	zcfg.EncoderConfig.TimeKey = "time"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.Sampling = nil

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return logger.Named("coach"), nil
}
