// Package logging builds the zap logger shared by every component.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/prabalesh/netoverlay/internal/config"
)

// New builds a JSON logger. The terminal overlay owns stdout and stderr, so
// in tui mode logs go to the configured file or nowhere.
func New(cfg config.LoggingConfig, mode string) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}

	output := cfg.File
	if output == "" {
		if mode == config.ModeTUI {
			return zap.NewNop(), nil
		}
		output = "stderr"
	}

	zc := zap.NewProductionConfig()
	zc.Level = level
	zc.Sampling = nil
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.OutputPaths = []string{output}
	zc.ErrorOutputPaths = []string{output}

	log, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return log.Named("netoverlay"), nil
}
