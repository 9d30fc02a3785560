// Package logging builds the zap logger used by the anp command.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/born-ml/anp/internal/config"
	"github.com/born-ml/anp/internal/nn"
)

// New returns a logger configured by cfg. Error-level entries go to stderr
// and everything else to stdout.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	return NewWithWriters(cfg, zapcore.Lock(os.Stdout), zapcore.Lock(os.Stderr))
}

// NewWithWriters is New with explicit writers for regular and error output.
func NewWithWriters(cfg config.LogConfig, out, errOut zapcore.WriteSyncer) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("%w: log level: %v", nn.ErrConfiguration, err)
	}

	var encoder zapcore.Encoder
	switch cfg.Format {
	case "json":
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	case "console", "":
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		return nil, fmt.Errorf("%w: unknown log format %q", nn.ErrConfiguration, cfg.Format)
	}

	isErrorLevel := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapcore.ErrorLevel && lvl >= level
	})
	isInfoLevel := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl < zapcore.ErrorLevel && lvl >= level
	})

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, errOut, isErrorLevel),
		zapcore.NewCore(encoder, out, isInfoLevel),
	)
	return zap.New(core, zap.AddCaller()), nil
}
