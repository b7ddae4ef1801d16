// Package logging builds the zap logger shared by the command line tool and
// server
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds the logger settings
type Config struct {
	// Level is the minimum level logged, eg: debug, info, warn, error
	Level string `mapstructure:"level"`
	// File, if set, also writes JSON logs to this file with rotation
	File string `mapstructure:"file"`
	// MaxSizeMB is the size a log file reaches before it is rotated
	MaxSizeMB int `mapstructure:"maxsize"`
	// MaxBackups is the number of rotated files kept
	MaxBackups int `mapstructure:"maxbackups"`
	// MaxAgeDays is the number of days rotated files are kept
	MaxAgeDays int `mapstructure:"maxage"`
}

// New returns a logger writing human readable output to stderr and, when a
// file is configured, JSON output to a rotated log file
func New(cfg Config) (*zap.Logger, error) {

	level := zapcore.InfoLevel

	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}

	console := zap.NewDevelopmentEncoderConfig()
	console.EncodeLevel = zapcore.CapitalColorLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(console), zapcore.Lock(os.Stderr), level),
	}

	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}

		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(rotator),
			level,
		))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}
