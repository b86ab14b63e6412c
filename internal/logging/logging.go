// Package logging configures the console's own operational logger — the
// log stream fleetdeck emits about itself, distinct from the monitored
// services' logs that the engine package reads.
package logging

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type contextKey string

const loggerKey = contextKey("logging.logger")

// Config controls where and how fleetdeck writes its own logs.
type Config struct {
	Level      string `yaml:"level"`
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	Compress   bool   `yaml:"compress"`
}

var global *zap.SugaredLogger

// Init sets up the global logger. With an empty Path it logs to stdout;
// otherwise it rotates through lumberjack.
func Init(cfg Config) *zap.SugaredLogger {
	writeSyncer := zapcore.AddSync(os.Stdout)

	if cfg.Path != "" {
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				global = zap.NewExample().Sugar()
				global.Warnf("could not create log directory %s: %v", dir, err)
				return global
			}
		}
		rotator := &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		writeSyncer = zapcore.AddSync(rotator)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewConsoleEncoder(encoderConfig)

	level := parseLevel(cfg.Level)

	core := zapcore.NewCore(encoder, writeSyncer, level)
	global = zap.New(core, zap.AddCaller()).Sugar()
	return global
}

// Sync flushes buffered entries; call before process exit.
func Sync() error {
	if global != nil {
		return global.Sync()
	}
	return nil
}

// Get returns the context's logger if present, else the global logger,
// falling back to a development logger if Init was never called.
func Get(ctx context.Context) *zap.SugaredLogger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*zap.SugaredLogger); ok {
			return l
		}
	}
	if global == nil {
		l, err := zap.NewDevelopment()
		if err != nil {
			return zap.NewExample().Sugar()
		}
		return l.Sugar()
	}
	return global
}

// WithContext attaches logger to ctx for downstream Get calls.
func WithContext(ctx context.Context, logger *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

func parseLevel(s string) zapcore.Level {
	switch s {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
