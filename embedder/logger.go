package embedder

import (
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/flutter-host/channel"
	"github.com/wippyai/flutter-host/engine"
	"github.com/wippyai/flutter-host/errors"
	"github.com/wippyai/flutter-host/plugin"
	"github.com/wippyai/flutter-host/taskrunner"
)

var (
	logger atomic.Pointer[zap.Logger]
	nop    = zap.NewNop()
)

// Logger returns the embedder's logger. It is a no-op logger until
// SetLogger is called.
func Logger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return nop
}

// SetLogger installs l as the logger of every host package, each under
// its own name. Call it before New so start-up is logged.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger.Store(l)
	engine.SetLogger(l.Named("engine"))
	channel.SetLogger(l.Named("channel"))
	plugin.SetLogger(l.Named("plugin"))
	taskrunner.SetLogger(l.Named("taskrunner"))
}

// NewLogger builds a zap logger from cfg.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, errors.Config("log level", err)
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	l, err := zc.Build()
	if err != nil {
		return nil, errors.Config("build logger", err)
	}
	return l, nil
}
