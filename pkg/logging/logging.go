package logging

import (
	"encoding/json"

	"github.com/Gobusters/ectologger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the service logger. Structured messages flow through ectologger
// and are emitted as single JSON lines by a zap production core, or as
// console lines when pretty is set. The returned flush func should be
// deferred in main.
func New(level string, pretty bool) (ectologger.Logger, func() error, error) {
	cfg := zap.NewProductionConfig()
	if pretty {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zlogger, err := cfg.Build(zap.WithCaller(false))
	if err != nil {
		return nil, nil, err
	}

	sink := func(msg ectologger.EctoLogMessage) {
		payload, merr := json.Marshal(msg)
		if merr != nil {
			zlogger.Error("failed to encode log entry", zap.Error(merr))
			return
		}
		zlogger.Info("entry", zap.Any("entry", json.RawMessage(payload)))
	}

	return ectologger.NewEctoLogger(sink), zlogger.Sync, nil
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func parseLevel(level string) zapcore.Level {
	switch level {
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
