package miner

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var atom = zap.NewAtomicLevel()

func selectZapLevel(loglevel string) zapcore.Level {
	var level zapcore.Level
	switch loglevel {
	case "debug":
		level = zap.DebugLevel
	case "info":
		level = zap.InfoLevel
	case "warn":
		level = zap.WarnLevel
	case "error":
		level = zap.ErrorLevel
	default:
		level = zap.InfoLevel
	}
	return level
}

// SetLogLevel switches the level of every logger built by NewLogger.
func SetLogLevel(loglevel string) {
	atom.SetLevel(selectZapLevel(loglevel))
}

// NewLogger builds the JSON logger. An empty path logs to stdout; the terminal
// panel passes a file so its screen stays clean.
func NewLogger(loglevel, path string) (*zap.Logger, error) {
	sink := zapcore.Lock(os.Stdout)
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		sink = zapcore.Lock(f)
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	logger := zap.New(zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		sink,
		atom,
	))
	SetLogLevel(loglevel)
	return logger, nil
}
