// Package logger builds the zap logger used across the application.
//
// Logs go to stderr by default so stdout only carries the API response.
package logger

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the encoder and level.
type Config struct {
	// Env is "prod" for JSON output; anything else gets the colored console encoder.
	Env string
	// Level is debug, info, warn or error. Defaults to info.
	Level string
	// Output receives the log lines. Defaults to os.Stderr.
	Output io.Writer
}

// New builds a logger for cfg.
func New(cfg Config) *zap.Logger {
	var zcfg zap.Config
	if strings.EqualFold(strings.TrimSpace(cfg.Env), "prod") {
		zcfg = zap.NewProductionConfig()
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zcfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		zcfg.DisableStacktrace = true
	}
	zcfg.Level = zap.NewAtomicLevelAt(ParseLevel(cfg.Level))
	zcfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	sink := zapcore.Lock(zapcore.AddSync(out))

	var enc zapcore.Encoder
	if zcfg.Encoding == "json" {
		enc = zapcore.NewJSONEncoder(zcfg.EncoderConfig)
	} else {
		enc = zapcore.NewConsoleEncoder(zcfg.EncoderConfig)
	}

	return zap.New(zapcore.NewCore(enc, sink, zcfg.Level), zap.AddCaller(), zap.ErrorOutput(sink))
}

// ParseLevel converts a level name to a zapcore.Level, defaulting to info.
func ParseLevel(lvl string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
