package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger returns a slog.Logger backed by a zap core writing to w at Info
// level. format is "console" or "json". The returned func flushes the core.
func newLogger(w io.Writer, format string) (*slog.Logger, func() error, error) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch format {
	case "console":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	default:
		return nil, nil, fmt.Errorf("unknown log format %q (want console or json)", format)
	}

	zl := zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), zap.InfoLevel))
	return slog.New(logr.ToSlogHandler(zapr.NewLogger(zl))), zl.Sync, nil
}
