// =============================================================================
// FTZ to GEDCOM Converter - Logging
// =============================================================================
//
// This module builds the application logger on top of zap.
//
// OUTPUTS:
//   - stderr : messages at or above the configured level, level prefix
//   - file   : every message with timestamp, when a log file is configured
//
// Packages that log depend on a printf-style interface (see
// converter.Logger) which *zap.SugaredLogger satisfies.
//
// =============================================================================

package logging

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a sugared logger writing to stderr and, if logFile is not nil,
// to logFile.
//
// PARAMETERS:
//   - level: "debug", "info", "warn" or "error".
//   - stderr: Console destination.
//   - logFile: Optional file destination. Receives all levels.
//
// RETURNS:
//   - The logger, or an error for an unknown level.
func New(level string, stderr io.Writer, logFile io.Writer) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cores := []zapcore.Core{consoleCore(stderr, lvl)}
	if logFile != nil {
		cores = append(cores, fileCore(logFile))
	}

	return zap.New(zapcore.NewTee(cores...)).Sugar(), nil
}

// Nop returns a logger that discards everything.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func consoleCore(w io.Writer, lvl zapcore.Level) zapcore.Core {
	encoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		LevelKey:         "level",
		MessageKey:       "msg",
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		ConsoleSeparator: "\t",
	})
	return zapcore.NewCore(encoder, zapcore.AddSync(w), lvl)
}

func fileCore(w io.Writer) zapcore.Core {
	encoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "ts",
		LevelKey:         "level",
		MessageKey:       "msg",
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		ConsoleSeparator: "\t",
	})
	return zapcore.NewCore(encoder, zapcore.AddSync(w), zapcore.DebugLevel)
}
