// Package obslog builds the zap.Logger every bones process shares, following
// the same "nop by default, opt-in otherwise" discipline as the teacher's
// pkg/config.go WithLogger: nothing in the engine logs on a hot path; only
// slow or exceptional events (pack incompatibility, hot-reload failure,
// session errors) are emitted.
package obslog

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap.Logger at the given level ("debug", "info", "warn",
// "error"). An empty level defaults to "info". json selects JSON encoding
// (for production/container logs) over zap's human-readable console
// encoding (for local development).
func New(level string, json bool) (*zap.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	if !json {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// Nop returns a logger that discards everything, the default for tests and
// any component that hasn't opted into logging.
func Nop() *zap.Logger { return zap.NewNop() }

func parseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return 0, fmt.Errorf("obslog: invalid level %q: %w", level, err)
	}
	return lvl, nil
}
