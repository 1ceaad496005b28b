package record

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a zap logger for the given level name. "debug" uses the
// development config; any other level uses the production config at that level.
// An empty level or "silent" returns a no-op logger.
func NewLogger(level string) (*zap.Logger, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	switch level {
	case "", "silent", "off":
		return zap.NewNop(), nil
	case "debug":
		return zap.NewDevelopmentConfig().Build()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, NewErrorWithCause(ErrorTypeInvalidArgument, "invalid log level "+level, err)
	}
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	return config.Build()
}
