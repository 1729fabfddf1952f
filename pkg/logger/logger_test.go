package logger_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/metric-agent/pkg/config"
	"github.com/metric-agent/pkg/logger"
)

func TestLoggerLevels(t *testing.T) {
	cfg := config.NewDefaultConfig().Log
	cfg.Level = "debug"
	cfg.Format = "console"
	cfg.Path = t.TempDir()

	require.NoError(t, logger.Init(cfg))

	logger.Debug("debug msg")
	logger.Info("info msg", zap.String("module", "test"))
	logger.Warn("warn msg")
	logger.Error("error msg")

	require.NotNil(t, logger.GetLogger())
	_ = logger.Sync()

	// Init is once-only; a second call is a no-op, not an error.
	cfg.Level = "error"
	require.NoError(t, logger.Init(cfg))
}
