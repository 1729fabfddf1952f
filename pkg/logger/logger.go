// Package logger wires zap to stdout and a rotating log file. Components
// either use the package-level helpers or take a *zap.Logger from
// GetLogger and tag it with Named/With.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/metric-agent/pkg/config"
)

var (
	baseLogger        *zap.Logger
	loggerInitOnce    sync.Once
	loggerInitialized bool
)

// Init builds the process logger. Safe to call more than once; only the
// first call takes effect.
func Init(cfg config.ZapLogConfig) error {
	var err error
	loggerInitOnce.Do(func() {
		level := zapcore.InfoLevel
		switch strings.ToLower(cfg.Level) {
		case "debug":
			level = zapcore.DebugLevel
		case "info":
			level = zapcore.InfoLevel
		case "warn":
			level = zapcore.WarnLevel
		case "error":
			level = zapcore.ErrorLevel
		case "panic":
			level = zapcore.PanicLevel
		case "fatal":
			level = zapcore.FatalLevel
		}

		if err = os.MkdirAll(cfg.Path, 0o755); err != nil {
			return
		}

		writer, wErr := rotatelogs.New(
			filepath.Join(cfg.Path, "agent-%Y%m%d.log"),
			rotatelogs.WithMaxAge(time.Duration(cfg.MaxAge)*24*time.Hour),
			rotatelogs.WithRotationTime(24*time.Hour),
			rotatelogs.WithRotationSize(int64(cfg.MaxSize)*1024*1024),
		)
		if wErr != nil {
			err = wErr
			return
		}

		jsonCfg := zap.NewProductionEncoderConfig()
		jsonCfg.TimeKey = "timestamp"
		jsonCfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.Format("2006-01-02 15:04:05.000 -07:00"))
		}
		jsonCfg.EncodeLevel = zapcore.LowercaseLevelEncoder
		jsonEncoder := zapcore.NewJSONEncoder(jsonCfg)

		var stdoutEncoder zapcore.Encoder
		if cfg.Format == "console" {
			consoleCfg := zap.NewDevelopmentEncoderConfig()
			consoleCfg.ConsoleSeparator = " "
			consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
			consoleCfg.EncodeTime = jsonCfg.EncodeTime
			consoleCfg.EncodeCaller = func(c zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
				rel := filepath.Join(filepath.Base(filepath.Dir(c.File)), filepath.Base(c.File))
				enc.AppendString(fmt.Sprintf("%s:%d", rel, c.Line))
			}
			stdoutEncoder = zapcore.NewConsoleEncoder(consoleCfg)
		} else {
			stdoutEncoder = jsonEncoder
		}

		core := zapcore.NewTee(
			zapcore.NewCore(stdoutEncoder, zapcore.AddSync(os.Stdout), level),
			zapcore.NewCore(jsonEncoder, zapcore.AddSync(writer), level),
		)

		baseLogger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))
		loggerInitialized = true
	})
	return err
}

// InitNop installs a no-op logger, for tests.
func InitNop() {
	loggerInitOnce.Do(func() {
		baseLogger = zap.NewNop()
		loggerInitialized = true
	})
}

func Debug(msg string, fields ...zapcore.Field) { mustLogger().Debug(msg, fields...) }
func Info(msg string, fields ...zapcore.Field)  { mustLogger().Info(msg, fields...) }
func Warn(msg string, fields ...zapcore.Field)  { mustLogger().Warn(msg, fields...) }
func Error(msg string, fields ...zapcore.Field) { mustLogger().Error(msg, fields...) }
func Fatal(msg string, fields ...zapcore.Field) { mustLogger().Fatal(msg, fields...) }

func mustLogger() *zap.Logger {
	if !loggerInitialized {
		panic("logger not initialized: call logger.Init() first")
	}
	return baseLogger
}

// Sync flushes buffered log entries.
func Sync() error {
	if !loggerInitialized {
		return nil
	}
	return baseLogger.Sync()
}

// GetLogger returns the process logger without the helper caller skip,
// for injection into components.
func GetLogger() *zap.Logger {
	if !loggerInitialized {
		panic("logger not initialized: call logger.Init() first")
	}
	return baseLogger.WithOptions(zap.AddCallerSkip(-1))
}
