package logger

import (
	"errors"
	"os"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	levelEnv = "TASKIMPORT_LOGGER_LEVEL"
	debugEnv = "TASKIMPORT_DEBUG"
)

var Logger = getLogger()

func getLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(getCurrentLogLevel())
	newLogger, _ := config.Build(
		zap.AddStacktrace(zap.ErrorLevel),
		zap.AddCallerSkip(1),
	)

	return newLogger
}

func getCurrentLogLevel() zapcore.Level {
	logLevel, _ := os.LookupEnv(levelEnv)
	var level zapcore.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = zap.DebugLevel
	case "info":
		level = zap.InfoLevel
	case "warning":
		level = zap.WarnLevel
	case "error":
		level = zap.ErrorLevel
	case "dpanic":
		level = zap.DPanicLevel
	case "panic":
		level = zap.PanicLevel
	case "fatal":
		level = zap.FatalLevel
	default:
		level = zap.InfoLevel
	}

	return level
}

// Named 返回带命名空间的子 logger (不带 caller skip，直接给业务代码用)
func Named(name string) *zap.Logger {
	return Logger.WithOptions(zap.AddCallerSkip(-1)).Named(name)
}

// Trace 返回一个命名空间调试通道
// 只有 TASKIMPORT_DEBUG 命中该命名空间时才会输出，否则是 no-op
// TASKIMPORT_DEBUG 支持逗号分隔，"*" 匹配全部，"task*" 按前缀匹配
func Trace(namespace string) *zap.Logger {
	if !TraceEnabled(namespace) {
		return zap.NewNop()
	}

	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	config.DisableStacktrace = true
	l, err := config.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l.Named(namespace)
}

// TraceEnabled 判断命名空间是否被 TASKIMPORT_DEBUG 打开
func TraceEnabled(namespace string) bool {
	raw, ok := os.LookupEnv(debugEnv)
	if !ok {
		return false
	}
	for _, pattern := range strings.Split(raw, ",") {
		pattern = strings.TrimSpace(pattern)
		switch {
		case pattern == "":
			continue
		case pattern == "*" || pattern == namespace:
			return true
		case strings.HasSuffix(pattern, "*") && strings.HasPrefix(namespace, strings.TrimSuffix(pattern, "*")):
			return true
		}
	}
	return false
}

func Error(msg string, fields ...zap.Field) {
	Logger.Error(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	Logger.Warn(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	Logger.Info(msg, fields...)
}

func Debug(msg string, fields ...zap.Field) {
	Logger.Debug(msg, fields...)
}

func Panic(msg string, fields ...zap.Field) {
	Logger.Panic(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	Logger.Fatal(msg, fields...)
}

func Sync() {
	err := Logger.Sync()
	if err != nil && !errors.Is(err, syscall.ENOTTY) && err.Error() != "sync /dev/stderr: invalid argument" {
		Logger.Error("zLog Sync", zap.Any("err", err))
		return
	}
}
