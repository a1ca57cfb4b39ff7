package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultLogFile = "hackup.log"

	rotateMaxSizeMB  = 100
	rotateMaxBackups = 5
	rotateMaxAgeDays = 7
)

// Log is the process-wide logger. It discards everything until Initialize runs,
// so packages and tests can log unconditionally.
var Log = zap.NewNop()

// Initialize installs a logger that writes human-readable lines to stdout and
// JSON lines to a rotated file. Empty arguments fall back to "info" and hackup.log.
func Initialize(logLevel string, logFile string) error {
	if logFile == "" {
		logFile = defaultLogFile
	}
	level := ParseLevel(logLevel)

	Log = zap.New(
		zapcore.NewTee(consoleCore(level), fileCore(logFile, level)),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)

	Log.Info("Logger initialized",
		zap.Stringer("level", level),
		zap.String("file", logFile),
	)
	return nil
}

func consoleCore(level zapcore.Level) zapcore.Core {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.Lock(os.Stdout), level)
}

func fileCore(path string, level zapcore.Level) zapcore.Core {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder

	rotated := zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    rotateMaxSizeMB,
		MaxBackups: rotateMaxBackups,
		MaxAge:     rotateMaxAgeDays,
		Compress:   true,
	})
	return zapcore.NewCore(zapcore.NewJSONEncoder(cfg), rotated, level)
}

// Close flushes buffered entries
func Close() error {
	return Log.Sync()
}

// ParseLevel maps debug/info/warn/error (any case) to a zap level, defaulting to info
func ParseLevel(levelStr string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
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

// WarnWithFields logs msg at warn, attaching err when present
func WarnWithFields(msg string, err error) {
	Log.Warn(msg, errorFields(err)...)
}

// ErrorWithFields logs msg at error, attaching err when present
func ErrorWithFields(msg string, err error) {
	Log.Error(msg, errorFields(err)...)
}

func errorFields(err error) []zap.Field {
	if err == nil {
		return nil
	}
	return []zap.Field{zap.Error(err)}
}

func WithRequestID(requestID string) zap.Field { return zap.String("request_id", requestID) }
func WithUserID(userID string) zap.Field       { return zap.String("user_id", userID) }
func WithPostID(postID string) zap.Field       { return zap.String("post_id", postID) }
func WithCommentID(commentID string) zap.Field { return zap.String("comment_id", commentID) }
func WithIP(ip string) zap.Field               { return zap.String("ip", ip) }
func WithStatus(status int) zap.Field          { return zap.Int("status", status) }

// WithKarma tags a log line with a user's karma score
func WithKarma(score int64) zap.Field { return zap.Int64("karma", score) }
