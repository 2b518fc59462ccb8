package logger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// slowQuery is the elapsed time above which a statement is logged as a warning.
const slowQuery = 200 * time.Millisecond

// GormZapLogger routes GORM's statement log into zap.
type GormZapLogger struct {
	log      *zap.Logger
	LogLevel logger.LogLevel
}

// NewGormZapLogger creates a new GormZapLogger at the given level.
func NewGormZapLogger(zapLogger *zap.Logger, level logger.LogLevel) *GormZapLogger {
	return &GormZapLogger{
		log:      zapLogger.Named("gorm").WithOptions(zap.AddCallerSkip(3)),
		LogLevel: level,
	}
}

// LogMode sets the log level.
func (l *GormZapLogger) LogMode(level logger.LogLevel) logger.Interface {
	newLogger := *l
	newLogger.LogLevel = level
	return &newLogger
}

func (l *GormZapLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= logger.Info {
		l.log.Sugar().Infof(msg, data...)
	}
}

func (l *GormZapLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= logger.Warn {
		l.log.Sugar().Warnf(msg, data...)
	}
}

func (l *GormZapLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= logger.Error {
		l.log.Sugar().Errorf(msg, data...)
	}
}

// Trace logs each statement with its timing. Observation inserts are batched,
// so the SQL text is truncated to keep log lines readable.
func (l *GormZapLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.LogLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", truncate(sql, 512)),
	}

	switch {
	// "record not found" is a normal lookup miss for GET /api/runs/:id
	case err != nil && l.LogLevel >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		l.log.Error("GORM Trace", append(fields, zap.Error(err))...)
	case elapsed > slowQuery && l.LogLevel >= logger.Warn:
		l.log.Warn("GORM Trace [SLOW]", fields...)
	case l.LogLevel >= logger.Info:
		l.log.Debug("GORM Trace", fields...)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
