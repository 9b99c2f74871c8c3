package loggers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// slowQuery is the duration after which a statement is logged at warn.
const slowQuery = 200 * time.Millisecond

type gormSlogger struct {
	logger *slog.Logger
}

func (s *gormSlogger) LogMode(logLevel gormLogger.LogLevel) gormLogger.Interface {
	return s
}

func (s *gormSlogger) Info(ctx context.Context, format string, args ...interface{}) {
	s.logger.InfoContext(ctx, fmt.Sprintf(format, args...))
}

func (s *gormSlogger) Warn(ctx context.Context, format string, args ...interface{}) {
	s.logger.WarnContext(ctx, fmt.Sprintf(format, args...))
}

func (s *gormSlogger) Error(ctx context.Context, format string, args ...interface{}) {
	s.logger.ErrorContext(ctx, fmt.Sprintf(format, args...))
}

func (s *gormSlogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	// ignore any record not found errors
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil:
		sql, rows := fc()
		s.logger.DebugContext(ctx, "gorm trace", "sql", sql, "rows", rows, "elapsed", elapsed, "err", err)
	case elapsed > slowQuery:
		sql, rows := fc()
		s.logger.WarnContext(ctx, "gorm slow query", "sql", sql, "rows", rows, "elapsed", elapsed)
	}
}

// NewGormSlogger routes GORM's logging to logger.
func NewGormSlogger(logger *slog.Logger) gormLogger.Interface {
	s := gormSlogger{
		logger: logger,
	}

	return &s
}
