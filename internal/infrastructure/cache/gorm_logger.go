package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	glogger "gorm.io/gorm/logger"

	"github.com/pantry/backend/internal/pkg/logger"
)

// gormLogger routes GORM output of the offline cache through zap. Every
// line carries the cache table and, when the query ran on behalf of an
// HTTP request, its request id.
type gormLogger struct {
	logger        *zap.Logger
	level         glogger.LogLevel
	slowThreshold time.Duration
	table         string
}

// NewGormLogger returns a GORM logger at warn level that reports slow statements
func NewGormLogger(log *zap.Logger, slowThreshold time.Duration) glogger.Interface {
	if log == nil {
		log = zap.NewNop()
	}
	return &gormLogger{
		logger:        log.With(zap.String("component", "gorm")),
		level:         glogger.Warn,
		slowThreshold: slowThreshold,
	}
}

// LogMode sets the log level and returns a new logger
func (g *gormLogger) LogMode(level glogger.LogLevel) glogger.Interface {
	clone := *g
	clone.level = level
	return &clone
}

// forTable returns a copy that tags every line with table
func (g *gormLogger) forTable(table string) *gormLogger {
	clone := *g
	clone.table = table
	return &clone
}

func (g *gormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if g.level >= glogger.Info {
		g.logger.Info(fmt.Sprintf(msg, data...), g.scope(ctx)...)
	}
}

func (g *gormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if g.level >= glogger.Warn {
		g.logger.Warn(fmt.Sprintf(msg, data...), g.scope(ctx)...)
	}
}

func (g *gormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if g.level >= glogger.Error {
		g.logger.Error(fmt.Sprintf(msg, data...), g.scope(ctx)...)
	}
}

// Trace logs cache statements. Misses are normal traffic and only show up
// at info level.
func (g *gormLogger) Trace(
	ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error,
) {
	if g.level <= glogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	fields := append(g.scope(ctx),
		zap.String("op", statementKind(sql)),
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	)

	miss := errors.Is(err, glogger.ErrRecordNotFound)
	switch {
	case err != nil && !miss && g.level >= glogger.Error:
		g.logger.Error("cache query failed", append(fields, zap.Error(err))...)
	case elapsed > g.slowThreshold && g.slowThreshold != 0 && g.level >= glogger.Warn:
		g.logger.Warn("slow cache query", append(fields, zap.Duration("threshold", g.slowThreshold))...)
	case g.level >= glogger.Info:
		g.logger.Debug("cache query", append(fields, zap.Bool("miss", miss))...)
	}
}

func (g *gormLogger) scope(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 6)
	if g.table != "" {
		fields = append(fields, zap.String("table", g.table))
	}
	if id := logger.RequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	return fields
}

// statementKind is the lowercased leading SQL verb, e.g. "select"
func statementKind(sql string) string {
	verb, _, _ := strings.Cut(strings.TrimSpace(sql), " ")
	return strings.ToLower(verb)
}
